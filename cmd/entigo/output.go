package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/hupe1980/entigo"
	"github.com/hupe1980/entigo/blobstore"
	"github.com/hupe1980/entigo/codec"
	"github.com/hupe1980/entigo/report"
)

func printSummary(rep *report.Report) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed, color.Bold).SprintFunc()

	s := rep.Summary

	fmt.Printf("\n%s\n\n", cyan("=== entigo run "+s.RunID+" ==="))
	fmt.Printf("  records   %7d\n", s.Records)
	fmt.Printf("  pairs     %7d\n", s.Pairs)
	fmt.Printf("  clusters  %7d\n", s.Clusters)
	fmt.Printf("  merged    %7d\n", s.Merged)
	fmt.Printf("  largest   %7d\n", s.LargestCluster)
	fmt.Printf("  duration  %7s\n", s.Duration.Round(time.Millisecond))

	if s.Partial {
		fmt.Printf("  %s\n", red("partial: the run was cancelled, results cover a subset"))
	}

	fmt.Printf("\n%s\n", yellow("Matchers:"))

	for _, m := range s.Matchers {
		fmt.Printf("  %-24s %6d pairs  %5d skipped  %4d failed  %8s\n",
			m.Name, m.Pairs, m.Skipped, m.Failed, m.Duration.Round(time.Millisecond))
	}
}

func printPreviews(rep *report.Report) {
	if len(rep.Previews) == 0 {
		return
	}

	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Printf("\n%s\n", yellow("Merged clusters:"))

	for _, p := range rep.Previews {
		members := make([]string, len(p.Members))
		for i, id := range p.Members {
			members[i] = string(id)
		}

		fmt.Printf("  %s %s\n", green(p.Label), gray("{"+strings.Join(members, ", ")+"}"))

		for _, d := range p.Diffs {
			fmt.Printf("    %-12s %s\n", d.Column, strings.Join(d.Values, " | "))
		}
	}
}

// persistReport writes the run artifacts to a local store rooted at dir
// and prints where they landed.
func persistReport(ctx context.Context, rep *report.Report, dir, codecName string, logger *entigo.Logger) error {
	c, ok := codec.ByName(codecName)
	if !ok {
		return fmt.Errorf("unknown codec %q", codecName)
	}

	w := report.NewWriter(blobstore.NewLocalStore(dir), func(o *report.WriterOptions) {
		o.Codec = c
		o.Logger = logger
	})

	keys, err := w.Write(ctx, rep)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen).SprintFunc()

	fmt.Printf("\n%s\n", green("Artifacts:"))

	for _, key := range keys {
		fmt.Printf("  %s\n", filepath.Join(dir, filepath.FromSlash(key)))
	}

	return nil
}
