package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/entigo/codec"
	"github.com/hupe1980/entigo/report"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Deduplicate a CSV dataset",
	Long: `Run reads a CSV file with a header row, applies the schema, rules and
embedding matcher from the pipeline config, and prints the run summary
with previews of the merged clusters.

With --out, the summary and cluster set are persisted as run artifacts
under the given directory.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		input := v.GetString("input")
		if input == "" {
			return fmt.Errorf("--input is required")
		}

		pipelinePath := v.GetString("pipeline")
		if pipelinePath == "" {
			return fmt.Errorf("--pipeline is required")
		}

		cfg, err := loadPipelineConfig(pipelinePath)
		if err != nil {
			return err
		}

		logger := newLogger()

		p, s, err := cfg.build(logger)
		if err != nil {
			return err
		}

		records, err := readCSV(input, v.GetString("id-column"))
		if err != nil {
			return err
		}

		result, err := p.Run(ctx, records)
		if err != nil {
			return err
		}

		rep := report.New(result, records, s, func(o *report.Options) {
			o.MaxPreviews = v.GetInt("previews")
		})

		printSummary(rep)
		printPreviews(rep)

		if out := v.GetString("out"); out != "" {
			return persistReport(ctx, rep, out, v.GetString("codec"), logger)
		}

		return nil
	},
}

func init() {
	runCmd.Flags().String("input", "", "CSV file with a header row (required)")
	runCmd.Flags().String("pipeline", "", "pipeline config YAML (required)")
	runCmd.Flags().String("id-column", "", "column holding record ids (default: row number)")
	runCmd.Flags().String("out", "", "directory to persist run artifacts to")
	runCmd.Flags().String("codec", codec.Default.Name(), "artifact codec (json or go-json, optionally +zstd or +lz4)")
	runCmd.Flags().Int("previews", report.DefaultMaxPreviews, "merged clusters to preview")

	rootCmd.AddCommand(runCmd)
}
