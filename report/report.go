// Package report turns a pipeline result into persistable run artifacts:
// a run summary with per-matcher counters and previews of the merged
// clusters, plus the full cluster set.
//
// Artifacts are encoded through codec and written through blobstore under
// keys of the form "<run-id>/<artifact>.<codec-name>", so a reader can
// resolve the decoder from the key alone.
package report

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/entigo"
	"github.com/hupe1980/entigo/cluster"
	"github.com/hupe1980/entigo/record"
	"github.com/hupe1980/entigo/schema"
)

// DefaultMaxPreviews caps how many merged clusters a report previews.
const DefaultMaxPreviews = 10

// MatcherSummary is one matcher's row in the run summary.
type MatcherSummary struct {
	// Name is the matcher name.
	Name string `json:"name"`

	// Pairs is the number of pairs the matcher emitted.
	Pairs int `json:"pairs"`

	// Skipped counts records the matcher passed over for missing fields.
	Skipped int `json:"skipped"`

	// Failed counts records dropped by embedding or index errors.
	Failed int `json:"failed"`

	// Duration is the matcher's wall-clock time.
	Duration time.Duration `json:"duration_ns"`
}

// Summary is the run-level artifact: input and output counts plus one
// row per matcher.
type Summary struct {
	// RunID identifies the run across artifacts and the run ledger.
	RunID string `json:"run_id"`

	// Records is the number of input records.
	Records int `json:"records"`

	// Pairs is the number of distinct pairs after union.
	Pairs int `json:"pairs"`

	// Clusters is the number of output clusters, singletons included.
	Clusters int `json:"clusters"`

	// Merged is the number of clusters with more than one member.
	Merged int `json:"merged"`

	// LargestCluster is the member count of the biggest cluster.
	LargestCluster int `json:"largest_cluster"`

	// Partial reports that the run was cut short by cancellation.
	Partial bool `json:"partial,omitempty"`

	// Duration is the total run time.
	Duration time.Duration `json:"duration_ns"`

	// Matchers holds per-matcher rows in pipeline order.
	Matchers []MatcherSummary `json:"matchers"`

	// CreatedAt is when the report was built, UTC.
	CreatedAt time.Time `json:"created_at"`
}

// ColumnDiff lists the distinct values one column takes within a cluster.
// Values appear in member order, first occurrence wins.
type ColumnDiff struct {
	Column string   `json:"column"`
	Values []string `json:"values"`
}

// Preview shows one merged cluster: its members and the bound columns
// whose values disagree across them. Columns no schema field binds to
// never appear, so noise columns stay out of the report.
type Preview struct {
	Label   string       `json:"label"`
	Members []record.ID  `json:"members"`
	Diffs   []ColumnDiff `json:"diffs,omitempty"`
}

// Report is the full run report. Summary and Previews form the summary
// artifact; Clusters is persisted separately as the cluster set.
type Report struct {
	Summary  Summary           `json:"summary"`
	Previews []Preview         `json:"previews,omitempty"`
	Clusters []cluster.Cluster `json:"-"`
}

// Options configures report construction.
type Options struct {
	// RunID overrides the generated run id. Useful for replays and tests.
	RunID string

	// MaxPreviews caps the number of previewed clusters.
	MaxPreviews int
}

// New builds a report from a pipeline result. Previews cover the largest
// merged clusters, diffing only columns the schema binds; records and
// sch may be nil, which disables previews.
func New(result *entigo.Result, records *record.Collection, sch *schema.Schema, optFns ...func(o *Options)) *Report {
	opts := Options{
		MaxPreviews: DefaultMaxPreviews,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}

	matchers := make([]MatcherSummary, 0, len(result.Matchers))
	for _, ms := range result.Matchers {
		matchers = append(matchers, MatcherSummary{
			Name:     ms.Name,
			Pairs:    ms.Stats.Pairs,
			Skipped:  ms.Stats.FieldMissing,
			Failed:   ms.Stats.EmbedFailures + ms.Stats.IndexFailures,
			Duration: ms.Duration,
		})
	}

	largest := 0

	for _, c := range result.Clusters {
		if len(c.Members) > largest {
			largest = len(c.Members)
		}
	}

	return &Report{
		Summary: Summary{
			RunID:          opts.RunID,
			Records:        result.Stats.Records,
			Pairs:          result.Stats.Pairs,
			Clusters:       result.Stats.Clusters,
			Merged:         result.Stats.Merged,
			LargestCluster: largest,
			Partial:        result.Stats.Partial,
			Duration:       result.Stats.Duration,
			Matchers:       matchers,
			CreatedAt:      time.Now().UTC(),
		},
		Previews: buildPreviews(result.Clusters, records, sch, opts.MaxPreviews),
		Clusters: result.Clusters,
	}
}

// buildPreviews selects the largest merged clusters and diffs their bound
// columns. Ties break on label so the selection is deterministic.
func buildPreviews(clusters []cluster.Cluster, records *record.Collection, sch *schema.Schema, maxPreviews int) []Preview {
	if records == nil || sch == nil || maxPreviews <= 0 {
		return nil
	}

	merged := make([]cluster.Cluster, 0, len(clusters))

	for _, c := range clusters {
		if len(c.Members) > 1 {
			merged = append(merged, c)
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		if len(merged[i].Members) != len(merged[j].Members) {
			return len(merged[i].Members) > len(merged[j].Members)
		}

		return merged[i].Label < merged[j].Label
	})

	if len(merged) > maxPreviews {
		merged = merged[:maxPreviews]
	}

	columns := make([]string, 0, sch.Len())

	for _, tag := range sch.BoundTags() {
		column, err := sch.Column(tag)
		if err != nil {
			continue
		}

		columns = append(columns, column)
	}

	previews := make([]Preview, 0, len(merged))

	for _, c := range merged {
		preview := Preview{
			Label:   c.Label,
			Members: c.Members,
		}

		for _, column := range columns {
			if diff, ok := diffColumn(c.Members, records, column); ok {
				preview.Diffs = append(preview.Diffs, diff)
			}
		}

		previews = append(previews, preview)
	}

	return previews
}

// diffColumn collects the distinct values a column takes across the given
// members. It reports ok only if the members actually disagree.
func diffColumn(members []record.ID, records *record.Collection, column string) (ColumnDiff, bool) {
	seen := make(map[string]struct{}, len(members))
	values := make([]string, 0, len(members))

	for _, id := range members {
		r, ok := records.Get(id)
		if !ok {
			continue
		}

		value, ok := r.Field(column)
		if !ok {
			continue
		}

		if _, dup := seen[value]; dup {
			continue
		}

		seen[value] = struct{}{}
		values = append(values, value)
	}

	if len(values) < 2 {
		return ColumnDiff{}, false
	}

	return ColumnDiff{Column: column, Values: values}, true
}
