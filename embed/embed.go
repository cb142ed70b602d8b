// Package embed defines the embedding model contract and the text assembly
// used by embedding-based matching. Model implementations vectorize text;
// the engine never sees model internals.
package embed

import (
	"context"
	"strings"
)

// Model converts text into a fixed-dimension vector. Implementations may
// call external services and should honor ctx cancellation; a per-record
// failure excludes that record from embedding-based matching only.
type Model interface {
	// Embed vectorizes the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the fixed output dimensionality.
	Dimensions() int
}

// Aggregator assembles one embedding input from a record's tagged field
// values, in configured tag order.
type Aggregator func(values []string) string

// SpaceJoin joins non-empty values with single spaces. This is the default
// aggregation: one model call per record over the concatenated fields.
func SpaceJoin(values []string) string {
	nonEmpty := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			nonEmpty = append(nonEmpty, v)
		}
	}

	return strings.Join(nonEmpty, " ")
}
