package embed

import (
	"context"
	"hash/fnv"
	"strings"

	"github.com/hupe1980/entigo/metric"
)

// Compile time check to ensure HashingModel satisfies the Model interface.
var _ Model = (*HashingModel)(nil)

// HashingModelOptions configures a HashingModel.
type HashingModelOptions struct {
	// Dimensions is the output vector dimensionality.
	Dimensions int
}

// DefaultHashingModelOptions is the default HashingModel configuration.
var DefaultHashingModelOptions = HashingModelOptions{
	Dimensions: 64,
}

// HashingModel is a deterministic, dependency-free embedding model: tokens
// hash into a fixed number of count buckets and the result is L2-normalized.
// Two texts sharing most tokens land close in cosine space.
//
// It exists as the reference model for development and testing; production
// runs plug in a real model behind the same interface.
type HashingModel struct {
	dimensions int
}

// NewHashingModel creates a new HashingModel.
func NewHashingModel(optFns ...func(o *HashingModelOptions)) *HashingModel {
	opts := DefaultHashingModelOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Dimensions <= 0 {
		opts.Dimensions = DefaultHashingModelOptions.Dimensions
	}

	return &HashingModel{dimensions: opts.Dimensions}
}

// Embed implements Model. It never fails and ignores ctx; hashing is a pure
// in-process computation. Empty text yields the zero vector, which has
// similarity 0 to everything.
func (m *HashingModel) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, m.dimensions)

	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		v[h.Sum32()%uint32(m.dimensions)]++
	}

	metric.NormalizeL2InPlace(v)

	return v, nil
}

// Dimensions implements Model.
func (m *HashingModel) Dimensions() int {
	return m.dimensions
}
