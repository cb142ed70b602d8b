package benchmark_test

import (
	"testing"

	"github.com/hupe1980/entigo/dataset"
	"github.com/hupe1980/entigo/schema"
)

// populations caches generated datasets per size, so repeated benchmarks
// pay the generation cost once per process.
var populations = map[int]*dataset.Dataset{}

func population(b *testing.B, size int) (*dataset.Dataset, *schema.Schema) {
	b.Helper()

	d, ok := populations[size]
	if !ok {
		d = dataset.MustGenerate(dataset.Config{Size: size, DuplicateRate: 0.3, Seed: 7})
		populations[size] = d
	}

	s, err := schema.New(map[schema.FieldTag]string{
		schema.TagName:    "full_name",
		schema.TagEmail:   "email",
		schema.TagPhone:   "phone",
		schema.TagAddress: "street",
	})
	if err != nil {
		b.Fatal(err)
	}

	return d, s
}
