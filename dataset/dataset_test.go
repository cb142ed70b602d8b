package dataset

import (
	"math/rand"
	"regexp"
	"strings"
	"testing"

	"github.com/hupe1980/entigo/cluster"
	"github.com/hupe1980/entigo/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Validation(t *testing.T) {
	_, err := Generate(Config{Size: 0, DuplicateRate: 0.3, Seed: 1})
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Generate(Config{Size: 10, DuplicateRate: 1.0, Seed: 1})
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Generate(Config{Size: 10, DuplicateRate: -0.1, Seed: 1})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestGenerate_Deterministic(t *testing.T) {
	cfg := Config{Size: 80, DuplicateRate: 0.25, Seed: 7}

	d1, err := Generate(cfg)
	require.NoError(t, err)
	d2, err := Generate(cfg)
	require.NoError(t, err)

	require.Equal(t, d1.Records.Len(), d2.Records.Len())
	for i := 0; i < d1.Records.Len(); i++ {
		r1, r2 := d1.Records.At(i), d2.Records.At(i)
		require.Equal(t, r1.ID(), r2.ID())
		for _, col := range r1.Columns() {
			v1, _ := r1.Field(col)
			v2, _ := r2.Field(col)
			require.Equal(t, v1, v2)
		}
	}
	assert.Equal(t, d1.GroundTruth, d2.GroundTruth)
}

func TestGenerate_SeedChangesPopulation(t *testing.T) {
	d1 := MustGenerate(Config{Size: 50, DuplicateRate: 0.2, Seed: 1})
	d2 := MustGenerate(Config{Size: 50, DuplicateRate: 0.2, Seed: 2})

	var emails1, emails2 []string
	for i := 0; i < d1.Records.Len(); i++ {
		e1, _ := d1.Records.At(i).Field("email")
		e2, _ := d2.Records.At(i).Field("email")
		emails1 = append(emails1, e1)
		emails2 = append(emails2, e2)
	}
	assert.NotEqual(t, emails1, emails2)
}

func TestGenerate_SizeAndTruth(t *testing.T) {
	d := MustGenerate(Config{Size: 100, DuplicateRate: 0.3, Seed: 11})

	assert.Equal(t, 100, d.Records.Len())
	assert.Len(t, d.GroundTruth, 30)

	idPattern := regexp.MustCompile(`^cust_\d{7}$`)
	for i := 0; i < d.Records.Len(); i++ {
		r := d.Records.At(i)
		assert.Regexp(t, idPattern, string(r.ID()))
		assert.Equal(t, []string{"city", "email", "full_name", "phone", "street"}, r.Columns())
	}

	// Every truth link resolves to generated records
	for dup, base := range d.GroundTruth {
		_, ok := d.Records.Get(dup)
		require.True(t, ok, "duplicate %s missing", dup)
		_, ok = d.Records.Get(base)
		require.True(t, ok, "base %s missing", base)
		require.NotEqual(t, dup, base)

		// A base is never itself a duplicate
		_, isDup := d.GroundTruth[base]
		require.False(t, isDup)
	}
}

func TestGenerate_DuplicatesCarryNoise(t *testing.T) {
	d := MustGenerate(Config{Size: 120, DuplicateRate: 0.4, Seed: 3})

	differing := 0
	for dup, base := range d.GroundTruth {
		dr, _ := d.Records.Get(dup)
		br, _ := d.Records.Get(base)
		for _, col := range br.Columns() {
			dv, _ := dr.Field(col)
			bv, _ := br.Field(col)
			if dv != bv {
				differing++
				break
			}
		}
	}

	// Almost all duplicates should differ from their base in some column;
	// the rare exception is a no-op nickname swap on a plain name.
	assert.Greater(t, differing, len(d.GroundTruth)*7/10)
}

func TestPerturbEmail(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	p := perturbEmailDots(rng, profile{email: "alex.smith@gmail.com"})
	assert.Equal(t, "alexsmith@gmail.com", p.email)

	p = perturbEmailDots(rng, profile{email: "alexsmith@gmail.com"})
	assert.Equal(t, "alex.smith@gmail.com", p.email)

	p = perturbEmailPlus(rng, profile{email: "alex.smith@gmail.com"})
	local, _, _ := strings.Cut(p.email, "@")
	assert.Contains(t, local, "+")
	assert.True(t, strings.HasPrefix(local, "alex.smith+"))
}

func TestPerturbNickname(t *testing.T) {
	p := perturbNickname(nil, profile{first: "alex"})
	assert.Equal(t, "alexander", p.first)

	p = perturbNickname(nil, profile{first: "alexander"})
	assert.Equal(t, "alex", p.first)

	p = perturbNickname(nil, profile{first: "maria"})
	assert.Equal(t, "maria", p.first)
}

func TestPerturbStreet(t *testing.T) {
	p := perturbStreetSuffix(nil, profile{street: "12 Oak St"})
	assert.Equal(t, "12 Oak Street", p.street)

	p = perturbStreetSuffix(nil, profile{street: "12 Oak Street"})
	assert.Equal(t, "12 Oak St", p.street)

	// An annotated street no longer ends in a flippable suffix
	p = perturbStreetSuffix(nil, profile{street: "12 Oak St Apt 4B"})
	assert.Equal(t, "12 Oak St Apt 4B", p.street)

	rng := rand.New(rand.NewSource(1))
	p = perturbAnnotation(rng, profile{street: "12 Oak St"})
	assert.True(t, strings.HasPrefix(p.street, "12 Oak St "))
	assert.Greater(t, len(p.street), len("12 Oak St"))
}

func TestPerturbSurname(t *testing.T) {
	rng := rand.New(rand.NewSource(2))

	seenTruncated := false
	seenUpper := false
	for i := 0; i < 40 && !(seenTruncated && seenUpper); i++ {
		p := perturbSurname(rng, profile{last: "johnson"})
		switch p.last {
		case "johnso":
			seenTruncated = true
		case "JOHNSON":
			seenUpper = true
		default:
			t.Fatalf("unexpected surname perturbation: %q", p.last)
		}
	}
	assert.True(t, seenTruncated)
	assert.True(t, seenUpper)
}

func TestDataset_Evaluate(t *testing.T) {
	truth := map[record.ID]record.ID{
		"b": "a",
		"c": "a",
	}
	d := &Dataset{GroundTruth: truth}

	t.Run("Perfect", func(t *testing.T) {
		m := d.Evaluate([]cluster.Cluster{
			{Label: "cluster_a", Members: []record.ID{"a", "b", "c"}},
			{Label: "cluster_x", Members: []record.ID{"x"}},
		})
		assert.Equal(t, 3, m.TruePairs)
		assert.Equal(t, 3, m.RecoveredPairs)
		assert.Equal(t, 1.0, m.Recall)
		assert.Equal(t, 1.0, m.Precision)
	})

	t.Run("Partial", func(t *testing.T) {
		m := d.Evaluate([]cluster.Cluster{
			{Label: "cluster_a", Members: []record.ID{"a", "b"}},
			{Label: "cluster_c", Members: []record.ID{"c"}},
		})
		assert.Equal(t, 3, m.TruePairs)
		assert.Equal(t, 1, m.RecoveredPairs)
		assert.InDelta(t, 1.0/3.0, m.Recall, 1e-9)
		assert.Equal(t, 1.0, m.Precision)
	})

	t.Run("OverMerged", func(t *testing.T) {
		m := d.Evaluate([]cluster.Cluster{
			{Label: "cluster_a", Members: []record.ID{"a", "b", "c", "x"}},
		})
		assert.Equal(t, 1.0, m.Recall)
		assert.Equal(t, 6, m.ClusteredPairs)
		assert.Equal(t, 3, m.CorrectPairs)
		assert.Equal(t, 0.5, m.Precision)
	})

	t.Run("NoTruth", func(t *testing.T) {
		empty := &Dataset{GroundTruth: map[record.ID]record.ID{}}
		m := empty.Evaluate(nil)
		assert.Equal(t, 1.0, m.Recall)
		assert.Equal(t, 1.0, m.Precision)
	})
}
