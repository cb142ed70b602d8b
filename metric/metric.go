// Package metric provides the vector similarity and distance functions used
// by the index implementations. The index owns the metric: matcher logic
// never computes similarity itself.
package metric

import (
	"errors"
	"fmt"
	"math"
)

// ErrVectorSizeMismatch indicates two vectors of different dimensionality.
var ErrVectorSizeMismatch = errors.New("vector sizes do not match")

// Dot calculates the dot product of two float32 slices.
func Dot(v1, v2 []float32) float32 {
	var ret float32
	for i := range v1 {
		ret += v1[i] * v2[i]
	}

	return ret
}

// Magnitude calculates the L2 norm of a float32 slice.
func Magnitude(v []float32) float32 {
	return float32(math.Sqrt(float64(Dot(v, v))))
}

// CosineSimilarity calculates the cosine similarity between two float32
// slices. A zero-magnitude vector has similarity 0 to everything.
func CosineSimilarity(v1, v2 []float32) (float32, error) {
	if len(v1) != len(v2) {
		return 0, ErrVectorSizeMismatch
	}

	magnitudeA := Magnitude(v1)
	magnitudeB := Magnitude(v2)

	if magnitudeA == 0 || magnitudeB == 0 {
		return 0, nil
	}

	return Dot(v1, v2) / (magnitudeA * magnitudeB), nil
}

// CosineDistance calculates 1 - cosine similarity. Graph search orders by
// ascending distance; results convert back to similarity at the boundary.
func CosineDistance(v1, v2 []float32) (float32, error) {
	sim, err := CosineSimilarity(v1, v2)
	if err != nil {
		return 0, err
	}

	return 1 - sim, nil
}

// SquaredL2 calculates the squared L2 distance between two float32 slices.
func SquaredL2(v1, v2 []float32) (float32, error) {
	if len(v1) != len(v2) {
		return 0, ErrVectorSizeMismatch
	}

	var distance float32
	for i := range v1 {
		d := v1[i] - v2[i]
		distance += d * d
	}

	return distance, nil
}

// NormalizeL2InPlace L2-normalizes v in place.
// Returns false if v has zero L2 norm.
func NormalizeL2InPlace(v []float32) bool {
	norm := Magnitude(v)
	if norm == 0 {
		return false
	}

	inv := 1 / norm
	for i := range v {
		v[i] *= inv
	}

	return true
}

// NormalizeL2Copy returns a normalized copy of src.
// Returns false if src has zero L2 norm.
func NormalizeL2Copy(src []float32) ([]float32, bool) {
	dst := make([]float32, len(src))
	copy(dst, src)

	if !NormalizeL2InPlace(dst) {
		return nil, false
	}

	return dst, true
}

// Metric identifies the similarity measure an index compares vectors with.
type Metric int

const (
	MetricCosine Metric = iota
	MetricDot
	MetricL2
)

func (m Metric) String() string {
	switch m {
	case MetricCosine:
		return "Cosine"
	case MetricDot:
		return "Dot"
	case MetricL2:
		return "L2"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// SimilarityFunc scores two vectors; higher means more alike.
type SimilarityFunc func(v1, v2 []float32) (float32, error)

// DistanceFunc scores two vectors; lower means more alike.
type DistanceFunc func(v1, v2 []float32) (float32, error)

// Similarity returns the similarity function for the given metric.
//
// MetricL2 has no bounded similarity form and is rejected here; indexes that
// traverse in distance space use Distance instead.
func Similarity(m Metric) (SimilarityFunc, error) {
	switch m {
	case MetricCosine:
		return CosineSimilarity, nil
	case MetricDot:
		return func(v1, v2 []float32) (float32, error) {
			if len(v1) != len(v2) {
				return 0, ErrVectorSizeMismatch
			}
			return Dot(v1, v2), nil
		}, nil
	default:
		return nil, fmt.Errorf("unsupported similarity metric: %v", m)
	}
}

// Distance returns the distance function for the given metric.
func Distance(m Metric) (DistanceFunc, error) {
	switch m {
	case MetricCosine:
		return CosineDistance, nil
	case MetricL2:
		return SquaredL2, nil
	default:
		return nil, fmt.Errorf("unsupported distance metric: %v", m)
	}
}
