package matcher

import (
	"fmt"
	"math"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// DistanceFunc measures how far apart two descriptors are. Smaller is closer.
type DistanceFunc func(a, b domain.Descriptor) (float64, error)

type Metric string

const (
	MetricEuclidean Metric = "euclidean"
	MetricCosine    Metric = "cosine"
)

// Func returns the distance function for the metric
func (m Metric) Func() (DistanceFunc, error) {
	switch m {
	case MetricEuclidean:
		return Euclidean, nil
	case MetricCosine:
		return Cosine, nil
	default:
		return nil, fmt.Errorf("unknown distance metric %q", m)
	}
}

// Euclidean is the L2 distance used by dlib descriptors, where 0.6 is the
// customary same-person cut-off.
func Euclidean(a, b domain.Descriptor) (float64, error) {
	if len(a) != len(b) {
		return 0, dimensionMismatch(a, b)
	}

	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}

	return math.Sqrt(sum), nil
}

// Cosine returns 1 - cosine similarity, in [0, 2]. A zero vector is treated
// as orthogonal to everything.
func Cosine(a, b domain.Descriptor) (float64, error) {
	if len(a) != len(b) {
		return 0, dimensionMismatch(a, b)
	}

	var dotProduct, norm1, norm2 float64
	for i := range a {
		dotProduct += a[i] * b[i]
		norm1 += a[i] * a[i]
		norm2 += b[i] * b[i]
	}

	if norm1 == 0 || norm2 == 0 {
		return 1, nil
	}

	return 1 - dotProduct/(math.Sqrt(norm1)*math.Sqrt(norm2)), nil
}

// Normalize scales a descriptor to unit length. Zero vectors are returned as is.
func Normalize(d domain.Descriptor) domain.Descriptor {
	var norm float64
	for _, v := range d {
		norm += v * v
	}
	if norm == 0 {
		return d.Clone()
	}

	norm = math.Sqrt(norm)
	out := make(domain.Descriptor, len(d))
	for i, v := range d {
		out[i] = v / norm
	}
	return out
}

func dimensionMismatch(a, b domain.Descriptor) error {
	return domain.ErrDimensionMismatch.WithError(fmt.Errorf("%d != %d", len(a), len(b)))
}
