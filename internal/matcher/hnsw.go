package matcher

import (
	"github.com/coder/hnsw"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

type HNSWOptions struct {
	// M is the maximum number of neighbors per node
	M int
	// K is how many neighbors each query retrieves before the threshold filter
	K int
}

func DefaultHNSWOptions() HNSWOptions {
	return HNSWOptions{M: 16, K: 32}
}

// HNSWIndex uses an approximate graph to find a qualifying record quickly,
// then settles the result with the exact first-match rule: a hit at position
// p only bounds the linear scan to records[:p+1], and a miss falls back to a
// full scan. Results are therefore always those of LinearIndex. Graphs are
// kept per dimension because a graph only holds vectors of one length.
type HNSWIndex struct {
	matcher *Matcher
	records []domain.EnrollmentRecord
	graphs  map[int]*hnsw.Graph[int]
	k       int
}

func NewHNSWIndex(m *Matcher, records []domain.EnrollmentRecord, opts HNSWOptions) *HNSWIndex {
	if opts.M <= 0 {
		opts.M = DefaultHNSWOptions().M
	}
	if opts.K <= 0 {
		opts.K = DefaultHNSWOptions().K
	}

	idx := &HNSWIndex{
		matcher: m,
		records: records,
		graphs:  make(map[int]*hnsw.Graph[int]),
		k:       opts.K,
	}

	for position, record := range records {
		dim := record.Descriptor.Dim()
		if dim == 0 {
			continue
		}

		g, ok := idx.graphs[dim]
		if !ok {
			g = hnsw.NewGraph[int]()
			g.M = opts.M
			g.Ml = 1.0 / float64(opts.M)
			g.EfSearch = opts.K
			g.Distance = graphDistance(m.Metric())
			idx.graphs[dim] = g
		}

		// Keys are snapshot positions so the first-enrolled rule can be applied
		g.Add(hnsw.MakeNode(position, record.Descriptor.Float32()))
	}

	return idx
}

func (h *HNSWIndex) Match(probe domain.Descriptor) domain.MatchResult {
	bound := h.firstHit(probe)
	if bound < 0 {
		return h.matcher.Authenticate(probe, h.records)
	}
	return h.matcher.Authenticate(probe, h.records[:bound+1])
}

// firstHit returns the lowest position among the graph's neighbors that
// qualify, or -1 when none do
func (h *HNSWIndex) firstHit(probe domain.Descriptor) int {
	g, ok := h.graphs[probe.Dim()]
	if !ok || g.Len() == 0 {
		return -1
	}

	hit := -1
	for _, node := range g.Search(probe.Float32(), h.k) {
		position := node.Key
		if hit >= 0 && position > hit {
			continue
		}
		if _, ok := h.matcher.qualifies(probe, h.records[position], position); ok {
			hit = position
		}
	}
	return hit
}

func (h *HNSWIndex) Len() int {
	return len(h.records)
}

func graphDistance(metric Metric) hnsw.DistanceFunc {
	if metric == MetricCosine {
		return hnsw.CosineDistance
	}
	return hnsw.EuclideanDistance
}
