package matcher

import (
	"slices"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// Rank orders candidates by distance to probe, closest first, keeping
// insertion order between ties. It is for diagnostics; authentication uses
// the first-match rule instead. limit <= 0 returns every comparable candidate.
func (m *Matcher) Rank(probe domain.Descriptor, candidates []domain.EnrollmentRecord, limit int) []domain.Neighbor {
	neighbors := make([]domain.Neighbor, 0, len(candidates))
	for _, candidate := range candidates {
		distance, err := m.distance(probe, candidate.Descriptor)
		if err != nil {
			continue
		}
		neighbors = append(neighbors, domain.Neighbor{
			ID:       candidate.ID,
			Identity: candidate.Identity,
			Distance: distance,
		})
	}

	slices.SortStableFunc(neighbors, func(a, b domain.Neighbor) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		default:
			return 0
		}
	})

	if limit > 0 && len(neighbors) > limit {
		neighbors = neighbors[:limit]
	}
	return neighbors
}
