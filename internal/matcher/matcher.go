package matcher

import (
	"errors"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

const DefaultThreshold = 0.6

// Matcher decides whether a probe descriptor belongs to an enrolled identity.
// The first candidate in scan order within the threshold wins, even when a
// later candidate is closer.
type Matcher struct {
	threshold float64
	metric    Metric
	distance  DistanceFunc
	logger    *slog.Logger
}

// New builds a matcher around an arbitrary distance function
func New(threshold float64, distance DistanceFunc, logger *slog.Logger) *Matcher {
	if distance == nil {
		distance = Euclidean
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Matcher{
		threshold: threshold,
		distance:  distance,
		logger:    logger.With("component", "matcher"),
	}
}

// NewWithMetric builds a matcher for a named metric
func NewWithMetric(threshold float64, metric Metric, logger *slog.Logger) (*Matcher, error) {
	distance, err := metric.Func()
	if err != nil {
		return nil, err
	}

	m := New(threshold, distance, logger)
	m.metric = metric
	return m, nil
}

func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Metric is empty when the matcher was built from a bare DistanceFunc
func (m *Matcher) Metric() Metric {
	return m.metric
}

// Distance applies the matcher's distance function
func (m *Matcher) Distance(a, b domain.Descriptor) (float64, error) {
	return m.distance(a, b)
}

// Authenticate scans candidates in order and returns the first one whose
// distance to probe is within the threshold. Candidates of another dimension
// are skipped.
func (m *Matcher) Authenticate(probe domain.Descriptor, candidates []domain.EnrollmentRecord) domain.MatchResult {
	for i, candidate := range candidates {
		distance, ok := m.qualifies(probe, candidate, i)
		if ok {
			return domain.Matched(candidate.Identity, distance, i)
		}
	}

	return domain.NoMatch()
}

func (m *Matcher) qualifies(probe domain.Descriptor, candidate domain.EnrollmentRecord, position int) (float64, bool) {
	distance, err := m.distance(probe, candidate.Descriptor)
	if err != nil {
		if errors.Is(err, domain.ErrDimensionMismatch) {
			m.logger.Debug("skipping candidate",
				"position", position,
				"identity", candidate.Identity,
				"error", err,
			)
		} else {
			m.logger.Warn("distance failed", "position", position, "error", err)
		}
		return 0, false
	}

	return distance, distance <= m.threshold
}
