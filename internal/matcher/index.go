package matcher

import (
	"fmt"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

const (
	IndexLinear = "linear"
	IndexHNSW   = "hnsw"
)

// Index answers match queries over a fixed snapshot of enrollment records
type Index interface {
	Match(probe domain.Descriptor) domain.MatchResult
	Len() int
}

// NewIndex builds the index named by kind over records
func NewIndex(kind string, m *Matcher, records []domain.EnrollmentRecord) (Index, error) {
	switch kind {
	case IndexLinear, "":
		return NewLinearIndex(m, records), nil
	case IndexHNSW:
		return NewHNSWIndex(m, records, DefaultHNSWOptions()), nil
	default:
		return nil, fmt.Errorf("unknown match index %q", kind)
	}
}

// LinearIndex compares the probe against every record in insertion order
type LinearIndex struct {
	matcher *Matcher
	records []domain.EnrollmentRecord
}

func NewLinearIndex(m *Matcher, records []domain.EnrollmentRecord) *LinearIndex {
	return &LinearIndex{matcher: m, records: records}
}

func (l *LinearIndex) Match(probe domain.Descriptor) domain.MatchResult {
	return l.matcher.Authenticate(probe, l.records)
}

func (l *LinearIndex) Len() int {
	return len(l.records)
}
