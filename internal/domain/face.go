package domain

import (
	"strings"
	"time"
)

// EnrollmentRecord is one registered (identity, descriptor) pair
type EnrollmentRecord struct {
	ID         int64      `json:"id"`
	Identity   string     `json:"identity"`
	Descriptor Descriptor `json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Validate checks the record can be persisted
func (r EnrollmentRecord) Validate() error {
	if strings.TrimSpace(r.Identity) == "" {
		return ErrInvalidIdentity
	}
	if len(r.Descriptor) == 0 {
		return ErrInvalidDescriptor
	}
	return nil
}

// MatchResult is the outcome of one authentication attempt. The zero value is NoMatch.
type MatchResult struct {
	Matched  bool    `json:"matched"`
	Identity string  `json:"identity,omitempty"`
	Distance float64 `json:"distance,omitempty"`
	// Position is the candidate's index in scan order, -1 when nothing matched
	Position int `json:"-"`
}

// NoMatch returns the negative match result
func NoMatch() MatchResult {
	return MatchResult{Position: -1}
}

// Matched builds a positive match result
func Matched(identity string, distance float64, position int) MatchResult {
	return MatchResult{
		Matched:  true,
		Identity: identity,
		Distance: distance,
		Position: position,
	}
}

// Neighbor is a stored identity ranked by distance to a probe
type Neighbor struct {
	ID       int64   `json:"id"`
	Identity string  `json:"identity"`
	Distance float64 `json:"distance"`
}
