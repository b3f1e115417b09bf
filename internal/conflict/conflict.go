package conflict

import (
	"fmt"
	"strings"
)

// Booking represents a reserved time interval on a single room and date.
// Start and End are minutes from midnight, with Start < End and the interval
// treated as half-open [Start, End).
type Booking struct {
	ID    int64
	Start int
	End   int
}

// Conflict identifies an existing booking deemed incompatible with a candidate.
type Conflict struct {
	WithBookingID int64
	Start         int
	End           int
}

// Policy decides which existing bookings conflict with a candidate interval.
// Implementations are pure: they never mutate their inputs and hold no state
// beyond configuration.
type Policy interface {
	Name() string
	Detect(existing []Booking, candidate Booking) []Conflict
}

// Strict rejects any overlap between half-open intervals. Back-to-back
// bookings, where one ends exactly when the next starts, do not conflict.
type Strict struct{}

// Name identifies the policy for operator-facing selection.
func (Strict) Name() string { return "strict" }

// Detect returns every existing booking whose interval overlaps the candidate.
func (Strict) Detect(existing []Booking, candidate Booking) []Conflict {
	var conflicts []Conflict
	for _, b := range existing {
		if max(candidate.Start, b.Start) < min(candidate.End, b.End) {
			conflicts = append(conflicts, Conflict{WithBookingID: b.ID, Start: b.Start, End: b.End})
		}
	}
	return conflicts
}

// DefaultLenientMargin is the minimum gap, in minutes, required between
// adjacent bookings when no explicit margin is configured.
const DefaultLenientMargin = 5

// Lenient requires a minimum gap between adjacent bookings on both sides.
// This is stronger than overlap detection: a booking ending at 10:00 followed
// by one starting at 10:04 conflicts under the default margin, while a 10:05
// start does not.
//
// A zero or negative MarginMinutes falls back to DefaultLenientMargin, so
// the zero value is usable; a margin-free gap rule is spelled Strict.
type Lenient struct {
	MarginMinutes int
}

// Name identifies the policy for operator-facing selection.
func (Lenient) Name() string { return "lenient" }

// Detect returns every existing booking closer to the candidate than the
// configured margin.
func (l Lenient) Detect(existing []Booking, candidate Booking) []Conflict {
	margin := l.MarginMinutes
	if margin <= 0 {
		margin = DefaultLenientMargin
	}

	var conflicts []Conflict
	for _, b := range existing {
		gapAfter := candidate.Start - b.End
		gapBefore := b.Start - candidate.End
		if gapAfter >= margin || gapBefore >= margin {
			continue
		}
		conflicts = append(conflicts, Conflict{WithBookingID: b.ID, Start: b.Start, End: b.End})
	}
	return conflicts
}

// ParsePolicy resolves an operator-supplied mode name to a policy. The input
// matches when it is a non-empty, case-insensitive leading substring of the
// policy name, so "s", "str", and "STRICT" all select the strict policy.
func ParsePolicy(name string) (Policy, error) {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	if trimmed == "" {
		return nil, fmt.Errorf("conflict: empty policy name")
	}

	switch {
	case strings.HasPrefix(Strict{}.Name(), trimmed):
		return Strict{}, nil
	case strings.HasPrefix(Lenient{}.Name(), trimmed):
		return Lenient{MarginMinutes: DefaultLenientMargin}, nil
	default:
		return nil, fmt.Errorf("conflict: unknown policy %q", name)
	}
}

// FormatMinute renders minutes from midnight as a zero-padded HH:MM clock
// string for error messages and reports.
func FormatMinute(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
