package utils

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"rentrush-backend/internal/domain"
)

// ParseBoundaryPolicy reads a policy name from configuration. An empty
// name selects the closed rule.
func ParseBoundaryPolicy(name string) (domain.BoundaryPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", string(domain.BoundaryClosed):
		return domain.BoundaryClosed, nil
	case string(domain.BoundaryHalfOpen), "half-open", "halfopen":
		return domain.BoundaryHalfOpen, nil
	default:
		return "", fmt.Errorf("unknown boundary policy %q", name)
	}
}

// Overlaps reports whether two windows claim the car at the same time.
//
// Closed: the windows conflict when s1 <= e2 and e1 >= s2 compared as
// calendar days. HalfOpen: they conflict when s1 < e2 and e1 > s2 compared
// as wall-clock instants.
func Overlaps(a, b domain.Window, policy domain.BoundaryPolicy) bool {
	if policy == domain.BoundaryHalfOpen {
		s1, e1 := domain.WallClock(a.Start), domain.WallClock(a.End)
		s2, e2 := domain.WallClock(b.Start), domain.WallClock(b.End)
		return s1.Before(e2) && e1.After(s2)
	}

	s1, e1 := a.StartDay(), a.EndDay()
	s2, e2 := b.StartDay(), b.EndDay()
	return !s1.After(e2) && !e1.Before(s2)
}

// FindConflicts returns the live bookings in existing whose window
// overlaps candidate. The booking with excludeID is skipped so a booking
// can be rescheduled over its own dates; pass uuid.Nil to exclude nothing.
func FindConflicts(candidate domain.Window, existing []domain.Booking, excludeID uuid.UUID, policy domain.BoundaryPolicy) []domain.Booking {
	var conflicts []domain.Booking
	for _, b := range existing {
		if excludeID != uuid.Nil && b.ID == excludeID {
			continue
		}
		if !b.Status.IsLive() {
			continue
		}
		if Overlaps(candidate, b.Window, policy) {
			conflicts = append(conflicts, b)
		}
	}
	return conflicts
}
