// Package conflict decides whether a candidate interval collides with a
// resource's confirmed bookings. Intervals are half-open, [Start, End),
// so a booking ending at T never conflicts with one starting at T.
package conflict

import (
	"time"

	"bookfast/pkg/model"
)

type Interval struct {
	ID    string
	Start time.Time
	End   time.Time
}

func FromBooking(b *model.Booking) Interval {
	return Interval{ID: b.ID, Start: b.StartTime, End: b.EndTime}
}

func FromBookings(bookings []*model.Booking) []Interval {
	intervals := make([]Interval, 0, len(bookings))
	for _, b := range bookings {
		intervals = append(intervals, FromBooking(b))
	}
	return intervals
}

// Overlaps is symmetric: Overlaps(a, b) == Overlaps(b, a).
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

// Conflicts reports whether candidate overlaps any interval in existing,
// ignoring the one whose ID equals excludeID.
func Conflicts(existing []Interval, candidate Interval, excludeID string) bool {
	_, found := FirstConflict(existing, candidate, excludeID)
	return found
}

func FirstConflict(existing []Interval, candidate Interval, excludeID string) (Interval, bool) {
	for _, iv := range existing {
		if excludeID != "" && iv.ID == excludeID {
			continue
		}
		if Overlaps(iv, candidate) {
			return iv, true
		}
	}
	return Interval{}, false
}
