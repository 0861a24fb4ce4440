package conflict

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var day = time.Date(2030, 3, 14, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func iv(id string, startHour, endHour int) Interval {
	return Interval{ID: id, Start: at(startHour, 0), End: at(endHour, 0)}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"partial overlap at end", iv("a", 10, 12), iv("b", 11, 13), true},
		{"partial overlap at start", iv("a", 10, 12), iv("b", 9, 11), true},
		{"candidate contains existing", iv("a", 10, 12), iv("b", 9, 13), true},
		{"existing contains candidate", iv("a", 9, 13), iv("b", 10, 12), true},
		{"exact duplicate", iv("a", 10, 12), iv("b", 10, 12), true},
		{"back to back after", iv("a", 10, 12), iv("b", 12, 14), false},
		{"back to back before", iv("a", 10, 12), iv("b", 8, 10), false},
		{"disjoint", iv("a", 10, 12), iv("b", 14, 15), false},
		{
			"one minute overlap",
			Interval{Start: at(10, 0), End: at(11, 1)},
			Interval{Start: at(11, 0), End: at(12, 0)},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.a, tt.b))
			assert.Equal(t, tt.want, Overlaps(tt.b, tt.a), "overlap must be symmetric")
		})
	}
}

func TestConflicts(t *testing.T) {
	existing := []Interval{iv("morning", 10, 12), iv("afternoon", 15, 16)}

	tests := []struct {
		name      string
		candidate Interval
		excludeID string
		want      bool
	}{
		{"overlaps morning", iv("", 11, 13), "", true},
		{"starts when morning ends", iv("", 12, 14), "", false},
		{"between bookings", iv("", 13, 15), "", false},
		{"overlaps afternoon", iv("", 14, 16), "", true},
		{"moving morning within itself", iv("morning", 10, 11), "morning", false},
		{"moving morning into afternoon", iv("morning", 15, 17), "morning", true},
		{"exclude unknown id", iv("", 10, 12), "nope", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Conflicts(existing, tt.candidate, tt.excludeID))
		})
	}
}

func TestConflicts_EmptySet(t *testing.T) {
	assert.False(t, Conflicts(nil, iv("", 9, 17), ""))
}

func TestFirstConflict_ReportsBlocker(t *testing.T) {
	existing := []Interval{iv("a", 8, 9), iv("b", 10, 12)}

	blocker, found := FirstConflict(existing, iv("", 11, 13), "")
	assert.True(t, found)
	assert.Equal(t, "b", blocker.ID)
}
