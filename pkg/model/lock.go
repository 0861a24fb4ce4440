package model

import "time"

// Slot is a candidate interval on one resource.
type Slot struct {
	ResourceID string    `json:"resource_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
}

// SlotKey is the comparable form of a Slot. time.Time carries a location
// pointer, so two equal instants may compare unequal; milliseconds do not.
type SlotKey struct {
	ResourceID string
	StartMilli int64
	EndMilli   int64
}

func (s Slot) Key() SlotKey {
	return SlotKey{
		ResourceID: s.ResourceID,
		StartMilli: s.StartTime.UnixMilli(),
		EndMilli:   s.EndTime.UnixMilli(),
	}
}

func (k SlotKey) Slot() Slot {
	return Slot{
		ResourceID: k.ResourceID,
		StartTime:  time.UnixMilli(k.StartMilli).UTC(),
		EndTime:    time.UnixMilli(k.EndMilli).UTC(),
	}
}

// TentativeLock is an advisory, short-lived claim on a slot. It never
// prevents a booking; it only tells co-viewers someone is looking at it.
type TentativeLock struct {
	Slot
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
