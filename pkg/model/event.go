package model

import "time"

type EventType string

const (
	EventSlotLocked       EventType = "slot:locked"
	EventSlotUnlocked     EventType = "slot:unlocked"
	EventBookingCreated   EventType = "booking:created"
	EventBookingUpdated   EventType = "booking:updated"
	EventBookingCancelled EventType = "booking:cancelled"
)

// Event is what the hub fans out to every subscriber of ResourceID.
// Exactly one of Slot or Booking is set.
type Event struct {
	Type       EventType    `json:"type"`
	ResourceID string       `json:"resource_id"`
	Slot       *SlotPayload `json:"slot,omitempty"`
	Booking    *Booking     `json:"booking,omitempty"`
	Timestamp  time.Time    `json:"timestamp"`
}

type SlotPayload struct {
	ResourceID string     `json:"resource_id"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    time.Time  `json:"end_time"`
	UserID     string     `json:"user_id,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

func SlotLockedEvent(lock TentativeLock, at time.Time) Event {
	expires := lock.ExpiresAt
	return Event{
		Type:       EventSlotLocked,
		ResourceID: lock.ResourceID,
		Slot: &SlotPayload{
			ResourceID: lock.ResourceID,
			StartTime:  lock.StartTime,
			EndTime:    lock.EndTime,
			UserID:     lock.UserID,
			ExpiresAt:  &expires,
		},
		Timestamp: at,
	}
}

func SlotUnlockedEvent(slot Slot, at time.Time) Event {
	return Event{
		Type:       EventSlotUnlocked,
		ResourceID: slot.ResourceID,
		Slot: &SlotPayload{
			ResourceID: slot.ResourceID,
			StartTime:  slot.StartTime,
			EndTime:    slot.EndTime,
		},
		Timestamp: at,
	}
}

// BookingEvent copies the booking so later mutations by the caller never
// reach subscribers.
func BookingEvent(eventType EventType, booking *Booking, at time.Time) Event {
	snapshot := *booking
	return Event{
		Type:       eventType,
		ResourceID: booking.ResourceID,
		Booking:    &snapshot,
		Timestamp:  at,
	}
}

type NotificationKind string

const (
	NotifyBookingConfirmed NotificationKind = "booking_confirmed"
	NotifyBookingUpdated   NotificationKind = "booking_updated"
	NotifyBookingCancelled NotificationKind = "booking_cancelled"
)

// Notification is handed to the email side-channel after a commit.
type Notification struct {
	Kind       NotificationKind `json:"kind"`
	BookingID  string           `json:"booking_id"`
	UserID     string           `json:"user_id"`
	ResourceID string           `json:"resource_id"`
	StartTime  time.Time        `json:"start_time"`
	EndTime    time.Time        `json:"end_time"`
	Notes      string           `json:"notes,omitempty"`
}

func NewNotification(kind NotificationKind, b *Booking) Notification {
	return Notification{
		Kind:       kind,
		BookingID:  b.ID,
		UserID:     b.UserID,
		ResourceID: b.ResourceID,
		StartTime:  b.StartTime,
		EndTime:    b.EndTime,
		Notes:      b.Notes,
	}
}
