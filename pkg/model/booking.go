package model

import (
	"time"
)

type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
)

type Booking struct {
	ID         string        `json:"id" bson:"_id"`
	ResourceID string        `json:"resource_id" bson:"resource_id"`
	UserID     string        `json:"user_id" bson:"user_id"`
	StartTime  time.Time     `json:"start_time" bson:"start_time"`
	EndTime    time.Time     `json:"end_time" bson:"end_time"`
	Status     BookingStatus `json:"status" bson:"status"`
	Notes      string        `json:"notes" bson:"notes"`
	CreatedAt  time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at" bson:"updated_at"`
}

func (b *Booking) IsConfirmed() bool {
	return b.Status == StatusConfirmed
}

// OwnedBy reports whether the actor may read or mutate the booking.
func (b *Booking) OwnedBy(actor Actor) bool {
	return actor.IsAdmin || (actor.UserID != "" && actor.UserID == b.UserID)
}

type BookingRequest struct {
	ResourceID string    `json:"resource_id" validate:"required,max=64,resource_id"`
	StartTime  time.Time `json:"start_time" validate:"required"`
	EndTime    time.Time `json:"end_time" validate:"required"`
	Notes      string    `json:"notes" validate:"max=500"`
}

type BookingUpdate struct {
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Notes     *string    `json:"notes,omitempty" validate:"omitempty,max=500"`
}

func (u *BookingUpdate) ChangesSchedule() bool {
	return u.StartTime != nil || u.EndTime != nil
}

type ConflictCheck struct {
	ResourceID       string    `json:"resource_id" validate:"required,max=64,resource_id"`
	StartTime        time.Time `json:"start_time" validate:"required"`
	EndTime          time.Time `json:"end_time" validate:"required"`
	ExcludeBookingID string    `json:"exclude_booking_id,omitempty" validate:"omitempty,max=64"`
}

type BookingFilter struct {
	ResourceID string
	UserID     string
	Status     BookingStatus
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int64
}

// Actor is the resolved caller identity handed to every booking operation.
type Actor struct {
	UserID  string `json:"user_id"`
	IsAdmin bool   `json:"is_admin"`
}
