package repository

import (
	"context"
	"errors"
	"net"
	"time"

	"bookfast/internal/bookings/conflict"
	"bookfast/pkg/model"

	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/mongo"
)

const CollectionName = "Bookings"

// TxFunc runs inside ExecuteTransaction. Repository calls made with the ctx it
// receives take part in the transaction.
type TxFunc func(ctx context.Context) error

type BookingRepository interface {
	Insert(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	// FindConfirmedIntervals returns the confirmed bookings of resourceID
	// whose [start, end) intersects [from, to).
	FindConfirmedIntervals(ctx context.Context, resourceID string, from, to time.Time) ([]conflict.Interval, error)
	// UpdateSchedule writes start, end, notes and updated_at of a confirmed booking.
	UpdateSchedule(ctx context.Context, booking *model.Booking) error
	// Cancel flips a confirmed booking to cancelled and returns the result.
	// A booking that is already cancelled yields ErrAlreadyCancelled.
	Cancel(ctx context.Context, id string, at time.Time) (*model.Booking, error)
	Find(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error)
	Count(ctx context.Context, filter model.BookingFilter) (int64, error)
	ExecuteTransaction(ctx context.Context, fn TxFunc) error
}

// IsTransient reports failures worth retrying: deadlines, network errors and
// store errors the drivers flag as retryable. These never mean "conflict".
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return true
	}

	var labeled mongo.LabeledError
	if errors.As(err, &labeled) && labeled.HasErrorLabel("TransientTransactionError") {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "53300", "57P01", "57P03":
			return true
		}
		return false
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

func timeWindowOverlaps(b *model.Booking, from, to *time.Time) bool {
	if to != nil && !b.StartTime.Before(*to) {
		return false
	}
	if from != nil && !b.EndTime.After(*from) {
		return false
	}
	return true
}

func matchesFilter(b *model.Booking, f model.BookingFilter) bool {
	if f.ResourceID != "" && b.ResourceID != f.ResourceID {
		return false
	}
	if f.UserID != "" && b.UserID != f.UserID {
		return false
	}
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	return timeWindowOverlaps(b, f.From, f.To)
}

// withTimeout bounds ctx unless it belongs to a Mongo session, which cannot be
// wrapped without leaving the transaction.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	if timeout <= 0 {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}
	return context.WithTimeout(ctx, timeout)
}
