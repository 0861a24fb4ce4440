package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"bookfast/internal/bookings/conflict"
	bookingserrors "bookfast/internal/bookings/errors"
	"bookfast/pkg/model"
)

type memoryTxKey struct{}

// memoryBookingRepository keeps bookings in process. Transactions are
// serialised rather than isolated; writes are not rolled back on error.
type memoryBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*model.Booking
	txMu     sync.Mutex
}

func NewMemoryBookingRepository() BookingRepository {
	return &memoryBookingRepository{bookings: make(map[string]*model.Booking)}
}

func (r *memoryBookingRepository) Insert(ctx context.Context, booking *model.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if booking.IsConfirmed() {
		candidate := conflict.FromBooking(booking)
		for _, b := range r.bookings {
			if b.ResourceID == booking.ResourceID && b.IsConfirmed() && conflict.Overlaps(conflict.FromBooking(b), candidate) {
				return bookingserrors.ErrTimeConflict
			}
		}
	}

	stored := *booking
	r.bookings[booking.ID] = &stored
	return nil
}

func (r *memoryBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	out := *b
	return &out, nil
}

func (r *memoryBookingRepository) FindConfirmedIntervals(ctx context.Context, resourceID string, from, to time.Time) ([]conflict.Interval, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var intervals []conflict.Interval
	for _, b := range r.bookings {
		if b.ResourceID == resourceID && b.IsConfirmed() && timeWindowOverlaps(b, &from, &to) {
			intervals = append(intervals, conflict.FromBooking(b))
		}
	}
	return intervals, nil
}

func (r *memoryBookingRepository) UpdateSchedule(ctx context.Context, booking *model.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.bookings[booking.ID]
	if !ok {
		return bookingserrors.ErrNotFound
	}
	if !stored.IsConfirmed() {
		return bookingserrors.ErrAlreadyCancelled
	}

	candidate := conflict.FromBooking(booking)
	for _, b := range r.bookings {
		if b.ID != booking.ID && b.ResourceID == stored.ResourceID && b.IsConfirmed() &&
			conflict.Overlaps(conflict.FromBooking(b), candidate) {
			return bookingserrors.ErrTimeConflict
		}
	}

	stored.StartTime = booking.StartTime
	stored.EndTime = booking.EndTime
	stored.Notes = booking.Notes
	stored.UpdatedAt = booking.UpdatedAt
	return nil
}

func (r *memoryBookingRepository) Cancel(ctx context.Context, id string, at time.Time) (*model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	if !stored.IsConfirmed() {
		return nil, bookingserrors.ErrAlreadyCancelled
	}

	stored.Status = model.StatusCancelled
	stored.UpdatedAt = at
	out := *stored
	return &out, nil
}

func (r *memoryBookingRepository) Find(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error) {
	matched, err := r.matching(ctx, filter)
	if err != nil {
		return nil, err
	}

	start := int(filter.Offset)
	if start > len(matched) {
		start = len(matched)
	}
	matched = matched[start:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (r *memoryBookingRepository) Count(ctx context.Context, filter model.BookingFilter) (int64, error) {
	matched, err := r.matching(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

func (r *memoryBookingRepository) ExecuteTransaction(ctx context.Context, fn TxFunc) error {
	if ctx.Value(memoryTxKey{}) != nil {
		return fn(ctx)
	}
	r.txMu.Lock()
	defer r.txMu.Unlock()
	return fn(context.WithValue(ctx, memoryTxKey{}, true))
}

func (r *memoryBookingRepository) matching(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Booking, 0)
	for _, b := range r.bookings {
		if matchesFilter(b, filter) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}
