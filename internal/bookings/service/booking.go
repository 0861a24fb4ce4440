package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"bookfast/internal/bookings/conflict"
	bookingserrors "bookfast/internal/bookings/errors"
	"bookfast/internal/bookings/repository"
	"bookfast/internal/bookings/validator"
	apperrors "bookfast/pkg/errors"
	"bookfast/pkg/logger"
	"bookfast/pkg/model"
	"bookfast/pkg/sanitizer"

	"github.com/google/uuid"
)

const storeName = "Booking store"

type BookingService interface {
	Create(ctx context.Context, actor model.Actor, req *model.BookingRequest) (*model.Booking, error)
	Update(ctx context.Context, actor model.Actor, id string, update *model.BookingUpdate) (*model.Booking, error)
	Cancel(ctx context.Context, actor model.Actor, id string) (*model.Booking, error)
	HasConflict(ctx context.Context, check *model.ConflictCheck) (bool, error)
	GetByID(ctx context.Context, actor model.Actor, id string) (*model.Booking, error)
	ListMine(ctx context.Context, actor model.Actor, filter model.BookingFilter) ([]*model.Booking, int64, error)
	ListByResource(ctx context.Context, resourceID string, filter model.BookingFilter) ([]*model.Booking, int64, error)
	ListAll(ctx context.Context, actor model.Actor, filter model.BookingFilter) ([]*model.Booking, int64, error)
}

type ResourceLookup interface {
	FindByID(ctx context.Context, id string) (*model.Resource, error)
}

// EventPublisher is satisfied by the realtime hub.
type EventPublisher interface {
	Publish(resourceID string, evt model.Event) int
}

type NotificationDispatcher interface {
	Dispatch(ctx context.Context, n model.Notification)
}

type Option func(*bookingService)

func WithClock(now func() time.Time) Option {
	return func(s *bookingService) {
		s.now = now
	}
}

type bookingService struct {
	repo      repository.BookingRepository
	resources ResourceLookup
	validator *validator.BookingValidator
	events    EventPublisher
	notifier  NotificationDispatcher
	locks     *resourceLocks
	log       *logger.Logger
	now       func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	resources ResourceLookup,
	validator *validator.BookingValidator,
	events EventPublisher,
	notifier NotificationDispatcher,
	log *logger.Logger,
	opts ...Option,
) BookingService {
	s := &bookingService{
		repo:      repo,
		resources: resources,
		validator: validator,
		events:    events,
		notifier:  notifier,
		locks:     newResourceLocks(),
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *bookingService) Create(ctx context.Context, actor model.Actor, req *model.BookingRequest) (*model.Booking, error) {
	if actor.UserID == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}

	req.ResourceID = sanitizer.SanitizeID(req.ResourceID)
	req.Notes = sanitizer.SanitizeNotes(req.Notes)
	req.StartTime = normalizeTime(req.StartTime)
	req.EndTime = normalizeTime(req.EndTime)
	now := s.timestamp()

	if err := s.validator.Validate(req, now); err != nil {
		s.log.Warn("Booking validation failed", "user_id", actor.UserID, "error", err)
		return nil, validationError(err)
	}

	if err := s.requireActiveResource(ctx, req.ResourceID); err != nil {
		return nil, err
	}

	booking := &model.Booking{
		ID:         uuid.NewString(),
		ResourceID: req.ResourceID,
		UserID:     actor.UserID,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Status:     model.StatusConfirmed,
		Notes:      req.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	unlock := s.locks.Lock(booking.ResourceID)
	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := s.ensureNoConflict(txCtx, booking.ResourceID, booking.StartTime, booking.EndTime, ""); err != nil {
			return err
		}
		return s.repo.Insert(txCtx, booking)
	})
	unlock()
	if err != nil {
		return nil, s.storeError("create", booking.ID, booking.ResourceID, err)
	}

	s.log.Info("Booking created successfully",
		"id", booking.ID,
		"resource_id", booking.ResourceID,
		"user_id", booking.UserID,
		"start_time", booking.StartTime,
		"end_time", booking.EndTime,
	)
	s.afterCommit(ctx, model.EventBookingCreated, model.NotifyBookingConfirmed, booking)
	return booking, nil
}

func (s *bookingService) Update(ctx context.Context, actor model.Actor, id string, update *model.BookingUpdate) (*model.Booking, error) {
	id = sanitizer.SanitizeID(id)
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if update.Notes != nil {
		notes := sanitizer.SanitizeNotes(*update.Notes)
		update.Notes = &notes
	}
	if err := s.validator.ValidateUpdate(update); err != nil {
		s.log.Warn("Booking update validation failed", "id", id, "error", err)
		return nil, validationError(err)
	}

	existing, err := s.authorizedBooking(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !existing.IsConfirmed() {
		return nil, apperrors.AlreadyCancelled("Booking", id)
	}

	preview := mergeBookingUpdate(existing, update)
	if err := s.validator.ValidateInterval(preview.StartTime, preview.EndTime); err != nil {
		return nil, validationError(err)
	}
	updatedAt := s.timestamp()

	// The merge is redone on the row read under the resource lock so a
	// concurrent reschedule is never written back over.
	var merged *model.Booking
	unlock := s.locks.Lock(existing.ResourceID)
	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		current, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if !current.IsConfirmed() {
			return bookingserrors.ErrAlreadyCancelled
		}
		merged = mergeBookingUpdate(current, update)
		merged.UpdatedAt = updatedAt
		if err := s.validator.ValidateInterval(merged.StartTime, merged.EndTime); err != nil {
			return validationError(err)
		}
		if !merged.StartTime.Equal(current.StartTime) || !merged.EndTime.Equal(current.EndTime) {
			if err := s.ensureNoConflict(txCtx, merged.ResourceID, merged.StartTime, merged.EndTime, id); err != nil {
				return err
			}
		}
		return s.repo.UpdateSchedule(txCtx, merged)
	})
	unlock()
	if err != nil {
		return nil, s.storeError("update", id, existing.ResourceID, err)
	}

	s.log.Info("Booking updated successfully",
		"id", id,
		"resource_id", merged.ResourceID,
		"schedule_changed", update.ChangesSchedule(),
	)
	s.afterCommit(ctx, model.EventBookingUpdated, model.NotifyBookingUpdated, merged)
	return merged, nil
}

func (s *bookingService) Cancel(ctx context.Context, actor model.Actor, id string) (*model.Booking, error) {
	id = sanitizer.SanitizeID(id)
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	existing, err := s.authorizedBooking(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !existing.IsConfirmed() {
		return nil, apperrors.AlreadyCancelled("Booking", id)
	}

	cancelled, err := s.repo.Cancel(ctx, id, s.timestamp())
	if err != nil {
		return nil, s.storeError("cancel", id, existing.ResourceID, err)
	}

	s.log.Info("Booking cancelled successfully",
		"id", id,
		"resource_id", cancelled.ResourceID,
		"cancelled_by", actor.UserID,
	)
	s.afterCommit(ctx, model.EventBookingCancelled, model.NotifyBookingCancelled, cancelled)
	return cancelled, nil
}

// HasConflict answers "would this window collide?" without writing. It runs
// the same check Create and Update run under the resource lock.
func (s *bookingService) HasConflict(ctx context.Context, check *model.ConflictCheck) (bool, error) {
	check.ResourceID = sanitizer.SanitizeID(check.ResourceID)
	check.ExcludeBookingID = sanitizer.SanitizeID(check.ExcludeBookingID)
	if err := s.validator.ValidateConflictCheck(check); err != nil {
		return false, validationError(err)
	}
	if err := s.requireResource(ctx, check.ResourceID); err != nil {
		return false, err
	}

	_, found, err := s.findConflict(ctx, check.ResourceID, normalizeTime(check.StartTime), normalizeTime(check.EndTime), check.ExcludeBookingID)
	if err != nil {
		return false, s.storeError("check conflict", "", check.ResourceID, err)
	}
	return found, nil
}

func (s *bookingService) GetByID(ctx context.Context, actor model.Actor, id string) (*model.Booking, error) {
	id = sanitizer.SanitizeID(id)
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	return s.authorizedBooking(ctx, actor, id)
}

func (s *bookingService) ListMine(ctx context.Context, actor model.Actor, filter model.BookingFilter) ([]*model.Booking, int64, error) {
	if actor.UserID == "" {
		return nil, 0, apperrors.Unauthorized("authentication required")
	}
	filter.UserID = actor.UserID
	return s.list(ctx, filter)
}

// ListByResource returns the confirmed bookings of a resource, which any
// authenticated user may see to pick a free slot.
func (s *bookingService) ListByResource(ctx context.Context, resourceID string, filter model.BookingFilter) ([]*model.Booking, int64, error) {
	resourceID = sanitizer.SanitizeID(resourceID)
	if resourceID == "" {
		return nil, 0, apperrors.InvalidInput("Resource ID cannot be empty")
	}
	if err := s.requireResource(ctx, resourceID); err != nil {
		return nil, 0, err
	}

	filter.ResourceID = resourceID
	filter.Status = model.StatusConfirmed
	filter.UserID = ""
	return s.list(ctx, filter)
}

func (s *bookingService) ListAll(ctx context.Context, actor model.Actor, filter model.BookingFilter) ([]*model.Booking, int64, error) {
	if !actor.IsAdmin {
		return nil, 0, apperrors.Forbidden("admin access required")
	}
	return s.list(ctx, filter)
}

func (s *bookingService) list(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, int64, error) {
	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(ctx, filter)
		if err != nil {
			s.log.Error("Failed to count bookings", "error", err)
			errCount = s.storeError("count", "", filter.ResourceID, err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		bookings, err = s.repo.Find(ctx, filter)
		if err != nil {
			s.log.Error("Failed to list bookings",
				"resource_id", filter.ResourceID,
				"user_id", filter.UserID,
				"limit", filter.Limit,
				"offset", filter.Offset,
				"error", err,
			)
			errFind = s.storeError("list", "", filter.ResourceID, err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	s.log.Debug("Booking search completed",
		"resource_id", filter.ResourceID,
		"user_id", filter.UserID,
		"count", len(bookings),
		"total_count", count,
	)
	return bookings, count, nil
}

// --- Helpers ---

func (s *bookingService) timestamp() time.Time {
	return normalizeTime(s.now())
}

func (s *bookingService) authorizedBooking(ctx context.Context, actor model.Actor, id string) (*model.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.storeError("get", id, "", err)
	}
	if !booking.OwnedBy(actor) {
		s.log.Warn("Booking access denied", "id", id, "user_id", actor.UserID)
		return nil, apperrors.Forbidden("You do not have access to this booking")
	}
	return booking, nil
}

func (s *bookingService) requireResource(ctx context.Context, id string) error {
	_, err := s.resources.FindByID(ctx, id)
	if err != nil {
		return s.storeError("get resource", "", id, err)
	}
	return nil
}

func (s *bookingService) requireActiveResource(ctx context.Context, id string) error {
	resource, err := s.resources.FindByID(ctx, id)
	if err != nil {
		return s.storeError("get resource", "", id, err)
	}
	if !resource.IsActive {
		return apperrors.NotFoundWithID("Resource", id)
	}
	return nil
}

func (s *bookingService) findConflict(ctx context.Context, resourceID string, start, end time.Time, excludeID string) (conflict.Interval, bool, error) {
	existing, err := s.repo.FindConfirmedIntervals(ctx, resourceID, start, end)
	if err != nil {
		return conflict.Interval{}, false, err
	}
	blocker, found := conflict.FirstConflict(existing, conflict.Interval{ID: excludeID, Start: start, End: end}, excludeID)
	return blocker, found, nil
}

func (s *bookingService) ensureNoConflict(ctx context.Context, resourceID string, start, end time.Time, excludeID string) error {
	blocker, found, err := s.findConflict(ctx, resourceID, start, end, excludeID)
	if err != nil {
		return err
	}
	if found {
		return apperrors.Conflict("Booking time overlaps with an existing booking").WithDetails(map[string]any{
			"resource_id": resourceID,
			"start_time":  blocker.Start.Format(time.RFC3339),
			"end_time":    blocker.End.Format(time.RFC3339),
		})
	}
	return nil
}

// afterCommit fans the committed booking out to live viewers and the email
// side-channel. Neither can fail the operation.
func (s *bookingService) afterCommit(ctx context.Context, evtType model.EventType, kind model.NotificationKind, booking *model.Booking) {
	delivered := s.events.Publish(booking.ResourceID, model.BookingEvent(evtType, booking, s.now().UTC()))
	s.log.Debug("Booking event published", "id", booking.ID, "event_type", evtType, "delivered", delivered)
	s.notifier.Dispatch(ctx, model.NewNotification(kind, booking))
}

// storeError maps repository failures onto the API's error codes. Transient
// store trouble is SERVICE_UNAVAILABLE, never CONFLICT.
func (s *bookingService) storeError(op, id, resourceID string, err error) error {
	if apperrors.IsAppError(err) {
		return err
	}

	switch {
	case errors.Is(err, bookingserrors.ErrTimeConflict):
		return apperrors.Conflict("Booking time overlaps with an existing booking")
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingserrors.ErrAlreadyCancelled):
		return apperrors.AlreadyCancelled("Booking", id)
	case errors.Is(err, bookingserrors.ErrResourceNotFound):
		return apperrors.NotFoundWithID("Resource", resourceID)
	case errors.Is(err, bookingserrors.ErrInvalidInterval):
		return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format")
	case errors.Is(err, bookingserrors.ErrStoreUnavailable), repository.IsTransient(err):
		s.log.Warn("Booking store unavailable", "operation", op, "id", id, "error", err)
		return apperrors.UnavailableWithCause(storeName, err)
	}

	s.log.Error("Booking store operation failed", "operation", op, "id", id, "resource_id", resourceID, "error", err)
	return apperrors.Internal("Failed to "+op+" booking", err)
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation("Booking validation failed", map[string]any{"errors": verrs})
	}
	return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
}

func mergeBookingUpdate(existing *model.Booking, update *model.BookingUpdate) *model.Booking {
	merged := *existing

	if update.StartTime != nil {
		merged.StartTime = normalizeTime(*update.StartTime)
	}
	if update.EndTime != nil {
		merged.EndTime = normalizeTime(*update.EndTime)
	}
	if update.Notes != nil {
		merged.Notes = strings.TrimSpace(*update.Notes)
	}

	return &merged
}

// normalizeTime stores instants in UTC at millisecond precision, the finest
// resolution every backing store keeps.
func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
