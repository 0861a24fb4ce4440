package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookfast/internal/bookings/conflict"
	bookingserrors "bookfast/internal/bookings/errors"
	"bookfast/pkg/config"
	"bookfast/pkg/db/postgres"
	"bookfast/pkg/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgExclusionViolation  = "23P01"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"

	bookingColumns = "id, resource_id, user_id, start_time, end_time, status, notes, created_at, updated_at"
)

type postgresBookingRepository struct {
	cfg       *config.Config
	pool      *pgxpool.Pool
	txManager *postgres.TransactionManager
}

func NewPostgresBookingRepository(cfg *config.Config) BookingRepository {
	return &postgresBookingRepository{
		cfg:       cfg,
		pool:      cfg.Client.Postgres,
		txManager: postgres.NewTransactionManager(cfg.Client.Postgres),
	}
}

func (r *postgresBookingRepository) Insert(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := postgres.Conn(ctx, r.pool).Exec(ctx, query,
		booking.ID,
		booking.ResourceID,
		booking.UserID,
		booking.StartTime,
		booking.EndTime,
		booking.Status,
		booking.Notes,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create booking: %w", translatePgError(err))
	}
	return nil
}

func (r *postgresBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	booking, err := scanBooking(postgres.Conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}
	return booking, nil
}

func (r *postgresBookingRepository) FindConfirmedIntervals(ctx context.Context, resourceID string, from, to time.Time) ([]conflict.Interval, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query := `
		SELECT id, start_time, end_time
		FROM bookings
		WHERE resource_id = $1 AND status = $2 AND start_time < $3 AND end_time > $4
	`
	rows, err := postgres.Conn(ctx, r.pool).Query(ctx, query, resourceID, model.StatusConfirmed, to, from)
	if err != nil {
		return nil, fmt.Errorf("find overlapping bookings: %w", err)
	}
	defer rows.Close()

	var intervals []conflict.Interval
	for rows.Next() {
		var iv conflict.Interval
		if err := rows.Scan(&iv.ID, &iv.Start, &iv.End); err != nil {
			return nil, fmt.Errorf("scan interval: %w", err)
		}
		intervals = append(intervals, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate intervals: %w", err)
	}
	return intervals, nil
}

func (r *postgresBookingRepository) UpdateSchedule(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	query := `
		UPDATE bookings
		SET start_time = $1, end_time = $2, notes = $3, updated_at = $4
		WHERE id = $5 AND status = $6
	`
	tag, err := postgres.Conn(ctx, r.pool).Exec(ctx, query,
		booking.StartTime,
		booking.EndTime,
		booking.Notes,
		booking.UpdatedAt,
		booking.ID,
		model.StatusConfirmed,
	)
	if err != nil {
		return fmt.Errorf("update booking: %w", translatePgError(err))
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrCancelled(ctx, booking.ID)
	}
	return nil
}

func (r *postgresBookingRepository) Cancel(ctx context.Context, id string, at time.Time) (*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	query := `
		UPDATE bookings
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
		RETURNING ` + bookingColumns
	booking, err := scanBooking(postgres.Conn(ctx, r.pool).QueryRow(ctx, query,
		model.StatusCancelled, at, id, model.StatusConfirmed))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.missingOrCancelled(ctx, id)
		}
		return nil, fmt.Errorf("cancel booking: %w", err)
	}
	return booking, nil
}

func (r *postgresBookingRepository) Find(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	where, args := buildWhere(filter)
	query := `SELECT ` + bookingColumns + ` FROM bookings` + where + ` ORDER BY start_time, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := postgres.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*model.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}
	return bookings, nil
}

func (r *postgresBookingRepository) Count(ctx context.Context, filter model.BookingFilter) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	where, args := buildWhere(filter)
	var count int64
	if err := postgres.Conn(ctx, r.pool).QueryRow(ctx, `SELECT count(*) FROM bookings`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count bookings: %w", err)
	}
	return count, nil
}

func (r *postgresBookingRepository) ExecuteTransaction(ctx context.Context, fn TxFunc) error {
	return r.txManager.ExecuteTransaction(ctx, postgres.TransactionFunc(fn))
}

func (r *postgresBookingRepository) missingOrCancelled(ctx context.Context, id string) error {
	var exists bool
	err := postgres.Conn(ctx, r.pool).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("get booking by id: %w", err)
	}
	if !exists {
		return bookingserrors.ErrNotFound
	}
	return bookingserrors.ErrAlreadyCancelled
}

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var b model.Booking
	err := row.Scan(
		&b.ID,
		&b.ResourceID,
		&b.UserID,
		&b.StartTime,
		&b.EndTime,
		&b.Status,
		&b.Notes,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.StartTime = b.StartTime.UTC()
	b.EndTime = b.EndTime.UTC()
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return &b, nil
}

func buildWhere(f model.BookingFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if f.ResourceID != "" {
		add("resource_id = $%d", f.ResourceID)
	}
	if f.UserID != "" {
		add("user_id = $%d", f.UserID)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.To != nil {
		add("start_time < $%d", *f.To)
	}
	if f.From != nil {
		add("end_time > $%d", *f.From)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// translatePgError maps constraint violations onto domain errors. The
// exclusion constraint is the store-level backstop for overlapping bookings.
func translatePgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgExclusionViolation:
		return bookingserrors.ErrTimeConflict
	case pgForeignKeyViolation:
		return bookingserrors.ErrResourceNotFound
	case pgCheckViolation:
		return bookingserrors.ErrInvalidInterval
	}
	return err
}
