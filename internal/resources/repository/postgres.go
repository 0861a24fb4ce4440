package repository

import (
	"context"
	"errors"
	"fmt"

	bookingserrors "bookfast/internal/bookings/errors"
	"bookfast/pkg/config"
	"bookfast/pkg/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const resourceColumns = "id, name, type, capacity, is_active, created_at, updated_at"

type postgresResourceRepository struct {
	cfg  *config.Config
	pool *pgxpool.Pool
}

func NewPostgresResourceRepository(cfg *config.Config) ResourceRepository {
	return &postgresResourceRepository{cfg: cfg, pool: cfg.Client.Postgres}
}

func (r *postgresResourceRepository) FindByID(ctx context.Context, id string) (*model.Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	res, err := scanResource(r.pool.QueryRow(ctx, `SELECT `+resourceColumns+` FROM resources WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bookingserrors.ErrResourceNotFound
		}
		return nil, fmt.Errorf("get resource by id: %w", err)
	}
	return res, nil
}

func (r *postgresResourceRepository) FindAll(ctx context.Context) ([]*model.Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT `+resourceColumns+` FROM resources ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	defer rows.Close()

	resources := make([]*model.Resource, 0)
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		resources = append(resources, res)
	}
	return resources, rows.Err()
}

func (r *postgresResourceRepository) Upsert(ctx context.Context, resource *model.Resource) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	query := `
		INSERT INTO resources (id, name, type, capacity, is_active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, type = EXCLUDED.type, capacity = EXCLUDED.capacity,
		    is_active = EXCLUDED.is_active, updated_at = now()
	`
	_, err := r.pool.Exec(ctx, query, resource.ID, resource.Name, resource.Type, resource.Capacity, resource.IsActive)
	if err != nil {
		return fmt.Errorf("upsert resource: %w", err)
	}
	return nil
}

func scanResource(row pgx.Row) (*model.Resource, error) {
	var res model.Resource
	if err := row.Scan(&res.ID, &res.Name, &res.Type, &res.Capacity, &res.IsActive, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return nil, err
	}
	return &res, nil
}
