package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	bookingserrors "bookfast/internal/bookings/errors"
	bookingsrepo "bookfast/internal/bookings/repository"
	"bookfast/internal/resources/repository"
	apperrors "bookfast/pkg/errors"
	"bookfast/pkg/logger"
	"bookfast/pkg/model"
	"bookfast/pkg/sanitizer"
)

const storeName = "Resource store"

// ResourceFilter narrows the catalog listing. Zero values do not filter.
type ResourceFilter struct {
	Type            model.ResourceType
	MinCapacity     int
	MaxCapacity     int
	Search          string
	IncludeInactive bool
}

type ResourceService interface {
	List(ctx context.Context, actor model.Actor, filter ResourceFilter) ([]*model.Resource, error)
	GetByID(ctx context.Context, id string) (*model.Resource, error)
}

type resourceService struct {
	repo repository.ResourceRepository
	log  *logger.Logger
}

func NewResourceService(repo repository.ResourceRepository, log *logger.Logger) ResourceService {
	return &resourceService{repo: repo, log: log}
}

// List returns active resources sorted by name. Admins may ask for inactive
// ones too.
func (s *resourceService) List(ctx context.Context, actor model.Actor, filter ResourceFilter) ([]*model.Resource, error) {
	if filter.IncludeInactive && !actor.IsAdmin {
		return nil, apperrors.Forbidden("admin access required to list inactive resources")
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, apperrors.InvalidInput("invalid resource type: " + string(filter.Type))
	}
	if filter.MinCapacity < 0 || filter.MaxCapacity < 0 {
		return nil, apperrors.InvalidInput("capacity bounds cannot be negative")
	}
	if filter.MaxCapacity > 0 && filter.MinCapacity > filter.MaxCapacity {
		return nil, apperrors.InvalidInput("min_capacity cannot exceed max_capacity")
	}

	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, s.storeError("list", "", err)
	}

	search := strings.ToLower(sanitizer.TrimAndNormalize(filter.Search))
	out := make([]*model.Resource, 0, len(all))
	for _, r := range all {
		if !filter.IncludeInactive && !r.IsActive {
			continue
		}
		if filter.Type != "" && r.Type != filter.Type {
			continue
		}
		if filter.MinCapacity > 0 && r.Capacity < filter.MinCapacity {
			continue
		}
		if filter.MaxCapacity > 0 && r.Capacity > filter.MaxCapacity {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(r.Name), search) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	s.log.Debug("Resource search completed", "type", filter.Type, "count", len(out))
	return out, nil
}

func (s *resourceService) GetByID(ctx context.Context, id string) (*model.Resource, error) {
	id = sanitizer.SanitizeID(id)
	if id == "" {
		return nil, apperrors.InvalidInput("Resource ID cannot be empty")
	}

	resource, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.storeError("get", id, err)
	}
	return resource, nil
}

func (s *resourceService) storeError(op, id string, err error) error {
	switch {
	case errors.Is(err, bookingserrors.ErrResourceNotFound):
		return apperrors.NotFoundWithID("Resource", id)
	case bookingsrepo.IsTransient(err):
		s.log.Warn("Resource store unavailable", "operation", op, "id", id, "error", err)
		return apperrors.UnavailableWithCause(storeName, err)
	}

	s.log.Error("Resource store operation failed", "operation", op, "id", id, "error", err)
	return apperrors.Internal("Failed to "+op+" resource", err)
}
