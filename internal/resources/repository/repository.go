// Package repository reads the resource catalog. Resources are managed
// elsewhere; this service only looks them up, and seeds them for local runs.
package repository

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	bookingserrors "bookfast/internal/bookings/errors"
	"bookfast/pkg/logger"
	"bookfast/pkg/model"

	"gopkg.in/yaml.v3"
)

const CollectionName = "Resources"

type ResourceRepository interface {
	FindByID(ctx context.Context, id string) (*model.Resource, error)
	FindAll(ctx context.Context) ([]*model.Resource, error)
	Upsert(ctx context.Context, resource *model.Resource) error
}

type catalogFile struct {
	Resources []*model.Resource `yaml:"resources"`
}

// LoadCatalog reads a YAML resource list:
//
//	resources:
//	  - id: room-101
//	    name: Room 101
//	    type: room
//	    capacity: 8
//	    is_active: true
func LoadCatalog(path string) ([]*model.Resource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read resource catalog: %w", err)
	}
	return ParseCatalog(raw)
}

func ParseCatalog(raw []byte) ([]*model.Resource, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse resource catalog: %w", err)
	}

	seen := make(map[string]bool, len(file.Resources))
	now := time.Now().UTC().Truncate(time.Millisecond)
	for i, r := range file.Resources {
		if r == nil || r.ID == "" {
			return nil, fmt.Errorf("resource %d: id is required", i)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("resource %s: duplicate id", r.ID)
		}
		seen[r.ID] = true
		if r.Name == "" {
			return nil, fmt.Errorf("resource %s: name is required", r.ID)
		}
		if !r.Type.Valid() {
			return nil, fmt.Errorf("resource %s: unknown type %q", r.ID, r.Type)
		}
		if r.Capacity <= 0 {
			r.Capacity = 1
		}
		r.CreatedAt = now
		r.UpdatedAt = now
	}
	return file.Resources, nil
}

// Seed upserts a catalog through any repository, so one catalog file serves
// every store driver.
func Seed(ctx context.Context, repo ResourceRepository, resources []*model.Resource, log *logger.Logger) error {
	for _, r := range resources {
		if err := repo.Upsert(ctx, r); err != nil {
			return fmt.Errorf("seed resource %s: %w", r.ID, err)
		}
	}
	log.Info("Resource catalog seeded", "count", len(resources))
	return nil
}

type memoryResourceRepository struct {
	mu        sync.RWMutex
	resources map[string]*model.Resource
}

func NewMemoryResourceRepository(resources []*model.Resource) ResourceRepository {
	repo := &memoryResourceRepository{resources: make(map[string]*model.Resource, len(resources))}
	for _, r := range resources {
		cp := *r
		repo.resources[r.ID] = &cp
	}
	return repo
}

func (r *memoryResourceRepository) FindByID(_ context.Context, id string) (*model.Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.resources[id]
	if !ok {
		return nil, bookingserrors.ErrResourceNotFound
	}
	cp := *res
	return &cp, nil
}

func (r *memoryResourceRepository) FindAll(_ context.Context) ([]*model.Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Resource, 0, len(r.resources))
	for _, res := range r.resources {
		cp := *res
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryResourceRepository) Upsert(_ context.Context, resource *model.Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *resource
	r.resources[resource.ID] = &cp
	return nil
}
