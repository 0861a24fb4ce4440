package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "bookfast/internal/bookings/errors"
	"bookfast/pkg/config"
	"bookfast/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoResourceRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoResourceRepository(cfg *config.Config) ResourceRepository {
	return &mongoResourceRepository{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(CollectionName),
	}
}

func (r *mongoResourceRepository) FindByID(ctx context.Context, id string) (*model.Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var res model.Resource
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&res); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrResourceNotFound
		}
		return nil, fmt.Errorf("failed to find resource: %w", err)
	}
	return &res, nil
}

func (r *mongoResourceRepository) FindAll(ctx context.Context) ([]*model.Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find resources: %w", err)
	}
	defer cursor.Close(ctx)

	resources := make([]*model.Resource, 0)
	if err := cursor.All(ctx, &resources); err != nil {
		return nil, fmt.Errorf("failed to decode resources: %w", err)
	}
	return resources, nil
}

func (r *mongoResourceRepository) Upsert(ctx context.Context, resource *model.Resource) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	update := bson.M{
		"$set": bson.M{
			"name":       resource.Name,
			"type":       resource.Type,
			"capacity":   resource.Capacity,
			"is_active":  resource.IsActive,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": resource.ID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert resource: %w", err)
	}
	return nil
}
