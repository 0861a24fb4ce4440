package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookfast/internal/bookings/conflict"
	bookingserrors "bookfast/internal/bookings/errors"
	"bookfast/pkg/config"
	mongotx "bookfast/pkg/db/mongo"
	"bookfast/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GuardsCollectionName holds one document per resource. Every write to a
// resource's bookings bumps it, so two transactions that both passed the
// overlap check collide on the guard and the driver retries the loser, which
// then sees the winner's booking.
const GuardsCollectionName = "Booking_guards"

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	guards     *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		guards:     db.Collection(GuardsCollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoBookingRepository) Insert(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := r.bumpGuard(ctx, booking.ResourceID); err != nil {
		return err
	}
	if _, err := r.collection.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var booking model.Booking
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepository) FindConfirmedIntervals(ctx context.Context, resourceID string, from, to time.Time) ([]conflict.Interval, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"resource_id": resourceID,
		"status":      model.StatusConfirmed,
		"start_time":  bson.M{"$lt": to},
		"end_time":    bson.M{"$gt": from},
	}
	opts := options.Find().SetProjection(bson.M{"_id": 1, "start_time": 1, "end_time": 1})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return conflict.FromBookings(bookings), nil
}

func (r *mongoBookingRepository) UpdateSchedule(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := r.bumpGuard(ctx, booking.ResourceID); err != nil {
		return err
	}

	filter := bson.M{"_id": booking.ID, "status": model.StatusConfirmed}
	update := bson.M{
		"$set": bson.M{
			"start_time": booking.StartTime,
			"end_time":   booking.EndTime,
			"notes":      booking.Notes,
			"updated_at": booking.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if result.MatchedCount == 0 {
		return r.missingOrCancelled(ctx, booking.ID)
	}
	return nil
}

func (r *mongoBookingRepository) Cancel(ctx context.Context, id string, at time.Time) (*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"_id": id, "status": model.StatusConfirmed}
	update := bson.M{"$set": bson.M{"status": model.StatusCancelled, "updated_at": at}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking model.Booking
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, r.missingOrCancelled(ctx, id)
		}
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepository) Find(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}, {Key: "_id", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	if filter.Offset > 0 {
		opts.SetSkip(filter.Offset)
	}

	cursor, err := r.collection.Find(ctx, buildSearchFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := make([]*model.Booking, 0)
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepository) Count(ctx context.Context, filter model.BookingFilter) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildSearchFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn TxFunc) error {
	return r.txManager.ExecuteTransaction(ctx, mongotx.TransactionFunc(fn))
}

func (r *mongoBookingRepository) bumpGuard(ctx context.Context, resourceID string) error {
	_, err := r.guards.UpdateOne(ctx,
		bson.M{"_id": resourceID},
		bson.M{"$inc": bson.M{"version": 1}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to bump booking guard: %w", err)
	}
	return nil
}

func (r *mongoBookingRepository) missingOrCancelled(ctx context.Context, id string) error {
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to find booking: %w", err)
	}
	if n == 0 {
		return bookingserrors.ErrNotFound
	}
	return bookingserrors.ErrAlreadyCancelled
}

func buildSearchFilter(f model.BookingFilter) bson.M {
	filter := bson.M{}
	if f.ResourceID != "" {
		filter["resource_id"] = f.ResourceID
	}
	if f.UserID != "" {
		filter["user_id"] = f.UserID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.To != nil {
		filter["start_time"] = bson.M{"$lt": *f.To}
	}
	if f.From != nil {
		filter["end_time"] = bson.M{"$gt": *f.From}
	}
	return filter
}
