// Package notify hands committed booking changes to the email side-channel.
// Delivery is best effort: callers fire and forget, failures are logged.
package notify

import (
	"context"
	"sync"
	"time"

	"bookfast/pkg/kafka"
	"bookfast/pkg/logger"
	"bookfast/pkg/middleware"
	"bookfast/pkg/model"
)

const (
	schemaVersion = "1"
	sourceService = "bookings"
)

type Notifier interface {
	Notify(ctx context.Context, n model.Notification) error
}

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaNotifier publishes notifications keyed by booking id so every change
// to one booking lands on the same partition in order.
type KafkaNotifier struct {
	producer Publisher
}

func NewKafkaNotifier(producer Publisher) *KafkaNotifier {
	return &KafkaNotifier{producer: producer}
}

func (k *KafkaNotifier) Notify(ctx context.Context, n model.Notification) error {
	msg, err := kafka.NewMessage().
		WithKey(n.BookingID).
		WithValue(n).
		WithEventType(string(n.Kind)).
		WithCorrelationID(middleware.RequestIDFromContext(ctx)).
		WithSchemaVersion(schemaVersion).
		WithSource(sourceService).
		Build()
	if err != nil {
		return err
	}
	return k.producer.Publish(ctx, msg)
}

// LogNotifier is used when no broker is configured.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Notify(_ context.Context, n model.Notification) error {
	l.log.Info("Booking notification",
		"kind", n.Kind,
		"booking_id", n.BookingID,
		"user_id", n.UserID,
		"resource_id", n.ResourceID,
		"start_time", n.StartTime.Format(time.RFC3339),
		"end_time", n.EndTime.Format(time.RFC3339),
	)
	return nil
}

// Dispatcher runs notifications in the background with their own deadline so
// a slow broker never holds up the request that triggered them.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	log      *logger.Logger
	wg       sync.WaitGroup
}

func NewDispatcher(notifier Notifier, timeout time.Duration, log *logger.Logger) *Dispatcher {
	return &Dispatcher{notifier: notifier, timeout: timeout, log: log.Component("notify")}
}

func (d *Dispatcher) Dispatch(ctx context.Context, n model.Notification) {
	id := middleware.RequestIDFromContext(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(middleware.WithRequestID(context.Background(), id), d.timeout)
		defer cancel()
		if err := d.notifier.Notify(ctx, n); err != nil {
			d.log.Error("Failed to send booking notification",
				"kind", n.Kind,
				"booking_id", n.BookingID,
				"transient", kafka.IsTransient(err),
				"error", err,
			)
		}
	}()
}

// Wait blocks until in-flight notifications finish. Called on shutdown
// before the producer is closed.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
