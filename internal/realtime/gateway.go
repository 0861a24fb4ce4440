package realtime

import (
	"context"
	"errors"

	bookingserrors "bookfast/internal/bookings/errors"
	"bookfast/internal/locks"
	"bookfast/pkg/logger"
	"bookfast/pkg/model"
)

// Session is a connected client as seen by the gateway.
type Session interface {
	Subscriber
	Actor() model.Actor
}

type ResourceLookup interface {
	FindByID(ctx context.Context, id string) (*model.Resource, error)
}

// Gateway turns client frames into hub subscriptions and registry updates.
type Gateway struct {
	hub       *Hub
	registry  *locks.Registry
	resources ResourceLookup
	log       *logger.Logger
}

func NewGateway(hub *Hub, registry *locks.Registry, resources ResourceLookup, log *logger.Logger) *Gateway {
	return &Gateway{
		hub:       hub,
		registry:  registry,
		resources: resources,
		log:       log,
	}
}

func (g *Gateway) Handle(ctx context.Context, s Session, msg *ClientMessage) *ServerMessage {
	switch {
	case msg.Join != nil:
		return g.join(ctx, s, msg.ID, msg.Join.ResourceID)
	case msg.Leave != nil:
		return g.leave(s, msg.ID, msg.Leave.ResourceID)
	case msg.Lock != nil:
		return g.lock(s, msg.ID, msg.Lock)
	case msg.Unlock != nil:
		return g.unlock(s, msg.ID, msg.Unlock)
	default:
		return ErrInvalidMessage(msg.ID, "unknown action")
	}
}

// Disconnect drops the session's subscriptions. Its tentative locks are left
// to expire.
func (g *Gateway) Disconnect(s Session) {
	n := g.hub.UnsubscribeAll(s)
	g.log.Debug("Session disconnected", "subscriber_id", s.ID(), "subscriptions", n)
}

func (g *Gateway) join(ctx context.Context, s Session, id int, resourceID string) *ServerMessage {
	if resourceID == "" {
		return ErrInvalidMessage(id, "resource_id is required")
	}

	if _, err := g.resources.FindByID(ctx, resourceID); err != nil {
		if errors.Is(err, bookingserrors.ErrResourceNotFound) {
			return ErrResourceNotFound(id)
		}
		g.log.Error("Resource lookup failed on join", "resource_id", resourceID, "error", err)
		return ErrServiceUnavailable(id)
	}

	g.hub.Subscribe(s, resourceID)
	return NoErrOK(id, map[string]any{
		"resource_id": resourceID,
		"locks":       g.registry.ForResource(resourceID),
	})
}

func (g *Gateway) leave(s Session, id int, resourceID string) *ServerMessage {
	if resourceID == "" {
		return ErrInvalidMessage(id, "resource_id is required")
	}
	left := g.hub.Unsubscribe(s, resourceID)
	return NoErrOK(id, map[string]any{"resource_id": resourceID, "left": left})
}

func (g *Gateway) lock(s Session, id int, action *SlotAction) *ServerMessage {
	if reply := g.validateSlot(s, id, action); reply != nil {
		return reply
	}

	lock, delivered := g.registry.AcquireAndPublish(action.Slot(), s.Actor().UserID, 0, g.hub)
	g.log.Debug("Slot locked",
		"resource_id", lock.ResourceID,
		"user_id", lock.UserID,
		"delivered", delivered,
	)
	return NoErrOK(id, map[string]any{"expires_at": lock.ExpiresAt})
}

func (g *Gateway) unlock(s Session, id int, action *SlotAction) *ServerMessage {
	if reply := g.validateSlot(s, id, action); reply != nil {
		return reply
	}

	released, _ := g.registry.ReleaseAndPublish(action.Slot(), g.hub)
	return NoErrOK(id, map[string]any{"released": released})
}

func (g *Gateway) validateSlot(s Session, id int, action *SlotAction) *ServerMessage {
	if action.ResourceID == "" {
		return ErrInvalidMessage(id, "resource_id is required")
	}
	if action.StartTime.IsZero() || action.EndTime.IsZero() {
		return ErrInvalidMessage(id, "start_time and end_time are required")
	}
	if !action.EndTime.After(action.StartTime) {
		return ErrInvalidMessage(id, "end_time must be after start_time")
	}
	if !g.hub.IsSubscribed(s, action.ResourceID) {
		return ErrNotSubscribed(id)
	}
	return nil
}
