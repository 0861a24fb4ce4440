package realtime

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	bookingserrors "bookfast/internal/bookings/errors"
	"bookfast/internal/locks"
	"bookfast/pkg/logger"
	"bookfast/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResources struct {
	known map[string]bool
	err   error
}

func (f *fakeResources) FindByID(_ context.Context, id string) (*model.Resource, error) {
	if f.err != nil {
		return nil, f.err
	}
	if !f.known[id] {
		return nil, bookingserrors.ErrResourceNotFound
	}
	return &model.Resource{ID: id, Name: id, Type: model.ResourceRoom, IsActive: true}, nil
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type gatewayFixture struct {
	gateway  *Gateway
	hub      *Hub
	registry *locks.Registry
	clock    *testClock
	lookup   *fakeResources
}

func newGatewayFixture() *gatewayFixture {
	clock := &testClock{now: time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)}
	log := logger.Discard()
	hub := NewHub(log)
	registry := locks.NewRegistry(locks.DefaultTTL, log, locks.WithClock(clock.Now))
	lookup := &fakeResources{known: map[string]bool{"room-1": true, "room-2": true}}
	return &gatewayFixture{
		gateway:  NewGateway(hub, registry, lookup, log),
		hub:      hub,
		registry: registry,
		clock:    clock,
		lookup:   lookup,
	}
}

func slotAction(resourceID string) *SlotAction {
	start := time.Date(2030, 1, 2, 10, 0, 0, 0, time.UTC)
	return &SlotAction{ResourceID: resourceID, StartTime: start, EndTime: start.Add(time.Hour)}
}

func joinMsg(id int, resourceID string) *ClientMessage {
	return &ClientMessage{ID: id, Join: &Join{ResourceID: resourceID}}
}

func TestGateway_Join(t *testing.T) {
	tests := []struct {
		name       string
		resourceID string
		lookupErr  error
		wantCode   int
		subscribed bool
	}{
		{name: "known resource", resourceID: "room-1", wantCode: http.StatusOK, subscribed: true},
		{name: "unknown resource", resourceID: "nope", wantCode: http.StatusNotFound},
		{name: "missing resource id", resourceID: "", wantCode: http.StatusBadRequest},
		{name: "store down", resourceID: "room-1", lookupErr: errors.New("connection refused"), wantCode: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGatewayFixture()
			f.lookup.err = tt.lookupErr
			s := newFakeSession("s1", "alice")

			reply := f.gateway.Handle(context.Background(), s, joinMsg(7, tt.resourceID))

			require.NotNil(t, reply.Response)
			assert.Equal(t, 7, reply.ID)
			assert.Equal(t, tt.wantCode, reply.Response.ResponseCode)
			assert.Equal(t, tt.subscribed, f.hub.IsSubscribed(s, tt.resourceID))
		})
	}
}

func TestGateway_JoinReturnsCurrentLocks(t *testing.T) {
	f := newGatewayFixture()
	f.registry.Acquire(slotAction("room-1").Slot(), "bob", 0)
	f.registry.Acquire(slotAction("room-2").Slot(), "carol", 0)

	reply := f.gateway.Handle(context.Background(), newFakeSession("s1", "alice"), joinMsg(1, "room-1"))

	require.Equal(t, http.StatusOK, reply.Response.ResponseCode)
	current, ok := reply.Response.Data["locks"].([]model.TentativeLock)
	require.True(t, ok)
	require.Len(t, current, 1)
	assert.Equal(t, "bob", current[0].UserID)
}

func TestGateway_LockRequiresJoin(t *testing.T) {
	f := newGatewayFixture()
	s := newFakeSession("s1", "alice")

	reply := f.gateway.Handle(context.Background(), s, &ClientMessage{ID: 2, Lock: slotAction("room-1")})

	assert.Equal(t, http.StatusConflict, reply.Response.ResponseCode)
	assert.Equal(t, 0, f.registry.Len())
}

func TestGateway_LockValidatesSlot(t *testing.T) {
	f := newGatewayFixture()
	s := newFakeSession("s1", "alice")
	f.gateway.Handle(context.Background(), s, joinMsg(1, "room-1"))

	inverted := slotAction("room-1")
	inverted.StartTime, inverted.EndTime = inverted.EndTime, inverted.StartTime

	for name, action := range map[string]*SlotAction{
		"inverted":    inverted,
		"zero times":  {ResourceID: "room-1"},
		"no resource": {StartTime: inverted.EndTime, EndTime: inverted.StartTime},
	} {
		t.Run(name, func(t *testing.T) {
			reply := f.gateway.Handle(context.Background(), s, &ClientMessage{Lock: action})
			assert.Equal(t, http.StatusBadRequest, reply.Response.ResponseCode)
		})
	}
	assert.Equal(t, 0, f.registry.Len())
}

func TestGateway_LockBroadcastsToViewers(t *testing.T) {
	f := newGatewayFixture()
	alice := newFakeSession("s1", "alice")
	bob := newFakeSession("s2", "bob")
	outsider := newFakeSession("s3", "carol")
	ctx := context.Background()

	f.gateway.Handle(ctx, alice, joinMsg(1, "room-1"))
	f.gateway.Handle(ctx, bob, joinMsg(1, "room-1"))
	f.gateway.Handle(ctx, outsider, joinMsg(1, "room-2"))

	reply := f.gateway.Handle(ctx, alice, &ClientMessage{ID: 3, Lock: slotAction("room-1")})
	require.Equal(t, http.StatusOK, reply.Response.ResponseCode)
	assert.Equal(t, f.clock.Now().Add(locks.DefaultTTL), reply.Response.Data["expires_at"])

	events := bob.Events()
	require.Len(t, events, 1)
	assert.Equal(t, model.EventSlotLocked, events[0].Type)
	assert.Equal(t, "alice", events[0].Slot.UserID)
	assert.Len(t, alice.Events(), 1)
	assert.Empty(t, outsider.Events())
}

func TestGateway_LastLockerWins(t *testing.T) {
	f := newGatewayFixture()
	alice := newFakeSession("s1", "alice")
	bob := newFakeSession("s2", "bob")
	viewer := newFakeSession("s3", "carol")
	ctx := context.Background()

	for _, s := range []*fakeSession{alice, bob, viewer} {
		f.gateway.Handle(ctx, s, joinMsg(1, "room-1"))
	}

	f.gateway.Handle(ctx, alice, &ClientMessage{Lock: slotAction("room-1")})
	f.clock.Advance(time.Second)
	f.gateway.Handle(ctx, bob, &ClientMessage{Lock: slotAction("room-1")})

	events := viewer.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "alice", events[0].Slot.UserID)
	assert.Equal(t, "bob", events[1].Slot.UserID)

	held, ok := f.registry.Get(slotAction("room-1").Slot())
	require.True(t, ok)
	assert.Equal(t, "bob", held.UserID)
}

func TestGateway_Unlock(t *testing.T) {
	f := newGatewayFixture()
	alice := newFakeSession("s1", "alice")
	viewer := newFakeSession("s2", "bob")
	ctx := context.Background()
	f.gateway.Handle(ctx, alice, joinMsg(1, "room-1"))
	f.gateway.Handle(ctx, viewer, joinMsg(1, "room-1"))

	reply := f.gateway.Handle(ctx, alice, &ClientMessage{Unlock: slotAction("room-1")})
	assert.Equal(t, false, reply.Response.Data["released"])
	assert.Empty(t, viewer.Events())

	f.gateway.Handle(ctx, alice, &ClientMessage{Lock: slotAction("room-1")})
	reply = f.gateway.Handle(ctx, alice, &ClientMessage{Unlock: slotAction("room-1")})
	assert.Equal(t, true, reply.Response.Data["released"])

	events := viewer.Events()
	require.Len(t, events, 2)
	assert.Equal(t, model.EventSlotUnlocked, events[1].Type)
	assert.Empty(t, events[1].Slot.UserID)
	assert.Equal(t, 0, f.registry.Len())
}

func TestGateway_LeaveStopsDelivery(t *testing.T) {
	f := newGatewayFixture()
	alice := newFakeSession("s1", "alice")
	bob := newFakeSession("s2", "bob")
	ctx := context.Background()
	f.gateway.Handle(ctx, alice, joinMsg(1, "room-1"))
	f.gateway.Handle(ctx, bob, joinMsg(1, "room-1"))

	reply := f.gateway.Handle(ctx, bob, &ClientMessage{Leave: &Leave{ResourceID: "room-1"}})
	assert.Equal(t, true, reply.Response.Data["left"])

	f.gateway.Handle(ctx, alice, &ClientMessage{Lock: slotAction("room-1")})
	assert.Empty(t, bob.Events())
}

func TestGateway_DisconnectKeepsLocks(t *testing.T) {
	f := newGatewayFixture()
	alice := newFakeSession("s1", "alice")
	ctx := context.Background()
	f.gateway.Handle(ctx, alice, joinMsg(1, "room-1"))
	f.gateway.Handle(ctx, alice, joinMsg(1, "room-2"))
	f.gateway.Handle(ctx, alice, &ClientMessage{Lock: slotAction("room-1")})

	f.gateway.Disconnect(alice)

	assert.Equal(t, 0, f.hub.Topics())
	assert.Equal(t, 1, f.registry.Len())
}

func TestGateway_UnknownAction(t *testing.T) {
	f := newGatewayFixture()

	reply := f.gateway.Handle(context.Background(), newFakeSession("s1", "alice"), &ClientMessage{ID: 9})

	assert.Equal(t, 9, reply.ID)
	assert.Equal(t, http.StatusBadRequest, reply.Response.ResponseCode)
}
