package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"collab-platform-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEventBus struct {
	mu          sync.Mutex
	published   [][]byte
	handler     func([]byte)
	publishErr  error
	subFailures int
}

func (b *fakeEventBus) Publish(_ context.Context, _ string, payload []byte) error {
	if b.publishErr != nil {
		return b.publishErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, payload)
	return nil
}

func (b *fakeEventBus) Subscribe(_ context.Context, _ string, handler func([]byte)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subFailures > 0 {
		b.subFailures--
		return errors.New("connection refused")
	}
	b.handler = handler
	return nil
}

func (b *fakeEventBus) subscribed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handler != nil
}

func (b *fakeEventBus) relay(payload []byte) {
	b.mu.Lock()
	handler := b.handler
	b.mu.Unlock()
	handler(payload)
}

func TestFanoutPublishMarshalsEvent(t *testing.T) {
	bus := &fakeEventBus{}
	svc := NewFanoutService(bus, "events", newFakeLocalDelivery(), nopLogger{})

	event := events.New(events.FileChanged, "ws-1", uuid.New(), "alice", map[string]interface{}{"file": "a.go"})
	svc.Publish(event)

	require.Len(t, bus.published, 1)
	var decoded events.CollaborationEvent
	require.NoError(t, json.Unmarshal(bus.published[0], &decoded))
	assert.Equal(t, event.Id, decoded.Id)
	assert.Equal(t, events.FileChanged, decoded.Type)
}

func TestFanoutPublishSwallowsBrokerErrors(t *testing.T) {
	bus := &fakeEventBus{publishErr: errors.New("redis down")}
	svc := NewFanoutService(bus, "events", newFakeLocalDelivery(), nopLogger{})

	// Must not panic or block; the gateway path never sees broker failures.
	svc.Publish(events.New(events.CursorMoved, "ws-1", uuid.New(), "alice", nil))
}

func TestFanoutRelayDeliversLocallyWithoutRepublish(t *testing.T) {
	bus := &fakeEventBus{}
	local := newFakeLocalDelivery()
	svc := NewFanoutService(bus, "events", local, nopLogger{})
	require.NoError(t, svc.Start(context.Background()))

	event := events.New(events.UserJoined, "ws-9", uuid.New(), "bob", nil)
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	bus.relay(payload)

	require.Len(t, local.frames["ws-9"], 1)
	assert.JSONEq(t, string(payload), string(local.frames["ws-9"][0]))
	// Relay must not echo back onto the broker.
	assert.Empty(t, bus.published)
}

func TestFanoutRelayIgnoresMalformedPayloads(t *testing.T) {
	bus := &fakeEventBus{}
	local := newFakeLocalDelivery()
	svc := NewFanoutService(bus, "events", local, nopLogger{})
	require.NoError(t, svc.Start(context.Background()))

	bus.relay([]byte("not json"))
	bus.relay([]byte(`{"type":"user_joined","workspace_id":""}`))

	assert.Empty(t, local.frames)
}

func TestFanoutStartSurvivesBrokerOutage(t *testing.T) {
	bus := &fakeEventBus{subFailures: 2}
	local := newFakeLocalDelivery()
	svc := NewFanoutService(bus, "events", local, nopLogger{})
	svc.(*fanoutService).retryInterval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A dead broker at boot must not error out; the gateway keeps serving
	// local-only delivery while the subscription retries in the background.
	require.NoError(t, svc.Start(ctx))
	assert.False(t, bus.subscribed())

	require.Eventually(t, bus.subscribed, time.Second, 5*time.Millisecond)

	event := events.New(events.UserJoined, "ws-1", uuid.New(), "alice", nil)
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	bus.relay(payload)

	require.Len(t, local.frames["ws-1"], 1)
}
