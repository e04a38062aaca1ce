package ws

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/homenest/homenest-api/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusLog struct {
	mu      sync.Mutex
	changes map[uuid.UUID]bool
}

func (s *statusLog) record(id uuid.UUID, online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changes[id] = online
}

func (s *statusLog) get(id uuid.UUID) (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.changes[id]
	return v, ok
}

func newTestHub(t *testing.T) (*Hub, *statusLog) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	status := &statusLog{changes: map[uuid.UUID]bool{}}
	hub := NewHub(rdb, status.record)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub, status
}

func testClient(hub *Hub, userID uuid.UUID) *Client {
	return &Client{hub: hub, send: make(chan []byte, 16), UserID: userID, Name: "tester"}
}

func TestHubDeliversTargetedEvents(t *testing.T) {
	hub, status := newTestHub(t)
	alice, bob := uuid.New(), uuid.New()
	ca, cb := testClient(hub, alice), testClient(hub, bob)
	hub.Register(ca)
	hub.Register(cb)

	require.Eventually(t, func() bool { return hub.IsUserOnline(alice) && hub.IsUserOnline(bob) }, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { online, ok := status.get(alice); return ok && online }, time.Second, 10*time.Millisecond)

	// the subscriber may start after the first publish, so retry until one lands
	var got model.WSEvent
	require.Eventually(t, func() bool {
		hub.SendToUser(bob, &model.WSEvent{Type: model.WSEventAppointmentCreated, Payload: "viewing"})
		select {
		case data := <-cb.send:
			if err := json.Unmarshal(data, &got); err != nil {
				return false
			}
			return got.Type == model.WSEventAppointmentCreated
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "viewing", got.Payload)

	for {
		select {
		case data := <-ca.send:
			var ev model.WSEvent
			require.NoError(t, json.Unmarshal(data, &ev))
			assert.NotEqual(t, model.WSEventAppointmentCreated, ev.Type, "alice must not receive bob's event")
			continue
		default:
		}
		break
	}
}

func TestHubOfflineOnLastConnection(t *testing.T) {
	hub, status := newTestHub(t)
	alice, bob := uuid.New(), uuid.New()
	phone, laptop := testClient(hub, alice), testClient(hub, alice)
	watcher := testClient(hub, bob)
	hub.Register(watcher)
	hub.Register(phone)
	hub.Register(laptop)
	require.Eventually(t, func() bool { return hub.IsUserOnline(alice) }, time.Second, 10*time.Millisecond)

	hub.unregister <- phone
	assert.True(t, hub.IsUserOnline(alice))

	hub.unregister <- laptop
	require.Eventually(t, func() bool { return !hub.IsUserOnline(alice) }, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { online, ok := status.get(alice); return ok && !online }, time.Second, 10*time.Millisecond)

	for range phone.send {
	}

	// unregistering twice must not panic on the closed channel
	hub.unregister <- laptop
}
