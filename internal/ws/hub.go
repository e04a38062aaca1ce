package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/homenest/homenest-api/internal/model"
	"github.com/homenest/homenest-api/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisChannel = "homenest:events"

// Hub tracks open connections per member and fans events out through Redis
// Pub/Sub so every API instance delivers to its own connections
type Hub struct {
	// userID -> open connections (one member can have several devices)
	clients map[uuid.UUID]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client

	rdb *redis.Client

	// called when a member's first connection opens or last one closes
	onStatusChange func(userID uuid.UUID, online bool)
}

func NewHub(rdb *redis.Client, onStatusChange func(userID uuid.UUID, online bool)) *Hub {
	return &Hub{
		clients:        make(map[uuid.UUID]map[*Client]bool),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		rdb:            rdb,
		onStatusChange: onStatusChange,
	}
}

// Run processes registrations until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	go h.subscribeRedis(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

// Register queues a client for registration with the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.UserID]; !ok {
		h.clients[client.UserID] = make(map[*Client]bool)
		if h.onStatusChange != nil {
			go h.onStatusChange(client.UserID, true)
		}
		h.publish(&TargetedEvent{Event: &model.WSEvent{
			Type:    model.WSEventOnline,
			Payload: model.OnlineEvent{UserID: client.UserID, IsOnline: true},
		}})
	}
	h.clients[client.UserID][client] = true
	logger.Debug(context.Background(), "WS client connected",
		zap.String("user_id", client.UserID.String()),
		zap.Int("connections", len(h.clients[client.UserID])),
	)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	// a slow client may already have been dropped by deliver
	if _, ok := clients[client]; ok {
		delete(clients, client)
		close(client.send)
	}
	if len(clients) > 0 {
		return
	}

	delete(h.clients, client.UserID)
	if h.onStatusChange != nil {
		go h.onStatusChange(client.UserID, false)
	}
	h.publish(&TargetedEvent{Event: &model.WSEvent{
		Type:    model.WSEventOffline,
		Payload: model.OnlineEvent{UserID: client.UserID, IsOnline: false},
	}})
	logger.Debug(context.Background(), "WS client disconnected", zap.String("user_id", client.UserID.String()))
}

// SendToUser delivers an event to every connection of a member on any instance
func (h *Hub) SendToUser(userID uuid.UUID, event *model.WSEvent) {
	h.publish(&TargetedEvent{TargetUserID: userID, Event: event})
}

// SendToUsers delivers an event to several members
func (h *Hub) SendToUsers(userIDs []uuid.UUID, event *model.WSEvent) {
	for _, userID := range userIDs {
		h.SendToUser(userID, event)
	}
}

// IsUserOnline reports whether a member has a connection on this instance
func (h *Hub) IsUserOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// deliver writes to local connections; uuid.Nil targets everyone
func (h *Hub) deliver(target uuid.UUID, event *model.WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error(context.Background(), "Failed to marshal WS event", zap.String("type", event.Type), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, clients := range h.clients {
		if target != uuid.Nil && userID != target {
			continue
		}
		for client := range clients {
			select {
			case client.send <- data:
			default:
				// buffer full: drop the connection, ReadPump will unregister it
				close(client.send)
				delete(clients, client)
			}
		}
	}
}

// TargetedEvent is the Pub/Sub envelope; an empty target means broadcast
type TargetedEvent struct {
	TargetUserID uuid.UUID      `json:"target_user_id,omitempty"`
	Event        *model.WSEvent `json:"event"`
}

func (h *Hub) publish(envelope *TargetedEvent) {
	data, err := json.Marshal(envelope)
	if err != nil {
		logger.Error(context.Background(), "Failed to marshal WS envelope", zap.Error(err))
		return
	}
	if err := h.rdb.Publish(context.Background(), redisChannel, data).Err(); err != nil {
		logger.Warn(context.Background(), "Failed to publish WS event", zap.Error(err))
	}
}

func (h *Hub) subscribeRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, redisChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	logger.Info(ctx, "WS Pub/Sub subscriber started", zap.String("channel", redisChannel))

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var envelope TargetedEvent
			if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
				logger.Warn(ctx, "Dropping malformed WS envelope", zap.Error(err))
				continue
			}
			if envelope.Event != nil {
				h.deliver(envelope.TargetUserID, envelope.Event)
			}
		}
	}
}
