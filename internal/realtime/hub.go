package realtime

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"

	"liber/internal/cache"
	"liber/internal/observability"
)

const (
	maxConnsPerUser = 12
	maxTotalConns   = 10000
)

// Hub maps userID -> set of Clients and fans incoming pub/sub traffic
// out to them. One hub serves one server instance; Redis pub/sub makes
// the set of hubs behave as one.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
	presence   *PresenceTracker

	maxPerUser int
	maxTotal   int
}

// NewHub creates a hub with its own presence tracker.
func NewHub(rdb *redis.Client, presenceCfg PresenceConfig) *Hub {
	return &Hub{
		conns:      make(map[uint]map[*Client]struct{}),
		presence:   NewPresenceTracker(rdb, presenceCfg),
		maxPerUser: maxConnsPerUser,
		maxTotal:   maxTotalConns,
	}
}

// SetLimits overrides the connection limits. Zero keeps the default.
func (h *Hub) SetLimits(perUser, total int) {
	h.mu.Lock()
	if perUser > 0 {
		h.maxPerUser = perUser
	}
	if total > 0 {
		h.maxTotal = total
	}
	h.mu.Unlock()
}

// Presence exposes the tracker for handlers that answer presence queries.
func (h *Hub) Presence() *PresenceTracker { return h.presence }

// Register adds a connection for userID. It fails when the per-user or
// total connection limit is reached.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()

	if h.totalConns >= h.maxTotal {
		h.mu.Unlock()
		return nil, errors.New("server connection limit reached")
	}

	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}

	if len(m) >= h.maxPerUser {
		h.mu.Unlock()
		return nil, errors.New("user connection limit reached")
	}

	client := NewClient(h, conn, userID)
	client.OnActivity = func(uid uint) {
		h.presence.Touch(context.Background(), uid)
	}

	m[client] = struct{}{}
	h.totalConns++
	h.mu.Unlock()

	observability.WebsocketConnections.Inc()
	h.presence.Register(context.Background(), userID)

	return client, nil
}

// UnregisterClient removes a client and releases its presence session.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	removed := false
	if m, ok := h.conns[client.UserID]; ok {
		if _, exists := m[client]; exists {
			delete(m, client)
			h.totalConns--
			removed = true
		}
		if len(m) == 0 {
			delete(h.conns, client.UserID)
		}
	}
	h.mu.Unlock()

	if removed {
		observability.WebsocketConnections.Dec()
		h.presence.Unregister(context.Background(), client.UserID)
	}
}

// Broadcast sends message to all local connections for userID.
func (h *Hub) Broadcast(userID uint, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.conns[userID]; ok {
		data := []byte(message)
		for c := range clients {
			c.TrySend(data)
		}
	}
}

// BroadcastAll sends message to every local connection.
func (h *Hub) BroadcastAll(message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for _, clients := range h.conns {
		for c := range clients {
			c.TrySend(data)
		}
	}
}

// IsOnline reports whether the user is present, locally or via Redis.
func (h *Hub) IsOnline(userID uint) bool {
	return h.presence.IsOnline(context.Background(), userID)
}

// StartWiring subscribes the hub to the notifier's channels and routes
// each message to its audience. Per-user and DM channels deliver to one
// user's connections; the broadcast channel reaches everyone.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartSubscriber(ctx, func(channel, payload string) {
		switch {
		case channel == cache.ChannelBroadcast:
			observability.MessagesDelivered.WithLabelValues("broadcast").Inc()
			h.BroadcastAll(payload)

		case strings.HasPrefix(channel, "notify:user:"):
			userID, ok := parseChannelUserID(channel, "notify:user:")
			if !ok {
				slog.Warn("malformed realtime channel", "channel", channel)
				return
			}
			observability.MessagesDelivered.WithLabelValues("user").Inc()
			h.Broadcast(userID, payload)

		case strings.HasPrefix(channel, "dm:user:"):
			userID, ok := parseChannelUserID(channel, "dm:user:")
			if !ok {
				slog.Warn("malformed realtime channel", "channel", channel)
				return
			}
			observability.MessagesDelivered.WithLabelValues("dm").Inc()
			h.Broadcast(userID, payload)

		default:
			slog.Warn("unexpected realtime channel", "channel", channel)
		}
	})
}

func parseChannelUserID(channel, prefix string) (uint, bool) {
	id64, err := strconv.ParseUint(strings.TrimPrefix(channel, prefix), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id64), true
}

// Shutdown closes every connection with a going-away frame and stops the
// presence tracker.
func (h *Hub) Shutdown(_ context.Context) error {
	h.presence.Stop()

	h.mu.Lock()
	for userID, userConns := range h.conns {
		for client := range userConns {
			if client.Conn == nil {
				continue
			}
			if err := client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")); err != nil {
				slog.Warn("close frame write failed", "user_id", userID, "error", err)
			}
			if err := client.Conn.Close(); err != nil {
				slog.Warn("websocket close failed", "user_id", userID, "error", err)
			}
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	h.mu.Unlock()

	return nil
}
