package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"liber/internal/realtime"
)

func (s *Server) registerWebsocket() {
	// Browsers cannot set headers on websocket upgrades, so the token
	// rides in the query string.
	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		userID, err := s.issuer.Parse(c.Query("token"))
		if err != nil {
			return fiber.ErrUnauthorized
		}
		c.Locals("user_id", userID)
		return c.Next()
	})

	s.app.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals("user_id").(uint)

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			slog.Warn("websocket register rejected", "user_id", userID, "error", err)
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()))
			_ = conn.Close()
			return
		}

		client.IncomingHandler = s.handleClientMessage

		go client.WritePump()
		client.ReadPump() // blocks until the connection drops
	}))
}

// clientMessage is the envelope clients send upstream. Only lightweight
// signals come this way; everything stateful goes through the REST API.
type clientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type typingPayload struct {
	RecipientID uint `json:"recipient_id"`
	IsTyping    bool `json:"is_typing"`
}

func (s *Server) handleClientMessage(client *realtime.Client, raw []byte) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		slog.Debug("unparseable client message", "user_id", client.UserID, "error", err)
		return
	}

	switch msg.Type {
	case realtime.EventTyping:
		var p typingPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.RecipientID == 0 {
			return
		}
		s.messages.Typing(context.Background(), client.UserID, p.RecipientID, p.IsTyping)

	case "ping":
		client.TrySend([]byte(`{"type":"pong"}`))

	default:
		slog.Debug("unknown client message type", "type", msg.Type, "user_id", client.UserID)
	}
}
