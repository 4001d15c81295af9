package realtime

import (
	"context"
	"log/slog"
	"runtime/debug"

	"github.com/redis/go-redis/v9"

	"liber/internal/cache"
	"liber/internal/observability"
)

// Notifier publishes events into Redis channels. Delivery to websocket
// clients happens wherever a subscriber is listening, which may be a
// different server instance. A nil Redis client turns every publish
// into a no-op so single-node dev setups still boot.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// NotifyUser sends an event to one user's channel. Publish failures are
// logged, not returned: a realtime push is a best-effort side effect and
// the caller's primary write has already committed.
func (n *Notifier) NotifyUser(ctx context.Context, userID uint, event Event) {
	n.publish(ctx, cache.ChannelUser(userID), event)
}

// Broadcast sends an event to every connected client.
func (n *Notifier) Broadcast(ctx context.Context, event Event) {
	n.publish(ctx, cache.ChannelBroadcast, event)
}

// NotifyDM sends a direct-message event to the recipient's DM channel.
func (n *Notifier) NotifyDM(ctx context.Context, recipientID uint, event Event) {
	n.publish(ctx, cache.ChannelDM(recipientID), event)
}

func (n *Notifier) publish(ctx context.Context, channel string, event Event) {
	if n.rdb == nil {
		return
	}
	payload, err := event.Marshal()
	if err != nil {
		slog.Error("event marshal failed", "type", event.Type, "error", err)
		return
	}
	if err := n.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		observability.SecondaryUpdateFailures.WithLabelValues("realtime_publish").Inc()
		slog.Warn("realtime publish failed", "channel", channel, "error", err)
	}
}

// StartSubscriber listens on the user, broadcast and DM channel patterns
// and calls onMessage for each incoming message. The goroutine exits on
// context cancellation; a panicking handler is logged and the loop
// continues with the next message.
func (n *Notifier) StartSubscriber(ctx context.Context, onMessage func(channel, payload string)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx,
		cache.PatternUserChannels,
		cache.ChannelBroadcast,
		cache.PatternDMChannels,
	)
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					observability.PubSubReconnects.Inc()
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							slog.Error("panic in realtime subscriber",
								"recover", r, "stack", string(debug.Stack()))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}
