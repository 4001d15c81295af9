package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

// collector accumulates subscriber callbacks for assertion.
type collector struct {
	mu       sync.Mutex
	messages []struct{ channel, payload string }
}

func (c *collector) add(channel, payload string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, struct{ channel, payload string }{channel, payload})
}

func (c *collector) snapshot() []struct{ channel, payload string } {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]struct{ channel, payload string }, len(c.messages))
	copy(out, c.messages)
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestNotifyUserReachesSubscriber(t *testing.T) {
	rdb := testRedis(t)
	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got collector
	require.NoError(t, n.StartSubscriber(ctx, got.add))
	time.Sleep(50 * time.Millisecond) // let PSubscribe settle

	n.NotifyUser(ctx, 42, Event{Type: EventNotification, Payload: map[string]string{"hello": "world"}})

	waitFor(t, func() bool { return len(got.snapshot()) == 1 })

	msg := got.snapshot()[0]
	assert.Equal(t, "notify:user:42", msg.channel)

	var event Event
	require.NoError(t, json.Unmarshal([]byte(msg.payload), &event))
	assert.Equal(t, EventNotification, event.Type)
}

func TestBroadcastReachesSubscriber(t *testing.T) {
	rdb := testRedis(t)
	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got collector
	require.NoError(t, n.StartSubscriber(ctx, got.add))
	time.Sleep(50 * time.Millisecond)

	n.Broadcast(ctx, Event{Type: EventTrending})

	waitFor(t, func() bool { return len(got.snapshot()) == 1 })
	assert.Equal(t, "notify:broadcast", got.snapshot()[0].channel)
}

func TestNotifyDMChannel(t *testing.T) {
	rdb := testRedis(t)
	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got collector
	require.NoError(t, n.StartSubscriber(ctx, got.add))
	time.Sleep(50 * time.Millisecond)

	n.NotifyDM(ctx, 7, Event{Type: EventDM, Payload: map[string]string{"content": "hi"}})

	waitFor(t, func() bool { return len(got.snapshot()) == 1 })
	assert.Equal(t, "dm:user:7", got.snapshot()[0].channel)
}

func TestSubscriberSurvivesPanickingHandler(t *testing.T) {
	rdb := testRedis(t)
	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got collector
	first := true
	require.NoError(t, n.StartSubscriber(ctx, func(channel, payload string) {
		if first {
			first = false
			panic("handler exploded")
		}
		got.add(channel, payload)
	}))
	time.Sleep(50 * time.Millisecond)

	n.NotifyUser(ctx, 1, Event{Type: EventNotification})
	n.NotifyUser(ctx, 1, Event{Type: EventNotification})

	waitFor(t, func() bool { return len(got.snapshot()) == 1 })
}

func TestNilRedisClientIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	ctx := context.Background()

	// Must not panic.
	n.NotifyUser(ctx, 1, Event{Type: EventNotification})
	n.Broadcast(ctx, Event{Type: EventTrending})
	require.NoError(t, n.StartSubscriber(ctx, func(string, string) {}))
}
