package realtime

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"liber/internal/cache"
	"liber/internal/observability"
)

const (
	defaultPresenceTTL    = 5 * time.Minute
	defaultOfflineGrace   = 30 * time.Second
	defaultReaperInterval = time.Minute
)

// PresenceConfig controls the presence tracker's Redis mirroring and
// offline detection behavior.
type PresenceConfig struct {
	LastSeenTTL        time.Duration
	OfflineGracePeriod time.Duration
	ReaperInterval     time.Duration
	OnUserOnline       func(userID uint)
	OnUserOffline      func(userID uint)
}

// PresenceTracker refcounts websocket sessions per user, mirrors the
// online set in Redis so other instances see it, and emits exactly one
// online and one offline transition per continuous presence period.
// A user with several tabs open is online until the last tab closes
// and the grace period elapses.
type PresenceTracker struct {
	rdb *redis.Client

	mu              sync.RWMutex
	localConnCounts map[uint]int
	offlineTimers   map[uint]*time.Timer
	offlineNotified map[uint]bool

	lastSeenTTL    time.Duration
	offlineGrace   time.Duration
	reaperInterval time.Duration

	onUserOnline  func(userID uint)
	onUserOffline func(userID uint)

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewPresenceTracker creates a tracker and starts the stale-entry reaper
// when Redis is available.
func NewPresenceTracker(rdb *redis.Client, cfg PresenceConfig) *PresenceTracker {
	t := &PresenceTracker{
		rdb:             rdb,
		localConnCounts: make(map[uint]int),
		offlineTimers:   make(map[uint]*time.Timer),
		offlineNotified: make(map[uint]bool),
		lastSeenTTL:     defaultPresenceTTL,
		offlineGrace:    defaultOfflineGrace,
		reaperInterval:  defaultReaperInterval,
		onUserOnline:    cfg.OnUserOnline,
		onUserOffline:   cfg.OnUserOffline,
		stopCh:          make(chan struct{}),
	}

	if cfg.LastSeenTTL > 0 {
		t.lastSeenTTL = cfg.LastSeenTTL
	}
	if cfg.OfflineGracePeriod > 0 {
		t.offlineGrace = cfg.OfflineGracePeriod
	}
	if cfg.ReaperInterval > 0 {
		t.reaperInterval = cfg.ReaperInterval
	}

	if t.rdb != nil && t.reaperInterval > 0 {
		go t.reaperLoop()
	}

	return t
}

// SetCallbacks replaces the transition callbacks. Used by the hub wiring
// after both sides exist.
func (t *PresenceTracker) SetCallbacks(onOnline, onOffline func(userID uint)) {
	t.mu.Lock()
	t.onUserOnline = onOnline
	t.onUserOffline = onOffline
	t.mu.Unlock()
}

// Stop halts the reaper and cancels pending offline timers.
func (t *PresenceTracker) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopCh)
		t.mu.Lock()
		for userID, timer := range t.offlineTimers {
			if timer != nil {
				timer.Stop()
			}
			delete(t.offlineTimers, userID)
		}
		t.mu.Unlock()
	})
}

// Register records a new session for the user. The first session of a
// presence period emits the online transition.
func (t *PresenceTracker) Register(ctx context.Context, userID uint) {
	wasOnline := t.IsOnline(ctx, userID)

	t.mu.Lock()
	if timer, ok := t.offlineTimers[userID]; ok {
		timer.Stop()
		delete(t.offlineTimers, userID)
	}
	t.localConnCounts[userID]++
	t.offlineNotified[userID] = false
	t.mu.Unlock()

	t.Touch(ctx, userID)
	if !wasOnline {
		observability.OnlineUsers.Inc()
		t.emitOnline(userID)
	}
}

// Touch refreshes the user's Redis presence entries. Called on register
// and on every client heartbeat.
func (t *PresenceTracker) Touch(ctx context.Context, userID uint) {
	if t.rdb == nil {
		return
	}
	uid := strconv.FormatUint(uint64(userID), 10)
	if err := t.rdb.SAdd(ctx, cache.KeyOnlineUsers, uid).Err(); err != nil {
		slog.Warn("presence SADD failed", "user_id", userID, "error", err)
	}
	last := strconv.FormatInt(time.Now().Unix(), 10)
	if err := t.rdb.SetEx(ctx, cache.KeyLastSeen(userID), last, t.lastSeenTTL).Err(); err != nil {
		slog.Warn("presence SETEX failed", "user_id", userID, "error", err)
	}
}

// Unregister drops one session. When the last session closes the user
// goes offline after the grace period, unless a new session arrives.
func (t *PresenceTracker) Unregister(ctx context.Context, userID uint) {
	t.mu.Lock()
	if n, ok := t.localConnCounts[userID]; ok {
		n--
		if n > 0 {
			t.localConnCounts[userID] = n
			t.mu.Unlock()
			return
		}
		delete(t.localConnCounts, userID)
	}

	if timer, ok := t.offlineTimers[userID]; ok {
		timer.Stop()
	}
	t.offlineTimers[userID] = time.AfterFunc(t.offlineGrace, func() {
		t.finalizeOffline(context.Background(), userID)
	})
	t.mu.Unlock()
}

// IsOnline checks local sessions first, then the Redis last-seen key so
// sessions on other instances count.
func (t *PresenceTracker) IsOnline(ctx context.Context, userID uint) bool {
	t.mu.RLock()
	if t.localConnCounts[userID] > 0 {
		t.mu.RUnlock()
		return true
	}
	t.mu.RUnlock()

	if t.rdb == nil {
		return false
	}

	exists, err := t.rdb.Exists(ctx, cache.KeyLastSeen(userID)).Result()
	if err != nil {
		return false
	}
	return exists > 0
}

// OnlineUserIDs returns online users from the Redis set, filtered for
// staleness, unioned with local sessions as a fallback.
func (t *PresenceTracker) OnlineUserIDs(ctx context.Context) []uint {
	local := t.localUserIDs()
	if t.rdb == nil {
		return local
	}

	members, err := t.rdb.SMembers(ctx, cache.KeyOnlineUsers).Result()
	if err != nil {
		return local
	}

	seen := make(map[uint]struct{}, len(members)+len(local))
	result := make([]uint, 0, len(members)+len(local))

	for _, raw := range members {
		id64, parseErr := strconv.ParseUint(raw, 10, 32)
		if parseErr != nil {
			continue
		}
		userID := uint(id64)
		exists, existsErr := t.rdb.Exists(ctx, cache.KeyLastSeen(userID)).Result()
		if existsErr != nil {
			continue
		}
		if exists == 0 {
			_ = t.rdb.SRem(ctx, cache.KeyOnlineUsers, raw).Err()
			continue
		}
		if _, ok := seen[userID]; ok {
			continue
		}
		seen[userID] = struct{}{}
		result = append(result, userID)
	}

	for _, userID := range local {
		if _, ok := seen[userID]; ok {
			continue
		}
		seen[userID] = struct{}{}
		result = append(result, userID)
	}

	return result
}

// reapOnce performs one pass removing set members whose last-seen key
// expired. Test-visible.
func (t *PresenceTracker) reapOnce(ctx context.Context) {
	if t.rdb == nil {
		return
	}

	members, err := t.rdb.SMembers(ctx, cache.KeyOnlineUsers).Result()
	if err != nil {
		return
	}

	for _, raw := range members {
		id64, parseErr := strconv.ParseUint(raw, 10, 32)
		if parseErr != nil {
			continue
		}
		userID := uint(id64)
		exists, existsErr := t.rdb.Exists(ctx, cache.KeyLastSeen(userID)).Result()
		if existsErr != nil || exists > 0 {
			continue
		}

		_ = t.rdb.SRem(ctx, cache.KeyOnlineUsers, raw).Err()

		t.mu.RLock()
		hasLocal := t.localConnCounts[userID] > 0
		t.mu.RUnlock()
		if !hasLocal {
			t.emitOffline(userID)
		}
	}
}

func (t *PresenceTracker) reaperLoop() {
	ctx := context.Background()
	ticker := time.NewTicker(t.reaperInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopCh:
			return
		case <-ticker.C:
			t.reapOnce(ctx)
		}
	}
}

func (t *PresenceTracker) finalizeOffline(ctx context.Context, userID uint) {
	t.mu.Lock()
	if t.localConnCounts[userID] > 0 {
		delete(t.offlineTimers, userID)
		t.mu.Unlock()
		return
	}
	delete(t.offlineTimers, userID)
	t.mu.Unlock()

	if t.rdb != nil {
		exists, err := t.rdb.Exists(ctx, cache.KeyLastSeen(userID)).Result()
		if err == nil && exists > 0 {
			// Another instance refreshed presence. Keep the user online.
			return
		}
		_ = t.rdb.SRem(ctx, cache.KeyOnlineUsers, strconv.FormatUint(uint64(userID), 10)).Err()
	}

	t.emitOffline(userID)
}

func (t *PresenceTracker) emitOnline(userID uint) {
	t.mu.Lock()
	t.offlineNotified[userID] = false
	cb := t.onUserOnline
	t.mu.Unlock()
	if cb != nil {
		cb(userID)
	}
}

func (t *PresenceTracker) emitOffline(userID uint) {
	t.mu.Lock()
	if t.offlineNotified[userID] {
		t.mu.Unlock()
		return
	}
	t.offlineNotified[userID] = true
	cb := t.onUserOffline
	t.mu.Unlock()
	observability.OnlineUsers.Dec()
	if cb != nil {
		cb(userID)
	}
}

func (t *PresenceTracker) localUserIDs() []uint {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]uint, 0, len(t.localConnCounts))
	for userID, count := range t.localConnCounts {
		if count > 0 {
			ids = append(ids, userID)
		}
	}
	return ids
}
