package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Domain metrics. HTTP-level metrics come from fiberprometheus; these
// cover the engagement, presence and realtime paths.
var (
	VoteTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "liber_vote_transitions_total",
		Help: "Vote state transitions by kind (new, toggle_off, switch).",
	}, []string{"direction", "kind"})

	SharesRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "liber_shares_total",
		Help: "Share actions recorded.",
	})

	SecondaryUpdateFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "liber_secondary_update_failures_total",
		Help: "Non-fatal failures updating derived state after a primary write.",
	}, []string{"kind"})

	TrendingRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "liber_trending_refreshes_total",
		Help: "Trending recomputations by outcome (ok, degraded, error).",
	}, []string{"outcome"})

	TrendingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "liber_trending_duration_seconds",
		Help:    "Time spent recomputing the trending window.",
		Buckets: prometheus.DefBuckets,
	})

	WebsocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "liber_websocket_connections",
		Help: "Currently open websocket connections.",
	})

	OnlineUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "liber_online_users",
		Help: "Users currently marked online by the presence tracker.",
	})

	MessagesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "liber_ws_messages_dropped_total",
		Help: "Realtime messages dropped due to slow clients.",
	}, []string{"reason"})

	MessagesDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "liber_ws_messages_delivered_total",
		Help: "Realtime messages delivered to local clients.",
	}, []string{"channel"})

	PubSubReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "liber_pubsub_reconnects_total",
		Help: "Redis pub/sub subscriber restarts after failure.",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "liber_cache_hits_total",
		Help: "Cache lookups by outcome (hit, miss, error).",
	}, []string{"key_class", "outcome"})
)
