package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hederachat_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hederachat_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	// Ledger metrics
	LedgerMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hederachat_ledger_messages_total",
			Help: "Chat messages submitted to the topic",
		},
		[]string{"result"}, // "sent" or "failed"
	)

	SubscribeRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hederachat_subscribe_retries_total",
			Help: "Topic subscription establishment retries",
		},
	)

	FeedEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hederachat_feed_entries_total",
			Help: "Topic entries received on the live feed",
		},
		[]string{"result"}, // "delivered", "malformed" or "panic"
	)

	// Routing and tools
	RoutedTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hederachat_routed_turns_total",
			Help: "Chat turns by routing decision",
		},
		[]string{"route"},
	)

	PriceLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hederachat_price_lookups_total",
			Help: "Price feed reads",
		},
		[]string{"pair", "result"},
	)

	AgentInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hederachat_agent_invocations_total",
			Help: "Agent invocations",
		},
		[]string{"result"},
	)

	AgentToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hederachat_agent_tool_calls_total",
			Help: "Tool calls made by the agent",
		},
		[]string{"tool"},
	)

	// Realtime
	WebsocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hederachat_ws_connections",
			Help: "Open websocket connections",
		},
	)
)
