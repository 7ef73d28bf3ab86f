package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Log store
	LogAppends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fairbot_log_appends_total",
			Help: "Log entries appended, by event type and result",
		},
		[]string{"event_type", "result"},
	)
	LogQueryPages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fairbot_log_query_pages_total",
			Help: "Backend pages read while querying the event-type index",
		},
		[]string{"event_type"},
	)

	// History
	HistoryRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fairbot_history_requests_total",
			Help: "History page requests by result",
		},
		[]string{"result"},
	)
	HistoryRecordsScanned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fairbot_history_records_scanned",
			Help:    "Records fetched to build one history page",
			Buckets: prometheus.ExponentialBuckets(10, 4, 8),
		},
	)

	// Corrections
	CorrectionLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fairbot_correction_lookups_total",
			Help: "Correction relevance lookups by outcome (hit, miss, error)",
		},
		[]string{"outcome"},
	)

	// Chat
	ChatRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fairbot_chat_requests_total",
			Help: "Chat questions handled by result",
		},
		[]string{"result"},
	)
	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fairbot_agent_tool_calls_total",
			Help: "Agent tool invocations by tool name",
		},
		[]string{"tool"},
	)
)

func ResultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
