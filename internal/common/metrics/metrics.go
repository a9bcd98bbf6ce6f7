// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ToolCallsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcp_tool_calls_total",
			Help: "Total number of tool calls handled",
		},
		[]string{"tool"},
	)

	ToolCallsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcp_tool_calls_failed_total",
			Help: "Total number of tool calls that returned an error text",
		},
		[]string{"tool", "error_category"},
	)

	ToolCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mcp_tool_call_duration_seconds",
			Help:    "Duration of tool call processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tool"},
	)

	ToolCallsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mcp_tool_calls_active",
			Help: "Number of tool calls in flight",
		},
		[]string{"tool"},
	)
)
