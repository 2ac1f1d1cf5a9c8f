package domain

import (
	"fmt"
	"strings"
	"time"
)

// MetricsCollector はメトリクス収集のインターフェース
type MetricsCollector interface {
	RecordRequest(class RequestClass)
	RecordCacheHit()
	RecordCacheMiss()
	RecordNetworkFallback()
	RecordOptimisticCommit()
	RecordOptimisticRollback()
	RecordReconnect()
	RecordEvent()
	RecordError()
	GetSnapshot() map[string]interface{}
}

// MetricsSnapshot はメトリクスのスナップショットを表す
type MetricsSnapshot struct {
	Timestamp           time.Time        `json:"timestamp"`
	StartTime           time.Time        `json:"start_time"`
	TotalRequests       int64            `json:"total_requests"`
	RequestsByClass     map[string]int64 `json:"requests_by_class"`
	CacheHits           int64            `json:"cache_hits"`
	CacheMisses         int64            `json:"cache_misses"`
	NetworkFallbacks    int64            `json:"network_fallbacks"`
	OptimisticCommits   int64            `json:"optimistic_commits"`
	OptimisticRollbacks int64            `json:"optimistic_rollbacks"`
	Reconnects          int64            `json:"reconnects"`
	EventsReceived      int64            `json:"events_received"`
	Errors              int64            `json:"errors"`
	Uptime              string           `json:"uptime"`
}

// ToPrometheusFormat はメトリクスをPrometheus形式にフォーマット
func (ms *MetricsSnapshot) ToPrometheusFormat() string {
	var metrics []string

	metrics = append(metrics,
		fmt.Sprintf("# HELP gateway_total_requests Total number of processed requests\n"+
			"# TYPE gateway_total_requests counter\n"+
			"gateway_total_requests %d", ms.TotalRequests),

		fmt.Sprintf("# HELP gateway_cache_hits Total number of cache hits\n"+
			"# TYPE gateway_cache_hits counter\n"+
			"gateway_cache_hits %d", ms.CacheHits),

		fmt.Sprintf("# HELP gateway_cache_misses Total number of cache misses\n"+
			"# TYPE gateway_cache_misses counter\n"+
			"gateway_cache_misses %d", ms.CacheMisses),

		fmt.Sprintf("# HELP gateway_network_fallbacks Total number of cache fallbacks after network failure\n"+
			"# TYPE gateway_network_fallbacks counter\n"+
			"gateway_network_fallbacks %d", ms.NetworkFallbacks),

		fmt.Sprintf("# HELP gateway_optimistic_commits Total number of committed optimistic operations\n"+
			"# TYPE gateway_optimistic_commits counter\n"+
			"gateway_optimistic_commits %d", ms.OptimisticCommits),

		fmt.Sprintf("# HELP gateway_optimistic_rollbacks Total number of rolled back optimistic operations\n"+
			"# TYPE gateway_optimistic_rollbacks counter\n"+
			"gateway_optimistic_rollbacks %d", ms.OptimisticRollbacks),

		fmt.Sprintf("# HELP gateway_reconnects Total number of event channel reconnect attempts\n"+
			"# TYPE gateway_reconnects counter\n"+
			"gateway_reconnects %d", ms.Reconnects),

		fmt.Sprintf("# HELP gateway_events_received Total number of admin events received\n"+
			"# TYPE gateway_events_received counter\n"+
			"gateway_events_received %d", ms.EventsReceived),

		fmt.Sprintf("# HELP gateway_errors Total number of errors\n"+
			"# TYPE gateway_errors counter\n"+
			"gateway_errors %d", ms.Errors),
	)

	for class, count := range ms.RequestsByClass {
		metrics = append(metrics,
			fmt.Sprintf("# HELP gateway_requests_by_class Requests per request class\n"+
				"# TYPE gateway_requests_by_class counter\n"+
				"gateway_requests_by_class{class=%q} %d", class, count))
	}

	return strings.Join(metrics, "\n\n") + "\n"
}
