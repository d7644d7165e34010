package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 模型调用延迟（毫秒）
	LLMCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_call_latency_ms",
			Help:    "Text generation provider call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10), // 100ms to ~100s
		},
		[]string{"model", "status"},
	)

	// 计划生成结果计数
	PlanResultCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plan_result_count",
			Help: "Total number of plan generation requests by outcome",
		},
		[]string{"outcome"}, // outcome: ok, parse_failure, model_error
	)

	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// 慢查询
	SlowQueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "db_slow_query_duration_seconds",
			Help:    "Duration of database queries above the slow threshold",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 8), // 100ms to ~12s
		},
	)

	// 任务变更计数
	TaskMutationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_mutation_count",
			Help: "Total number of task mutations",
		},
		[]string{"action"}, // action: created, updated, deleted
	)

	// 活动事件消费计数
	ActivityEventCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_activity_event_count",
			Help: "Total number of task activity events consumed",
		},
		[]string{"type", "status"}, // status: recorded, duplicate, failed
	)

	// 消息最终处理结果
	MessageDispositionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mq_message_disposition_count",
			Help: "Consumed messages by queue, disposition and error type",
		},
		[]string{"queue", "disposition", "error_type"}, // disposition: ack, requeue, dead_letter, drop
	)
)

// RecordLLMCallLatency 记录模型调用延迟
func RecordLLMCallLatency(model, status string, duration time.Duration) {
	LLMCallLatency.WithLabelValues(model, status).Observe(float64(duration.Milliseconds()))
}

// IncrementPlanResult 增加计划生成结果计数
func IncrementPlanResult(outcome string) {
	PlanResultCount.WithLabelValues(outcome).Inc()
}

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementSlowQuery 记录慢查询
func IncrementSlowQuery(duration time.Duration) {
	SlowQueryDuration.Observe(duration.Seconds())
}

// IncrementTaskMutation 增加任务变更计数
func IncrementTaskMutation(action string) {
	TaskMutationCount.WithLabelValues(action).Inc()
}

// IncrementActivityEvent 增加活动事件计数
func IncrementActivityEvent(eventType, status string) {
	ActivityEventCount.WithLabelValues(eventType, status).Inc()
}

// IncrementMessageDisposition 记录消息最终去向
func IncrementMessageDisposition(queue, disposition, errorType string) {
	MessageDispositionCount.WithLabelValues(queue, disposition, errorType).Inc()
}
