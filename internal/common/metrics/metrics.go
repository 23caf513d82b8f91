// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "biashara_messages_handled_total",
			Help: "Messages handled by the dispatcher, by intent and result code",
		},
		[]string{"intent", "code"},
	)

	LowStockAlerts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "biashara_low_stock_alerts_total",
			Help: "Sales that left an item at or below the low-stock threshold",
		},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "biashara_notifications_sent_total",
			Help: "Owner notifications by channel and status",
		},
		[]string{"channel", "status"},
	)

	WebhookDuplicates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "biashara_webhook_duplicates_total",
			Help: "Chat webhook deliveries answered from the reply cache",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "biashara_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"route", "status"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)
)

// CodeLabel maps an empty result code to "ok" so the label is never blank.
func CodeLabel(code string) string {
	if code == "" {
		return "ok"
	}
	return code
}
