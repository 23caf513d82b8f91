// internal/common/camunda/worker.go
package camunda

import (
	"time"

	"biashara-bot/internal/common/config"
	"biashara-bot/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

const (
	defaultMaxJobsActive = 5
	defaultJobTimeout    = 30 * time.Second
)

// WorkerSettings is the resolved form of a worker's config entry.
type WorkerSettings struct {
	MaxJobsActive int
	Timeout       time.Duration
}

func ResolveSettings(wcfg config.WorkerConfig) WorkerSettings {
	s := WorkerSettings{MaxJobsActive: wcfg.MaxJobsActive, Timeout: time.Duration(wcfg.Timeout) * time.Millisecond}
	if s.MaxJobsActive <= 0 {
		s.MaxJobsActive = defaultMaxJobsActive
	}
	if s.Timeout <= 0 {
		s.Timeout = defaultJobTimeout
	}
	return s
}

// StartWorker opens a job worker for taskType. It returns nil when the
// worker is disabled in config.
func StartWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler func(worker.JobClient, entities.Job), log logger.Logger) worker.JobWorker {
	fields := map[string]interface{}{"taskType": taskType}
	if !wcfg.Enabled {
		log.Info("worker disabled", fields)
		return nil
	}

	s := ResolveSettings(wcfg)
	jw := client.NewJobWorker().
		JobType(taskType).
		Handler(handler).
		MaxJobsActive(s.MaxJobsActive).
		Timeout(s.Timeout).
		Open()

	fields["maxJobsActive"] = s.MaxJobsActive
	fields["timeout_ms"] = s.Timeout.Milliseconds()
	log.Info("worker started", fields)
	return jw
}
