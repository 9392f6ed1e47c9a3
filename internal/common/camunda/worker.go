// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"strconv"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"insight-workers/internal/common/config"
	"insight-workers/internal/common/logger"
	"insight-workers/internal/common/metrics"
	"insight-workers/internal/common/observability"
)

// HandlerFunc is the signature every pipeline worker exposes as Handle.
type HandlerFunc func(client worker.JobClient, job entities.Job)

// Instrument wraps a handler with the active-jobs gauge, the duration
// histogram and a span per job. obs may be nil.
func Instrument(taskType string, handler HandlerFunc, obs *observability.Observability) HandlerFunc {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		defer metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()

		ctx := context.Background()
		if obs != nil {
			spanCtx, span := obs.StartSpan(ctx, taskType, map[string]string{
				"job.key":          strconv.FormatInt(job.Key, 10),
				"process.instance": strconv.FormatInt(job.ProcessInstanceKey, 10),
			})
			ctx = spanCtx
			defer span.End()
		}

		handler(client, job)

		elapsed := time.Since(start)
		metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
		if obs != nil {
			obs.RecordJobProcessed(ctx, taskType, "handled")
			obs.RecordJobDuration(ctx, taskType, elapsed, "handled")
		}
	}
}

// StartWorker opens a job worker for taskType when cfg enables it. The
// returned worker is nil for disabled task types.
func StartWorker(client zbc.Client, cfg *config.Config, taskType string, handler HandlerFunc, obs *observability.Observability, log logger.Logger) worker.JobWorker {
	if !config.IsWorkerEnabled(cfg, taskType) {
		log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return nil
	}
	wcfg := config.GetWorkerConfig(cfg, taskType)

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(worker.JobHandler(Instrument(taskType, handler, obs))).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return jobWorker
}
