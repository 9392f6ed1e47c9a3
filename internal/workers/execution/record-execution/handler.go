// internal/workers/execution/record-execution/handler.go
package recordexecution

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"insight-workers/internal/catalog"
	"insight-workers/internal/common/aws"
	"insight-workers/internal/common/camunda"
	apperrors "insight-workers/internal/common/errors"
	"insight-workers/internal/common/logger"
	"insight-workers/internal/common/metrics"
	"insight-workers/internal/execution"
	"insight-workers/internal/models"
)

const (
	TaskType = "record-execution"
)

type Handler struct {
	config       *Config
	catalog      *catalog.Catalog
	notifier     aws.Notifier
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
	now          func() time.Time
}

func NewHandler(config *Config, cat *catalog.Catalog, notifier aws.Notifier, log logger.Logger) *Handler {
	if notifier == nil {
		notifier = aws.NoopNotifier{}
	}
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		catalog:      cat,
		notifier:     notifier,
		logger:       l,
		errorHandler: apperrors.NewErrorHandler(l, apperrors.WithRetryPolicy(config.MaxRetries, config.RetryBackoff)),
		now:          time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(client, job, apperrors.NewInvalidRequestError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.fail(client, job, err)
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.completeJob(client, job, output)
}

// Execute appends a validated result to the requester's history and bumps the
// ruleset's usage count. A result that fails validation is discarded.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.RulesetID == "" {
		return nil, apperrors.NewInvalidRequestError("rulesetId is required")
	}

	result, err := execution.ValidateResult(input.Result)
	if err != nil {
		metrics.ExecutionResultsRejected.Inc()
		h.logger.Warn("execution result discarded", map[string]interface{}{
			"executionId": input.ExecutionID,
			"rulesetId":   input.RulesetID,
			"error":       err.Error(),
		})
		return nil, err
	}

	entry := models.HistoryEntry{
		ExecutionID: input.ExecutionID,
		RulesetID:   input.RulesetID,
		Requester:   input.Requester,
		Result:      result,
		Timestamp:   h.now().UTC(),
	}
	if entry.ExecutionID == "" {
		entry.ExecutionID = uuid.NewString()
	}

	uses, err := h.catalog.RecordExecution(ctx, entry)
	if err != nil {
		return nil, err
	}

	h.announce(ctx, entry, uses)

	return &Output{
		ExecutionID: entry.ExecutionID,
		RulesetID:   entry.RulesetID,
		TotalUses:   uses,
		RecordedAt:  entry.Timestamp,
	}, nil
}

func (h *Handler) announce(ctx context.Context, entry models.HistoryEntry, uses int64) {
	event := models.Event{
		ID:        uuid.NewString(),
		Type:      models.EventExecutionRecorded,
		SubjectID: entry.ExecutionID,
		Payload: map[string]interface{}{
			"rulesetId":       entry.RulesetID,
			"requester":       entry.Requester,
			"totalUses":       uses,
			"analyzedRecords": entry.Result.Metadata.AnalyzedRecords,
			"flaggedItems":    entry.Result.Metadata.FlaggedItems,
		},
		CreatedAt: entry.Timestamp,
	}
	if err := h.notifier.Notify(ctx, event); err != nil {
		h.logger.Warn("execution recorded but event not sent", map[string]interface{}{
			"executionId": entry.ExecutionID,
			"error":       err.Error(),
		})
	}
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.CodeOf(err))).Inc()
	h.errorHandler.HandleJobError(context.Background(), client, job, err)
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	err = camunda.SendWithRetry(context.Background(), h.config.CompleteRetry, "complete job", func(ctx context.Context) error {
		_, err := cmd.Send(ctx)
		return err
	})
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}
