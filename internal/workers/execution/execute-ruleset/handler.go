// internal/workers/execution/execute-ruleset/handler.go
package executeruleset

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"insight-workers/internal/common/camunda"
	apperrors "insight-workers/internal/common/errors"
	"insight-workers/internal/common/logger"
	"insight-workers/internal/common/metrics"
	"insight-workers/internal/execution"
	"insight-workers/internal/models"
)

const (
	TaskType = "execute-ruleset"
)

type Handler struct {
	config       *Config
	service      execution.Service
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, service execution.Service, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		service:      service,
		logger:       l,
		errorHandler: apperrors.NewErrorHandler(l, apperrors.WithRetryPolicy(config.MaxRetries, config.RetryBackoff)),
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

// Execute sends a built request to the execution service and returns the
// validated result.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	req := input.ExecutionRequest
	if err := checkRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := execution.Run(ctx, h.service, req)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodeResultSchemaInvalid) {
			metrics.ExecutionResultsRejected.Inc()
		}
		return nil, err
	}

	h.logger.Info("execution finished", map[string]interface{}{
		"executionId":     req.ExecutionID,
		"rulesetId":       req.RulesetID,
		"analyzedRecords": result.Metadata.AnalyzedRecords,
		"flaggedItems":    result.Metadata.FlaggedItems,
		"durationMs":      time.Since(start).Milliseconds(),
	})

	return &Output{
		ExecutionID: req.ExecutionID,
		RulesetID:   req.RulesetID,
		Requester:   req.Requester,
		Result:      result,
	}, nil
}

func checkRequest(req models.ExecutionRequest) error {
	switch {
	case req.ExecutionID == "":
		return apperrors.NewInvalidRequestError("executionId is required")
	case req.ConfigRef == "":
		return apperrors.NewInvalidRequestError("config_ref is required")
	case req.DataRef == "":
		return apperrors.NewInvalidRequestError("data_ref is required")
	case !req.Price.IsPositive():
		return apperrors.NewInvalidRequestError("price must be > 0")
	}
	return nil
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
