// internal/workers/execution/build-execution-request/handler.go
package buildexecutionrequest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"insight-workers/internal/catalog"
	"insight-workers/internal/common/camunda"
	apperrors "insight-workers/internal/common/errors"
	"insight-workers/internal/common/logger"
	"insight-workers/internal/common/metrics"
	"insight-workers/internal/execution"
	"insight-workers/internal/storage"
)

const (
	TaskType = "build-execution-request"
)

type Handler struct {
	config       *Config
	catalog      *catalog.Catalog
	store        storage.Store
	builder      *execution.Builder
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, cat *catalog.Catalog, store storage.Store, log logger.Logger, opts ...execution.BuilderOption) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		catalog:      cat,
		store:        store,
		builder:      execution.NewBuilder(config.ListingShare, opts...),
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

// Execute prices one run of a catalog ruleset over a stored dataset. The
// catalog's current price is authoritative.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.RulesetID == "" {
		return nil, apperrors.NewInvalidRequestError("rulesetId is required")
	}
	if input.DataRef == "" {
		return nil, apperrors.NewInvalidRequestError("data_ref is required")
	}

	r, err := h.catalog.Get(ctx, input.RulesetID)
	if err != nil {
		return nil, err
	}
	if err := execution.CheckPrice(input.OfferedPrice, r); err != nil {
		h.logger.Warn("price changed since listing", map[string]interface{}{
			"rulesetId": r.ID,
			"offered":   input.OfferedPrice.String(),
			"current":   r.PricePerExecution.String(),
		})
		return nil, err
	}

	exists, err := h.store.Exists(ctx, input.DataRef)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.NewContentNotFoundError(input.DataRef)
	}

	req, err := h.builder.Build(r, input.DataRef, input.Requester)
	if err != nil {
		return nil, err
	}

	h.logger.Info("execution request built", map[string]interface{}{
		"executionId": req.ExecutionID,
		"rulesetId":   req.RulesetID,
		"price":       req.Price.String(),
	})
	return &Output{ExecutionRequest: req}, nil
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
