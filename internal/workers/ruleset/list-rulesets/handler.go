// internal/workers/ruleset/list-rulesets/handler.go
package listrulesets

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
	"insight-workers/internal/models"
	"insight-workers/internal/pricing"
	"insight-workers/pkg/registry"
)

const (
	TaskType = "list-rulesets"
)

type Handler struct {
	config       *Config
	catalog      *catalog.Catalog
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, cat *catalog.Catalog, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		catalog:      cat,
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

// Execute returns the merged marketplace listing with the split of one
// execution for every entry.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	category := registry.Category(input.Category)
	if category != "" && !category.Valid() {
		return nil, apperrors.NewInvalidRequestError("unknown category " + input.Category)
	}

	rulesets, err := h.catalog.List(ctx, category)
	if err != nil {
		return nil, err
	}

	limit := h.config.MaxResults
	if input.Limit > 0 && (limit == 0 || input.Limit < limit) {
		limit = input.Limit
	}

	listings := make([]models.RulesetListing, 0, len(rulesets))
	for _, r := range rulesets {
		if limit > 0 && len(listings) == limit {
			break
		}
		split, err := pricing.Split(r.PricePerExecution, pricing.ShareOrDefault(r.CreatorShare, h.config.ListingShare))
		if err != nil {
			h.logger.Warn("skipping unpriceable listing", map[string]interface{}{
				"rulesetId": r.ID,
				"error":     err.Error(),
			})
			continue
		}
		listings = append(listings, models.RulesetListing{Ruleset: r, Split: split})
	}

	return &Output{
		Rulesets: listings,
		Count:    len(listings),
		Total:    len(rulesets),
	}, nil
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
