// internal/workers/ruleset/validate-configuration/handler.go
package validateconfiguration

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"insight-workers/internal/common/camunda"
	apperrors "insight-workers/internal/common/errors"
	"insight-workers/internal/common/logger"
	"insight-workers/internal/common/metrics"
	"insight-workers/internal/configuration"
	"insight-workers/internal/pricing"
	"insight-workers/internal/storage"
	"insight-workers/pkg/registry"
)

const (
	TaskType = "validate-configuration"
)

type Handler struct {
	config       *Config
	registry     *registry.Registry
	validator    *configuration.Validator
	store        storage.Store
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, reg *registry.Registry, store storage.Store, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		registry:     reg,
		validator:    configuration.NewValidator(reg),
		store:        store,
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
		h.fail(client, job, apperrors.NewInvalidConfigurationError(fmt.Sprintf("parse input: %v", err)))
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

// Execute validates the draft, stores its canonical bytes and quotes the
// creator's earnings.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	cfg, err := h.validator.Build(configuration.Draft{
		TemplateID:        input.TemplateID,
		Values:            input.Config,
		Name:              input.Name,
		Description:       input.Description,
		PricePerExecution: input.PricePerExecution,
		Creator:           input.Creator,
	})
	if err != nil {
		metrics.ConfigurationsValidated.WithLabelValues(input.TemplateID, string(apperrors.CodeOf(err))).Inc()
		return nil, err
	}
	metrics.ConfigurationsValidated.WithLabelValues(input.TemplateID, "valid").Inc()

	split, err := pricing.Split(cfg.PricePerExecution, h.config.CreatorShare)
	if err != nil {
		return nil, err
	}
	earnings, err := pricing.EstimateEarnings(cfg.PricePerExecution, h.config.CreatorShare, h.config.EstimateExecutions)
	if err != nil {
		return nil, err
	}

	data, err := configuration.Encode(cfg)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	ref, err := h.store.Put(ctx, data)
	if err != nil {
		return nil, err
	}

	tmpl, err := h.registry.Get(cfg.TemplateID)
	if err != nil {
		return nil, apperrors.NewUnknownTemplateError(cfg.TemplateID)
	}

	h.logger.Info("configuration stored", map[string]interface{}{
		"templateId": cfg.TemplateID,
		"configRef":  ref,
		"bytes":      len(data),
	})

	return &Output{
		ConfigRef:         ref,
		TemplateID:        cfg.TemplateID,
		Category:          string(tmpl.Category),
		Config:            cfg.ValueMap(),
		PricePerExecution: cfg.PricePerExecution,
		Split:             split,
		EstimatedEarnings: earnings,
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
