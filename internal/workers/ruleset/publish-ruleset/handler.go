// internal/workers/ruleset/publish-ruleset/handler.go
package publishruleset

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"insight-workers/internal/catalog"
	"insight-workers/internal/common/aws"
	"insight-workers/internal/common/camunda"
	apperrors "insight-workers/internal/common/errors"
	"insight-workers/internal/common/logger"
	"insight-workers/internal/common/metrics"
	"insight-workers/internal/configuration"
	"insight-workers/internal/models"
	"insight-workers/internal/pricing"
	"insight-workers/internal/storage"
	"insight-workers/pkg/registry"
)

const (
	TaskType = "publish-ruleset"
)

type Handler struct {
	config       *Config
	registry     *registry.Registry
	validator    *configuration.Validator
	store        storage.Store
	catalog      *catalog.Catalog
	notifier     aws.Notifier
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, reg *registry.Registry, store storage.Store, cat *catalog.Catalog, notifier aws.Notifier, log logger.Logger) *Handler {
	if notifier == nil {
		notifier = aws.NoopNotifier{}
	}
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		registry:     reg,
		validator:    configuration.NewValidator(reg),
		store:        store,
		catalog:      cat,
		notifier:     notifier,
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
		h.fail(client, job, apperrors.NewInvalidRulesetError(fmt.Sprintf("parse input: %v", err)))
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

// Execute publishes the ruleset described by input. The configuration behind
// ConfigRef must exist and still validate against its template.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.ConfigRef == "" {
		return nil, apperrors.NewInvalidRulesetError("configRef is required")
	}

	data, err := h.store.Get(ctx, input.ConfigRef)
	if err != nil {
		return nil, err
	}
	cfg, err := h.validator.Decode(data)
	if err != nil {
		return nil, err
	}
	if input.TemplateID != "" && input.TemplateID != cfg.TemplateID {
		return nil, apperrors.NewInvalidRulesetError(fmt.Sprintf(
			"configRef %s belongs to template %s, not %s", input.ConfigRef, cfg.TemplateID, input.TemplateID))
	}

	tmpl, err := h.registry.Get(cfg.TemplateID)
	if err != nil {
		return nil, apperrors.NewUnknownTemplateError(cfg.TemplateID)
	}
	category := tmpl.Category
	if input.Category != "" && registry.Category(input.Category) != tmpl.Category {
		return nil, apperrors.NewInvalidRulesetError(fmt.Sprintf(
			"category %s does not match template category %s", input.Category, tmpl.Category))
	}
	// The price is part of the stored configuration and cannot change here.
	if !input.PricePerExecution.IsZero() && !input.PricePerExecution.Equal(cfg.PricePerExecution) {
		return nil, apperrors.NewPriceMismatchError(input.PricePerExecution.String(), cfg.PricePerExecution.String())
	}

	r := models.Ruleset{
		DisplayName:       firstNonEmpty(input.DisplayName, cfg.Name),
		Description:       firstNonEmpty(input.Description, cfg.Description),
		Category:          category,
		TemplateID:        cfg.TemplateID,
		ConfigRef:         input.ConfigRef,
		PricePerExecution: cfg.PricePerExecution,
		CreatorShare:      pricing.ShareOrDefault(input.CreatorShare, h.config.CreatorShare),
		Creator:           firstNonEmpty(input.Creator, cfg.Creator),
	}

	split, err := pricing.Split(r.PricePerExecution, r.CreatorShare)
	if err != nil {
		return nil, err
	}

	published, err := h.catalog.Publish(ctx, r)
	if err != nil {
		return nil, err
	}

	h.announce(ctx, published)

	return &Output{
		RulesetID: published.ID,
		Category:  string(published.Category),
		CreatedAt: published.CreatedAt,
		Split:     split,
	}, nil
}

// announce emits the published event. A notifier failure does not undo the
// publish.
func (h *Handler) announce(ctx context.Context, r models.Ruleset) {
	event := models.Event{
		ID:        uuid.NewString(),
		Type:      models.EventRulesetPublished,
		SubjectID: r.ID,
		Payload: map[string]interface{}{
			"templateId":        r.TemplateID,
			"category":          string(r.Category),
			"pricePerExecution": r.PricePerExecution.String(),
			"creator":           r.Creator,
		},
		CreatedAt: r.CreatedAt,
	}
	if err := h.notifier.Notify(ctx, event); err != nil {
		h.logger.Warn("ruleset published but event not sent", map[string]interface{}{
			"rulesetId": r.ID,
			"error":     err.Error(),
		})
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
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
