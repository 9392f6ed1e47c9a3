// internal/workers/dataset/upload-dataset/handler.go
package uploaddataset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"insight-workers/internal/common/camunda"
	apperrors "insight-workers/internal/common/errors"
	"insight-workers/internal/common/logger"
	"insight-workers/internal/common/metrics"
	"insight-workers/internal/dataset"
	"insight-workers/internal/storage"
	"insight-workers/pkg/registry"
)

const (
	TaskType = "upload-dataset"
)

type Handler struct {
	config       *Config
	store        storage.Store
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, store storage.Store, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
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
		h.fail(client, job, apperrors.NewDatasetInvalidError([]string{fmt.Sprintf("parse input: %v", err)}))
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

// Execute parses and checks the dataset, stores its canonical document and
// returns the reference an execution request points at.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	raw, format, err := h.payload(input)
	if err != nil {
		metrics.DatasetsUploaded.WithLabelValues(input.Format, "invalid").Inc()
		return nil, err
	}

	ds, err := dataset.Parse(raw, format)
	if err != nil {
		metrics.DatasetsUploaded.WithLabelValues(string(format), "invalid").Inc()
		return nil, err
	}
	if format == "" {
		format = dataset.DetectFormat(raw)
	}
	report, err := dataset.Check(ds, h.config.MaxRows)
	if err != nil {
		metrics.DatasetsUploaded.WithLabelValues(string(format), "invalid").Inc()
		return nil, err
	}

	schema := dataset.Profile(ds)
	doc, err := dataset.Encode(ds, dataset.Metadata{
		Name:        input.Name,
		Description: input.Description,
		Category:    input.Category,
		Owner:       input.Owner,
	}, schema)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	ref, err := h.store.Put(ctx, doc)
	if err != nil {
		return nil, err
	}
	hash := storage.ContentID(doc)
	if h.config.VerifyUpload {
		if err := storage.Verify(ctx, h.store, ref, hash); err != nil {
			return nil, err
		}
	}
	metrics.DatasetsUploaded.WithLabelValues(string(format), "stored").Inc()

	if len(report.Warnings) > 0 {
		h.logger.Warn("dataset stored with warnings", map[string]interface{}{
			"dataRef":  ref,
			"warnings": report.Warnings,
		})
	}
	h.logger.Info("dataset stored", map[string]interface{}{
		"dataRef": ref,
		"rows":    schema.RowCount,
		"bytes":   len(doc),
	})

	return &Output{
		DataRef:     ref,
		ContentHash: hash,
		Format:      string(format),
		RowCount:    schema.RowCount,
		ColumnCount: schema.ColumnCount,
		SizeBytes:   len(doc),
		Schema:      schema,
		Validation:  report,
	}, nil
}

// payload unwraps Data. A JSON string holds CSV or JSON text; anything else
// is JSON rows.
func (h *Handler) payload(input *Input) ([]byte, dataset.Format, error) {
	format := dataset.Format(input.Format)
	if format != "" && format != dataset.FormatCSV && format != dataset.FormatJSON {
		return nil, "", apperrors.NewDatasetInvalidError([]string{fmt.Sprintf("unsupported format %q", input.Format)})
	}
	if input.Category != "" && !registry.Category(input.Category).Valid() {
		return nil, "", apperrors.NewDatasetInvalidError([]string{fmt.Sprintf("unknown category %q", input.Category)})
	}

	data := bytes.TrimSpace(input.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, "", apperrors.NewDatasetInvalidError([]string{"data is required"})
	}

	var raw []byte
	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return nil, "", apperrors.NewDatasetInvalidError([]string{fmt.Sprintf("parse data: %v", err)})
		}
		raw = []byte(text)
	} else {
		if format == dataset.FormatCSV {
			return nil, "", apperrors.NewDatasetInvalidError([]string{"csv data must be a string"})
		}
		raw, format = data, dataset.FormatJSON
	}

	if h.config.MaxBytes > 0 && len(raw) > h.config.MaxBytes {
		return nil, "", apperrors.NewDatasetInvalidError([]string{
			fmt.Sprintf("data is %d bytes (max %d)", len(raw), h.config.MaxBytes)})
	}
	return raw, format, nil
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
