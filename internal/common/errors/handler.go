package errors

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// DefaultRetryBackoff is the delay before the engine hands a failed job out
// again.
const DefaultRetryBackoff = 5 * time.Second

type ErrorHandler struct {
	logger       Logger
	maxRetries   int
	retryBackoff time.Duration
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

// Option adjusts an ErrorHandler.
type Option func(*ErrorHandler)

// WithRetryPolicy caps the retries handed back to the engine and sets the
// backoff between attempts. A non-positive maxRetries keeps the per-code
// budget from GetRetryCount; a non-positive backoff keeps the default.
func WithRetryPolicy(maxRetries int, backoff time.Duration) Option {
	return func(h *ErrorHandler) {
		if maxRetries > 0 {
			h.maxRetries = maxRetries
		}
		if backoff > 0 {
			h.retryBackoff = backoff
		}
	}
}

func NewErrorHandler(logger Logger, opts ...Option) *ErrorHandler {
	h := &ErrorHandler{logger: logger, retryBackoff: DefaultRetryBackoff}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleJobError fails the job with retries for retryable codes and throws a
// BPMN error otherwise.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := h.normalizeError(err)
	bpmnErr := ConvertToBPMNError(stdErr)

	h.logError(job, stdErr, bpmnErr)

	budget := GetRetryCount(stdErr.Code)
	if budget > 0 && h.maxRetries > 0 {
		budget = h.maxRetries
	}
	if stdErr.Retryable && budget > 0 && job.Retries > 0 {
		h.failJobWithRetries(ctx, client, job, bpmnErr, budget)
	} else {
		h.throwBPMNError(ctx, client, job, bpmnErr)
	}
}

func (h *ErrorHandler) normalizeError(err error) *StandardError {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr
	}
	return NewInternalError(err)
}

// RemainingRetries is what a failed attempt leaves: one less than the job
// still had, never above budget. Zero raises an incident.
func RemainingRetries(jobRetries int32, budget int) int32 {
	remaining := jobRetries - 1
	if remaining > int32(budget) {
		remaining = int32(budget)
	}
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

func (h *ErrorHandler) failJobWithRetries(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError, budget int) {
	retries := RemainingRetries(job.Retries, budget)

	cmd := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(retries).
		ErrorMessage(bpmnErr.Message)
	if retries > 0 {
		cmd = cmd.RetryBackoff(h.retryBackoff)
	}

	if varsJSON, err := json.Marshal(bpmnErr.ToErrorVariables()); err == nil {
		if cmdWithVars, err := cmd.VariablesFromString(string(varsJSON)); err == nil {
			if _, err := cmdWithVars.Send(ctx); err != nil {
				h.logger.Error("failed to send fail job command", map[string]interface{}{"error": err.Error()})
			}
			return
		}
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send fail job command", map[string]interface{}{"error": err.Error()})
	}
}

func (h *ErrorHandler) throwBPMNError(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError) {
	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message)

	if varsJSON, err := json.Marshal(bpmnErr.ToErrorVariables()); err == nil {
		if cmdWithVars, err := cmd.VariablesFromString(string(varsJSON)); err == nil {
			if _, err := cmdWithVars.Send(ctx); err != nil {
				h.logger.Error("failed to throw error", map[string]interface{}{"error": err.Error()})
			}
			return
		}
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{"error": err.Error()})
	}
}

func (h *ErrorHandler) logError(job entities.Job, stdErr *StandardError, bpmnErr *BPMNError) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":           job.Key,
		"jobType":          job.Type,
		"errorCode":        string(stdErr.Code),
		"bpmnErrorCode":    bpmnErr.Code,
		"message":          bpmnErr.Message,
		"details":          stdErr.Details,
		"retryable":        stdErr.Retryable,
		"retries":          bpmnErr.Retries,
		"errorCategory":    GetErrorCategory(stdErr.Code),
		"workflowInstance": job.ProcessInstanceKey,
	})
}
