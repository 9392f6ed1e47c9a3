package execution

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	apperrors "insight-workers/internal/common/errors"
	apphttp "insight-workers/internal/common/http"
	"insight-workers/internal/models"
)

// Service runs an analysis and returns the raw result document.
type Service interface {
	Execute(ctx context.Context, req models.ExecutionRequest) ([]byte, error)
}

// HTTPService posts requests as JSON to an execution endpoint.
type HTTPService struct {
	client *apphttp.Client
	url    string
}

func NewHTTPService(client *apphttp.Client, url string) *HTTPService {
	return &HTTPService{client: client, url: url}
}

func (s *HTTPService) Execute(ctx context.Context, req models.ExecutionRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("encode execution request: %w", err))
	}
	data, err := s.client.Send(ctx, http.MethodPost, s.url, "application/json", body)
	if err != nil {
		return nil, classifyFailure(err)
	}
	return data, nil
}

// classifyFailure keeps 4xx answers out of the retry path. 408 and 429 say
// nothing about the request itself and stay retryable.
func classifyFailure(err error) error {
	var statusErr *apphttp.StatusError
	if errors.As(err, &statusErr) {
		code := statusErr.StatusCode
		if code >= 400 && code < 500 && code != http.StatusRequestTimeout && code != http.StatusTooManyRequests {
			return apperrors.NewExecutionRejectedError(code, statusErr.Body)
		}
	}
	return apperrors.NewUnavailableError("execution-service", err)
}

// Run executes req on svc and validates what comes back.
func Run(ctx context.Context, svc Service, req models.ExecutionRequest) (models.ExecutionResult, error) {
	raw, err := svc.Execute(ctx, req)
	if err != nil {
		if _, ok := apperrors.AsStandard(err); ok {
			return models.ExecutionResult{}, err
		}
		return models.ExecutionResult{}, apperrors.NewUnavailableError("execution-service", err)
	}
	return ValidateResult(raw)
}
