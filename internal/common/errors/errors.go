package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	// Configuration validation
	ErrCodeUnknownTemplate      ErrorCode = "UNKNOWN_TEMPLATE"
	ErrCodeMissingParameter     ErrorCode = "MISSING_PARAMETER"
	ErrCodeTypeMismatch         ErrorCode = "TYPE_MISMATCH"
	ErrCodeUnknownParameter     ErrorCode = "UNKNOWN_PARAMETER"
	ErrCodeInvalidConfiguration ErrorCode = "INVALID_CONFIGURATION"

	// Datasets
	ErrCodeDatasetInvalid ErrorCode = "DATASET_INVALID"

	// Execution results
	ErrCodeResultSchemaInvalid ErrorCode = "RESULT_SCHEMA_INVALID"
	ErrCodeExecutionRejected   ErrorCode = "EXECUTION_REJECTED"

	// Availability of external collaborators
	ErrCodeUnavailable        ErrorCode = "UNAVAILABLE"
	ErrCodeCatalogStoreFailed ErrorCode = "CATALOG_STORE_FAILED"

	// Pricing and requests
	ErrCodePriceMismatch  ErrorCode = "PRICE_MISMATCH"
	ErrCodeInvalidSplit   ErrorCode = "INVALID_SPLIT"
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"

	// Catalog and storage lookups
	ErrCodeRulesetNotFound ErrorCode = "RULESET_NOT_FOUND"
	ErrCodeInvalidRuleset  ErrorCode = "INVALID_RULESET"
	ErrCodeContentNotFound ErrorCode = "CONTENT_NOT_FOUND"
	ErrCodeContentCorrupt  ErrorCode = "CONTENT_CORRUPT"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error { return e.Cause }

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func newError(code ErrorCode, message, details string, retryable bool, metadata map[string]interface{}) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Metadata:  metadata,
		Timestamp: time.Now().UTC(),
	}
}

// ======================
// Validation errors
// ======================

func NewUnknownTemplateError(templateID string) *StandardError {
	return newError(ErrCodeUnknownTemplate, "Template not found in registry",
		fmt.Sprintf("templateId: %s", templateID), false,
		map[string]interface{}{"templateId": templateID})
}

func NewMissingParameterError(key string) *StandardError {
	return newError(ErrCodeMissingParameter, "Required parameter missing",
		fmt.Sprintf("key: %s", key), false,
		map[string]interface{}{"key": key})
}

func NewTypeMismatchError(key, expected, actual string) *StandardError {
	return newError(ErrCodeTypeMismatch, "Parameter has the wrong type",
		fmt.Sprintf("key: %s, expected: %s, actual: %s", key, expected, actual), false,
		map[string]interface{}{"key": key, "expected": expected, "actual": actual})
}

func NewUnknownParameterError(key string) *StandardError {
	return newError(ErrCodeUnknownParameter, "Parameter not declared by template",
		fmt.Sprintf("key: %s", key), false,
		map[string]interface{}{"key": key})
}

func NewInvalidConfigurationError(details string) *StandardError {
	return newError(ErrCodeInvalidConfiguration, "Configuration metadata is invalid", details, false, nil)
}

// NewDatasetInvalidError reports every problem found in an uploaded dataset.
func NewDatasetInvalidError(problems []string) *StandardError {
	return newError(ErrCodeDatasetInvalid, "Dataset failed validation",
		strings.Join(problems, "; "), false,
		map[string]interface{}{"problems": problems})
}

// ======================
// Result, pricing and request errors
// ======================

func NewResultSchemaError(violations []string) *StandardError {
	return newError(ErrCodeResultSchemaInvalid, "Execution result failed schema validation",
		strings.Join(violations, "; "), false,
		map[string]interface{}{"violations": violations})
}

// NewExecutionRejectedError is a 4xx answer from the execution service. The
// same request would be rejected again.
func NewExecutionRejectedError(status int, body string) *StandardError {
	return newError(ErrCodeExecutionRejected, "Execution service rejected the request",
		fmt.Sprintf("status: %d, body: %s", status, body), false,
		map[string]interface{}{"status": status})
}

func NewPriceMismatchError(offered, current string) *StandardError {
	return newError(ErrCodePriceMismatch, "Request price differs from the ruleset price",
		fmt.Sprintf("offered: %s, current: %s", offered, current), false,
		map[string]interface{}{"offered": offered, "current": current})
}

func NewInvalidSplitError(details string) *StandardError {
	return newError(ErrCodeInvalidSplit, "Revenue split inputs are invalid", details, false, nil)
}

func NewInvalidRequestError(details string) *StandardError {
	return newError(ErrCodeInvalidRequest, "Execution request preconditions failed", details, false, nil)
}

func NewRulesetNotFoundError(rulesetID string) *StandardError {
	return newError(ErrCodeRulesetNotFound, "Ruleset not found in catalog",
		fmt.Sprintf("rulesetId: %s", rulesetID), false,
		map[string]interface{}{"rulesetId": rulesetID})
}

func NewInvalidRulesetError(details string) *StandardError {
	return newError(ErrCodeInvalidRuleset, "Ruleset is invalid", details, false, nil)
}

func NewContentNotFoundError(contentID string) *StandardError {
	return newError(ErrCodeContentNotFound, "Content not found in store",
		fmt.Sprintf("contentId: %s", contentID), false,
		map[string]interface{}{"contentId": contentID})
}

// NewContentCorruptError reports stored bytes whose hash is not their id.
func NewContentCorruptError(contentID, actual string) *StandardError {
	return newError(ErrCodeContentCorrupt, "Stored content does not match its id",
		fmt.Sprintf("contentId: %s, actual: %s", contentID, actual), false,
		map[string]interface{}{"contentId": contentID, "actual": actual})
}

// ======================
// Availability errors
// ======================

// NewUnavailableError classifies a timeout or transport failure of an
// external collaborator. The caller may retry with backoff.
func NewUnavailableError(service string, err error) *StandardError {
	e := newError(ErrCodeUnavailable, fmt.Sprintf("Service '%s' unavailable", service),
		err.Error(), true, map[string]interface{}{"service": service})
	e.Cause = err
	return e
}

func NewCatalogStoreError(operation string, err error) *StandardError {
	e := newError(ErrCodeCatalogStoreFailed, "Catalog store operation failed",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true,
		map[string]interface{}{"operation": operation})
	e.Cause = err
	return e
}

func NewExternalServiceError(service string, err error) *StandardError {
	return NewUnavailableError(service, err)
}

func NewTimeoutError(service string, err error) *StandardError {
	e := NewUnavailableError(service, err)
	e.Message = fmt.Sprintf("Service '%s' timeout", service)
	return e
}

func NewInternalError(err error) *StandardError {
	e := newError(ErrCodeInternal, "Unexpected error", err.Error(), false, nil)
	e.Cause = err
	return e
}

// ======================
// Inspection helpers
// ======================

// AsStandard returns the StandardError in err's chain, if any.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf returns the code of the StandardError in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr.Code
	}
	return ""
}

func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

func IsRetryable(err error) bool {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr.Retryable
	}
	return false
}

// ======================
// BPMN mapping
// ======================

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeUnknownTemplate:      "UNKNOWN_TEMPLATE",
	ErrCodeMissingParameter:     "CONFIGURATION_INVALID",
	ErrCodeTypeMismatch:         "CONFIGURATION_INVALID",
	ErrCodeUnknownParameter:     "CONFIGURATION_INVALID",
	ErrCodeInvalidConfiguration: "CONFIGURATION_INVALID",
	ErrCodeDatasetInvalid:       "DATASET_INVALID",
	ErrCodeResultSchemaInvalid:  "RESULT_REJECTED",
	ErrCodeExecutionRejected:    "EXECUTION_REJECTED",
	ErrCodeUnavailable:          "UNAVAILABLE",
	ErrCodeCatalogStoreFailed:   "CATALOG_STORE_FAILED",
	ErrCodePriceMismatch:        "PRICE_MISMATCH",
	ErrCodeInvalidSplit:         "INVALID_SPLIT",
	ErrCodeInvalidRequest:       "INVALID_REQUEST",
	ErrCodeRulesetNotFound:      "RULESET_NOT_FOUND",
	ErrCodeInvalidRuleset:       "INVALID_RULESET",
	ErrCodeContentNotFound:      "CONTENT_NOT_FOUND",
	ErrCodeContentCorrupt:       "CONTENT_CORRUPT",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeUnavailable,
		ErrCodeCatalogStoreFailed:
		return 3
	default:
		return 0 // Business errors: no retry
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeUnknownTemplate, ErrCodeMissingParameter, ErrCodeTypeMismatch,
		ErrCodeUnknownParameter, ErrCodeInvalidConfiguration, ErrCodeDatasetInvalid:
		return "VALIDATION"
	case ErrCodeResultSchemaInvalid, ErrCodeExecutionRejected:
		return "SCHEMA"
	case ErrCodeUnavailable, ErrCodeCatalogStoreFailed:
		return "AVAILABILITY"
	case ErrCodePriceMismatch, ErrCodeInvalidSplit:
		return "PRICING"
	case ErrCodeRulesetNotFound, ErrCodeInvalidRuleset, ErrCodeContentNotFound, ErrCodeContentCorrupt, ErrCodeInvalidRequest:
		return "CATALOG"
	default:
		return "UNKNOWN"
	}
}
