// internal/workers/execution/record-execution/config.go
package recordexecution

import (
	"time"

	"insight-workers/internal/common/camunda"
	apperrors "insight-workers/internal/common/errors"
)

type Config struct {
	Timeout       time.Duration
	MaxRetries    int
	RetryBackoff  time.Duration
	CompleteRetry *camunda.RetryConfig
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       10 * time.Second,
		MaxRetries:    3,
		RetryBackoff:  apperrors.DefaultRetryBackoff,
		CompleteRetry: camunda.DefaultRetryConfig,
	}
}
