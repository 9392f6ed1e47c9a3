// internal/workers/execution/execute-ruleset/config.go
package executeruleset

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
		Timeout:       60 * time.Second,
		MaxRetries:    3,
		RetryBackoff:  apperrors.DefaultRetryBackoff,
		CompleteRetry: camunda.DefaultRetryConfig,
	}
}
