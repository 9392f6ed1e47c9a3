// internal/workers/ruleset/validate-configuration/config.go
package validateconfiguration

import (
	"time"

	"github.com/shopspring/decimal"

	"insight-workers/internal/common/camunda"
	apperrors "insight-workers/internal/common/errors"
	"insight-workers/internal/pricing"
)

type Config struct {
	Timeout time.Duration
	// CreatorShare is the share quoted to a creator pricing a new ruleset.
	CreatorShare decimal.Decimal
	// EstimateExecutions is the execution count the earnings estimate assumes.
	EstimateExecutions int64
	MaxRetries         int
	RetryBackoff       time.Duration
	CompleteRetry      *camunda.RetryConfig
}

func LoadConfig() *Config {
	return &Config{
		Timeout:            10 * time.Second,
		CreatorShare:       pricing.DefaultCreatorShare,
		EstimateExecutions: 10,
		MaxRetries:         3,
		RetryBackoff:       apperrors.DefaultRetryBackoff,
		CompleteRetry:      camunda.DefaultRetryConfig,
	}
}
