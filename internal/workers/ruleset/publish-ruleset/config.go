// internal/workers/ruleset/publish-ruleset/config.go
package publishruleset

import (
	"time"

	"github.com/shopspring/decimal"

	"insight-workers/internal/common/camunda"
	apperrors "insight-workers/internal/common/errors"
	"insight-workers/internal/pricing"
)

type Config struct {
	Timeout       time.Duration
	CreatorShare  decimal.Decimal
	MaxRetries    int
	RetryBackoff  time.Duration
	CompleteRetry *camunda.RetryConfig
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       10 * time.Second,
		CreatorShare:  pricing.DefaultCreatorShare,
		MaxRetries:    3,
		RetryBackoff:  apperrors.DefaultRetryBackoff,
		CompleteRetry: camunda.DefaultRetryConfig,
	}
}
