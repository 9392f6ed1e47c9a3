// internal/workers/execution/build-execution-request/config.go
package buildexecutionrequest

import (
	"time"

	"github.com/shopspring/decimal"

	"insight-workers/internal/common/camunda"
	apperrors "insight-workers/internal/common/errors"
	"insight-workers/internal/pricing"
)

type Config struct {
	Timeout       time.Duration
	ListingShare  decimal.Decimal
	MaxRetries    int
	RetryBackoff  time.Duration
	CompleteRetry *camunda.RetryConfig
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       10 * time.Second,
		ListingShare:  pricing.DefaultListingShare,
		MaxRetries:    3,
		RetryBackoff:  apperrors.DefaultRetryBackoff,
		CompleteRetry: camunda.DefaultRetryConfig,
	}
}
