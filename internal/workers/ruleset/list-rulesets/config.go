// internal/workers/ruleset/list-rulesets/config.go
package listrulesets

import (
	"time"

	"github.com/shopspring/decimal"

	"insight-workers/internal/common/camunda"
	apperrors "insight-workers/internal/common/errors"
	"insight-workers/internal/pricing"
)

type Config struct {
	Timeout time.Duration
	// ListingShare splits listings that carry no share of their own.
	ListingShare  decimal.Decimal
	MaxResults    int
	MaxRetries    int
	RetryBackoff  time.Duration
	CompleteRetry *camunda.RetryConfig
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       5 * time.Second,
		ListingShare:  pricing.DefaultListingShare,
		MaxResults:    100,
		MaxRetries:    3,
		RetryBackoff:  apperrors.DefaultRetryBackoff,
		CompleteRetry: camunda.DefaultRetryConfig,
	}
}
