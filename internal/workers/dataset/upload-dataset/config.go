// internal/workers/dataset/upload-dataset/config.go
package uploaddataset

import (
	"time"

	"insight-workers/internal/common/camunda"
	apperrors "insight-workers/internal/common/errors"
	"insight-workers/internal/dataset"
)

type Config struct {
	Timeout  time.Duration
	MaxRows  int
	MaxBytes int
	// VerifyUpload reads each blob back and checks its hash.
	VerifyUpload  bool
	MaxRetries    int
	RetryBackoff  time.Duration
	CompleteRetry *camunda.RetryConfig
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       30 * time.Second,
		MaxRows:       dataset.DefaultMaxRows,
		MaxBytes:      10 << 20,
		VerifyUpload:  true,
		MaxRetries:    3,
		RetryBackoff:  apperrors.DefaultRetryBackoff,
		CompleteRetry: camunda.DefaultRetryConfig,
	}
}
