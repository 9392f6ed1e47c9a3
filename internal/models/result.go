// internal/models/result.go
package models

import (
	"fmt"

	apperrors "insight-workers/internal/common/errors"
)

type Finding struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

type ResultMetadata struct {
	AnalyzedRecords int64 `json:"analyzed_records"`
	FlaggedItems    int64 `json:"flagged_items"`
}

type ExecutionResult struct {
	Summary         string         `json:"summary"`
	Findings        []Finding      `json:"findings"`
	Recommendations []string       `json:"recommendations"`
	Metadata        ResultMetadata `json:"metadata"`
}

// Violations lists every broken invariant, empty when the result is valid.
func (r ExecutionResult) Violations() []string {
	var out []string
	if r.Metadata.AnalyzedRecords < 0 {
		out = append(out, "metadata.analyzed_records must be >= 0")
	}
	if r.Metadata.FlaggedItems < 0 {
		out = append(out, "metadata.flagged_items must be >= 0")
	}
	if r.Metadata.FlaggedItems > r.Metadata.AnalyzedRecords {
		out = append(out, fmt.Sprintf("metadata.flagged_items (%d) exceeds analyzed_records (%d)",
			r.Metadata.FlaggedItems, r.Metadata.AnalyzedRecords))
	}
	for i, f := range r.Findings {
		if f.Confidence < 0 || f.Confidence > 1 {
			out = append(out, fmt.Sprintf("findings[%d].confidence %v outside [0,1]", i, f.Confidence))
		}
		if f.Type == "" {
			out = append(out, fmt.Sprintf("findings[%d].type is required", i))
		}
	}
	return out
}

// Validate returns RESULT_SCHEMA_INVALID when any invariant is broken.
func (r ExecutionResult) Validate() error {
	if v := r.Violations(); len(v) > 0 {
		return apperrors.NewResultSchemaError(v)
	}
	return nil
}
