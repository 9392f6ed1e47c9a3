package dataset

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "insight-workers/internal/common/errors"
)

type ColumnProfile struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	NullCount   int      `json:"nullCount"`
	UniqueCount int      `json:"uniqueCount"`
	Min         *float64 `json:"min,omitempty"`
	Max         *float64 `json:"max,omitempty"`
	Mean        *float64 `json:"mean,omitempty"`
}

type Schema struct {
	Columns     []ColumnProfile `json:"columns"`
	RowCount    int             `json:"rowCount"`
	ColumnCount int             `json:"columnCount"`
}

type Quality struct {
	Completeness   float64 `json:"completeness"`
	NullPercentage float64 `json:"nullPercentage"`
	DuplicateRows  int     `json:"duplicateRows"`
}

// Report is what an accepted dataset carries besides its schema. Warnings do
// not block the upload.
type Report struct {
	Checks   map[string]bool `json:"checks"`
	Warnings []string        `json:"warnings,omitempty"`
	Quality  Quality         `json:"quality"`
}

var piiKeywords = []string{
	"email", "phone", "ssn", "social_security", "credit_card", "password",
	"address", "name", "birth", "dob", "ip_address",
}

// Check applies the blocking rules and collects warnings. A dataset with no
// rows, no columns or more than maxRows rows is DATASET_INVALID.
func Check(ds *Dataset, maxRows int) (Report, error) {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	report := Report{Checks: map[string]bool{}}
	var problems []string

	if len(ds.Rows) == 0 {
		problems = append(problems, "dataset is empty")
	} else {
		report.Checks["not_empty"] = true
	}
	if len(ds.Columns) == 0 {
		problems = append(problems, "no columns found")
	} else {
		report.Checks["has_columns"] = true
	}
	if len(ds.Rows) > maxRows {
		problems = append(problems, fmt.Sprintf("too many rows: %d (max %d)", len(ds.Rows), maxRows))
	} else {
		report.Checks["within_row_limit"] = true
	}
	if len(problems) > 0 {
		return Report{}, apperrors.NewDatasetInvalidError(problems)
	}

	report.Warnings = piiWarnings(ds.Columns)
	report.Quality = quality(ds)
	return report, nil
}

func piiWarnings(columns []string) []string {
	var warnings []string
	for _, col := range columns {
		lower := strings.ToLower(col)
		for _, keyword := range piiKeywords {
			if strings.Contains(lower, keyword) {
				warnings = append(warnings, fmt.Sprintf("column %q may contain PII (%s)", col, keyword))
				break
			}
		}
	}
	return warnings
}

func quality(ds *Dataset) Quality {
	total := len(ds.Rows) * len(ds.Columns)
	nulls := 0
	seen := make(map[string]bool, len(ds.Rows))
	duplicates := 0
	for _, row := range ds.Rows {
		for _, c := range ds.Columns {
			if row[c] == nil {
				nulls++
			}
		}
		key, _ := json.Marshal(row)
		if seen[string(key)] {
			duplicates++
		}
		seen[string(key)] = true
	}

	q := Quality{DuplicateRows: duplicates}
	if total > 0 {
		q.NullPercentage = float64(nulls) / float64(total) * 100
		q.Completeness = 1 - float64(nulls)/float64(total)
	}
	return q
}

// Profile describes every column in order.
func Profile(ds *Dataset) Schema {
	schema := Schema{
		Columns:     make([]ColumnProfile, 0, len(ds.Columns)),
		RowCount:    len(ds.Rows),
		ColumnCount: len(ds.Columns),
	}
	for _, c := range ds.Columns {
		schema.Columns = append(schema.Columns, profileColumn(ds, c))
	}
	return schema
}

func profileColumn(ds *Dataset, column string) ColumnProfile {
	p := ColumnProfile{Name: column}
	kinds := map[string]bool{}
	unique := map[string]bool{}
	var numbers []float64

	for _, row := range ds.Rows {
		v := row[column]
		if v == nil {
			p.NullCount++
			continue
		}
		kind := kindOf(v)
		kinds[kind] = true
		unique[kind+":"+fmt.Sprint(v)] = true
		if n, ok := v.(json.Number); ok {
			if f, err := n.Float64(); err == nil {
				numbers = append(numbers, f)
			}
		}
	}
	p.UniqueCount = len(unique)

	switch len(kinds) {
	case 0:
		p.Type = "empty"
	case 1:
		for k := range kinds {
			p.Type = k
		}
	default:
		p.Type = "mixed"
	}

	if p.Type == "number" && len(numbers) > 0 {
		lo, hi, sum := numbers[0], numbers[0], 0.0
		for _, f := range numbers {
			if f < lo {
				lo = f
			}
			if f > hi {
				hi = f
			}
			sum += f
		}
		mean := sum / float64(len(numbers))
		p.Min, p.Max, p.Mean = &lo, &hi, &mean
	}
	return p
}

func kindOf(v interface{}) string {
	switch v.(type) {
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	}
	return "string"
}
