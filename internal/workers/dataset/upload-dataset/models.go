// internal/workers/dataset/upload-dataset/models.go
package uploaddataset

import (
	"encoding/json"

	"insight-workers/internal/dataset"
)

// Input carries the dataset either as a JSON string of CSV or JSON text, or
// as JSON rows directly.
type Input struct {
	Data        json.RawMessage `json:"data"`
	Format      string          `json:"format,omitempty"`
	Name        string          `json:"name,omitempty"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Owner       string          `json:"owner,omitempty"`
}

type Output struct {
	DataRef     string         `json:"dataRef"`
	ContentHash string         `json:"contentHash"`
	Format      string         `json:"format"`
	RowCount    int            `json:"rowCount"`
	ColumnCount int            `json:"columnCount"`
	SizeBytes   int            `json:"sizeBytes"`
	Schema      dataset.Schema `json:"schema"`
	Validation  dataset.Report `json:"validation"`
}
