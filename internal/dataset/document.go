package dataset

import (
	"encoding/json"
	"fmt"
)

type Metadata struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Owner       string `json:"owner,omitempty"`
}

// Document is the stored form of an upload. Struct fields keep their order
// and row keys are sorted, so equal uploads encode to equal bytes.
type Document struct {
	Metadata Metadata                 `json:"metadata"`
	Schema   Schema                   `json:"schema"`
	Columns  []string                 `json:"columns"`
	Rows     []map[string]interface{} `json:"rows"`
}

func Encode(ds *Dataset, meta Metadata, schema Schema) ([]byte, error) {
	data, err := json.Marshal(Document{
		Metadata: meta,
		Schema:   schema,
		Columns:  ds.Columns,
		Rows:     ds.Rows,
	})
	if err != nil {
		return nil, fmt.Errorf("encode dataset: %w", err)
	}
	return data, nil
}
