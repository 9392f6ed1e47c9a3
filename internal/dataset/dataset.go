// Package dataset parses uploaded tabular data, checks it and profiles its
// columns before the bytes go into the content store.
package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	apperrors "insight-workers/internal/common/errors"
	"insight-workers/internal/common/validation"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// DefaultMaxRows bounds a single upload.
const DefaultMaxRows = 100000

// Dataset is a parsed upload. Every row carries every column; cells are nil,
// bool, string or json.Number.
type Dataset struct {
	Columns []string                 `json:"columns"`
	Rows    []map[string]interface{} `json:"rows"`
}

// RowsSchema accepts an array of flat objects, an object wrapping such an
// array under "data", or one flat object.
const RowsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "definitions": {
    "row": {
      "type": "object",
      "additionalProperties": {"type": ["string", "number", "boolean", "null"]}
    },
    "rows": {"type": "array", "items": {"$ref": "#/definitions/row"}}
  },
  "anyOf": [
    {"$ref": "#/definitions/rows"},
    {"type": "object", "required": ["data"], "properties": {"data": {"$ref": "#/definitions/rows"}}},
    {"allOf": [{"$ref": "#/definitions/row"}, {"not": {"required": ["data"]}}]}
  ]
}`

var rowsSchema = validation.MustCompile(RowsSchema)

var nullMarkers = map[string]bool{
	"": true, "NA": true, "N/A": true, "n/a": true, "NaN": true, "nan": true,
	"null": true, "NULL": true, "None": true, "#N/A": true,
}

// DetectFormat treats input starting with '[' or '{' as JSON and anything
// else as CSV.
func DetectFormat(raw []byte) Format {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
		return FormatJSON
	}
	return FormatCSV
}

// Parse reads raw in the given format. An empty format is detected.
func Parse(raw []byte, format Format) (*Dataset, error) {
	if format == "" {
		format = DetectFormat(raw)
	}
	switch format {
	case FormatCSV:
		return parseCSV(raw)
	case FormatJSON:
		return parseJSON(raw)
	}
	return nil, apperrors.NewDatasetInvalidError([]string{fmt.Sprintf("unsupported format %q", format)})
}

func parseCSV(raw []byte) (*Dataset, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, apperrors.NewDatasetInvalidError([]string{fmt.Sprintf("parse csv: %v", err)})
	}
	if len(records) == 0 {
		return &Dataset{}, nil
	}

	header := records[0]
	seen := make(map[string]bool, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, apperrors.NewDatasetInvalidError([]string{fmt.Sprintf("column %d has no name", i+1)})
		}
		if seen[name] {
			return nil, apperrors.NewDatasetInvalidError([]string{fmt.Sprintf("duplicate column %q", name)})
		}
		seen[name] = true
		header[i] = name
	}

	ds := &Dataset{Columns: header, Rows: make([]map[string]interface{}, 0, len(records)-1)}
	for _, record := range records[1:] {
		row := make(map[string]interface{}, len(header))
		for i, name := range header {
			row[name] = csvCell(record[i])
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

func csvCell(s string) interface{} {
	s = strings.TrimSpace(s)
	if nullMarkers[s] {
		return nil
	}
	switch s {
	case "true", "True", "TRUE":
		return true
	case "false", "False", "FALSE":
		return false
	}
	if json.Valid([]byte(s)) {
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			return json.Number(s)
		}
	}
	return s
}

func parseJSON(raw []byte) (*Dataset, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, apperrors.NewDatasetInvalidError([]string{fmt.Sprintf("parse json: %v", err)})
	}

	res, err := rowsSchema.ValidateValue(doc)
	if err != nil {
		return nil, apperrors.NewDatasetInvalidError([]string{err.Error()})
	}
	if !res.Valid {
		problems := append([]string{"json data must be an array of flat objects, an object with a data array, or one flat object"},
			res.GetErrorMessages()...)
		return nil, apperrors.NewDatasetInvalidError(problems)
	}

	var items []interface{}
	switch v := doc.(type) {
	case []interface{}:
		items = v
	case map[string]interface{}:
		if data, ok := v["data"].([]interface{}); ok {
			items = data
		} else {
			items = []interface{}{v}
		}
	}

	columnSet := map[string]bool{}
	for _, item := range items {
		for k := range item.(map[string]interface{}) {
			columnSet[k] = true
		}
	}
	columns := make([]string, 0, len(columnSet))
	for k := range columnSet {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	ds := &Dataset{Columns: columns, Rows: make([]map[string]interface{}, 0, len(items))}
	for _, item := range items {
		obj := item.(map[string]interface{})
		row := make(map[string]interface{}, len(columns))
		for _, c := range columns {
			row[c] = obj[c]
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}
