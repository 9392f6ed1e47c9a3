package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personSchema = `{
  "type": "object",
  "required": ["name", "age"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "age":  {"type": "integer", "minimum": 0},
    "tags": {"type": "array", "items": {"type": "string"}}
  },
  "additionalProperties": false
}`

func TestSchema_ValidateBytes(t *testing.T) {
	s := MustCompile(personSchema)

	tests := []struct {
		name  string
		doc   string
		valid bool
		code  string
	}{
		{"valid", `{"name":"a","age":3}`, true, ""},
		{"missing age", `{"name":"a"}`, false, "required"},
		{"negative age", `{"name":"a","age":-1}`, false, "number_gte"},
		{"extra field", `{"name":"a","age":1,"x":1}`, false, "additional_property_not_allowed"},
		{"bad array item", `{"name":"a","age":1,"tags":[1]}`, false, "invalid_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.ValidateBytes([]byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.valid, res.Valid)
			if tt.code != "" {
				assert.True(t, hasCode(res, tt.code), "expected %s, got %v", tt.code, res.GetErrorMessages())
			}
		})
	}
}

func hasCode(res *ValidationResult, code string) bool {
	for _, e := range res.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

func TestSchema_ValidateValue(t *testing.T) {
	s := MustCompile(personSchema)
	res, err := s.ValidateValue(map[string]interface{}{"name": "", "age": 2})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1, "%v", res.GetErrorMessages())
	assert.Equal(t, "name", res.Errors[0].Field)
	assert.Equal(t, "string_gte", res.Errors[0].Code)
}

func TestSchema_NotJSON(t *testing.T) {
	_, err := MustCompile(personSchema).ValidateBytes([]byte("{not json"))
	assert.Error(t, err)
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile(`{"type": 12}`)
	assert.Error(t, err)
}
