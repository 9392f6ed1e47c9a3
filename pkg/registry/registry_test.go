package registry

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTemplate(id string, category Category, params ...Parameter) Template {
	return Template{ID: id, Name: "Template " + id, Category: category, Parameters: params}
}

func TestBuiltin_Catalog(t *testing.T) {
	reg := Builtin()
	assert.Equal(t, 6, reg.Len())

	tmpl, err := reg.Get("game_anti_cheat")
	require.NoError(t, err)
	assert.Equal(t, CategoryGaming, tmpl.Category)
	assert.Equal(t, []string{
		"kd_ratio_max", "score_velocity_limit", "impossible_movement_threshold", "headshot_percentage_max",
	}, tmpl.Keys())
	assert.Equal(t, 0.92, tmpl.Defaults()["impossible_movement_threshold"])
}

func TestRegistry_Get_NotFound(t *testing.T) {
	_, err := Builtin().Get("does_not_exist")
	assert.True(t, errors.Is(err, ErrTemplateNotFound))
}

func TestRegistry_List(t *testing.T) {
	reg := Builtin()

	tests := []struct {
		name     string
		category Category
		expected []string
	}{
		{"all categories keep insertion order", "", []string{
			"game_abuse_detection", "game_anti_cheat", "defi_risk_analyzer",
			"token_holder_segmentation", "social_sentiment_tracker", "iot_device_health",
		}},
		{"gaming", CategoryGaming, []string{"game_abuse_detection", "game_anti_cheat"}},
		{"defi", CategoryDeFi, []string{"defi_risk_analyzer", "token_holder_segmentation"}},
		{"iot", CategoryIoT, []string{"iot_device_health"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ids []string
			for _, tmpl := range reg.List(tt.category) {
				ids = append(ids, tmpl.ID)
			}
			if diff := cmp.Diff(tt.expected, ids); diff != "" {
				t.Errorf("List(%q) mismatch (-want +got):\n%s", tt.category, diff)
			}
		})
	}
}

func TestRegistry_IsImmutable(t *testing.T) {
	reg := Builtin()
	tmpl, err := reg.Get("iot_device_health")
	require.NoError(t, err)

	tmpl.Parameters[0].Key = "mutated"

	again, err := reg.Get("iot_device_health")
	require.NoError(t, err)
	assert.Equal(t, "uptime_threshold", again.Parameters[0].Key)
}

func TestNew_RejectsMalformedTemplates(t *testing.T) {
	threshold := Parameter{Key: "threshold", Label: "Threshold", Type: TypeNumber, Default: 5.0}

	tests := []struct {
		name      string
		templates []Template
		errPart   string
	}{
		{
			name:      "duplicate template id",
			templates: []Template{createTemplate("t1", CategoryIoT, threshold), createTemplate("t1", CategoryIoT, threshold)},
			errPart:   "duplicate template id",
		},
		{
			name:      "duplicate parameter key",
			templates: []Template{createTemplate("t1", CategoryIoT, threshold, threshold)},
			errPart:   "duplicate parameter key",
		},
		{
			name: "default violates type",
			templates: []Template{createTemplate("t1", CategoryIoT,
				Parameter{Key: "threshold", Type: TypeNumber, Default: "high"})},
			errPart: "default for threshold",
		},
		{
			name: "unknown parameter type",
			templates: []Template{createTemplate("t1", CategoryIoT,
				Parameter{Key: "threshold", Type: "decimal", Default: 1.0})},
			errPart: "unknown type",
		},
		{
			name:      "unknown category",
			templates: []Template{createTemplate("t1", "Finance", threshold)},
			errPart:   "unknown category",
		},
		{
			name:      "id not snake case",
			templates: []Template{createTemplate("Game-Abuse", CategoryGaming, threshold)},
			errPart:   "snake_case",
		},
		{
			name:      "empty schema",
			templates: []Template{createTemplate("t1", CategoryGaming)},
			errPart:   "parameter schema is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.templates...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}
}

func TestParamType_Coerce(t *testing.T) {
	tests := []struct {
		name     string
		typ      ParamType
		raw      interface{}
		expected Value
		wantErr  bool
	}{
		{"float", TypeNumber, 10.0, NumberValue(10), false},
		{"int", TypeNumber, 7, NumberValue(7), false},
		{"numeric text", TypeNumber, " 2.5 ", NumberValue(2.5), false},
		{"non numeric text", TypeNumber, "x", Value{}, true},
		{"nan", TypeNumber, math.NaN(), Value{}, true},
		{"infinity", TypeNumber, math.Inf(1), Value{}, true},
		{"bool for number", TypeNumber, true, Value{}, true},
		{"bool", TypeBoolean, false, BoolValue(false), false},
		{"bool text", TypeBoolean, "true", BoolValue(true), false},
		{"false text", TypeBoolean, " false ", BoolValue(false), false},
		{"one for bool", TypeBoolean, "1", Value{}, true},
		{"t for bool", TypeBoolean, "t", Value{}, true},
		{"upper case bool", TypeBoolean, "TRUE", Value{}, true},
		{"zero for bool", TypeBoolean, "0", Value{}, true},
		{"number for bool", TypeBoolean, 1.0, Value{}, true},
		{"string", TypeString, "eu-west", StringValue("eu-west"), false},
		{"number for string", TypeString, 3.0, Value{}, true},
		{"null", TypeString, nil, Value{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := tt.typ.Coerce(tt.raw)
			if tt.wantErr {
				var typeErr *TypeError
				require.True(t, errors.As(err, &typeErr))
				assert.Equal(t, tt.typ, typeErr.Expected)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestLoadRegistry_YAMLAndJSON(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "templates.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
version: "1.0.0"
templates:
  - id: t1
    name: Threshold Check
    category: IoT
    parameters:
      - key: threshold
        label: Threshold
        type: number
        default: 5
      - key: strict
        label: Strict
        type: boolean
        default: false
`), 0o644))

	jsonPath := filepath.Join(dir, "templates.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{
  "version": "1.0.0",
  "templates": [
    {"id": "t1", "name": "Threshold Check", "category": "IoT",
     "parameters": [{"key": "threshold", "label": "Threshold", "type": "number", "default": 5}]}
  ]
}`), 0o644))

	for _, path := range []string{yamlPath, jsonPath} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			reg, err := LoadRegistry(path)
			require.NoError(t, err)
			tmpl, err := reg.Get("t1")
			require.NoError(t, err)
			assert.Equal(t, "threshold", tmpl.Parameters[0].Key)
			assert.Equal(t, TypeNumber, tmpl.Parameters[0].Type)
		})
	}
}

func TestLoadRegistry_MissingFile(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, os.IsNotExist(err))
}
