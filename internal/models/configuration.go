// internal/models/configuration.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"insight-workers/pkg/registry"
)

type ParameterValue struct {
	Key   string         `json:"key"`
	Value registry.Value `json:"value"`
}

// Configuration is a validated parameter set bound to a template. Values are
// in schema order and cover exactly the schema keys.
type Configuration struct {
	TemplateID        string
	Values            []ParameterValue
	Name              string
	Description       string
	PricePerExecution decimal.Decimal
	Creator           string
}

// Get returns the value for key.
func (c Configuration) Get(key string) (registry.Value, bool) {
	for _, pv := range c.Values {
		if pv.Key == key {
			return pv.Value, true
		}
	}
	return registry.Value{}, false
}

// Keys returns the value keys in order.
func (c Configuration) Keys() []string {
	keys := make([]string, len(c.Values))
	for i, pv := range c.Values {
		keys[i] = pv.Key
	}
	return keys
}

// ValueMap flattens the values into plain Go values.
func (c Configuration) ValueMap() map[string]interface{} {
	out := make(map[string]interface{}, len(c.Values))
	for _, pv := range c.Values {
		out[pv.Key] = pv.Value.Interface()
	}
	return out
}

// MarshalJSON writes the stored blob layout with a fixed key order and the
// parameter object in value order, so equal configurations encode to equal
// bytes.
func (c Configuration) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	fields := []struct {
		key   string
		value interface{}
	}{
		{"template_id", c.TemplateID},
		{"name", c.Name},
		{"description", c.Description},
	}
	for _, f := range fields {
		if err := writeField(&buf, f.key, f.value); err != nil {
			return nil, err
		}
		buf.WriteByte(',')
	}

	buf.WriteString(`"config":{`)
	for i, pv := range c.Values {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeField(&buf, pv.Key, pv.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteString("},")

	if err := writeField(&buf, "price_per_execution", c.PricePerExecution.String()); err != nil {
		return nil, err
	}
	buf.WriteByte(',')
	if err := writeField(&buf, "creator", c.Creator); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeField(buf *bytes.Buffer, key string, value interface{}) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

// UnmarshalJSON reads the stored blob layout. Parameter order is preserved and
// value types are taken from the JSON kinds; callers re-validate against the
// template.
func (c *Configuration) UnmarshalJSON(data []byte) error {
	var blob struct {
		TemplateID        string          `json:"template_id"`
		Name              string          `json:"name"`
		Description       string          `json:"description"`
		Config            json.RawMessage `json:"config"`
		PricePerExecution decimal.Decimal `json:"price_per_execution"`
		Creator           string          `json:"creator"`
	}
	if err := json.Unmarshal(data, &blob); err != nil {
		return err
	}
	values, err := decodeOrderedValues(blob.Config)
	if err != nil {
		return err
	}
	*c = Configuration{
		TemplateID:        blob.TemplateID,
		Values:            values,
		Name:              blob.Name,
		Description:       blob.Description,
		PricePerExecution: blob.PricePerExecution,
		Creator:           blob.Creator,
	}
	return nil
}

func decodeOrderedValues(raw json.RawMessage) ([]ParameterValue, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("config must be an object")
	}

	var values []ParameterValue
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)

		var v interface{}
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("config %s: %w", key, err)
		}
		value, err := inferValue(v)
		if err != nil {
			return nil, fmt.Errorf("config %s: %w", key, err)
		}
		values = append(values, ParameterValue{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return values, nil
}

func inferValue(v interface{}) (registry.Value, error) {
	switch x := v.(type) {
	case json.Number:
		return registry.TypeNumber.Coerce(x)
	case bool:
		return registry.BoolValue(x), nil
	case string:
		return registry.StringValue(x), nil
	}
	return registry.Value{}, fmt.Errorf("unsupported value %T", v)
}
