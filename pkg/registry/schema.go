package registry

// Category groups templates in the marketplace.
type Category string

const (
	CategoryGaming Category = "Gaming"
	CategoryDeFi   Category = "DeFi"
	CategorySocial Category = "Social"
	CategoryIoT    Category = "IoT"
)

// Categories lists every known category in display order.
var Categories = []Category{CategoryGaming, CategoryDeFi, CategorySocial, CategoryIoT}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// TemplateRegistry is the on-disk layout of a template catalog file.
type TemplateRegistry struct {
	Version     string     `json:"version" yaml:"version"`
	LastUpdated string     `json:"lastUpdated" yaml:"lastUpdated"`
	Templates   []Template `json:"templates" yaml:"templates"`
}

// Template is a fixed analytics procedure with a declared parameter schema.
type Template struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Category    Category    `json:"category" yaml:"category"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Parameters  []Parameter `json:"parameters" yaml:"parameters"`
}

// Parameter is one entry of a template's parameter schema.
type Parameter struct {
	Key         string      `json:"key" yaml:"key"`
	Label       string      `json:"label" yaml:"label"`
	Type        ParamType   `json:"type" yaml:"type"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Default     interface{} `json:"default" yaml:"default"`
}

// Parameter returns the schema entry for key.
func (t Template) Parameter(key string) (Parameter, bool) {
	for _, p := range t.Parameters {
		if p.Key == key {
			return p, true
		}
	}
	return Parameter{}, false
}

// Keys returns the schema keys in declaration order.
func (t Template) Keys() []string {
	keys := make([]string, len(t.Parameters))
	for i, p := range t.Parameters {
		keys[i] = p.Key
	}
	return keys
}

// Defaults returns the default value of every parameter, keyed by parameter key.
func (t Template) Defaults() map[string]interface{} {
	out := make(map[string]interface{}, len(t.Parameters))
	for _, p := range t.Parameters {
		out[p.Key] = p.Default
	}
	return out
}
