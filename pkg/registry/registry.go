package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrTemplateNotFound = errors.New("template not found")

var templateIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Registry is an immutable, ordered catalog of templates.
type Registry struct {
	templates []Template
	index     map[string]int
}

// New builds a registry, rejecting duplicate ids or keys and defaults that do
// not satisfy their declared type.
func New(templates ...Template) (*Registry, error) {
	r := &Registry{
		templates: make([]Template, 0, len(templates)),
		index:     make(map[string]int, len(templates)),
	}
	for _, t := range templates {
		if err := checkTemplate(t); err != nil {
			return nil, err
		}
		if _, dup := r.index[t.ID]; dup {
			return nil, fmt.Errorf("duplicate template id %q", t.ID)
		}
		r.index[t.ID] = len(r.templates)
		r.templates = append(r.templates, clone(t))
	}
	return r, nil
}

func checkTemplate(t Template) error {
	if !templateIDPattern.MatchString(t.ID) {
		return fmt.Errorf("template id %q must be lower snake_case", t.ID)
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("template %s: name is required", t.ID)
	}
	if !t.Category.Valid() {
		return fmt.Errorf("template %s: unknown category %q", t.ID, t.Category)
	}
	if len(t.Parameters) == 0 {
		return fmt.Errorf("template %s: parameter schema is empty", t.ID)
	}
	seen := make(map[string]bool, len(t.Parameters))
	for _, p := range t.Parameters {
		if p.Key == "" {
			return fmt.Errorf("template %s: parameter with empty key", t.ID)
		}
		if seen[p.Key] {
			return fmt.Errorf("template %s: duplicate parameter key %q", t.ID, p.Key)
		}
		seen[p.Key] = true
		if !p.Type.Valid() {
			return fmt.Errorf("template %s: parameter %s has unknown type %q", t.ID, p.Key, p.Type)
		}
		if _, err := p.Type.Coerce(p.Default); err != nil {
			return fmt.Errorf("template %s: default for %s: %w", t.ID, p.Key, err)
		}
	}
	return nil
}

func clone(t Template) Template {
	params := make([]Parameter, len(t.Parameters))
	copy(params, t.Parameters)
	t.Parameters = params
	return t
}

// Get returns the template with the given id.
func (r *Registry) Get(id string) (Template, error) {
	i, ok := r.index[id]
	if !ok {
		return Template{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	return clone(r.templates[i]), nil
}

// List returns templates in insertion order. An empty category lists all.
func (r *Registry) List(category Category) []Template {
	out := make([]Template, 0, len(r.templates))
	for _, t := range r.templates {
		if category != "" && t.Category != category {
			continue
		}
		out = append(out, clone(t))
	}
	return out
}

// Len returns the number of templates.
func (r *Registry) Len() int { return len(r.templates) }

// LoadRegistry reads a template catalog from a .json, .yaml or .yml file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file TemplateRegistry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	default:
		err = json.Unmarshal(data, &file)
	}
	if err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return New(file.Templates...)
}
