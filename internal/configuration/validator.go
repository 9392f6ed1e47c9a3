package configuration

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "insight-workers/internal/common/errors"
	"insight-workers/internal/models"
	"insight-workers/pkg/registry"
)

// Validator resolves raw parameter maps against the template registry.
// It is deterministic and has no side effects.
type Validator struct {
	registry *registry.Registry
}

func NewValidator(reg *registry.Registry) *Validator {
	return &Validator{registry: reg}
}

// Draft is what a creator submits before the configuration is stored.
type Draft struct {
	TemplateID        string                 `json:"templateId"`
	Values            map[string]interface{} `json:"values"`
	Name              string                 `json:"name"`
	Description       string                 `json:"description"`
	PricePerExecution decimal.Decimal        `json:"pricePerExecution"`
	Creator           string                 `json:"creator"`
}

// Validate checks raw against the template schema and returns the values in
// schema order. Missing keys are reported before type errors, and type errors
// before unknown keys.
func (v *Validator) Validate(templateID string, raw map[string]interface{}) (models.Configuration, error) {
	tmpl, err := v.registry.Get(templateID)
	if err != nil {
		if errors.Is(err, registry.ErrTemplateNotFound) {
			return models.Configuration{}, apperrors.NewUnknownTemplateError(templateID)
		}
		return models.Configuration{}, err
	}

	for _, p := range tmpl.Parameters {
		if _, ok := raw[p.Key]; !ok {
			return models.Configuration{}, apperrors.NewMissingParameterError(p.Key)
		}
	}

	values := make([]models.ParameterValue, 0, len(tmpl.Parameters))
	for _, p := range tmpl.Parameters {
		val, err := p.Type.Coerce(raw[p.Key])
		if err != nil {
			actual := err.Error()
			var typeErr *registry.TypeError
			if errors.As(err, &typeErr) {
				actual = typeErr.Actual
			}
			return models.Configuration{}, apperrors.NewTypeMismatchError(p.Key, string(p.Type), actual)
		}
		values = append(values, models.ParameterValue{Key: p.Key, Value: val})
	}

	if len(raw) > len(tmpl.Parameters) {
		var unknown []string
		for key := range raw {
			if _, ok := tmpl.Parameter(key); !ok {
				unknown = append(unknown, key)
			}
		}
		sort.Strings(unknown)
		return models.Configuration{}, apperrors.NewUnknownParameterError(unknown[0])
	}

	return models.Configuration{TemplateID: tmpl.ID, Values: values}, nil
}

// Build validates the draft's values and listing metadata.
func (v *Validator) Build(d Draft) (models.Configuration, error) {
	cfg, err := v.Validate(d.TemplateID, d.Values)
	if err != nil {
		return models.Configuration{}, err
	}

	var problems []string
	if strings.TrimSpace(d.Name) == "" {
		problems = append(problems, "name is required")
	}
	if !d.PricePerExecution.IsPositive() {
		problems = append(problems, "price_per_execution must be > 0")
	}
	if strings.TrimSpace(d.Creator) == "" {
		problems = append(problems, "creator is required")
	}
	if len(problems) > 0 {
		return models.Configuration{}, apperrors.NewInvalidConfigurationError(strings.Join(problems, "; "))
	}

	cfg.Name = strings.TrimSpace(d.Name)
	cfg.Description = d.Description
	cfg.PricePerExecution = d.PricePerExecution
	cfg.Creator = d.Creator
	return cfg, nil
}

// Encode returns the canonical bytes of cfg. Equal configurations encode to
// equal bytes and therefore to the same content id.
func Encode(cfg models.Configuration) ([]byte, error) {
	return json.Marshal(cfg)
}

// Decode reads canonical bytes and re-validates them against the registry.
func (v *Validator) Decode(data []byte) (models.Configuration, error) {
	var stored models.Configuration
	if err := json.Unmarshal(data, &stored); err != nil {
		return models.Configuration{}, apperrors.NewInvalidConfigurationError("decode: " + err.Error())
	}
	cfg, err := v.Validate(stored.TemplateID, stored.ValueMap())
	if err != nil {
		return models.Configuration{}, err
	}
	cfg.Name = stored.Name
	cfg.Description = stored.Description
	cfg.PricePerExecution = stored.PricePerExecution
	cfg.Creator = stored.Creator
	return cfg, nil
}
