// internal/workers/ruleset/validate-configuration/models.go
package validateconfiguration

import (
	"github.com/shopspring/decimal"

	"insight-workers/internal/models"
)

type Input struct {
	TemplateID        string                 `json:"templateId"`
	Config            map[string]interface{} `json:"config"`
	Name              string                 `json:"name"`
	Description       string                 `json:"description,omitempty"`
	PricePerExecution decimal.Decimal        `json:"pricePerExecution"`
	Creator           string                 `json:"creator"`
}

type Output struct {
	ConfigRef         string                 `json:"configRef"`
	TemplateID        string                 `json:"templateId"`
	Category          string                 `json:"category"`
	Config            map[string]interface{} `json:"config"`
	PricePerExecution decimal.Decimal        `json:"pricePerExecution"`
	Split             models.RevenueSplit    `json:"split"`
	EstimatedEarnings decimal.Decimal        `json:"estimatedEarnings"`
}
