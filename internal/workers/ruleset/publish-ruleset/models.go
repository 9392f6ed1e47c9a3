// internal/workers/ruleset/publish-ruleset/models.go
package publishruleset

import (
	"time"

	"github.com/shopspring/decimal"

	"insight-workers/internal/models"
)

// Input publishes a stored configuration. Empty fields fall back to what the
// stored configuration says.
type Input struct {
	ConfigRef         string          `json:"configRef"`
	TemplateID        string          `json:"templateId,omitempty"`
	DisplayName       string          `json:"displayName,omitempty"`
	Description       string          `json:"description,omitempty"`
	Category          string          `json:"category,omitempty"`
	// PricePerExecution, when set, must equal the stored configuration's
	// price.
	PricePerExecution decimal.Decimal `json:"pricePerExecution"`
	CreatorShare      decimal.Decimal `json:"creatorShare"`
	Creator           string          `json:"creator,omitempty"`
}

type Output struct {
	RulesetID string              `json:"rulesetId"`
	Category  string              `json:"category"`
	CreatedAt time.Time           `json:"createdAt"`
	Split     models.RevenueSplit `json:"split"`
}
