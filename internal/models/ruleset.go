// internal/models/ruleset.go
package models

import (
	"time"

	"github.com/shopspring/decimal"

	"insight-workers/pkg/registry"
)

type RulesetSource string

const (
	SourceLocal  RulesetSource = "local"
	SourceRemote RulesetSource = "remote"
)

// Ruleset is a published, priced configuration offered in the marketplace.
// The catalog owns the record; the content store owns the config bytes.
type Ruleset struct {
	ID                string            `json:"id"`
	DisplayName       string            `json:"displayName"`
	Description       string            `json:"description,omitempty"`
	Category          registry.Category `json:"category"`
	TemplateID        string            `json:"templateId"`
	ConfigRef         string            `json:"configRef"`
	PricePerExecution decimal.Decimal   `json:"pricePerExecution"`
	CreatorShare      decimal.Decimal   `json:"creatorShare"`
	Creator           string            `json:"creator"`
	TotalUses         int64             `json:"totalUses"`
	Rating            float64           `json:"rating"`
	CreatedAt         time.Time         `json:"createdAt"`
	Source            RulesetSource     `json:"source"`
}

const MaxRating = 5.0

// RulesetListing is a ruleset as shown to buyers, with the split of one
// execution at its current price.
type RulesetListing struct {
	Ruleset
	Split RevenueSplit `json:"split"`
}
