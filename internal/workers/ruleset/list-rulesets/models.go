// internal/workers/ruleset/list-rulesets/models.go
package listrulesets

import "insight-workers/internal/models"

type Input struct {
	Category string `json:"category,omitempty"` // empty lists every category
	Limit    int    `json:"limit,omitempty"`
}

type Output struct {
	Rulesets []models.RulesetListing `json:"rulesets"`
	Count    int                     `json:"count"`
	Total    int                     `json:"total"`
}
