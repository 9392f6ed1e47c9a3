// internal/workers/execution/execute-ruleset/models.go
package executeruleset

import "insight-workers/internal/models"

type Input struct {
	ExecutionRequest models.ExecutionRequest `json:"executionRequest"`
}

type Output struct {
	ExecutionID string                 `json:"executionId"`
	RulesetID   string                 `json:"rulesetId"`
	Requester   string                 `json:"requester"`
	Result      models.ExecutionResult `json:"result"`
}
