// internal/workers/execution/record-execution/models.go
package recordexecution

import (
	"encoding/json"
	"time"
)

type Input struct {
	ExecutionID string `json:"executionId"`
	RulesetID   string `json:"rulesetId"`
	Requester   string `json:"requester"`
	// Result is kept raw so it is schema checked before it is decoded.
	Result json.RawMessage `json:"result"`
}

type Output struct {
	ExecutionID string    `json:"executionId"`
	RulesetID   string    `json:"rulesetId"`
	TotalUses   int64     `json:"totalUses"`
	RecordedAt  time.Time `json:"recordedAt"`
}
