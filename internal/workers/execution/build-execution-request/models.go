// internal/workers/execution/build-execution-request/models.go
package buildexecutionrequest

import (
	"github.com/shopspring/decimal"

	"insight-workers/internal/models"
)

type Input struct {
	RulesetID string `json:"rulesetId"`
	DataRef   string `json:"dataRef"`
	Requester string `json:"requester"`
	// OfferedPrice is the price the buyer saw. Zero means none was quoted.
	OfferedPrice decimal.Decimal `json:"offeredPrice"`
}

type Output struct {
	ExecutionRequest models.ExecutionRequest `json:"executionRequest"`
}
