// internal/models/execution.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type RevenueSplit struct {
	Price         decimal.Decimal `json:"price"`
	Share         decimal.Decimal `json:"share"`
	CreatorPayout decimal.Decimal `json:"creatorPayout"`
	PlatformFee   decimal.Decimal `json:"platformFee"`
}

// ExecutionRequest is a priced analysis request. Price is the ruleset's price
// at build time.
type ExecutionRequest struct {
	ExecutionID string          `json:"executionId"`
	RulesetID   string          `json:"rulesetId"`
	TemplateID  string          `json:"templateId"`
	ConfigRef   string          `json:"configRef"`
	DataRef     string          `json:"dataRef"`
	Price       decimal.Decimal `json:"price"`
	Requester   string          `json:"requester"`
	Split       RevenueSplit    `json:"split"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// HistoryEntry is one recorded execution. Entries are appended, never mutated.
type HistoryEntry struct {
	ExecutionID string          `json:"executionId"`
	RulesetID   string          `json:"rulesetId"`
	Requester   string          `json:"requester"`
	Result      ExecutionResult `json:"result"`
	Timestamp   time.Time       `json:"timestamp"`
}
