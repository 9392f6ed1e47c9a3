// internal/models/notification.go
package models

import "time"

type EventType string

const (
	EventRulesetPublished  EventType = "ruleset.published"
	EventExecutionRecorded EventType = "execution.recorded"
)

type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	SubjectID string                 `json:"subjectId"` // ruleset or execution id
	Payload   map[string]interface{} `json:"payload"`
	CreatedAt time.Time              `json:"createdAt"`
}
