package catalog

import (
	"context"

	"insight-workers/internal/models"
)

// Store persists local rulesets and the execution history.
//
// RecordExecution must append the entry and increment the ruleset's
// total_uses as one atomic step per ruleset id. An entry whose ExecutionID is
// already recorded is not appended again; the current count is returned with
// recorded=false.
type Store interface {
	Insert(ctx context.Context, r models.Ruleset) (inserted bool, err error)
	Get(ctx context.Context, id string) (models.Ruleset, error)
	List(ctx context.Context) ([]models.Ruleset, error)
	RecordExecution(ctx context.Context, entry models.HistoryEntry) (totalUses int64, recorded bool, err error)
	History(ctx context.Context, requester string) ([]models.HistoryEntry, error)
}
