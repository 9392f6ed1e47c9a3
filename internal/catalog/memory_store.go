package catalog

import (
	"context"
	"sync"

	apperrors "insight-workers/internal/common/errors"
	"insight-workers/internal/models"
)

// MemoryStore is a mutex guarded Store for tests and single process runs.
type MemoryStore struct {
	mu         sync.Mutex
	rulesets   map[string]*models.Ruleset
	order      []string
	history    []models.HistoryEntry
	executions map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rulesets:   make(map[string]*models.Ruleset),
		executions: make(map[string]struct{}),
	}
}

func (s *MemoryStore) Insert(_ context.Context, r models.Ruleset) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rulesets[r.ID]; ok {
		return false, nil
	}
	s.rulesets[r.ID] = &r
	s.order = append(s.order, r.ID)
	return true, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (models.Ruleset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rulesets[id]
	if !ok {
		return models.Ruleset{}, apperrors.NewRulesetNotFoundError(id)
	}
	return *r, nil
}

// List returns rulesets in insertion order.
func (s *MemoryStore) List(_ context.Context) ([]models.Ruleset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Ruleset, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.rulesets[id])
	}
	return out, nil
}

func (s *MemoryStore) RecordExecution(_ context.Context, entry models.HistoryEntry) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rulesets[entry.RulesetID]
	if !ok {
		return 0, false, apperrors.NewRulesetNotFoundError(entry.RulesetID)
	}
	if _, dup := s.executions[entry.ExecutionID]; dup {
		return r.TotalUses, false, nil
	}
	s.executions[entry.ExecutionID] = struct{}{}
	s.history = append(s.history, entry)
	r.TotalUses++
	return r.TotalUses, true, nil
}

func (s *MemoryStore) History(_ context.Context, requester string) ([]models.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.HistoryEntry
	for _, e := range s.history {
		if e.Requester == requester {
			out = append(out, e)
		}
	}
	return out, nil
}
