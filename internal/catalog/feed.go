package catalog

import (
	"context"

	"insight-workers/internal/models"
)

// Feed is the read-only external marketplace listing.
type Feed interface {
	List(ctx context.Context) ([]models.Ruleset, error)
}

// Indexer propagates locally published rulesets to the external listing.
type Indexer interface {
	Index(ctx context.Context, r models.Ruleset) error
}

// StaticFeed serves a fixed listing.
type StaticFeed struct {
	rulesets []models.Ruleset
}

func NewStaticFeed(rulesets ...models.Ruleset) *StaticFeed {
	out := make([]models.Ruleset, len(rulesets))
	for i, r := range rulesets {
		r.Source = models.SourceRemote
		out[i] = r
	}
	return &StaticFeed{rulesets: out}
}

func (f *StaticFeed) List(ctx context.Context) ([]models.Ruleset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]models.Ruleset, len(f.rulesets))
	copy(out, f.rulesets)
	return out, nil
}
