package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	apperrors "insight-workers/internal/common/errors"
	"insight-workers/internal/common/logger"
	"insight-workers/internal/common/metrics"
	"insight-workers/internal/models"
	"insight-workers/pkg/registry"
)

// Catalog merges locally published rulesets with the external feed and keeps
// usage counters and execution history.
type Catalog struct {
	store   Store
	feed    Feed
	indexer Indexer
	logger  logger.Logger
	now     func() time.Time
}

type Option func(*Catalog)

// WithIndexer propagates published rulesets to the external listing.
func WithIndexer(i Indexer) Option { return func(c *Catalog) { c.indexer = i } }

func WithLogger(l logger.Logger) Option { return func(c *Catalog) { c.logger = l } }

func WithClock(now func() time.Time) Option { return func(c *Catalog) { c.now = now } }

// New builds a catalog. feed may be nil when there is no external listing.
func New(store Store, feed Feed, opts ...Option) *Catalog {
	c := &Catalog{
		store:  store,
		feed:   feed,
		logger: logger.NewNoOpLogger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func checkRuleset(r models.Ruleset) error {
	var problems []string
	if strings.TrimSpace(r.DisplayName) == "" {
		problems = append(problems, "display_name is required")
	}
	if !r.Category.Valid() {
		problems = append(problems, fmt.Sprintf("unknown category %q", r.Category))
	}
	if r.TemplateID == "" {
		problems = append(problems, "template_id is required")
	}
	if r.ConfigRef == "" {
		problems = append(problems, "config_ref is required")
	}
	if !r.PricePerExecution.IsPositive() {
		problems = append(problems, "price_per_execution must be > 0")
	}
	if !r.CreatorShare.IsPositive() || r.CreatorShare.GreaterThan(decimal.NewFromInt(1)) {
		problems = append(problems, "creator_share must be in (0,1]")
	}
	if r.Rating < 0 || r.Rating > models.MaxRating {
		problems = append(problems, "rating must be in [0,5]")
	}
	if strings.TrimSpace(r.Creator) == "" {
		problems = append(problems, "creator is required")
	}
	if len(problems) > 0 {
		return apperrors.NewInvalidRulesetError(strings.Join(problems, "; "))
	}
	return nil
}

// Publish stores r as a local ruleset with total_uses = 0 and returns its id.
// A failure to propagate to the feed is logged; the local record stands.
func (c *Catalog) Publish(ctx context.Context, r models.Ruleset) (models.Ruleset, error) {
	if err := checkRuleset(r); err != nil {
		return models.Ruleset{}, err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.TotalUses = 0
	r.Source = models.SourceLocal
	r.CreatedAt = c.now()

	inserted, err := c.store.Insert(ctx, r)
	if err != nil {
		return models.Ruleset{}, err
	}
	if !inserted {
		return models.Ruleset{}, apperrors.NewInvalidRulesetError(fmt.Sprintf("ruleset %s already exists", r.ID))
	}
	metrics.RulesetsPublished.WithLabelValues(string(r.Category)).Inc()

	if c.indexer != nil {
		if err := c.indexer.Index(ctx, r); err != nil {
			c.logger.Warn("ruleset not propagated to feed", map[string]interface{}{
				"rulesetId": r.ID,
				"error":     err.Error(),
			})
		}
	}
	return r, nil
}

// List returns the merged catalog, filtered by category when one is given.
func (c *Catalog) List(ctx context.Context, category registry.Category) ([]models.Ruleset, error) {
	var stored, remote []models.Ruleset

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stored, err = c.store.List(gctx)
		return err
	})
	if c.feed != nil {
		g.Go(func() error {
			var err error
			remote, err = c.feed.List(gctx)
			if err != nil {
				if _, ok := apperrors.AsStandard(err); !ok {
					err = apperrors.NewUnavailableError("marketplace-feed", err)
				}
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	local, remote := overlayCached(stored, remote)
	merged := Merge(local, remote)
	if category == "" {
		return merged, nil
	}
	out := merged[:0]
	for _, r := range merged {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out, nil
}

// overlayCached splits stored rulesets into local drafts and cached feed
// entries. A cached entry keeps its feed position with the higher of the two
// usage counts; cached entries no longer in the feed follow the feed.
func overlayCached(stored, remote []models.Ruleset) (local, merged []models.Ruleset) {
	cached := make(map[string]models.Ruleset)
	var cachedOrder []string
	for _, r := range stored {
		if r.Source == models.SourceRemote {
			cached[r.ID] = r
			cachedOrder = append(cachedOrder, r.ID)
			continue
		}
		local = append(local, r)
	}

	merged = make([]models.Ruleset, 0, len(remote)+len(cached))
	for _, r := range remote {
		if c, ok := cached[r.ID]; ok {
			if c.TotalUses > r.TotalUses {
				r.TotalUses = c.TotalUses
			}
			delete(cached, r.ID)
		}
		merged = append(merged, r)
	}
	for _, id := range cachedOrder {
		if c, ok := cached[id]; ok {
			merged = append(merged, c)
		}
	}
	return local, merged
}

// Get resolves a ruleset locally first, then from the feed.
func (c *Catalog) Get(ctx context.Context, id string) (models.Ruleset, error) {
	r, err := c.store.Get(ctx, id)
	if err == nil || !apperrors.IsCode(err, apperrors.ErrCodeRulesetNotFound) || c.feed == nil {
		return r, err
	}
	return c.fromFeed(ctx, id)
}

func (c *Catalog) fromFeed(ctx context.Context, id string) (models.Ruleset, error) {
	remote, err := c.feed.List(ctx)
	if err != nil {
		if _, ok := apperrors.AsStandard(err); !ok {
			err = apperrors.NewUnavailableError("marketplace-feed", err)
		}
		return models.Ruleset{}, err
	}
	for _, r := range remote {
		if r.ID == id {
			return r, nil
		}
	}
	return models.Ruleset{}, apperrors.NewRulesetNotFoundError(id)
}

// RecordExecution validates the result, appends it to history and increments
// the ruleset's total_uses by one. An invalid result is rejected and not
// recorded. An empty ExecutionID gets a fresh one, so repeating such a call
// counts twice; repeating a non-empty ExecutionID returns the current count.
func (c *Catalog) RecordExecution(ctx context.Context, entry models.HistoryEntry) (int64, error) {
	if err := entry.Result.Validate(); err != nil {
		metrics.ExecutionResultsRejected.Inc()
		c.logger.Warn("execution result rejected", map[string]interface{}{
			"rulesetId":   entry.RulesetID,
			"executionId": entry.ExecutionID,
			"error":       err.Error(),
		})
		return 0, err
	}
	if entry.ExecutionID == "" {
		entry.ExecutionID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = c.now()
	}

	r, err := c.ensureLocal(ctx, entry.RulesetID)
	if err != nil {
		return 0, err
	}

	uses, recorded, err := c.store.RecordExecution(ctx, entry)
	if err != nil {
		return 0, err
	}
	if recorded {
		metrics.ExecutionsRecorded.WithLabelValues(r.TemplateID).Inc()
	} else {
		c.logger.Info("execution already recorded", map[string]interface{}{
			"rulesetId":   entry.RulesetID,
			"executionId": entry.ExecutionID,
		})
	}
	return uses, nil
}

// ensureLocal caches a feed-only ruleset locally so its counter can be kept.
func (c *Catalog) ensureLocal(ctx context.Context, id string) (models.Ruleset, error) {
	r, err := c.store.Get(ctx, id)
	if err == nil || !apperrors.IsCode(err, apperrors.ErrCodeRulesetNotFound) || c.feed == nil {
		return r, err
	}
	r, err = c.fromFeed(ctx, id)
	if err != nil {
		return models.Ruleset{}, err
	}
	r.Source = models.SourceRemote
	if r.CreatedAt.IsZero() {
		r.CreatedAt = c.now()
	}
	if _, err := c.store.Insert(ctx, r); err != nil {
		return models.Ruleset{}, err
	}
	return r, nil
}

// History returns a requester's recorded executions, oldest first.
func (c *Catalog) History(ctx context.Context, requester string) ([]models.HistoryEntry, error) {
	return c.store.History(ctx, requester)
}
