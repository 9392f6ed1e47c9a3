package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	apperrors "insight-workers/internal/common/errors"
	"insight-workers/internal/models"
	"insight-workers/pkg/registry"
)

// PostgresStore keeps rulesets and execution history in the tables created
// by database.Migrate.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const rulesetColumns = `id, display_name, description, category, template_id, config_ref,
	price_per_execution, creator_share, creator, total_uses, rating, source, created_at`

func (s *PostgresStore) Insert(ctx context.Context, r models.Ruleset) (bool, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO rulesets (`+rulesetColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING`,
		r.ID, r.DisplayName, r.Description, string(r.Category), r.TemplateID, r.ConfigRef,
		r.PricePerExecution.String(), r.CreatorShare.String(), r.Creator, r.TotalUses, r.Rating,
		string(r.Source), r.CreatedAt,
	)
	if err != nil {
		return false, apperrors.NewCatalogStoreError("insert ruleset", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperrors.NewCatalogStoreError("insert ruleset", err)
	}
	return n == 1, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRuleset(row rowScanner) (models.Ruleset, error) {
	var (
		r        models.Ruleset
		category string
		source   string
	)
	err := row.Scan(&r.ID, &r.DisplayName, &r.Description, &category, &r.TemplateID, &r.ConfigRef,
		&r.PricePerExecution, &r.CreatorShare, &r.Creator, &r.TotalUses, &r.Rating, &source, &r.CreatedAt)
	if err != nil {
		return models.Ruleset{}, err
	}
	r.Category = registry.Category(category)
	r.Source = models.RulesetSource(source)
	return r, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (models.Ruleset, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+rulesetColumns+` FROM rulesets WHERE id = $1`, id)
	r, err := scanRuleset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Ruleset{}, apperrors.NewRulesetNotFoundError(id)
	}
	if err != nil {
		return models.Ruleset{}, apperrors.NewCatalogStoreError("get ruleset", err)
	}
	return r, nil
}

// List returns rulesets oldest first, matching MemoryStore.
func (s *PostgresStore) List(ctx context.Context) ([]models.Ruleset, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+rulesetColumns+` FROM rulesets ORDER BY created_at, id`)
	if err != nil {
		return nil, apperrors.NewCatalogStoreError("list rulesets", err)
	}
	defer rows.Close()

	var out []models.Ruleset
	for rows.Next() {
		r, err := scanRuleset(rows)
		if err != nil {
			return nil, apperrors.NewCatalogStoreError("list rulesets", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewCatalogStoreError("list rulesets", err)
	}
	return out, nil
}

// RecordExecution locks the ruleset row, appends the history entry and bumps
// total_uses in one transaction.
func (s *PostgresStore) RecordExecution(ctx context.Context, entry models.HistoryEntry) (int64, bool, error) {
	result, err := json.Marshal(entry.Result)
	if err != nil {
		return 0, false, apperrors.NewInternalError(err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, apperrors.NewCatalogStoreError("begin", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var uses int64
	err = tx.QueryRowContext(ctx, `SELECT total_uses FROM rulesets WHERE id = $1 FOR UPDATE`, entry.RulesetID).Scan(&uses)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, apperrors.NewRulesetNotFoundError(entry.RulesetID)
	}
	if err != nil {
		return 0, false, apperrors.NewCatalogStoreError("lock ruleset", err)
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO execution_history (execution_id, ruleset_id, requester, result, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (execution_id) DO NOTHING`,
		entry.ExecutionID, entry.RulesetID, entry.Requester, string(result), entry.Timestamp)
	if err != nil {
		return 0, false, apperrors.NewCatalogStoreError("append history", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, false, apperrors.NewCatalogStoreError("append history", err)
	}
	if n == 0 {
		if err := tx.Commit(); err != nil {
			return 0, false, apperrors.NewCatalogStoreError("commit", err)
		}
		return uses, false, nil
	}

	err = tx.QueryRowContext(ctx,
		`UPDATE rulesets SET total_uses = total_uses + 1 WHERE id = $1 RETURNING total_uses`,
		entry.RulesetID).Scan(&uses)
	if err != nil {
		return 0, false, apperrors.NewCatalogStoreError("increment uses", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, false, apperrors.NewCatalogStoreError("commit", err)
	}
	return uses, true, nil
}

func (s *PostgresStore) History(ctx context.Context, requester string) ([]models.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT execution_id, ruleset_id, requester, result, recorded_at
		FROM execution_history WHERE requester = $1 ORDER BY recorded_at, execution_id`, requester)
	if err != nil {
		return nil, apperrors.NewCatalogStoreError("history", err)
	}
	defer rows.Close()

	var out []models.HistoryEntry
	for rows.Next() {
		var (
			e   models.HistoryEntry
			raw []byte
		)
		if err := rows.Scan(&e.ExecutionID, &e.RulesetID, &e.Requester, &raw, &e.Timestamp); err != nil {
			return nil, apperrors.NewCatalogStoreError("history", err)
		}
		if err := json.Unmarshal(raw, &e.Result); err != nil {
			return nil, apperrors.NewCatalogStoreError("history", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewCatalogStoreError("history", err)
	}
	return out, nil
}
