package execution

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "insight-workers/internal/common/errors"
	"insight-workers/internal/models"
	"insight-workers/internal/pricing"
)

// Builder turns a ruleset and a dataset reference into a priced request.
type Builder struct {
	defaultShare decimal.Decimal
	now          func() time.Time
	newID        func() string
}

type BuilderOption func(*Builder)

func WithBuilderClock(now func() time.Time) BuilderOption {
	return func(b *Builder) { b.now = now }
}

func WithIDGenerator(newID func() string) BuilderOption {
	return func(b *Builder) { b.newID = newID }
}

// NewBuilder returns a Builder that splits with defaultShare when a ruleset
// carries no share of its own.
func NewBuilder(defaultShare decimal.Decimal, opts ...BuilderOption) *Builder {
	b := &Builder{
		defaultShare: defaultShare,
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build prices one execution of r over dataRef. The price is the ruleset's
// current price.
func (b *Builder) Build(r models.Ruleset, dataRef, requester string) (models.ExecutionRequest, error) {
	if dataRef == "" {
		return models.ExecutionRequest{}, apperrors.NewInvalidRequestError("data_ref is required")
	}
	if r.ConfigRef == "" {
		return models.ExecutionRequest{}, apperrors.NewInvalidRequestError("ruleset " + r.ID + " has no config_ref")
	}
	if !r.PricePerExecution.IsPositive() {
		return models.ExecutionRequest{}, apperrors.NewInvalidRequestError("price must be > 0, got " + r.PricePerExecution.String())
	}

	split, err := pricing.Split(r.PricePerExecution, pricing.ShareOrDefault(r.CreatorShare, b.defaultShare))
	if err != nil {
		return models.ExecutionRequest{}, err
	}

	return models.ExecutionRequest{
		ExecutionID: b.newID(),
		RulesetID:   r.ID,
		TemplateID:  r.TemplateID,
		ConfigRef:   r.ConfigRef,
		DataRef:     dataRef,
		Price:       r.PricePerExecution,
		Requester:   requester,
		Split:       split,
		CreatedAt:   b.now().UTC(),
	}, nil
}

// CheckPrice rejects a client-supplied price that differs from the ruleset's
// current price. A zero offer means the client did not quote one.
func CheckPrice(offered decimal.Decimal, r models.Ruleset) error {
	if offered.IsZero() || offered.Equal(r.PricePerExecution) {
		return nil
	}
	return apperrors.NewPriceMismatchError(offered.String(), r.PricePerExecution.String())
}
