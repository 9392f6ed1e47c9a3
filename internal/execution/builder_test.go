package execution

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "insight-workers/internal/common/errors"
	"insight-workers/internal/models"
	"insight-workers/pkg/registry"
)

var fixedTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func createTestBuilder() *Builder {
	return NewBuilder(decimal.RequireFromString("0.80"),
		WithBuilderClock(func() time.Time { return fixedTime }),
		WithIDGenerator(func() string { return "exec-1" }))
}

func createRuleset() models.Ruleset {
	return models.Ruleset{
		ID:                "r1",
		DisplayName:       "Whale Detector",
		Category:          registry.CategoryGaming,
		TemplateID:        "game_abuse_detection",
		ConfigRef:         "cfg-1",
		PricePerExecution: decimal.RequireFromString("2.5"),
		CreatorShare:      decimal.RequireFromString("0.83"),
		Creator:           "0xcreator",
	}
}

func TestBuild(t *testing.T) {
	req, err := createTestBuilder().Build(createRuleset(), "data-1", "buyer")
	require.NoError(t, err)

	assert.Equal(t, "exec-1", req.ExecutionID)
	assert.Equal(t, "r1", req.RulesetID)
	assert.Equal(t, "game_abuse_detection", req.TemplateID)
	assert.Equal(t, "cfg-1", req.ConfigRef)
	assert.Equal(t, "data-1", req.DataRef)
	assert.Equal(t, "buyer", req.Requester)
	assert.Equal(t, fixedTime, req.CreatedAt)
	assert.True(t, req.Price.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, "2.075", req.Split.CreatorPayout.String())
	assert.Equal(t, "0.425", req.Split.PlatformFee.String())
}

func TestBuild_DefaultShare(t *testing.T) {
	r := createRuleset()
	r.CreatorShare = decimal.Zero

	req, err := createTestBuilder().Build(r, "data-1", "buyer")
	require.NoError(t, err)
	assert.Equal(t, "0.8", req.Split.Share.String())
	assert.Equal(t, "2", req.Split.CreatorPayout.String())
}

func TestBuild_Preconditions(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.Ruleset)
		dataRef string
		code    apperrors.ErrorCode
	}{
		{"empty data ref", func(*models.Ruleset) {}, "", apperrors.ErrCodeInvalidRequest},
		{"zero price", func(r *models.Ruleset) { r.PricePerExecution = decimal.Zero }, "d", apperrors.ErrCodeInvalidRequest},
		{"negative price", func(r *models.Ruleset) { r.PricePerExecution = decimal.NewFromInt(-1) }, "d", apperrors.ErrCodeInvalidRequest},
		{"no config ref", func(r *models.Ruleset) { r.ConfigRef = "" }, "d", apperrors.ErrCodeInvalidRequest},
		{"share above one", func(r *models.Ruleset) { r.CreatorShare = decimal.NewFromInt(2) }, "d", apperrors.ErrCodeInvalidSplit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := createRuleset()
			tt.mutate(&r)
			_, err := createTestBuilder().Build(r, tt.dataRef, "buyer")
			require.Error(t, err)
			assert.Equal(t, tt.code, apperrors.CodeOf(err))
			assert.False(t, apperrors.IsRetryable(err))
		})
	}
}

func TestBuild_FreshIDs(t *testing.T) {
	b := NewBuilder(decimal.RequireFromString("0.80"))
	first, err := b.Build(createRuleset(), "d", "buyer")
	require.NoError(t, err)
	second, err := b.Build(createRuleset(), "d", "buyer")
	require.NoError(t, err)
	assert.NotEqual(t, first.ExecutionID, second.ExecutionID)
}

func TestCheckPrice(t *testing.T) {
	r := createRuleset()

	assert.NoError(t, CheckPrice(decimal.Zero, r))
	assert.NoError(t, CheckPrice(decimal.RequireFromString("2.50"), r))

	err := CheckPrice(decimal.RequireFromString("2.0"), r)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodePriceMismatch))
	std, ok := apperrors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, "2.5", std.Metadata["current"])
}
