// internal/workers/ruleset/publish-ruleset/handler_test.go
package publishruleset

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"insight-workers/internal/catalog"
	apperrors "insight-workers/internal/common/errors"
	"insight-workers/internal/common/logger"
	"insight-workers/internal/configuration"
	"insight-workers/internal/models"
	"insight-workers/internal/storage"
	"insight-workers/pkg/registry"
)

// ==========================
// Test Helper Functions
// ==========================

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, event models.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type fixture struct {
	handler  *Handler
	store    *storage.MemoryStore
	catalog  *catalog.Catalog
	notifier *mockNotifier
}

func createFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.NewTestLogger(t)
	f := &fixture{
		store:    storage.NewMemoryStore(),
		catalog:  catalog.New(catalog.NewMemoryStore(), nil, catalog.WithLogger(log)),
		notifier: &mockNotifier{},
	}
	cfg := &Config{Timeout: 5 * time.Second, CreatorShare: decimal.RequireFromString("0.83")}
	f.handler = NewHandler(cfg, registry.Builtin(), f.store, f.catalog, f.notifier, log)
	return f
}

func storeConfiguration(t *testing.T, store storage.Store) string {
	t.Helper()
	reg := registry.Builtin()
	tmpl, err := reg.Get("defi_risk_analyzer")
	require.NoError(t, err)

	cfg, err := configuration.NewValidator(reg).Build(configuration.Draft{
		TemplateID:        tmpl.ID,
		Values:            tmpl.Defaults(),
		Name:              "Lending risk",
		Description:       "collateral checks",
		PricePerExecution: decimal.RequireFromString("4"),
		Creator:           "0xcreator",
	})
	require.NoError(t, err)
	data, err := configuration.Encode(cfg)
	require.NoError(t, err)
	ref, err := store.Put(context.Background(), data)
	require.NoError(t, err)
	return ref
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	f := createFixture(t)
	ctx := context.Background()
	ref := storeConfiguration(t, f.store)

	f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(e models.Event) bool {
		return e.Type == models.EventRulesetPublished && e.Payload["category"] == "DeFi"
	})).Return(nil).Once()

	output, err := f.handler.Execute(ctx, &Input{ConfigRef: ref})
	require.NoError(t, err)
	assert.NotEmpty(t, output.RulesetID)
	assert.Equal(t, "DeFi", output.Category)
	assert.Equal(t, "3.32", output.Split.CreatorPayout.String())
	assert.Equal(t, "0.68", output.Split.PlatformFee.String())

	r, err := f.catalog.Get(ctx, output.RulesetID)
	require.NoError(t, err)
	assert.Equal(t, "Lending risk", r.DisplayName)
	assert.Equal(t, "collateral checks", r.Description)
	assert.Equal(t, "0xcreator", r.Creator)
	assert.Equal(t, "defi_risk_analyzer", r.TemplateID)
	assert.Equal(t, int64(0), r.TotalUses)
	f.notifier.AssertExpectations(t)
}

func TestHandler_Execute_Overrides(t *testing.T) {
	f := createFixture(t)
	ref := storeConfiguration(t, f.store)
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

	output, err := f.handler.Execute(context.Background(), &Input{
		ConfigRef:         ref,
		TemplateID:        "defi_risk_analyzer",
		DisplayName:       "Renamed",
		Category:          "DeFi",
		PricePerExecution: decimal.RequireFromString("4.00"),
		CreatorShare:      decimal.RequireFromString("0.8"),
	})
	require.NoError(t, err)
	assert.Equal(t, "3.2", output.Split.CreatorPayout.String())

	r, err := f.catalog.Get(context.Background(), output.RulesetID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", r.DisplayName)
	assert.Equal(t, "0.8", r.CreatorShare.String())
	assert.True(t, decimal.RequireFromString("4").Equal(r.PricePerExecution))
}

func TestHandler_Execute_NotifierFailureKeepsRuleset(t *testing.T) {
	f := createFixture(t)
	ref := storeConfiguration(t, f.store)
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(errors.New("sns down"))

	output, err := f.handler.Execute(context.Background(), &Input{ConfigRef: ref})
	require.NoError(t, err)

	_, err = f.catalog.Get(context.Background(), output.RulesetID)
	assert.NoError(t, err)
}

func TestHandler_Execute_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		input func(ref string) *Input
		code  apperrors.ErrorCode
	}{
		{"no config ref", func(string) *Input { return &Input{} }, apperrors.ErrCodeInvalidRuleset},
		{"unknown config ref", func(string) *Input { return &Input{ConfigRef: storage.ContentID([]byte("x"))} }, apperrors.ErrCodeContentNotFound},
		{"template mismatch", func(ref string) *Input { return &Input{ConfigRef: ref, TemplateID: "iot_device_health"} }, apperrors.ErrCodeInvalidRuleset},
		{"category mismatch", func(ref string) *Input { return &Input{ConfigRef: ref, Category: "Gaming"} }, apperrors.ErrCodeInvalidRuleset},
		{"price differs from configuration", func(ref string) *Input {
			return &Input{ConfigRef: ref, PricePerExecution: decimal.RequireFromString("10")}
		}, apperrors.ErrCodePriceMismatch},
		{"share above one", func(ref string) *Input {
			return &Input{ConfigRef: ref, CreatorShare: decimal.RequireFromString("1.2")}
		}, apperrors.ErrCodeInvalidSplit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := createFixture(t)
			ref := storeConfiguration(t, f.store)

			_, err := f.handler.Execute(context.Background(), tt.input(ref))
			require.Error(t, err)
			assert.Equal(t, tt.code, apperrors.CodeOf(err))

			list, err := f.catalog.List(context.Background(), "")
			require.NoError(t, err)
			assert.Empty(t, list)
			f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_Execute_PriceCannotBeChangedAtPublish(t *testing.T) {
	f := createFixture(t)
	ref := storeConfiguration(t, f.store)

	_, err := f.handler.Execute(context.Background(), &Input{
		ConfigRef:         ref,
		PricePerExecution: decimal.RequireFromString("0.01"),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodePriceMismatch))
	assert.Contains(t, err.Error(), "offered: 0.01, current: 4")
	assert.False(t, apperrors.IsRetryable(err))
}

func TestHandler_Execute_StoredBytesNotAConfiguration(t *testing.T) {
	f := createFixture(t)
	ref, err := f.store.Put(context.Background(), []byte(`{"template_id":"nope","config":{}}`))
	require.NoError(t, err)

	_, err = f.handler.Execute(context.Background(), &Input{ConfigRef: ref})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnknownTemplate))
}
