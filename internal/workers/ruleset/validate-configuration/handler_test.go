// internal/workers/ruleset/validate-configuration/handler_test.go
package validateconfiguration

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "insight-workers/internal/common/errors"
	"insight-workers/internal/common/logger"
	"insight-workers/internal/configuration"
	"insight-workers/internal/storage"
	"insight-workers/pkg/registry"
)

// ==========================
// Test Helper Functions
// ==========================

type unavailableStore struct{}

func (unavailableStore) Put(context.Context, []byte) (string, error) {
	return "", apperrors.NewUnavailableError("content-store", errors.New("connection reset"))
}

func (unavailableStore) Get(context.Context, string) ([]byte, error) {
	return nil, apperrors.NewUnavailableError("content-store", errors.New("connection reset"))
}

func (unavailableStore) Exists(context.Context, string) (bool, error) {
	return false, apperrors.NewUnavailableError("content-store", errors.New("connection reset"))
}

func createTestConfig() *Config {
	return &Config{
		Timeout:            5 * time.Second,
		CreatorShare:       decimal.RequireFromString("0.83"),
		EstimateExecutions: 10,
	}
}

func createTestHandler(t *testing.T, store storage.Store) *Handler {
	if store == nil {
		store = storage.NewMemoryStore()
	}
	return NewHandler(createTestConfig(), registry.Builtin(), store, logger.NewTestLogger(t))
}

func createInput() *Input {
	return &Input{
		TemplateID: "game_abuse_detection",
		Config: map[string]interface{}{
			"multi_account_threshold":    5.0,
			"refund_velocity_limit":      3.0,
			"velocity_window_hours":      48.0,
			"min_playtime_before_refund": 1.0,
		},
		Name:              "Strict abuse detector",
		PricePerExecution: decimal.RequireFromString("2.5"),
		Creator:           "0xcreator",
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	store := storage.NewMemoryStore()
	handler := createTestHandler(t, store)
	ctx := context.Background()

	output, err := handler.Execute(ctx, createInput())
	require.NoError(t, err)

	assert.Equal(t, "game_abuse_detection", output.TemplateID)
	assert.Equal(t, "Gaming", output.Category)
	assert.Equal(t, 48.0, output.Config["velocity_window_hours"])
	assert.Equal(t, "2.075", output.Split.CreatorPayout.String())
	assert.Equal(t, "0.425", output.Split.PlatformFee.String())
	assert.Equal(t, "20.75", output.EstimatedEarnings.String())

	data, err := store.Get(ctx, output.ConfigRef)
	require.NoError(t, err)
	cfg, err := configuration.NewValidator(registry.Builtin()).Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "Strict abuse detector", cfg.Name)
	assert.Equal(t, []string{"multi_account_threshold", "refund_velocity_limit", "velocity_window_hours", "min_playtime_before_refund"}, cfg.Keys())
}

func TestHandler_Execute_SameDraftSameRef(t *testing.T) {
	store := storage.NewMemoryStore()
	handler := createTestHandler(t, store)

	first, err := handler.Execute(context.Background(), createInput())
	require.NoError(t, err)
	second, err := handler.Execute(context.Background(), createInput())
	require.NoError(t, err)

	assert.Equal(t, first.ConfigRef, second.ConfigRef)
	assert.Equal(t, 1, store.Len())
}

func TestHandler_Execute_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
		code   apperrors.ErrorCode
	}{
		{"unknown template", func(in *Input) { in.TemplateID = "nope" }, apperrors.ErrCodeUnknownTemplate},
		{"missing key", func(in *Input) { delete(in.Config, "refund_velocity_limit") }, apperrors.ErrCodeMissingParameter},
		{"wrong type", func(in *Input) { in.Config["velocity_window_hours"] = "x" }, apperrors.ErrCodeTypeMismatch},
		{"extra key", func(in *Input) { in.Config["extra"] = 1.0 }, apperrors.ErrCodeUnknownParameter},
		{"no name", func(in *Input) { in.Name = " " }, apperrors.ErrCodeInvalidConfiguration},
		{"free", func(in *Input) { in.PricePerExecution = decimal.Zero }, apperrors.ErrCodeInvalidConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMemoryStore()
			input := createInput()
			tt.mutate(input)

			_, err := createTestHandler(t, store).Execute(context.Background(), input)
			require.Error(t, err)
			assert.Equal(t, tt.code, apperrors.CodeOf(err))
			assert.Equal(t, 0, store.Len(), "nothing is stored for a rejected draft")
		})
	}
}

func TestHandler_Execute_StoreUnavailable(t *testing.T) {
	_, err := createTestHandler(t, unavailableStore{}).Execute(context.Background(), createInput())
	require.Error(t, err)
	assert.True(t, apperrors.IsRetryable(err))
}

func TestInput_DecodesJobVariables(t *testing.T) {
	vars := `{"templateId":"iot_device_health","config":{"uptime_threshold":"85"},"name":"n","pricePerExecution":"1.10","creator":"c"}`

	var input Input
	require.NoError(t, json.Unmarshal([]byte(vars), &input))
	assert.True(t, decimal.RequireFromString("1.1").Equal(input.PricePerExecution))
	assert.Equal(t, "85", input.Config["uptime_threshold"])
}
