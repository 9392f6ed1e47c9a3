package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const minimalConfig = `
camunda:
  broker_address: localhost:26500
execution:
  service_url: http://localhost:9000/execute
workers:
  record-execution:
    enabled: true
  execute-ruleset:
    enabled: false
    max_retries: 5
    retry_backoff: 1500
`

func TestLoadFromFile_Defaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, StorageBackendMemory, cfg.Storage.Backend)
	assert.Equal(t, CatalogStoreMemory, cfg.Catalog.Store)
	assert.Equal(t, FeedStatic, cfg.Catalog.Feed)
	assert.Equal(t, "0.83", cfg.Marketplace.CreatorShare)
	assert.Equal(t, "0.80", cfg.Marketplace.ListingCreatorShare)
	assert.Equal(t, "rulesets", cfg.Database.Elasticsearch.RulesetIndex)
	assert.Equal(t, ":8080", cfg.Metrics.Address)

	w := GetWorkerConfig(cfg, "record-execution")
	assert.Equal(t, 30000, w.Timeout)
	assert.Equal(t, 3, w.MaxRetries)
	assert.Equal(t, 5000, w.RetryBackoff)
	assert.True(t, IsWorkerEnabled(cfg, "record-execution"))
	assert.True(t, IsWorkerEnabled(cfg, "not-configured"))

	assert.False(t, IsWorkerEnabled(cfg, "execute-ruleset"))
	exec := GetWorkerConfig(cfg, "execute-ruleset")
	assert.Equal(t, 5, exec.MaxRetries)
	assert.Equal(t, 1500, exec.RetryBackoff)
}

func TestLoadFromFile_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_EXEC_URL", "http://exec:9000")
	cfg, err := LoadFromFile(writeConfig(t, `
camunda:
  broker_address: localhost:26500
execution:
  service_url: ${TEST_EXEC_URL}
`))
	require.NoError(t, err)
	assert.Equal(t, "http://exec:9000", cfg.Execution.ServiceURL)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		part string
	}{
		{"missing broker", "execution:\n  service_url: http://x\n", "camunda.broker_address"},
		{"redis without address", minimalConfig + "storage:\n  backend: redis\n", "database.redis.address"},
		{"walrus without urls", minimalConfig + "storage:\n  backend: walrus\n", "storage.walrus"},
		{"unknown backend", minimalConfig + "storage:\n  backend: s3\n", "unknown storage.backend"},
		{"postgres without host", minimalConfig + "catalog:\n  store: postgres\n", "database.postgres.host"},
		{"share above one", minimalConfig + "marketplace:\n  creator_share: \"1.2\"\n", "marketplace.creator_share"},
		{"sns without topic", minimalConfig + "notifications:\n  sns:\n    enabled: true\n", "topic_arn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.part)
		})
	}
}

func TestMarketplaceConfig_Shares(t *testing.T) {
	m := MarketplaceConfig{CreatorShare: "0.83", ListingCreatorShare: "0.80"}
	assert.Equal(t, "0.83", m.CreatorShareDecimal().String())
	assert.Equal(t, "0.8", m.ListingShareDecimal().String())
}
