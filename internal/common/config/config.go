package config

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Storage       StorageConfig           `mapstructure:"storage"`
	Catalog       CatalogConfig           `mapstructure:"catalog"`
	Execution     ExecutionConfig         `mapstructure:"execution"`
	Marketplace   MarketplaceConfig       `mapstructure:"marketplace"`
	Templates     TemplateConfig          `mapstructure:"templates"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Metrics       MetricsConfig           `mapstructure:"metrics"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses    []string `mapstructure:"addresses"`
	Username     string   `mapstructure:"username"`
	Password     string   `mapstructure:"password"`
	RulesetIndex string   `mapstructure:"ruleset_index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

const (
	StorageBackendMemory = "memory"
	StorageBackendRedis  = "redis"
	StorageBackendWalrus = "walrus"
)

type StorageConfig struct {
	Backend string       `mapstructure:"backend"`
	Walrus  WalrusConfig `mapstructure:"walrus"`
}

type WalrusConfig struct {
	PublisherURL  string `mapstructure:"publisher_url"`
	AggregatorURL string `mapstructure:"aggregator_url"`
	Epochs        int    `mapstructure:"epochs"`
	Timeout       int    `mapstructure:"timeout"` // milliseconds
}

const (
	CatalogStoreMemory   = "memory"
	CatalogStorePostgres = "postgres"

	FeedNone          = "none"
	FeedStatic        = "static"
	FeedElasticsearch = "elasticsearch"
)

type CatalogConfig struct {
	Store string `mapstructure:"store"`
	Feed  string `mapstructure:"feed"`
}

type ExecutionConfig struct {
	ServiceURL string `mapstructure:"service_url"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
}

// MarketplaceConfig holds revenue shares as decimal strings.
type MarketplaceConfig struct {
	CreatorShare        string `mapstructure:"creator_share"`
	ListingCreatorShare string `mapstructure:"listing_creator_share"`
}

func (m MarketplaceConfig) CreatorShareDecimal() decimal.Decimal {
	return decimal.RequireFromString(m.CreatorShare)
}

func (m MarketplaceConfig) ListingShareDecimal() decimal.Decimal {
	return decimal.RequireFromString(m.ListingCreatorShare)
}

type TemplateConfig struct {
	RegistryPath string `mapstructure:"registry_path"` // empty uses the built-in catalog
}

type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`       // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`   // cap on retries handed back to the engine
	RetryBackoff  int  `mapstructure:"retry_backoff"` // milliseconds
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type MetricsConfig struct {
	Address string `mapstructure:"address"`
}

type NotificationConfig struct {
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		Region   string `mapstructure:"region"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
}
