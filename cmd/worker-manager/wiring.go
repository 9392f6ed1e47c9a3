// cmd/worker-manager/wiring.go
package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"insight-workers/internal/catalog"
	"insight-workers/internal/common/aws"
	"insight-workers/internal/common/config"
	"insight-workers/internal/common/database"
	apphttp "insight-workers/internal/common/http"
	"insight-workers/internal/common/logger"
	"insight-workers/internal/storage"
	"insight-workers/pkg/registry"
)

type dependencies struct {
	registry     *registry.Registry
	contentStore storage.Store
	catalog      *catalog.Catalog
	notifier     aws.Notifier

	closers []func() error
}

func (d *dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		_ = d.closers[i]()
	}
}

func buildDependencies(ctx context.Context, cfg *config.Config, zapLog *zap.Logger, log logger.Logger) (*dependencies, error) {
	deps := &dependencies{}

	reg, err := loadRegistry(cfg.Templates.RegistryPath)
	if err != nil {
		return nil, err
	}
	deps.registry = reg
	zapLog.Info("template registry loaded", zap.Int("templates", reg.Len()))

	if deps.contentStore, err = openContentStore(ctx, cfg, zapLog, deps); err != nil {
		deps.Close()
		return nil, err
	}

	if deps.catalog, err = openCatalog(ctx, cfg, zapLog, log, deps); err != nil {
		deps.Close()
		return nil, err
	}

	deps.notifier = aws.NoopNotifier{}
	if sns := cfg.Notifications.SNS; sns.Enabled {
		client, err := aws.NewSNSClient(ctx, sns.Region)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("sns client: %w", err)
		}
		deps.notifier = aws.NewSNSNotifier(client, sns.TopicARN)
		zapLog.Info("SNS notifications enabled", zap.String("topicArn", sns.TopicARN))
	}

	return deps, nil
}

func loadRegistry(path string) (*registry.Registry, error) {
	if path == "" {
		return registry.Builtin(), nil
	}
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load template registry: %w", err)
	}
	return reg, nil
}

func openContentStore(ctx context.Context, cfg *config.Config, zapLog *zap.Logger, deps *dependencies) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case config.StorageBackendRedis:
		var rdb *database.RedisClient
		err := retryWithBackoff(func() error {
			var err error
			rdb, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, rdb.Close)
		zapLog.Info("Redis connected successfully")
		return storage.NewRedisStore(rdb.GetClient()), nil

	case config.StorageBackendWalrus:
		w := cfg.Storage.Walrus
		client := apphttp.NewClient(config.GetDuration(w.Timeout))
		zapLog.Info("using Walrus content store", zap.String("publisher", w.PublisherURL))
		return storage.NewWalrusStore(client, w.PublisherURL, w.AggregatorURL, w.Epochs), nil

	default:
		zapLog.Warn("using in-memory content store; configurations are lost on restart")
		return storage.NewMemoryStore(), nil
	}
}

func openCatalog(ctx context.Context, cfg *config.Config, zapLog *zap.Logger, log logger.Logger, deps *dependencies) (*catalog.Catalog, error) {
	var store catalog.Store = catalog.NewMemoryStore()
	if cfg.Catalog.Store == config.CatalogStorePostgres {
		var pg *database.PostgresClient
		err := retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, pg.Close)
		if err := pg.Migrate(ctx); err != nil {
			return nil, err
		}
		zapLog.Info("PostgreSQL connected successfully")
		store = catalog.NewPostgresStore(pg.GetDB())
	}

	opts := []catalog.Option{catalog.WithLogger(log)}
	var feed catalog.Feed

	switch cfg.Catalog.Feed {
	case config.FeedStatic:
		sample, err := catalog.SampleFeed(ctx, deps.registry, deps.contentStore, cfg.Marketplace.ListingShareDecimal())
		if err != nil {
			return nil, fmt.Errorf("sample feed: %w", err)
		}
		feed = sample

	case config.FeedElasticsearch:
		var es *database.ElasticsearchClient
		err := retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			return nil, err
		}
		index := cfg.Database.Elasticsearch.RulesetIndex
		if err := es.EnsureIndex(ctx, index, database.RulesetMapping); err != nil {
			return nil, err
		}
		zapLog.Info("Elasticsearch connected successfully", zap.String("index", index))
		esFeed := catalog.NewElasticsearchFeed(es.Client, index)
		feed = esFeed
		opts = append(opts, catalog.WithIndexer(esFeed))
	}

	return catalog.New(store, feed, opts...), nil
}
