package database

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"insight-workers/internal/common/config"
)

type ElasticsearchClient struct {
	Client *elasticsearch.Client
}

func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
	}

	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	return &ElasticsearchClient{Client: es}, nil
}

func (c *ElasticsearchClient) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := c.Client.Ping(
		c.Client.Ping.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}

	return nil
}

// RulesetMapping keeps money fields as keywords so decimals are stored exactly.
const RulesetMapping = `{
  "mappings": {
    "properties": {
      "id":                {"type": "keyword"},
      "displayName":       {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "description":       {"type": "text"},
      "category":          {"type": "keyword"},
      "templateId":        {"type": "keyword"},
      "configRef":         {"type": "keyword"},
      "pricePerExecution": {"type": "keyword"},
      "creatorShare":      {"type": "keyword"},
      "creator":           {"type": "keyword"},
      "totalUses":         {"type": "long"},
      "rating":            {"type": "float"},
      "createdAt":         {"type": "date"},
      "source":            {"type": "keyword"}
    }
  }
}`

// EnsureIndex creates index with mapping unless it already exists.
func (c *ElasticsearchClient) EnsureIndex(ctx context.Context, index, mapping string) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{index}}.Do(ctx, c.Client)
	if err != nil {
		return fmt.Errorf("elasticsearch index exists: %w", err)
	}
	res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("elasticsearch index exists: %s", res.Status())
	}

	res, err = esapi.IndicesCreateRequest{Index: index, Body: strings.NewReader(mapping)}.Do(ctx, c.Client)
	if err != nil {
		return fmt.Errorf("elasticsearch create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch create index: %s", res.Status())
	}
	return nil
}
