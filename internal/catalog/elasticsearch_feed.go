package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	apperrors "insight-workers/internal/common/errors"
	"insight-workers/internal/models"
)

const feedPageSize = 500

// ElasticsearchFeed reads the marketplace listing from an index and writes
// published rulesets into it.
type ElasticsearchFeed struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearchFeed(client *elasticsearch.Client, index string) *ElasticsearchFeed {
	return &ElasticsearchFeed{client: client, index: index}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source models.Ruleset `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// List returns the indexed rulesets, most used first.
func (f *ElasticsearchFeed) List(ctx context.Context) ([]models.Ruleset, error) {
	query := fmt.Sprintf(`{"size": %d, "query": {"match_all": {}}, "sort": [{"totalUses": {"order": "desc"}}, {"id": {"order": "asc"}}]}`, feedPageSize)

	res, err := esapi.SearchRequest{
		Index: []string{f.index},
		Body:  strings.NewReader(query),
	}.Do(ctx, f.client)
	if err != nil {
		return nil, apperrors.NewUnavailableError("elasticsearch", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperrors.NewUnavailableError("elasticsearch", fmt.Errorf("search %s: %s", f.index, res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewUnavailableError("elasticsearch", fmt.Errorf("decode search: %w", err))
	}

	out := make([]models.Ruleset, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		r := hit.Source
		r.Source = models.SourceRemote
		out = append(out, r)
	}
	return out, nil
}

func (f *ElasticsearchFeed) Index(ctx context.Context, r models.Ruleset) error {
	body, err := json.Marshal(r)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	res, err := esapi.IndexRequest{
		Index:      f.index,
		DocumentID: r.ID,
		Body:       bytes.NewReader(body),
		Refresh:    "true",
	}.Do(ctx, f.client)
	if err != nil {
		return apperrors.NewUnavailableError("elasticsearch", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return apperrors.NewUnavailableError("elasticsearch", fmt.Errorf("index %s/%s: %s", f.index, r.ID, res.Status()))
	}
	return nil
}
