package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	apperrors "insight-workers/internal/common/errors"
	httpclient "insight-workers/internal/common/http"
)

// WalrusStore stores blobs on a Walrus publisher and reads them back from an
// aggregator. Walrus derives blob ids from content, so equal bytes share an id.
type WalrusStore struct {
	client        *httpclient.Client
	publisherURL  string
	aggregatorURL string
	epochs        int
}

func NewWalrusStore(client *httpclient.Client, publisherURL, aggregatorURL string, epochs int) *WalrusStore {
	if epochs <= 0 {
		epochs = 1
	}
	return &WalrusStore{
		client:        client,
		publisherURL:  strings.TrimRight(publisherURL, "/"),
		aggregatorURL: strings.TrimRight(aggregatorURL, "/"),
		epochs:        epochs,
	}
}

type walrusStoreResponse struct {
	NewlyCreated *struct {
		BlobObject struct {
			ID     string `json:"id"`
			BlobID string `json:"blobId"`
		} `json:"blobObject"`
	} `json:"newlyCreated"`
	AlreadyCertified *struct {
		BlobID string `json:"blobId"`
	} `json:"alreadyCertified"`
}

func (r walrusStoreResponse) blobID() string {
	switch {
	case r.NewlyCreated != nil:
		if r.NewlyCreated.BlobObject.BlobID != "" {
			return r.NewlyCreated.BlobObject.BlobID
		}
		return r.NewlyCreated.BlobObject.ID
	case r.AlreadyCertified != nil:
		return r.AlreadyCertified.BlobID
	}
	return ""
}

func (s *WalrusStore) Put(ctx context.Context, data []byte) (string, error) {
	endpoint := fmt.Sprintf("%s/v1/store?epochs=%d", s.publisherURL, s.epochs)
	body, err := s.client.Send(ctx, http.MethodPut, endpoint, "application/octet-stream", data)
	if err != nil {
		return "", apperrors.NewUnavailableError("walrus", err)
	}

	var resp walrusStoreResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", apperrors.NewUnavailableError("walrus", fmt.Errorf("decode store response: %w", err))
	}
	id := resp.blobID()
	if id == "" {
		return "", apperrors.NewUnavailableError("walrus", fmt.Errorf("unexpected store response: %s", body))
	}
	return id, nil
}

func (s *WalrusStore) Get(ctx context.Context, id string) ([]byte, error) {
	data, err := s.client.Send(ctx, http.MethodGet, s.blobURL(id), "", nil)
	if err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, apperrors.NewContentNotFoundError(id)
		}
		return nil, apperrors.NewUnavailableError("walrus", err)
	}
	return data, nil
}

func (s *WalrusStore) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.Get(ctx, id)
	if err == nil {
		return true, nil
	}
	if apperrors.IsCode(err, apperrors.ErrCodeContentNotFound) {
		return false, nil
	}
	return false, err
}

func (s *WalrusStore) blobURL(id string) string {
	return s.aggregatorURL + "/v1/" + url.PathEscape(id)
}
