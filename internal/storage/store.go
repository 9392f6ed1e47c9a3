package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	apperrors "insight-workers/internal/common/errors"
)

// Store is a content-addressable blob store. Putting identical bytes yields
// the identical id.
type Store interface {
	Put(ctx context.Context, data []byte) (string, error)
	Get(ctx context.Context, id string) ([]byte, error)
	Exists(ctx context.Context, id string) (bool, error)
}

// ContentID is the lowercase hex sha256 of data.
func ContentID(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Verify reads id back from s and checks it hashes to expectedHash. Walrus
// ids are not sha256 digests, so the hash is carried separately.
func Verify(ctx context.Context, s Store, id, expectedHash string) error {
	data, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if actual := ContentID(data); actual != expectedHash {
		return apperrors.NewContentCorruptError(id, actual)
	}
	return nil
}
