package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/coindeck/internal/common"
	"github.com/bobmcallan/coindeck/internal/interfaces"
)

// tokenKey is the single fixed key the bearer token lives under. The name
// matches what the browser dashboard used in localStorage so a future shared
// backend stays debuggable.
const tokenKey = "id_token"

// KVEntry represents a key-value pair stored in BadgerDB.
type KVEntry struct {
	Key   string `badgerhold:"key"`
	Value string
}

type tokenStorage struct {
	store  *Store
	logger *common.Logger
}

// NewTokenStorage creates a TokenStore backed by BadgerHold.
func NewTokenStorage(store *Store, logger *common.Logger) interfaces.TokenStore {
	return &tokenStorage{store: store, logger: logger}
}

// GetToken returns the stored bearer token. A missing token is not an
// error; it reads as an empty string.
func (s *tokenStorage) GetToken(_ context.Context) (string, error) {
	var entry KVEntry
	err := s.store.db.Get(tokenKey, &entry)
	if err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return entry.Value, nil
}

func (s *tokenStorage) SetToken(_ context.Context, token string) error {
	entry := KVEntry{Key: tokenKey, Value: token}
	if err := s.store.db.Upsert(tokenKey, &entry); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	s.logger.Debug().Msg("Bearer token persisted")
	return nil
}

func (s *tokenStorage) DeleteToken(_ context.Context) error {
	err := s.store.db.Delete(tokenKey, KVEntry{})
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
