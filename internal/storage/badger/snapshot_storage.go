package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/coindeck/internal/common"
	"github.com/bobmcallan/coindeck/internal/interfaces"
	"github.com/bobmcallan/coindeck/internal/models"
)

const snapshotKey = "portfolio_snapshot"

type snapshotStorage struct {
	store  *Store
	logger *common.Logger
}

// NewSnapshotStorage creates a SnapshotCache backed by BadgerHold. The cache
// holds the last snapshot published by the portfolio stream so a restarted
// client has something to show while the channel reconnects.
func NewSnapshotStorage(store *Store, logger *common.Logger) interfaces.SnapshotCache {
	return &snapshotStorage{store: store, logger: logger}
}

func (s *snapshotStorage) Load(_ context.Context) (*models.PortfolioSnapshot, error) {
	var entry KVEntry
	err := s.store.db.Get(snapshotKey, &entry)
	if err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached snapshot: %w", err)
	}

	var snapshot models.PortfolioSnapshot
	if err := json.Unmarshal([]byte(entry.Value), &snapshot); err != nil {
		// A corrupt cache entry is no worse than an empty one.
		s.logger.Warn().Err(err).Msg("Discarding undecodable cached snapshot")
		return nil, nil
	}
	snapshot.Normalize()
	return &snapshot, nil
}

func (s *snapshotStorage) Save(_ context.Context, snapshot *models.PortfolioSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	entry := KVEntry{Key: snapshotKey, Value: string(data)}
	if err := s.store.db.Upsert(snapshotKey, &entry); err != nil {
		return fmt.Errorf("failed to cache snapshot: %w", err)
	}
	return nil
}
