package gearimport

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/trailpack/internal/logging"
)

// Batches lists the user's import batches, newest first.
func (s *Service) Batches(ctx context.Context, userID string) ([]ImportBatch, error) {
	batches, err := s.store.ListImportBatches(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list import batches: %w", err)
	}
	return batches, nil
}

// Revert deletes every item created by the batch and then the batch itself,
// atomically. Reverting a missing or foreign batch fails with
// ErrBatchNotFound.
func (s *Service) Revert(ctx context.Context, userID string, batchID int64) (*RevertResult, error) {
	removed, err := s.store.RevertImportBatch(ctx, userID, batchID)
	if err != nil {
		return nil, err
	}

	logging.WithFields(ctx, "user_id", userID, "batch_id", batchID).Info("import reverted",
		"items_removed", removed,
		"ip", IPAddressFromContext(ctx),
	)

	return &RevertResult{BatchID: batchID, ItemsRemoved: removed}, nil
}
