package blob

import (
	"context"
	"fmt"
)

// Archiver keeps a copy of each finalized day record in blob storage.
type Archiver struct {
	store Store
}

func NewArchiver(store Store) *Archiver {
	return &Archiver{store: store}
}

// ArchiveDayRecord stores the canonical day-record JSON under records/<user>/<date>.json.
func (a *Archiver) ArchiveDayRecord(ctx context.Context, userID, date string, payload []byte) error {
	if a == nil || a.store == nil {
		return nil
	}

	key := fmt.Sprintf("records/%s/%s.json", userID, date)
	if _, err := a.store.PutObject(ctx, key, payload, "application/json"); err != nil {
		return fmt.Errorf("failed to archive day record: %w", err)
	}
	return nil
}
