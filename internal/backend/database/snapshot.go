package database

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jo-hoe/lovenotes/internal/photo"
)

// Snapshot is the portable form of everything a store holds
type Snapshot struct {
	UserPhotos      []*photo.Record `json:"userPhotos"`
	DeletedPhotoIDs []string        `json:"deletedPhotoIds"`
}

func ExportAll(ctx context.Context, db DatabaseService) (*Snapshot, error) {
	records, err := db.ListUserPhotos(ctx)
	if err != nil {
		return nil, err
	}
	deleted, err := db.ListDeletedIDs(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(deleted))
	for id := range deleted {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if records == nil {
		records = []*photo.Record{}
	}
	return &Snapshot{UserPhotos: records, DeletedPhotoIDs: ids}, nil
}

// ImportAll replaces the store contents with the snapshot. Snapshots with repeated ids
// are rejected before anything is cleared, otherwise it stops at the first failing write.
func ImportAll(ctx context.Context, db DatabaseService, snapshot *Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot is nil")
	}
	seen := make(map[string]struct{}, len(snapshot.UserPhotos))
	for _, record := range snapshot.UserPhotos {
		if record == nil || !record.IsUserAdded() {
			return fmt.Errorf("snapshot contains a photo that is not user-added")
		}
		if _, dup := seen[record.ID]; dup {
			return fmt.Errorf("photo %s appears twice in snapshot: %w", record.ID, ErrDuplicateID)
		}
		seen[record.ID] = struct{}{}
	}

	if err := db.ClearAll(ctx); err != nil {
		return err
	}
	for _, record := range snapshot.UserPhotos {
		if err := db.AddUserPhoto(ctx, record); err != nil {
			return fmt.Errorf("failed to import photo %s: %w", record.ID, err)
		}
	}
	for _, id := range snapshot.DeletedPhotoIDs {
		if err := db.MarkDeleted(ctx, id); err != nil {
			return fmt.Errorf("failed to import deletion marker %s: %w", id, err)
		}
	}

	slog.Info("imported snapshot", "photos", len(snapshot.UserPhotos), "deleted", len(snapshot.DeletedPhotoIDs))
	return nil
}
