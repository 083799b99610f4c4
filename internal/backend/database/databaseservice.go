package database

import (
	"context"

	"github.com/jo-hoe/lovenotes/internal/photo"
)

const (
	// DatabaseName identifies the persisted album store
	DatabaseName = "LoveNotesDB"
	// TargetSchemaVersion is the schema version this build migrates to
	TargetSchemaVersion uint = 1
)

// DatabaseService persists user-added photos and deletion markers for bundled photos.
// Every call runs in its own transaction on a connection that is released before it returns.
type DatabaseService interface {
	// CreateDatabase migrates the schema forward to TargetSchemaVersion
	CreateDatabase(ctx context.Context) error
	// DoesDatabaseExist reports whether the store answers and carries a schema
	DoesDatabaseExist(ctx context.Context) bool
	Close() error

	AddUserPhoto(ctx context.Context, record *photo.Record) error
	// ListUserPhotos returns user-added records in insertion order
	ListUserPhotos(ctx context.Context) ([]*photo.Record, error)
	// DeleteUserPhoto returns ErrNotFound when no record has the id
	DeleteUserPhoto(ctx context.Context, id string) error

	// MarkDeleted tombstones a bundled photo. Repeated calls are no-ops.
	MarkDeleted(ctx context.Context, id string) error
	ListDeletedIDs(ctx context.Context) (map[string]struct{}, error)

	// ClearAll empties both collections in one transaction
	ClearAll(ctx context.Context) error
	// IsInitialized reports whether any write has ever been committed
	IsInitialized(ctx context.Context) (bool, error)
}
