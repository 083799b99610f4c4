package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jo-hoe/lovenotes/internal/backend/database"
	"github.com/jo-hoe/lovenotes/internal/backend/intake"
	"github.com/jo-hoe/lovenotes/internal/photo"
	"golang.org/x/sync/errgroup"
)

// UploadMetadata is what the user types next to an uploaded image
type UploadMetadata struct {
	Caption    string
	CapturedOn string
	Category   string
}

// CoreService merges the bundled photos with the persisted user state.
// Without a store it runs read-only on the bundled photos.
type CoreService struct {
	config          *ServiceConfig
	databaseService database.DatabaseService
	processor       *intake.Processor
	bundled         []*photo.Record
	now             func() time.Time
}

func NewCoreService(ctx context.Context, config *ServiceConfig) *CoreService {
	databaseService, err := getDatabaseService(ctx, config)
	if err != nil {
		slog.Warn("running in read-only mode with bundled photos only", "error", err)
		databaseService = nil
	}
	return newCoreService(config, databaseService, BundledPhotos())
}

func newCoreService(config *ServiceConfig, databaseService database.DatabaseService, bundled []*photo.Record) *CoreService {
	return &CoreService{
		config:          config,
		databaseService: databaseService,
		processor:       intake.NewProcessor(config.IntakeOptions()),
		bundled:         bundled,
		now:             time.Now,
	}
}

func getDatabaseService(ctx context.Context, config *ServiceConfig) (database.DatabaseService, error) {
	databaseService, err := database.NewDatabase(ctx, config.Database.Type, config.Database.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("database initialized successfully", "type", config.Database.Type)
	return databaseService, nil
}

func (service *CoreService) Config() *ServiceConfig {
	return service.config
}

// IsReadOnly reports whether the service runs without a store
func (service *CoreService) IsReadOnly() bool {
	return service.databaseService == nil
}

// StoreReachable reports whether the configured store still answers
func (service *CoreService) StoreReachable(ctx context.Context) bool {
	return service.databaseService != nil && service.databaseService.DoesDatabaseExist(ctx)
}

func (service *CoreService) Close() error {
	if service.databaseService == nil {
		return nil
	}
	return service.databaseService.Close()
}

func (service *CoreService) bundledCopy() []*photo.Record {
	return append([]*photo.Record(nil), service.bundled...)
}

// GetCollection returns bundled photos that were not deleted, followed by user photos
// oldest first. It never fails: on store errors the bundled photos are returned.
func (service *CoreService) GetCollection(ctx context.Context) []*photo.Record {
	if service.databaseService == nil {
		return service.bundledCopy()
	}

	var (
		userPhotos  []*photo.Record
		deletedIDs  map[string]struct{}
		initialized bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		userPhotos, err = service.databaseService.ListUserPhotos(gctx)
		return err
	})
	g.Go(func() (err error) {
		deletedIDs, err = service.databaseService.ListDeletedIDs(gctx)
		return err
	})
	g.Go(func() (err error) {
		initialized, err = service.databaseService.IsInitialized(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		slog.Error("failed to load photos, falling back to bundled photos", "error", err)
		return service.bundledCopy()
	}

	return service.merge(userPhotos, deletedIDs, initialized)
}

func (service *CoreService) merge(userPhotos []*photo.Record, deletedIDs map[string]struct{}, initialized bool) []*photo.Record {
	collection := make([]*photo.Record, 0, len(service.bundled)+len(userPhotos))
	for _, record := range service.bundled {
		if _, deleted := deletedIDs[record.ID]; !deleted {
			collection = append(collection, record)
		}
	}

	sorted := append([]*photo.Record(nil), userPhotos...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AddedAt() < sorted[j].AddedAt()
	})
	collection = append(collection, sorted...)

	if len(collection) == 0 && len(service.bundled) > 0 {
		if service.config.Reconciler.LegacyEmptyFallback {
			return service.bundledCopy()
		}
		if !initialized {
			slog.Debug("store never written, showing bundled photos")
			return service.bundledCopy()
		}
	}
	return collection
}

// AddPhoto stores a user-added record and returns the recomputed collection
func (service *CoreService) AddPhoto(ctx context.Context, record *photo.Record) ([]*photo.Record, error) {
	if service.databaseService == nil {
		return nil, database.ErrStorageUnavailable
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	if !record.IsUserAdded() {
		return nil, &photo.ValidationError{Field: "origin", Reason: "only user-added photos can be stored"}
	}
	if service.isBundledID(record.ID) {
		return nil, fmt.Errorf("photo %s: %w", record.ID, database.ErrDuplicateID)
	}

	if err := service.databaseService.AddUserPhoto(ctx, record); err != nil {
		return nil, err
	}
	slog.Info("photo added", "id", record.ID, "category", record.Category)
	return service.GetCollection(ctx), nil
}

func (service *CoreService) isBundledID(id string) bool {
	for _, bundled := range service.bundled {
		if bundled.ID == id {
			return true
		}
	}
	return false
}

// DeletePhoto removes a user photo or tombstones a bundled one.
// Only ids of bundled photos are tombstoned.
func (service *CoreService) DeletePhoto(ctx context.Context, id string, isUserAdded bool) ([]*photo.Record, error) {
	if service.databaseService == nil {
		return nil, database.ErrStorageUnavailable
	}

	if isUserAdded {
		err := service.databaseService.DeleteUserPhoto(ctx, id)
		if errors.Is(err, database.ErrNotFound) && !service.config.Reconciler.StrictDelete {
			slog.Debug("user photo already absent", "id", id)
			err = nil
		}
		if err != nil {
			return nil, err
		}
	} else {
		if !service.isBundledID(id) {
			return nil, fmt.Errorf("bundled photo %s: %w", id, database.ErrNotFound)
		}
		if err := service.databaseService.MarkDeleted(ctx, id); err != nil {
			return nil, err
		}
	}
	slog.Info("photo deleted", "id", id, "user_added", isUserAdded)
	return service.GetCollection(ctx), nil
}

// DeleteRecord looks id up in the current collection and deletes it according to its origin
func (service *CoreService) DeleteRecord(ctx context.Context, id string) ([]*photo.Record, error) {
	if service.databaseService == nil {
		return nil, database.ErrStorageUnavailable
	}
	record, err := service.GetPhoto(ctx, id)
	if err != nil {
		return nil, err
	}

	switch record.Origin.(type) {
	case photo.UserOrigin:
		return service.DeletePhoto(ctx, id, true)
	case photo.BundledOrigin:
		return service.DeletePhoto(ctx, id, false)
	default:
		return nil, fmt.Errorf("photo %s has unknown origin %T", id, record.Origin)
	}
}

// GetPhoto finds a record in the current collection
func (service *CoreService) GetPhoto(ctx context.Context, id string) (*photo.Record, error) {
	for _, record := range service.GetCollection(ctx) {
		if record.ID == id {
			return record, nil
		}
	}
	return nil, fmt.Errorf("photo %s: %w", id, database.ErrNotFound)
}

// UploadPhoto runs an uploaded file through intake and stores it as a new user photo
func (service *CoreService) UploadPhoto(ctx context.Context, file intake.File, metadata UploadMetadata) ([]*photo.Record, error) {
	if service.databaseService == nil {
		return nil, database.ErrStorageUnavailable
	}

	caption := strings.TrimSpace(metadata.Caption)
	if caption == "" {
		return nil, &photo.ValidationError{Field: "caption", Reason: "please add a caption"}
	}
	category, err := photo.ParseCategory(metadata.Category)
	if err != nil {
		return nil, err
	}

	processed, err := service.processor.Process(file)
	if err != nil {
		return nil, err
	}

	now := service.now()
	capturedOn := metadata.CapturedOn
	if capturedOn == "" {
		capturedOn = now.Format(photo.DateLayout)
	}
	id, err := database.GeneratePhotoID(now)
	if err != nil {
		return nil, err
	}
	record := &photo.Record{
		ID:          id,
		Source:      processed.Source(),
		Caption:     caption,
		CapturedOn:  capturedOn,
		Category:    category,
		Orientation: processed.Orientation,
		Origin:      photo.UserOrigin{AddedAt: now.UnixMilli()},
	}
	return service.AddPhoto(ctx, record)
}

// Thumbnail renders a preview for inline image bytes
func (service *CoreService) Thumbnail(data []byte) ([]byte, error) {
	return service.processor.Thumbnail(data)
}

func (service *CoreService) MaxFileSize() int64 {
	return service.processor.Options().MaxFileSize
}

func (service *CoreService) Export(ctx context.Context) (*database.Snapshot, error) {
	if service.databaseService == nil {
		return nil, database.ErrStorageUnavailable
	}
	return database.ExportAll(ctx, service.databaseService)
}

// Import replaces all persisted state with the snapshot and returns the recomputed collection
func (service *CoreService) Import(ctx context.Context, snapshot *database.Snapshot) ([]*photo.Record, error) {
	if service.databaseService == nil {
		return nil, database.ErrStorageUnavailable
	}
	if snapshot == nil {
		return nil, &photo.ValidationError{Field: "snapshot", Reason: "must not be empty"}
	}
	seen := make(map[string]struct{}, len(snapshot.UserPhotos))
	for _, record := range snapshot.UserPhotos {
		if record == nil {
			return nil, &photo.ValidationError{Field: "userPhotos", Reason: "must not contain null entries"}
		}
		if err := record.Validate(); err != nil {
			return nil, fmt.Errorf("photo %s: %w", record.ID, err)
		}
		if !record.IsUserAdded() {
			return nil, &photo.ValidationError{Field: "userPhotos", Reason: fmt.Sprintf("photo %s is not user-added", record.ID)}
		}
		if service.isBundledID(record.ID) {
			return nil, fmt.Errorf("photo %s clashes with a bundled photo: %w", record.ID, database.ErrDuplicateID)
		}
		if _, dup := seen[record.ID]; dup {
			return nil, fmt.Errorf("photo %s appears twice in snapshot: %w", record.ID, database.ErrDuplicateID)
		}
		seen[record.ID] = struct{}{}
	}

	if err := database.ImportAll(ctx, service.databaseService, snapshot); err != nil {
		return nil, err
	}
	return service.GetCollection(ctx), nil
}

// Clear removes every user photo and deletion marker
func (service *CoreService) Clear(ctx context.Context) ([]*photo.Record, error) {
	if service.databaseService == nil {
		return nil, database.ErrStorageUnavailable
	}
	if err := service.databaseService.ClearAll(ctx); err != nil {
		return nil, err
	}
	slog.Info("all stored photo data cleared")
	return service.GetCollection(ctx), nil
}
