package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/jo-hoe/lovenotes/internal/photo"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const metaInitialized = "initialized"

type SQLiteDatabase struct {
	db               *sqlx.DB
	connectionString string
}

func NewSQLiteDatabase(connectionString string) (DatabaseService, error) {
	db, err := sqlx.Open("sqlite", connectionString)
	if err != nil {
		return nil, unavailable(err)
	}
	// One connection serializes writers and keeps ":memory:" databases alive between calls
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, unavailable(err)
	}

	return &SQLiteDatabase{
		db:               db,
		connectionString: connectionString,
	}, nil
}

func (s *SQLiteDatabase) CreateDatabase(ctx context.Context) error {
	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(s.db.DB, &migratesqlite.Config{DatabaseName: DatabaseName})
	if err != nil {
		return unavailable(err)
	}
	// Close is not called on m: it would close the shared *sql.DB
	m, err := migrate.NewWithInstance("iofs", source, DatabaseName, driver)
	if err != nil {
		return fmt.Errorf("failed to prepare migrations: %w", err)
	}

	current, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return operationFailed("read schema version", err)
	}
	if dirty {
		return fmt.Errorf("schema version %d is dirty, manual repair required", current)
	}
	if current > TargetSchemaVersion {
		return fmt.Errorf("%w: stored %d, supported %d", ErrSchemaTooNew, current, TargetSchemaVersion)
	}

	if err := m.Migrate(TargetSchemaVersion); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return operationFailed("migrate schema", err)
	}
	return nil
}

func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteDatabase) DoesDatabaseExist(ctx context.Context) bool {
	var version uint
	err := s.db.GetContext(ctx, &version, `SELECT version FROM schema_migrations LIMIT 1`)
	return err == nil && version > 0
}

// withTx acquires a connection, runs fn in a transaction and releases the
// connection on every exit path
func (s *SQLiteDatabase) withTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return operationFailed(op, err)
	}
	defer func() {
		_ = conn.Close() // returns the connection to the pool
	}()

	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return operationFailed(op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return operationFailed(op, err)
	}
	return nil
}

func markInitialized(ctx context.Context, tx *sqlx.Tx) error {
	_, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO store_meta (key, value) VALUES (?, ?)",
		metaInitialized, strconv.FormatInt(time.Now().UnixMilli(), 10))
	return err
}

func (s *SQLiteDatabase) AddUserPhoto(ctx context.Context, record *photo.Record) error {
	row, err := newUserPhotoRow(record)
	if err != nil {
		return err
	}

	const op = "add user photo"
	return s.withTx(ctx, op, func(tx *sqlx.Tx) error {
		result, err := tx.NamedExecContext(ctx, `INSERT INTO user_photos (`+userPhotoColumns+`)
			VALUES (:id, :source_url, :image_data, :mime_type, :caption, :captured_on, :category, :orientation, :added_at)
			ON CONFLICT(id) DO NOTHING`, row)
		if err != nil {
			return operationFailed(op, err)
		}
		inserted, err := result.RowsAffected()
		if err != nil {
			return operationFailed(op, err)
		}
		if inserted == 0 {
			return fmt.Errorf("photo %s: %w", record.ID, ErrDuplicateID)
		}
		if err := markInitialized(ctx, tx); err != nil {
			return operationFailed(op, err)
		}
		return nil
	})
}

func (s *SQLiteDatabase) ListUserPhotos(ctx context.Context) ([]*photo.Record, error) {
	const op = "list user photos"
	var rows []userPhotoRow
	err := s.withTx(ctx, op, func(tx *sqlx.Tx) error {
		if err := tx.SelectContext(ctx, &rows, "SELECT "+userPhotoColumns+" FROM user_photos ORDER BY rowid"); err != nil {
			return operationFailed(op, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	records := make([]*photo.Record, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].toRecord())
	}
	return records, nil
}

func (s *SQLiteDatabase) DeleteUserPhoto(ctx context.Context, id string) error {
	const op = "delete user photo"
	return s.withTx(ctx, op, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, "DELETE FROM user_photos WHERE id = ?", id)
		if err != nil {
			return operationFailed(op, err)
		}
		deleted, err := result.RowsAffected()
		if err != nil {
			return operationFailed(op, err)
		}
		if deleted == 0 {
			return fmt.Errorf("photo %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

func (s *SQLiteDatabase) MarkDeleted(ctx context.Context, id string) error {
	const op = "mark photo deleted"
	return s.withTx(ctx, op, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO deleted_photos (id) VALUES (?)", id); err != nil {
			return operationFailed(op, err)
		}
		if err := markInitialized(ctx, tx); err != nil {
			return operationFailed(op, err)
		}
		return nil
	})
}

func (s *SQLiteDatabase) ListDeletedIDs(ctx context.Context) (map[string]struct{}, error) {
	const op = "list deleted photo ids"
	var ids []string
	err := s.withTx(ctx, op, func(tx *sqlx.Tx) error {
		if err := tx.SelectContext(ctx, &ids, "SELECT id FROM deleted_photos"); err != nil {
			return operationFailed(op, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	deleted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		deleted[id] = struct{}{}
	}
	return deleted, nil
}

func (s *SQLiteDatabase) ClearAll(ctx context.Context) error {
	const op = "clear all data"
	return s.withTx(ctx, op, func(tx *sqlx.Tx) error {
		for _, table := range []string{"user_photos", "deleted_photos"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return operationFailed(op, err)
			}
		}
		if err := markInitialized(ctx, tx); err != nil {
			return operationFailed(op, err)
		}
		return nil
	})
}

func (s *SQLiteDatabase) IsInitialized(ctx context.Context) (bool, error) {
	const op = "read initialized flag"
	var count int
	err := s.withTx(ctx, op, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &count, "SELECT COUNT(*) FROM store_meta WHERE key = ?", metaInitialized); err != nil {
			return operationFailed(op, err)
		}
		return nil
	})
	return count > 0, err
}
