package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jo-hoe/lovenotes/internal/photo"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix   = DatabaseName + ":"
	redisUserPhotos  = redisKeyPrefix + "userPhotos"
	redisPhotoOrder  = redisKeyPrefix + "userPhotos:order"
	redisPhotoSeq    = redisKeyPrefix + "userPhotos:seq"
	redisDeleted     = redisKeyPrefix + "deletedPhotos"
	redisMeta        = redisKeyPrefix + "meta"
	redisMetaVersion = "version"

	maxTxRetries = 3
)

type RedisDatabase struct {
	client *redis.Client
}

// NewRedisDatabase connects using a redis:// URL, for example redis://localhost:6379/0
func NewRedisDatabase(ctx context.Context, connectionString string) (DatabaseService, error) {
	options, err := redis.ParseURL(connectionString)
	if err != nil {
		return nil, fmt.Errorf("invalid redis connection string: %w", err)
	}
	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, unavailable(err)
	}
	return &RedisDatabase{client: client}, nil
}

func (r *RedisDatabase) CreateDatabase(ctx context.Context) error {
	return r.withConn(ctx, "migrate schema", func(conn *redis.Conn) error {
		stored, err := conn.HGet(ctx, redisMeta, redisMetaVersion).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if stored != "" {
			version, err := strconv.ParseUint(stored, 10, 32)
			if err != nil {
				return fmt.Errorf("unreadable schema version %q: %w", stored, err)
			}
			if uint(version) > TargetSchemaVersion {
				return fmt.Errorf("%w: stored %d, supported %d", ErrSchemaTooNew, version, TargetSchemaVersion)
			}
		}
		return conn.HSet(ctx, redisMeta, redisMetaVersion, TargetSchemaVersion).Err()
	})
}

func (r *RedisDatabase) DoesDatabaseExist(ctx context.Context) bool {
	exists, err := r.client.HExists(ctx, redisMeta, redisMetaVersion).Result()
	return err == nil && exists
}

func (r *RedisDatabase) Close() error {
	return r.client.Close()
}

// withConn pins one connection for the duration of fn
func (r *RedisDatabase) withConn(ctx context.Context, op string, fn func(conn *redis.Conn) error) error {
	conn := r.client.Conn()
	defer func() {
		_ = conn.Close()
	}()

	if err := fn(conn); err != nil {
		if isDomainError(err) {
			return err
		}
		return operationFailed(op, err)
	}
	return nil
}

func isDomainError(err error) bool {
	return errors.Is(err, ErrDuplicateID) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrSchemaTooNew) ||
		errors.Is(err, ErrStorageOperationFailed)
}

func (r *RedisDatabase) markInitialized(ctx context.Context, pipe redis.Pipeliner) {
	pipe.HSetNX(ctx, redisMeta, metaInitialized, time.Now().UnixMilli())
}

func (r *RedisDatabase) AddUserPhoto(ctx context.Context, record *photo.Record) error {
	if _, err := newUserPhotoRow(record); err != nil {
		return err
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode photo %s: %w", record.ID, err)
	}

	const op = "add user photo"
	txf := func(tx *redis.Tx) error {
		exists, err := tx.HExists(ctx, redisUserPhotos, record.ID).Result()
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("photo %s: %w", record.ID, ErrDuplicateID)
		}
		seq, err := tx.Incr(ctx, redisPhotoSeq).Result()
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, redisUserPhotos, record.ID, payload)
			pipe.ZAdd(ctx, redisPhotoOrder, redis.Z{Score: float64(seq), Member: record.ID})
			r.markInitialized(ctx, pipe)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err = r.client.Watch(ctx, txf, redisUserPhotos)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		if isDomainError(err) {
			return err
		}
		return operationFailed(op, err)
	}
	return nil
}

func (r *RedisDatabase) ListUserPhotos(ctx context.Context) ([]*photo.Record, error) {
	records := []*photo.Record{}
	err := r.withConn(ctx, "list user photos", func(conn *redis.Conn) error {
		ids, err := conn.ZRange(ctx, redisPhotoOrder, 0, -1).Result()
		if err != nil || len(ids) == 0 {
			return err
		}
		values, err := conn.HMGet(ctx, redisUserPhotos, ids...).Result()
		if err != nil {
			return err
		}
		for i, value := range values {
			raw, ok := value.(string)
			if !ok {
				// order entry without payload, only possible when the keys were edited by hand
				continue
			}
			record := &photo.Record{}
			if err := json.Unmarshal([]byte(raw), record); err != nil {
				return fmt.Errorf("failed to decode photo %s: %w", ids[i], err)
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *RedisDatabase) DeleteUserPhoto(ctx context.Context, id string) error {
	return r.withConn(ctx, "delete user photo", func(conn *redis.Conn) error {
		var removed *redis.IntCmd
		_, err := conn.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			removed = pipe.HDel(ctx, redisUserPhotos, id)
			pipe.ZRem(ctx, redisPhotoOrder, id)
			return nil
		})
		if err != nil {
			return err
		}
		if removed.Val() == 0 {
			return fmt.Errorf("photo %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

func (r *RedisDatabase) MarkDeleted(ctx context.Context, id string) error {
	return r.withConn(ctx, "mark photo deleted", func(conn *redis.Conn) error {
		_, err := conn.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SAdd(ctx, redisDeleted, id)
			r.markInitialized(ctx, pipe)
			return nil
		})
		return err
	})
}

func (r *RedisDatabase) ListDeletedIDs(ctx context.Context) (map[string]struct{}, error) {
	var ids []string
	err := r.withConn(ctx, "list deleted photo ids", func(conn *redis.Conn) (err error) {
		ids, err = conn.SMembers(ctx, redisDeleted).Result()
		return err
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

func (r *RedisDatabase) ClearAll(ctx context.Context) error {
	return r.withConn(ctx, "clear all data", func(conn *redis.Conn) error {
		_, err := conn.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, redisUserPhotos, redisPhotoOrder, redisDeleted)
			r.markInitialized(ctx, pipe)
			return nil
		})
		return err
	})
}

func (r *RedisDatabase) IsInitialized(ctx context.Context) (bool, error) {
	var initialized bool
	err := r.withConn(ctx, "read initialized flag", func(conn *redis.Conn) (err error) {
		initialized, err = conn.HExists(ctx, redisMeta, metaInitialized).Result()
		return err
	})
	return initialized, err
}
