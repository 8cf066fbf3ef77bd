package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/scanvault/api/internal/model"
)

const (
	jobKeyPrefix     = "job:"
	submittedSetKey  = "jobs:submitted"
	activeSetKey     = "jobs:active"
	maxTxAttempts    = 16
	listMGetPageSize = 200
)

func jobKey(id string) string {
	return jobKeyPrefix + id
}

// RedisJobStore keeps each record as JSON under job:<id>. Records carry no TTL.
// jobs:submitted orders ids by submission time and jobs:active tracks
// non-terminal ids; both are updated in the same transaction as the record.
type RedisJobStore struct {
	rdb    redis.UniversalClient
	logger *zap.Logger
	now    func() time.Time
}

func NewRedisJobStore(rdb redis.UniversalClient, logger *zap.Logger) *RedisJobStore {
	return &RedisJobStore{
		rdb:    rdb,
		logger: logger.Named("redis_store"),
		now:    time.Now,
	}
}

func (s *RedisJobStore) Upsert(ctx context.Context, id string, fields model.JobFields, defaults model.JobDefaults) (*model.JobRecord, error) {
	var out *model.JobRecord
	err := s.withTx(ctx, id, func(tx *redis.Tx) error {
		current, err := s.read(ctx, tx, id)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}

		now := s.now()
		if current == nil {
			out = model.NewJobRecord(id, fields, defaults, now)
		} else {
			fields.Apply(current)
			current.UpdatedAt = now.UTC()
			out = current
		}
		return s.write(ctx, tx, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *RedisJobStore) UpdateIfActive(ctx context.Context, id string, fields model.JobFields) (*model.JobRecord, bool, error) {
	var (
		out     *model.JobRecord
		applied bool
	)
	err := s.withTx(ctx, id, func(tx *redis.Tx) error {
		applied = false
		current, err := s.read(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.Status.IsTerminal() {
			out = current
			return nil
		}

		fields.Apply(current)
		current.UpdatedAt = s.now().UTC()
		if err := s.write(ctx, tx, current); err != nil {
			return err
		}
		out = current
		applied = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, applied, nil
}

func (s *RedisJobStore) GetByID(ctx context.Context, id string) (*model.JobRecord, error) {
	data, err := s.rdb.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return decodeRecord(data)
}

func (s *RedisJobStore) ListAll(ctx context.Context) ([]model.JobRecord, error) {
	ids, err := s.rdb.ZRevRange(ctx, submittedSetKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis zrevrange: %w", err)
	}
	return s.loadMany(ctx, ids)
}

func (s *RedisJobStore) ListActive(ctx context.Context) ([]model.JobRecord, error) {
	ids, err := s.rdb.SMembers(ctx, activeSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers: %w", err)
	}
	records, err := s.loadMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	// The set is maintained transactionally, but filter anyway so a record
	// that went terminal between the two reads is not handed out.
	active := records[:0]
	for _, r := range records {
		if !r.Status.IsTerminal() {
			active = append(active, r)
		}
	}
	return active, nil
}

func (s *RedisJobStore) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close is a no-op; the redis client is owned by the caller.
func (s *RedisJobStore) Close() error {
	return nil
}

func (s *RedisJobStore) loadMany(ctx context.Context, ids []string) ([]model.JobRecord, error) {
	records := make([]model.JobRecord, 0, len(ids))
	for start := 0; start < len(ids); start += listMGetPageSize {
		end := start + listMGetPageSize
		if end > len(ids) {
			end = len(ids)
		}

		keys := make([]string, 0, end-start)
		for _, id := range ids[start:end] {
			keys = append(keys, jobKey(id))
		}

		values, err := s.rdb.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, fmt.Errorf("redis mget: %w", err)
		}
		for i, v := range values {
			raw, ok := v.(string)
			if !ok {
				continue
			}
			r, err := decodeRecord([]byte(raw))
			if err != nil {
				s.logger.Warn("skipping undecodable job record", zap.String("key", keys[i]), zap.Error(err))
				continue
			}
			records = append(records, *r)
		}
	}
	return records, nil
}

// withTx runs fn inside WATCH job:<id>, retrying when a concurrent writer
// invalidated the watch.
func (s *RedisJobStore) withTx(ctx context.Context, id string, fn func(tx *redis.Tx) error) error {
	key := jobKey(id)
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err := s.rdb.Watch(ctx, fn, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("redis transaction on %s: too much contention", key)
}

func (s *RedisJobStore) read(ctx context.Context, tx *redis.Tx, id string) (*model.JobRecord, error) {
	data, err := tx.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return decodeRecord(data)
}

func (s *RedisJobStore) write(ctx context.Context, tx *redis.Tx, r *model.JobRecord) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal job record: %w", err)
	}

	_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, jobKey(r.ID), data, 0)
		pipe.ZAdd(ctx, submittedSetKey, redis.Z{
			Score:  float64(r.SubmittedAt.UnixMilli()),
			Member: r.ID,
		})
		if r.Status.IsTerminal() {
			pipe.SRem(ctx, activeSetKey, r.ID)
		} else {
			pipe.SAdd(ctx, activeSetKey, r.ID)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("redis exec: %w", err)
	}
	return err
}

func decodeRecord(data []byte) (*model.JobRecord, error) {
	var r model.JobRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode job record: %w", err)
	}
	return &r, nil
}
