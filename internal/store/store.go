// Package store persists job records. Every operation on a single job id is
// atomic; callers coordinate through UpdateIfActive rather than locks.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/redis/go-redis/v9"

	"github.com/scanvault/api/internal/config"
	"github.com/scanvault/api/internal/model"
)

// ErrNotFound is returned when no record exists for an id.
var ErrNotFound = errors.New("job record not found")

// JobStore is the single source of truth for job records.
type JobStore interface {
	// Upsert creates the record from defaults and fields when absent, otherwise
	// merges fields. Insert-only values are never touched on the merge path.
	Upsert(ctx context.Context, id string, fields model.JobFields, defaults model.JobDefaults) (*model.JobRecord, error)
	// UpdateIfActive merges fields only while the stored status is non-terminal.
	// It returns the resulting record and whether the merge was applied.
	UpdateIfActive(ctx context.Context, id string, fields model.JobFields) (*model.JobRecord, bool, error)
	GetByID(ctx context.Context, id string) (*model.JobRecord, error)
	// ListAll returns every record, newest SubmittedAt first.
	ListAll(ctx context.Context) ([]model.JobRecord, error)
	// ListActive returns every non-terminal record.
	ListActive(ctx context.Context) ([]model.JobRecord, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open builds the store selected by configuration. The redis client is only
// used by the redis backend and is not closed by the returned store.
func Open(cfg *config.StoreConfig, rdb redis.UniversalClient, logger *zap.Logger) (JobStore, error) {
	switch cfg.Backend {
	case config.StoreBackendRedis, "":
		if rdb == nil {
			return nil, fmt.Errorf("redis store requires a redis client")
		}
		return NewRedisJobStore(rdb, logger), nil
	case config.StoreBackendSQLite:
		return OpenSQLiteJobStore(cfg.SQLitePath, logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
