package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/scanvault/api/internal/config"
	"github.com/scanvault/api/internal/model"
)

func newSQLiteStore(t *testing.T) JobStore {
	t.Helper()
	s, err := OpenSQLiteJobStore(filepath.Join(t.TempDir(), "jobs.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteJobStore(t *testing.T) {
	runJobStoreContract(t, newSQLiteStore)
}

func TestSQLiteJobStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "jobs.db")
	ctx := context.Background()

	s, err := OpenSQLiteJobStore(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	_, err = s.Upsert(ctx, "job-1",
		model.JobFields{Status: model.StatusPtr(model.JobStatusCompleted)},
		model.JobDefaults{SourceName: "a.mp4"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := OpenSQLiteJobStore(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer reopened.Close()

	job, err := reopened.GetByID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, job.Status)
}

func TestSQLiteJobStore_RequiresPath(t *testing.T) {
	_, err := OpenSQLiteJobStore("", zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestOpen_SelectsBackend(t *testing.T) {
	logger := zaptest.NewLogger(t)

	s, err := Open(&config.StoreConfig{
		Backend:    config.StoreBackendSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "jobs.db"),
	}, nil, logger)
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &SQLiteJobStore{}, s)

	_, err = Open(&config.StoreConfig{Backend: config.StoreBackendRedis}, nil, logger)
	assert.Error(t, err, "redis backend without a client")

	_, err = Open(&config.StoreConfig{Backend: "etcd"}, nil, logger)
	assert.Error(t, err)
}

func TestRetryOnBusy(t *testing.T) {
	calls := 0
	err := retryOnBusy(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &busyErr{}
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

type busyErr struct{}

func (*busyErr) Error() string { return "database is locked (5) (SQLITE_BUSY)" }
func (*busyErr) Code() int     { return sqliteBusyCode }
