package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"

	"github.com/scanvault/api/internal/mocks"
	"github.com/scanvault/api/internal/model"
	"github.com/scanvault/api/internal/store"
)

func newTestStore(t *testing.T) store.JobStore {
	t.Helper()
	s, err := store.OpenSQLiteJobStore(filepath.Join(t.TempDir(), "jobs.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func createJob(t *testing.T, s store.JobStore, id string, status model.JobStatus) *model.JobRecord {
	t.Helper()
	job, err := s.Upsert(context.Background(), id,
		model.JobFields{Status: model.StatusPtr(status)},
		model.JobDefaults{SourceName: id + ".mp4", SubmittedAt: time.Now().Add(-time.Hour)})
	require.NoError(t, err)
	return job
}

type transition struct {
	previous model.JobStatus
	current  model.JobStatus
	jobID    string
}

// recordingListener captures every transition it is told about.
type recordingListener struct {
	mu          sync.Mutex
	transitions []transition
}

func (l *recordingListener) OnTransition(_ context.Context, previous model.JobStatus, job *model.JobRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.transitions = append(l.transitions, transition{previous: previous, current: job.Status, jobID: job.ID})
}

func (l *recordingListener) all() []transition {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]transition(nil), l.transitions...)
}

type reconcileFixture struct {
	store      store.JobStore
	vendor     *mocks.MockVendor
	listener   *recordingListener
	reconciler *ReconcileService
}

func newReconcileFixture(t *testing.T) *reconcileFixture {
	t.Helper()
	s := newTestStore(t)
	vendor := mocks.NewMockVendor(gomock.NewController(t))
	listener := &recordingListener{}
	return &reconcileFixture{
		store:      s,
		vendor:     vendor,
		listener:   listener,
		reconciler: NewReconcileService(s, vendor, zaptest.NewLogger(t), listener),
	}
}
