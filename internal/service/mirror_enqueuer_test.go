package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/scanvault/api/internal/model"
)

// fakeEnqueuer remembers task ids and rejects duplicates like asynq does.
type fakeEnqueuer struct {
	seen  map[string]bool
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	var id, queue string
	for _, opt := range opts {
		switch opt.Type() {
		case asynq.TaskIDOpt:
			id = opt.Value().(string)
		case asynq.QueueOpt:
			queue = opt.Value().(string)
		}
	}
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[id] {
		return nil, asynq.ErrTaskIDConflict
	}
	f.seen[id] = true
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: id, Queue: queue, Type: task.Type()}, nil
}

func TestMirrorEnqueuer_OnlyCompletedJobs(t *testing.T) {
	fake := &fakeEnqueuer{}
	m := NewMirrorEnqueuer(fake, zaptest.NewLogger(t))
	ctx := context.Background()

	m.OnTransition(ctx, model.JobStatusQueuing, &model.JobRecord{ID: "job-1", Status: model.JobStatusProcessing})
	m.OnTransition(ctx, model.JobStatusProcessing, &model.JobRecord{ID: "job-2", Status: model.JobStatusFailed})
	m.OnTransition(ctx, model.JobStatusProcessing, &model.JobRecord{ID: "job-3", Status: model.JobStatusCompleted})

	require.Len(t, fake.tasks, 1)
	assert.Equal(t, TaskTypeArtifactMirror, fake.tasks[0].Type())

	var payload MirrorTaskPayload
	require.NoError(t, json.Unmarshal(fake.tasks[0].Payload(), &payload))
	assert.Equal(t, "job-3", payload.JobID)
	assert.True(t, fake.seen[MirrorTaskID("job-3")])
}

func TestMirrorEnqueuer_DuplicateIsNotAnError(t *testing.T) {
	fake := &fakeEnqueuer{}
	m := NewMirrorEnqueuer(fake, zaptest.NewLogger(t))

	require.NoError(t, m.Enqueue(context.Background(), "job-1"))
	require.NoError(t, m.Enqueue(context.Background(), "job-1"))
	assert.Len(t, fake.tasks, 1)
}

func TestMirrorEnqueuer_PropagatesFailure(t *testing.T) {
	fake := &fakeEnqueuer{err: errors.New("redis down")}
	m := NewMirrorEnqueuer(fake, zaptest.NewLogger(t))

	assert.Error(t, m.Enqueue(context.Background(), "job-1"))
	// OnTransition logs instead of failing the reconciliation
	m.OnTransition(context.Background(), model.JobStatusProcessing, &model.JobRecord{ID: "job-1", Status: model.JobStatusCompleted})
}
