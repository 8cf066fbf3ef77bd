package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/scanvault/api/internal/model"
)

const (
	TaskTypeArtifactMirror = "artifact:mirror"
	TaskTypeSweep          = "jobs:sweep"

	QueueMirror = "mirror"
	QueueSweep  = "sweep"
)

// MirrorTaskPayload is the asynq payload of an artifact mirror task
type MirrorTaskPayload struct {
	JobID string `json:"jobId"`
}

// TaskEnqueuer is the subset of *asynq.Client used to schedule work
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// MirrorEnqueuer schedules an archive copy of every model that completes.
// The task id is derived from the job id, so repeated completions of the
// same job enqueue at most one task.
type MirrorEnqueuer struct {
	enqueuer TaskEnqueuer
	logger   *zap.Logger
}

func NewMirrorEnqueuer(enqueuer TaskEnqueuer, logger *zap.Logger) *MirrorEnqueuer {
	return &MirrorEnqueuer{
		enqueuer: enqueuer,
		logger:   logger.Named("mirror"),
	}
}

// MirrorTaskID is the deduplication key of a job's mirror task
func MirrorTaskID(jobID string) string {
	return "mirror:" + jobID
}

// OnTransition implements TransitionListener
func (m *MirrorEnqueuer) OnTransition(ctx context.Context, _ model.JobStatus, job *model.JobRecord) {
	if job == nil || job.Status != model.JobStatusCompleted {
		return
	}
	if err := m.Enqueue(ctx, job.ID); err != nil {
		m.logger.Error("failed to enqueue artifact mirror", zap.String("job_id", job.ID), zap.Error(err))
	}
}

// Enqueue schedules a mirror task for jobID. A task that already exists is not an error.
func (m *MirrorEnqueuer) Enqueue(ctx context.Context, jobID string) error {
	data, err := json.Marshal(MirrorTaskPayload{JobID: jobID})
	if err != nil {
		return err
	}

	_, err = m.enqueuer.EnqueueContext(ctx, asynq.NewTask(TaskTypeArtifactMirror, data),
		asynq.TaskID(MirrorTaskID(jobID)),
		asynq.Queue(QueueMirror),
		asynq.MaxRetry(5),
		asynq.Retention(24*time.Hour),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		m.logger.Debug("artifact mirror already scheduled", zap.String("job_id", jobID))
		return nil
	}
	if err != nil {
		return err
	}

	m.logger.Info("artifact mirror scheduled", zap.String("job_id", jobID))
	return nil
}
