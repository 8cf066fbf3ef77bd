package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/scanvault/api/internal/client"
	"github.com/scanvault/api/internal/model"
	"github.com/scanvault/api/internal/store"
)

// VideoSubmitter defines the upload orchestration used by the HTTP layer
type VideoSubmitter interface {
	SubmitVideo(ctx context.Context, fileName string, video io.Reader, opts model.UploadVideoOptions) (*model.JobRecord, error)
}

// UploadService submits videos to the vendor and records the resulting job
type UploadService struct {
	vendor client.Vendor
	store  store.JobStore
	logger *zap.Logger
	now    func() time.Time
}

// NewUploadService creates a new upload orchestrator
func NewUploadService(vendor client.Vendor, jobStore store.JobStore, logger *zap.Logger) *UploadService {
	return &UploadService{
		vendor: vendor,
		store:  jobStore,
		logger: logger.Named("upload"),
		now:    time.Now,
	}
}

// SubmitVideo forwards the video to the vendor, then creates the local record
// in the queuing state. Vendor errors are returned unchanged and nothing is
// stored. A store failure after the vendor accepted the job is returned as a
// *PersistenceError carrying the vendor id.
func (s *UploadService) SubmitVideo(ctx context.Context, fileName string, video io.Reader, opts model.UploadVideoOptions) (*model.JobRecord, error) {
	res, err := s.vendor.SubmitVideo(ctx, &client.SubmitVideoRequest{
		FileName:         fileName,
		Video:            video,
		ModelQuality:     opts.ModelQuality,
		TextureQuality:   opts.TextureQuality,
		FileFormat:       opts.FileFormat,
		IsMask:           opts.IsMask,
		TextureSmoothing: opts.TextureSmoothing,
	})
	if err != nil {
		s.logger.Warn("vendor rejected video submission", zap.String("file", fileName), zap.Error(err))
		return nil, err
	}

	job, err := s.store.Upsert(ctx, res.JobID,
		model.JobFields{Status: model.StatusPtr(model.JobStatusQueuing)},
		model.JobDefaults{
			SourceName:    fileName,
			Title:         opts.Title,
			SubmittedAt:   s.now(),
			CalculateType: res.CalculateType,
			FileFormat:    opts.FileFormat,
		},
	)
	if err != nil {
		s.logger.Error("vendor accepted job but local record could not be written",
			zap.String("job_id", res.JobID), zap.String("file", fileName), zap.Error(err))
		return nil, &PersistenceError{JobID: res.JobID, Err: err}
	}

	s.logger.Info("video submitted",
		zap.String("job_id", job.ID), zap.String("file", fileName),
		zap.Int("calculate_type", job.CalculateType))
	return job, nil
}

// ImportJob records a job that exists at the vendor but is missing locally,
// then reconciles it once. Used to repair LOCAL_PERSISTENCE_FAILED uploads.
func (s *UploadService) ImportJob(ctx context.Context, reconciler *ReconcileService, jobID, sourceName string) (*model.JobRecord, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job id is required")
	}

	if _, err := s.store.Upsert(ctx, jobID,
		model.JobFields{},
		model.JobDefaults{SourceName: sourceName, SubmittedAt: s.now()},
	); err != nil {
		return nil, persistenceFailed("import job", err)
	}

	return reconciler.PollFrom(ctx, jobID, SourceManual)
}
