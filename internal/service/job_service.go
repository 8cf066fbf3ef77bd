package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/scanvault/api/internal/client"
	"github.com/scanvault/api/internal/model"
	"github.com/scanvault/api/internal/store"
)

const archiveLinkExpiry = 15 * time.Minute

// JobService serves read access to job records and their artifacts
type JobService struct {
	store   store.JobStore
	vendor  client.Vendor
	archive client.ArchiveStore
	logger  *zap.Logger
	now     func() time.Time
}

// NewJobService creates a new job service. archive may be nil.
func NewJobService(jobStore store.JobStore, vendor client.Vendor, archive client.ArchiveStore, logger *zap.Logger) *JobService {
	return &JobService{
		store:   jobStore,
		vendor:  vendor,
		archive: archive,
		logger:  logger.Named("jobs"),
		now:     time.Now,
	}
}

// List returns every job, newest first
func (s *JobService) List(ctx context.Context) ([]model.JobRecord, error) {
	jobs, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, persistenceFailed("list jobs", err)
	}
	return jobs, nil
}

// Get returns the stored record without contacting the vendor
func (s *JobService) Get(ctx context.Context, jobID string) (*model.JobRecord, error) {
	job, err := s.store.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("job %s: %w", jobID, model.ErrJobNotFoundLocally)
		}
		return nil, persistenceFailed("get job", err)
	}
	return job, nil
}

// DownloadLink resolves a download URL for a completed job, preferring the
// mirrored archive over the vendor link.
func (s *JobService) DownloadLink(ctx context.Context, jobID string) (*model.DownloadLinkResponse, error) {
	job, err := s.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != model.JobStatusCompleted {
		return nil, fmt.Errorf("job %s is %s: %w", jobID, job.Status, model.ErrArtifactNotReady)
	}

	if s.archive != nil {
		key := client.ModelArchiveKey(jobID)
		exists, err := s.archive.Exists(ctx, key)
		if err != nil {
			s.logger.Warn("archive lookup failed, falling back to vendor", zap.String("job_id", jobID), zap.Error(err))
		} else if exists {
			url, err := s.archive.SignedURL(ctx, key, archiveLinkExpiry)
			if err == nil {
				expires := s.now().Add(archiveLinkExpiry).UTC()
				return &model.DownloadLinkResponse{
					JobID:     jobID,
					URL:       url,
					Source:    model.DownloadSourceArchive,
					ExpiresAt: &expires,
				}, nil
			}
			s.logger.Warn("archive presign failed, falling back to vendor", zap.String("job_id", jobID), zap.Error(err))
		}
	}

	artifact, err := s.vendor.GetModelZip(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return &model.DownloadLinkResponse{
		JobID:  jobID,
		URL:    artifact.ModelURL,
		Source: model.DownloadSourceVendor,
	}, nil
}
