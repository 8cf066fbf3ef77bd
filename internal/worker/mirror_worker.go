package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/scanvault/api/internal/client"
	"github.com/scanvault/api/internal/model"
	"github.com/scanvault/api/internal/service"
	"github.com/scanvault/api/internal/store"
)

// MirrorWorker copies finished model archives from the vendor into R2.
// It reads job records but never writes them.
type MirrorWorker struct {
	store      store.JobStore
	vendor     client.Vendor
	archive    client.ArchiveStore
	httpClient *http.Client
	logger     *zap.Logger
}

// NewMirrorWorker creates a new mirror worker. archive may be nil, in which
// case tasks complete without doing anything.
func NewMirrorWorker(jobStore store.JobStore, vendor client.Vendor, archive client.ArchiveStore, logger *zap.Logger) *MirrorWorker {
	return &MirrorWorker{
		store:   jobStore,
		vendor:  vendor,
		archive: archive,
		httpClient: &http.Client{
			Timeout: 30 * time.Minute,
		},
		logger: logger.Named("mirror_worker"),
	}
}

// ProcessTask handles artifact mirror task processing
func (w *MirrorWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload service.MirrorTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.JobID == "" {
		return fmt.Errorf("mirror task without job id: %w", asynq.SkipRetry)
	}

	log := w.logger.With(zap.String("job_id", payload.JobID))

	if w.archive == nil {
		log.Debug("archive not configured, mirror skipped")
		return nil
	}

	job, err := w.store.GetByID(ctx, payload.JobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("job %s not found: %w", payload.JobID, asynq.SkipRetry)
		}
		return fmt.Errorf("load job: %w", err)
	}
	if job.Status != model.JobStatusCompleted {
		return fmt.Errorf("job %s is %s: %w", job.ID, job.Status, asynq.SkipRetry)
	}

	key := client.ModelArchiveKey(job.ID)
	exists, err := w.archive.Exists(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		log.Debug("model already archived", zap.String("key", key))
		return nil
	}

	artifact, err := w.vendor.GetModelZip(ctx, job.ID)
	if err != nil {
		if errors.Is(err, model.ErrJobNotFoundUpstream) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	if err := w.copy(ctx, artifact.ModelURL, key); err != nil {
		log.Warn("model mirror failed", zap.Error(err))
		return err
	}

	log.Info("model archived", zap.String("key", key))
	return nil
}

func (w *MirrorWorker) copy(ctx context.Context, sourceURL, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model download returned status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/zip"
	}

	return w.archive.Put(ctx, key, resp.Body, resp.ContentLength, contentType)
}
