package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scanvault/api/internal/client"
	"github.com/scanvault/api/internal/model"
	"github.com/scanvault/api/internal/store"
)

// ObservationSource names the path an observation arrived on
type ObservationSource string

const (
	SourcePoll    ObservationSource = "poll"
	SourceWebhook ObservationSource = "webhook"
	SourceSweep   ObservationSource = "sweep"
	SourceManual  ObservationSource = "manual"
)

// Observation is one report of a job's vendor status
type Observation struct {
	JobID        string
	VendorStatus int
	ModelURL     string
	ThumbnailURL string
	ErrorMessage string
	Source       ObservationSource
}

// TransitionListener is told about every status change that was persisted.
// Implementations must not block; they run on the request goroutine.
type TransitionListener interface {
	OnTransition(ctx context.Context, previous model.JobStatus, job *model.JobRecord)
}

// ReconcileService folds vendor observations into the job store. Any number
// of polls, webhooks and sweeps may run at once for the same job; terminal
// states are absorbing and enforced by the store's conditional update.
type ReconcileService struct {
	store     store.JobStore
	vendor    client.Vendor
	logger    *zap.Logger
	listeners []TransitionListener
	now       func() time.Time
}

func NewReconcileService(jobStore store.JobStore, vendor client.Vendor, logger *zap.Logger, listeners ...TransitionListener) *ReconcileService {
	return &ReconcileService{
		store:     jobStore,
		vendor:    vendor,
		logger:    logger.Named("reconcile"),
		listeners: listeners,
		now:       time.Now,
	}
}

// AddListener registers l for subsequent transitions. Not safe to call
// concurrently with ApplyObservation.
func (s *ReconcileService) AddListener(l TransitionListener) {
	s.listeners = append(s.listeners, l)
}

// ApplyObservation merges one vendor observation into the stored record and
// returns the record as it stands afterwards.
func (s *ReconcileService) ApplyObservation(ctx context.Context, obs Observation) (*model.JobRecord, error) {
	log := s.logger.With(
		zap.String("observation_id", uuid.NewString()),
		zap.String("job_id", obs.JobID),
		zap.String("source", string(obs.Source)),
		zap.Int("vendor_status", obs.VendorStatus),
	)

	status := MapVendorStatus(obs.VendorStatus, log)

	current, err := s.store.GetByID(ctx, obs.JobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("observation for unknown job")
			return nil, fmt.Errorf("job %s: %w", obs.JobID, model.ErrJobNotFoundLocally)
		}
		log.Error("failed to load job", zap.Error(err))
		return nil, persistenceFailed("load job", err)
	}

	if current.Status.IsTerminal() {
		log.Debug("job already terminal, observation ignored", zap.String("status", string(current.Status)))
		return current, nil
	}

	fields := s.buildUpdate(status, obs)

	updated, applied, err := s.store.UpdateIfActive(ctx, obs.JobID, fields)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("job %s: %w", obs.JobID, model.ErrJobNotFoundLocally)
		}
		log.Error("failed to persist observation", zap.Error(err))
		return nil, persistenceFailed("update job", err)
	}

	if !applied {
		log.Debug("job reached a terminal state concurrently, observation ignored",
			zap.String("status", string(updated.Status)))
		return updated, nil
	}

	if updated.Status != current.Status {
		log.Info("job status changed",
			zap.String("from", string(current.Status)),
			zap.String("to", string(updated.Status)))
		s.notify(ctx, current.Status, updated)
	}

	return updated, nil
}

// Poll asks the vendor for the current status of a job and reconciles it.
// Terminal records are returned without contacting the vendor. A vendor
// failure is returned as is and leaves the record untouched.
func (s *ReconcileService) Poll(ctx context.Context, jobID string) (*model.JobRecord, error) {
	return s.poll(ctx, jobID, SourcePoll)
}

// PollFrom is Poll with an explicit source tag.
func (s *ReconcileService) PollFrom(ctx context.Context, jobID string, source ObservationSource) (*model.JobRecord, error) {
	return s.poll(ctx, jobID, source)
}

func (s *ReconcileService) poll(ctx context.Context, jobID string, source ObservationSource) (*model.JobRecord, error) {
	current, err := s.store.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("job %s: %w", jobID, model.ErrJobNotFoundLocally)
		}
		return nil, persistenceFailed("load job", err)
	}
	if current.Status.IsTerminal() {
		return current, nil
	}

	res, err := s.vendor.GetStatus(ctx, jobID)
	if err != nil {
		s.logger.Warn("vendor status lookup failed",
			zap.String("job_id", jobID), zap.String("source", string(source)), zap.Error(err))
		return nil, err
	}

	return s.ApplyObservation(ctx, Observation{
		JobID:        jobID,
		VendorStatus: res.Status,
		ModelURL:     res.ModelURL,
		ThumbnailURL: res.ThumbnailURL,
		ErrorMessage: res.ErrorMessage,
		Source:       source,
	})
}

func (s *ReconcileService) buildUpdate(status model.JobStatus, obs Observation) model.JobFields {
	fields := model.JobFields{Status: model.StatusPtr(status)}
	if obs.ThumbnailURL != "" {
		fields.ThumbnailURL = model.StringPtr(obs.ThumbnailURL)
	}

	switch status {
	case model.JobStatusCompleted:
		now := s.now().UTC()
		fields.CompletedAt = &now
		if obs.ModelURL != "" {
			fields.ModelURL = model.StringPtr(obs.ModelURL)
		}
	case model.JobStatusFailed:
		msg := obs.ErrorMessage
		if msg == "" {
			msg = fmt.Sprintf("Processing failed (%s).", obs.Source)
		}
		fields.ErrorMessage = model.StringPtr(msg)
	}
	return fields
}

func (s *ReconcileService) notify(ctx context.Context, previous model.JobStatus, job *model.JobRecord) {
	for _, l := range s.listeners {
		l.OnTransition(ctx, previous, job)
	}
}
