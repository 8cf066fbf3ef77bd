package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanvault/api/internal/model"
)

// runJobStoreContract exercises the behavior every JobStore backend shares.
func runJobStoreContract(t *testing.T, newStore func(t *testing.T) JobStore) {
	t.Run("UpsertCreatesRecord", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		submitted := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

		job, err := s.Upsert(ctx, "job-1",
			model.JobFields{Status: model.StatusPtr(model.JobStatusQueuing)},
			model.JobDefaults{SourceName: "chair.mp4", SubmittedAt: submitted, CalculateType: 2, FileFormat: "glb"})
		require.NoError(t, err)

		assert.Equal(t, "job-1", job.ID)
		assert.Equal(t, model.JobStatusQueuing, job.Status)
		assert.Equal(t, "chair.mp4", job.SourceName)
		assert.Equal(t, "chair.mp4", job.Title)
		assert.True(t, job.SubmittedAt.Equal(submitted))
		assert.Equal(t, 2, job.CalculateType)
		assert.Equal(t, "glb", job.FileFormat)
		assert.Nil(t, job.CompletedAt)

		got, err := s.GetByID(ctx, "job-1")
		require.NoError(t, err)
		assert.Equal(t, job.Status, got.Status)
		assert.True(t, got.SubmittedAt.Equal(submitted))
	})

	t.Run("UpsertKeepsInsertOnlyValues", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		submitted := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

		_, err := s.Upsert(ctx, "job-1",
			model.JobFields{Status: model.StatusPtr(model.JobStatusQueuing)},
			model.JobDefaults{SourceName: "first.mp4", Title: "First", SubmittedAt: submitted})
		require.NoError(t, err)

		job, err := s.Upsert(ctx, "job-1",
			model.JobFields{Status: model.StatusPtr(model.JobStatusProcessing)},
			model.JobDefaults{SourceName: "second.mp4", Title: "Second", SubmittedAt: submitted.Add(time.Hour)})
		require.NoError(t, err)

		assert.Equal(t, model.JobStatusProcessing, job.Status)
		assert.Equal(t, "first.mp4", job.SourceName)
		assert.Equal(t, "First", job.Title)
		assert.True(t, job.SubmittedAt.Equal(submitted))
	})

	t.Run("GetByIDMissing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetByID(context.Background(), "missing")
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("UpdateIfActiveAppliesToActive", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.Upsert(ctx, "job-1",
			model.JobFields{Status: model.StatusPtr(model.JobStatusProcessing)},
			model.JobDefaults{SourceName: "a.mp4"})
		require.NoError(t, err)

		completed := time.Now().UTC().Truncate(time.Millisecond)
		job, applied, err := s.UpdateIfActive(ctx, "job-1", model.JobFields{
			Status:      model.StatusPtr(model.JobStatusCompleted),
			CompletedAt: &completed,
			ModelURL:    model.StringPtr("https://cdn.example.com/a.zip"),
		})
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, model.JobStatusCompleted, job.Status)
		require.NotNil(t, job.CompletedAt)
		assert.True(t, job.CompletedAt.Equal(completed))
		assert.Equal(t, "https://cdn.example.com/a.zip", job.ModelURL)
	})

	t.Run("UpdateIfActiveRefusesTerminal", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.Upsert(ctx, "job-1",
			model.JobFields{
				Status:       model.StatusPtr(model.JobStatusFailed),
				ErrorMessage: model.StringPtr("boom"),
			},
			model.JobDefaults{SourceName: "a.mp4"})
		require.NoError(t, err)

		job, applied, err := s.UpdateIfActive(ctx, "job-1", model.JobFields{
			Status: model.StatusPtr(model.JobStatusProcessing),
		})
		require.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, model.JobStatusFailed, job.Status)
		assert.Equal(t, "boom", job.ErrorMessage)
	})

	t.Run("UpdateIfActiveMissing", func(t *testing.T) {
		s := newStore(t)
		_, _, err := s.UpdateIfActive(context.Background(), "missing", model.JobFields{
			Status: model.StatusPtr(model.JobStatusProcessing),
		})
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("EmptyURLsNeverClear", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.Upsert(ctx, "job-1",
			model.JobFields{
				Status:       model.StatusPtr(model.JobStatusProcessing),
				ThumbnailURL: model.StringPtr("https://cdn.example.com/t.png"),
			},
			model.JobDefaults{SourceName: "a.mp4"})
		require.NoError(t, err)

		job, applied, err := s.UpdateIfActive(ctx, "job-1", model.JobFields{
			Status:       model.StatusPtr(model.JobStatusProcessing),
			ThumbnailURL: model.StringPtr(""),
		})
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, "https://cdn.example.com/t.png", job.ThumbnailURL)
	})

	t.Run("ListOrderAndActiveFilter", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

		seed := []struct {
			id     string
			status model.JobStatus
			offset time.Duration
		}{
			{"old", model.JobStatusCompleted, 0},
			{"mid", model.JobStatusProcessing, time.Minute},
			{"new", model.JobStatusQueuing, 2 * time.Minute},
		}
		for _, j := range seed {
			_, err := s.Upsert(ctx, j.id,
				model.JobFields{Status: model.StatusPtr(j.status)},
				model.JobDefaults{SourceName: j.id + ".mp4", SubmittedAt: base.Add(j.offset)})
			require.NoError(t, err)
		}

		all, err := s.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"new", "mid", "old"}, ids(all))

		active, err := s.ListActive(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"new", "mid"}, ids(active))
	})

	t.Run("ConcurrentTerminalWritesFirstWins", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.Upsert(ctx, "job-1",
			model.JobFields{Status: model.StatusPtr(model.JobStatusProcessing)},
			model.JobDefaults{SourceName: "a.mp4"})
		require.NoError(t, err)

		statuses := []model.JobStatus{model.JobStatusCompleted, model.JobStatusFailed}
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			winners []model.JobStatus
		)
		for i := 0; i < 8; i++ {
			status := statuses[i%2]
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, applied, err := s.UpdateIfActive(ctx, "job-1", model.JobFields{Status: model.StatusPtr(status)})
				assert.NoError(t, err)
				if applied {
					mu.Lock()
					winners = append(winners, status)
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		require.Len(t, winners, 1)
		got, err := s.GetByID(ctx, "job-1")
		require.NoError(t, err)
		assert.Equal(t, winners[0], got.Status)
	})

	t.Run("Ping", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.Ping(context.Background()))
	})
}

func ids(jobs []model.JobRecord) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.ID
	}
	return out
}
