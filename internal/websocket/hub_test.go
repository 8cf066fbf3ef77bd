package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/scanvault/api/internal/model"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(zaptest.NewLogger(t))
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.stopped
	})
	return h
}

func subscribe(h *Hub, jobID string) *Client {
	c := &Client{ID: jobID + "-sub", JobID: jobID, Send: make(chan []byte, 4)}
	h.register <- c
	return c
}

func receive(t *testing.T, c *Client) model.WSStatusMessage {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		var msg model.WSStatusMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return model.WSStatusMessage{}
}

func TestHub_DeliversToJobAndAllSubscribers(t *testing.T) {
	h := startHub(t)
	jobSub := subscribe(h, "job-1")
	otherSub := subscribe(h, "job-2")
	allSub := subscribe(h, AllJobs)

	h.OnTransition(context.Background(), model.JobStatusProcessing, &model.JobRecord{ID: "job-1", Status: model.JobStatusCompleted})

	for _, c := range []*Client{jobSub, allSub} {
		msg := receive(t, c)
		assert.Equal(t, model.WSMessageTypeStatus, msg.Type)
		assert.Equal(t, "job-1", msg.JobID)
		assert.Equal(t, model.JobStatusProcessing, msg.Previous)
		require.NotNil(t, msg.Job)
		assert.Equal(t, model.JobStatusCompleted, msg.Job.Status)
	}

	select {
	case <-otherSub.Send:
		t.Fatal("subscriber of another job must not receive the update")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_DropsSlowConsumer(t *testing.T) {
	h := startHub(t)
	slow := &Client{ID: "slow", JobID: "job-1", Send: make(chan []byte)}
	h.register <- slow
	marker := subscribe(h, "job-2")

	h.OnTransition(context.Background(), model.JobStatusQueuing, &model.JobRecord{ID: "job-1", Status: model.JobStatusProcessing})
	// Broadcasts are handled in order, so once job-2's arrives job-1's is done
	h.OnTransition(context.Background(), model.JobStatusQueuing, &model.JobRecord{ID: "job-2", Status: model.JobStatusProcessing})
	receive(t, marker)

	select {
	case _, ok := <-slow.Send:
		assert.False(t, ok, "slow consumer should be closed, not fed")
	default:
		t.Fatal("slow consumer was not removed")
	}
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(zaptest.NewLogger(t))
	go h.Run(ctx)

	c := subscribe(h, "job-1")
	cancel()
	<-h.stopped

	_, ok := <-c.Send
	assert.False(t, ok)

	// Broadcasting after shutdown must not block
	h.OnTransition(context.Background(), model.JobStatusQueuing, &model.JobRecord{ID: "job-1"})
}
