package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVendorCode_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    VendorCode
		wantErr bool
	}{
		{`2`, 2, false},
		{`-1`, -1, false},
		{`"3"`, 3, false},
		{`" 0 "`, 0, false},
		{`"done"`, 0, true},
		{`1.5`, 0, true},
		{`true`, 0, true},
	}
	for _, tt := range tests {
		var c VendorCode
		err := json.Unmarshal([]byte(tt.in), &c)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, c, tt.in)
	}
}

func TestWebhookPayload_MissingStatus(t *testing.T) {
	var p WebhookPayload
	require.NoError(t, json.Unmarshal([]byte(`{"serialize":"abc"}`), &p))
	assert.Nil(t, p.Status)

	require.NoError(t, json.Unmarshal([]byte(`{"serialize":"abc","status":null}`), &p))
	assert.Nil(t, p.Status)
}

func TestJobStatus_Terminality(t *testing.T) {
	for _, s := range TerminalJobStatuses {
		assert.True(t, s.IsTerminal(), s)
		assert.True(t, s.Valid(), s)
	}
	for _, s := range ActiveJobStatuses {
		assert.False(t, s.IsTerminal(), s)
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, JobStatus("unknown").Valid())
}

func TestNewJobRecord(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	r := NewJobRecord("abc", JobFields{}, JobDefaults{SourceName: "cat.mp4"}, now)
	assert.Equal(t, JobStatusUploading, r.Status)
	assert.Equal(t, "cat.mp4", r.Title)
	assert.True(t, r.SubmittedAt.Equal(now))
	assert.True(t, r.UpdatedAt.Equal(now))

	submitted := now.Add(-time.Hour)
	r = NewJobRecord("abc", JobFields{Status: StatusPtr(JobStatusQueuing)},
		JobDefaults{SourceName: "cat.mp4", Title: "Cat", SubmittedAt: submitted}, now)
	assert.Equal(t, JobStatusQueuing, r.Status)
	assert.Equal(t, "Cat", r.Title)
	assert.True(t, r.SubmittedAt.Equal(submitted))
}

func TestJobFields_ApplyNeverClearsURLs(t *testing.T) {
	r := &JobRecord{ModelURL: "https://x/a.zip", ThumbnailURL: "https://x/a.png"}
	JobFields{ModelURL: StringPtr(""), ThumbnailURL: StringPtr("")}.Apply(r)
	assert.Equal(t, "https://x/a.zip", r.ModelURL)
	assert.Equal(t, "https://x/a.png", r.ThumbnailURL)
}
