package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/scanvault/api/internal/model"
)

func TestMapVendorStatus(t *testing.T) {
	tests := []struct {
		code int
		want model.JobStatus
	}{
		{-1, model.JobStatusUploading},
		{0, model.JobStatusProcessing},
		{1, model.JobStatusFailed},
		{2, model.JobStatusCompleted},
		{3, model.JobStatusQueuing},
		{4, model.JobStatusExpired},
	}
	for _, tt := range tests {
		core, logs := observer.New(zapcore.WarnLevel)
		assert.Equal(t, tt.want, MapVendorStatus(tt.code, zap.New(core)), "code %d", tt.code)
		assert.Zero(t, logs.Len(), "known code %d must not warn", tt.code)
	}
}

func TestMapVendorStatus_UnknownCodeWarns(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	got := MapVendorStatus(99, zap.New(core))

	assert.Equal(t, model.JobStatusProcessing, got)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "unknown vendor status", entry.Message)
	assert.Equal(t, int64(99), entry.ContextMap()["code"])
}

func TestMapVendorStatus_NilLogger(t *testing.T) {
	assert.Equal(t, model.JobStatusProcessing, MapVendorStatus(-7, nil))
}
