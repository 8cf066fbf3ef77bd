package service

import (
	"go.uber.org/zap"

	"github.com/scanvault/api/internal/model"
)

// MapVendorStatus converts a vendor status code into a local status.
// Unknown codes map to processing and are logged.
func MapVendorStatus(code int, logger *zap.Logger) model.JobStatus {
	switch code {
	case model.VendorStatusUploading:
		return model.JobStatusUploading
	case model.VendorStatusProcessing:
		return model.JobStatusProcessing
	case model.VendorStatusFailed:
		return model.JobStatusFailed
	case model.VendorStatusCompleted:
		return model.JobStatusCompleted
	case model.VendorStatusQueuing:
		return model.JobStatusQueuing
	case model.VendorStatusExpired:
		return model.JobStatusExpired
	}

	if logger != nil {
		logger.Warn("unknown vendor status", zap.Int("code", code))
	}
	return model.JobStatusProcessing
}
