package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Job status
type JobStatus string

const (
	JobStatusUploading  JobStatus = "uploading"
	JobStatusQueuing    JobStatus = "queuing"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusExpired    JobStatus = "expired"
)

var ActiveJobStatuses = []JobStatus{
	JobStatusUploading, JobStatusQueuing, JobStatusProcessing,
}

var TerminalJobStatuses = []JobStatus{
	JobStatusCompleted, JobStatusFailed, JobStatusExpired,
}

// IsTerminal reports whether no further transition is accepted from s.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusExpired:
		return true
	}
	return false
}

// Valid reports whether s is one of the known statuses.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusUploading, JobStatusQueuing, JobStatusProcessing,
		JobStatusCompleted, JobStatusFailed, JobStatusExpired:
		return true
	}
	return false
}

// Vendor (KIRI Engine) status codes
const (
	VendorStatusUploading  = -1
	VendorStatusProcessing = 0
	VendorStatusFailed     = 1
	VendorStatusCompleted  = 2
	VendorStatusQueuing    = 3
	VendorStatusExpired    = 4
)

// VendorCode is a vendor status code. The vendor sends it either as a JSON
// number or as a numeric string, so both are accepted; anything else is a
// decode error.
type VendorCode int

func (c *VendorCode) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		return fmt.Errorf("status code is null")
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid status code %q", raw)
	}
	*c = VendorCode(n)
	return nil
}

// Model quality levels accepted by the vendor
type ModelQuality string

const (
	ModelQualityHigh   ModelQuality = "0"
	ModelQualityMedium ModelQuality = "1"
	ModelQualityLow    ModelQuality = "2"
	ModelQualityUltra  ModelQuality = "3"
)

// Texture quality levels
type TextureQuality string

const (
	TextureQuality4K TextureQuality = "0"
	TextureQuality2K TextureQuality = "1"
	TextureQuality1K TextureQuality = "2"
	TextureQuality8K TextureQuality = "3"
)

// Output file formats
type FileFormat string

const (
	FileFormatOBJ  FileFormat = "obj"
	FileFormatFBX  FileFormat = "fbx"
	FileFormatSTL  FileFormat = "stl"
	FileFormatPLY  FileFormat = "ply"
	FileFormatGLB  FileFormat = "glb"
	FileFormatGLTF FileFormat = "gltf"
	FileFormatUSDZ FileFormat = "usdz"
	FileFormatXYZ  FileFormat = "xyz"
)

var ValidFileFormats = []FileFormat{
	FileFormatOBJ, FileFormatFBX, FileFormatSTL, FileFormatPLY,
	FileFormatGLB, FileFormatGLTF, FileFormatUSDZ, FileFormatXYZ,
}
