package model

import "time"

// JobListResponse represents the dashboard job list
type JobListResponse struct {
	Jobs  []JobRecord `json:"jobs"`
	Count int         `json:"count"`
}

// Download link sources
const (
	DownloadSourceArchive = "archive"
	DownloadSourceVendor  = "vendor"
)

// DownloadLinkResponse points at a downloadable model archive
type DownloadLinkResponse struct {
	JobID     string     `json:"jobId"`
	URL       string     `json:"url"`
	Source    string     `json:"source"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// BalanceResponse represents the vendor account balance
type BalanceResponse struct {
	Balance float64 `json:"balance"`
}

// LoginRequest is the admin credential exchange
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=128"`
	Password string `json:"password" validate:"required,max=256"`
}

// LoginResponse carries the issued admin session token
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// WebhookPayload is the vendor push notification body
type WebhookPayload struct {
	Serialize    string      `json:"serialize"`
	Status       *VendorCode `json:"status"`
	ModelURL     string      `json:"modelUrl,omitempty"`
	ThumbnailURL string      `json:"thumbnailUrl,omitempty"`
	ErrorMessage string      `json:"errorMessage,omitempty"`
}
