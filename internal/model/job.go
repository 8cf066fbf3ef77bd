package model

import "time"

// JobRecord is the local mirror of one vendor photogrammetry job
type JobRecord struct {
	ID            string     `json:"id"`
	SourceName    string     `json:"sourceName"`
	Title         string     `json:"title,omitempty"`
	Status        JobStatus  `json:"status"`
	SubmittedAt   time.Time  `json:"submittedAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	ModelURL      string     `json:"modelUrl,omitempty"`
	ThumbnailURL  string     `json:"thumbnailUrl,omitempty"`
	ErrorMessage  string     `json:"errorMessage,omitempty"`
	CalculateType int        `json:"calculateType,omitempty"`
	FileFormat    string     `json:"fileFormat,omitempty"`
}

// JobFields is a partial update. Nil fields are left untouched; nothing here
// can clear a previously stored value.
type JobFields struct {
	Status       *JobStatus
	CompletedAt  *time.Time
	ModelURL     *string
	ThumbnailURL *string
	ErrorMessage *string
}

// JobDefaults holds values written only when a record is first created.
type JobDefaults struct {
	SourceName    string
	Title         string
	SubmittedAt   time.Time
	CalculateType int
	FileFormat    string
}

// Apply merges f into r. UpdatedAt is the caller's responsibility.
func (f JobFields) Apply(r *JobRecord) {
	if f.Status != nil {
		r.Status = *f.Status
	}
	if f.CompletedAt != nil {
		t := *f.CompletedAt
		r.CompletedAt = &t
	}
	if f.ModelURL != nil && *f.ModelURL != "" {
		r.ModelURL = *f.ModelURL
	}
	if f.ThumbnailURL != nil && *f.ThumbnailURL != "" {
		r.ThumbnailURL = *f.ThumbnailURL
	}
	if f.ErrorMessage != nil {
		r.ErrorMessage = *f.ErrorMessage
	}
}

// NewJobRecord builds the record written on the insert path of an upsert.
func NewJobRecord(id string, fields JobFields, defaults JobDefaults, now time.Time) *JobRecord {
	submitted := defaults.SubmittedAt
	if submitted.IsZero() {
		submitted = now
	}
	title := defaults.Title
	if title == "" {
		title = defaults.SourceName
	}

	r := &JobRecord{
		ID:            id,
		SourceName:    defaults.SourceName,
		Title:         title,
		Status:        JobStatusUploading,
		SubmittedAt:   submitted.UTC(),
		CalculateType: defaults.CalculateType,
		FileFormat:    defaults.FileFormat,
	}
	fields.Apply(r)
	r.UpdatedAt = now.UTC()
	return r
}

// StatusPtr is a small helper for building JobFields.
func StatusPtr(s JobStatus) *JobStatus {
	return &s
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
