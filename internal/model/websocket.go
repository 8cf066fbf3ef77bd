package model

// WebSocket message types
const (
	WSMessageTypeStatus = "status"
	WSMessageTypePing   = "ping"
	WSMessageTypePong   = "pong"
)

// WSMessage represents a generic WebSocket message
type WSMessage struct {
	Type string `json:"type"`
}

// WSStatusMessage is pushed whenever a job changes status
type WSStatusMessage struct {
	Type     string     `json:"type"`
	JobID    string     `json:"jobId"`
	Previous JobStatus  `json:"previous"`
	Job      *JobRecord `json:"job"`
}
