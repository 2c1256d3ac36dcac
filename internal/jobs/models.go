package jobs

import "time"

// Status represents the lifecycle state of a job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether no further transitions are expected.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one persisted generation.
type Job struct {
	ID                 string    `json:"id"`
	Topic              string    `json:"topic"`
	Status             Status    `json:"status"`
	Stage              string    `json:"stage,omitempty"`
	OutputPath         string    `json:"output_path,omitempty"`
	PublishedURL       string    `json:"published_url,omitempty"`
	ErrorMessage       string    `json:"error_message,omitempty"`
	Attempts           int       `json:"attempts"`
	DurationSeconds    float64   `json:"duration_seconds,omitempty"`
	UnresolvedSegments int       `json:"unresolved_segments"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Completion carries the results recorded when a job succeeds.
type Completion struct {
	OutputPath         string
	PublishedURL       string
	DurationSeconds    float64
	UnresolvedSegments int
}
