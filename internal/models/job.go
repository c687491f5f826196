package models

import "time"

// JobStatus tracks a posting job's lifecycle in the web variant.
type JobStatus string

const (
	JobStatusRunning  JobStatus = "running"
	JobStatusComplete JobStatus = "complete"
	JobStatusFailed   JobStatus = "failed"
)

// PostingJob is one isolated posting run launched by the web server.
// Each job owns its own working directory, hand-off file, and log queue;
// no state is shared between jobs.
type PostingJob struct {
	ID            string       `json:"id"`
	Status        JobStatus    `json:"status"`
	CreatedAt     time.Time    `json:"created_at"`
	CompletedAt   time.Time    `json:"completed_at,omitempty"`
	ExitCode      int          `json:"exit_code"`
	Dir           string       `json:"dir"`
	MagicLinkFile string       `json:"magic_link_file"`
	Draft         ListingDraft `json:"draft"`
}
