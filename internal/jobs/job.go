// Package jobs manages posting runs launched by the web frontend. Each
// job is an isolated agent subprocess with its own working directory,
// magic-link hand-off file, and bounded log stream; nothing is shared
// between jobs.
package jobs

import (
	"sync"
	"time"

	"github.com/ternarybob/kraig/internal/models"
)

// logBuffer caps per-job log retention; the oldest lines are dropped
// once a slow or absent reader lets the stream fall this far behind.
const logBuffer = 1000

// Job is one live posting run.
type Job struct {
	ID            string
	Dir           string
	MagicLinkFile string
	Draft         models.ListingDraft
	CreatedAt     time.Time

	mu          sync.Mutex
	status      models.JobStatus
	exitCode    int
	completedAt time.Time
	lines       []string
	dropped     int
	subscribers map[chan string]struct{}
	done        chan struct{}
}

func newJob(id, dir, magicLinkFile string, draft models.ListingDraft) *Job {
	return &Job{
		ID:            id,
		Dir:           dir,
		MagicLinkFile: magicLinkFile,
		Draft:         draft,
		CreatedAt:     time.Now(),
		status:        models.JobStatusRunning,
		subscribers:   make(map[chan string]struct{}),
		done:          make(chan struct{}),
	}
}

// Status returns the job's current lifecycle state.
func (j *Job) Status() models.JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// ExitCode returns the agent process exit code, valid once the job is
// no longer running.
func (j *Job) ExitCode() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.exitCode
}

// CompletedAt returns when the job finished, zero while running.
func (j *Job) CompletedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.completedAt
}

// Done is closed when the agent process exits.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// appendLine records an output line and fans it out to subscribers.
// Subscribers that cannot keep up lose lines rather than blocking the
// process reader.
func (j *Job) appendLine(line string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if len(j.lines) >= logBuffer {
		j.lines = j.lines[1:]
		j.dropped++
	}
	j.lines = append(j.lines, line)

	for ch := range j.subscribers {
		select {
		case ch <- line:
		default:
		}
	}
}

// Subscribe returns the log history so far plus a channel delivering
// new lines. The caller must Unsubscribe when done.
func (j *Job) Subscribe() ([]string, chan string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	history := make([]string, len(j.lines))
	copy(history, j.lines)

	ch := make(chan string, 64)
	j.subscribers[ch] = struct{}{}
	return history, ch
}

// Unsubscribe removes a log listener.
func (j *Job) Unsubscribe(ch chan string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.subscribers, ch)
}

func (j *Job) finish(exitCode int) {
	j.mu.Lock()
	j.exitCode = exitCode
	j.completedAt = time.Now()
	if exitCode == 0 {
		j.status = models.JobStatusComplete
	} else {
		j.status = models.JobStatusFailed
	}
	j.mu.Unlock()
	close(j.done)
}

// Snapshot returns a serializable view of the job.
func (j *Job) Snapshot() models.PostingJob {
	j.mu.Lock()
	defer j.mu.Unlock()
	return models.PostingJob{
		ID:            j.ID,
		Status:        j.status,
		CreatedAt:     j.CreatedAt,
		CompletedAt:   j.completedAt,
		ExitCode:      j.exitCode,
		Dir:           j.Dir,
		MagicLinkFile: j.MagicLinkFile,
		Draft:         j.Draft,
	}
}
