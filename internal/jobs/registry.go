package jobs

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kraig/internal/common"
	"github.com/ternarybob/kraig/internal/models"
)

// JobImage is an uploaded photo to be written into the job directory.
type JobImage struct {
	Filename string
	Data     []byte
}

// Registry owns every live job. It is passed explicitly to the
// handlers that need it; there is no package-level instance.
type Registry struct {
	config *common.Config
	logger arbor.ILogger
	ttl    time.Duration

	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewRegistry creates a job registry. Completed jobs expire after the
// configured TTL; running jobs never expire.
func NewRegistry(config *common.Config, logger arbor.ILogger) *Registry {
	ttl, err := time.ParseDuration(config.Web.JobTTL)
	if err != nil || ttl <= 0 {
		ttl = time.Hour
	}
	return &Registry{
		config: config,
		logger: logger,
		ttl:    ttl,
		jobs:   make(map[string]*Job),
	}
}

// Get looks a job up by ID.
func (r *Registry) Get(id string) (*Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	return job, ok
}

// List returns snapshots of all registered jobs.
func (r *Registry) List() []models.PostingJob {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.PostingJob, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, job.Snapshot())
	}
	return out
}

// Start materializes a job directory, writes the images and an empty
// magic-link hand-off file, and launches the posting agent subprocess.
func (r *Registry) Start(draft models.ListingDraft, images []JobImage) (*Job, error) {
	jobID := uuid.New().String()[:8]
	jobDir, err := filepath.Abs(filepath.Join(r.config.Web.JobsDir, jobID))
	if err != nil {
		return nil, fmt.Errorf("resolve job dir: %w", err)
	}
	if err := os.MkdirAll(jobDir, 0755); err != nil {
		return nil, fmt.Errorf("create job dir: %w", err)
	}

	imagePaths, err := writeJobImages(jobDir, images)
	if err != nil {
		return nil, err
	}
	if len(imagePaths) == 0 {
		return nil, fmt.Errorf("no images available to post")
	}
	draft.Images = imagePaths

	magicLinkFile := filepath.Join(jobDir, "magic_link.txt")
	if err := os.WriteFile(magicLinkFile, nil, 0644); err != nil {
		return nil, fmt.Errorf("create magic link file: %w", err)
	}

	job := newJob(jobID, jobDir, magicLinkFile, draft)

	r.mu.Lock()
	r.jobs[jobID] = job
	r.mu.Unlock()

	go r.runAgent(job)

	r.logger.Info().Str("job_id", jobID).Str("title", draft.Title).Msg("Posting job started")
	return job, nil
}

// runAgent launches the agent binary and pumps its output into the
// job's log stream until it exits.
func (r *Registry) runAgent(job *Job) {
	cmd := exec.Command(r.config.Web.AgentBinary)
	cmd.Dir = job.Dir
	cmd.Env = r.agentEnv(job)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		job.appendLine(fmt.Sprintf("[web] Failed to start agent: %v", err))
		job.finish(-1)
		return
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		job.appendLine(fmt.Sprintf("[web] Failed to start agent: %v", err))
		job.finish(-1)
		return
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		job.appendLine(scanner.Text())
	}

	exitCode := 0
	if err := cmd.Wait(); err != nil {
		exitCode = -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
	}

	job.appendLine(fmt.Sprintf("[web] Agent exited with code %d", exitCode))
	job.finish(exitCode)

	r.logger.Info().Str("job_id", job.ID).Int("exit_code", exitCode).Msg("Posting job finished")
	r.scheduleExpiry(job)
}

// agentEnv builds the subprocess environment: the parent environment
// (API keys, PATH) plus the draft expressed as KRAIG_ variables. The
// web process never parses agent config; the env is the contract.
func (r *Registry) agentEnv(job *Job) []string {
	env := os.Environ()
	draft := job.Draft
	env = append(env,
		"KRAIG_EMAIL="+draft.Email,
		"KRAIG_CATEGORY="+draft.Category,
		"KRAIG_TITLE="+draft.Title,
		"KRAIG_CONDITION="+draft.Condition,
		"KRAIG_PRICE="+strconv.Itoa(draft.Price),
		"KRAIG_ADDRESS="+draft.Address,
		"KRAIG_DESCRIPTION="+draft.Description,
		"KRAIG_IMAGES="+strings.Join(draft.Images, ","),
		"KRAIG_MAGIC_LINK_FILE="+job.MagicLinkFile,
		"KRAIG_SESSION_DIR="+r.config.Session.Dir,
	)
	if os.Getenv("KRAIG_HEADLESS") == "" {
		env = append(env, "KRAIG_HEADLESS=false")
	}
	if os.Getenv("KRAIG_HIGHLIGHT") == "" {
		env = append(env, "KRAIG_HIGHLIGHT=true")
	}
	return env
}

// SubmitMagicLink writes the pasted login link into the job's hand-off
// file, where the agent's broker is polling for it.
func (r *Registry) SubmitMagicLink(jobID, link string) error {
	job, ok := r.Get(jobID)
	if !ok {
		return fmt.Errorf("unknown job ID %s", jobID)
	}
	if err := os.WriteFile(job.MagicLinkFile, []byte(strings.TrimSpace(link)), 0644); err != nil {
		return fmt.Errorf("write magic link: %w", err)
	}
	r.logger.Info().Str("job_id", jobID).Msg("Magic link submitted")
	return nil
}

// scheduleExpiry drops a completed job from the registry after the TTL
// so the map does not grow without bound. The job directory on disk is
// kept for inspection.
func (r *Registry) scheduleExpiry(job *Job) {
	time.AfterFunc(r.ttl, func() {
		r.mu.Lock()
		delete(r.jobs, job.ID)
		r.mu.Unlock()
		r.logger.Debug().Str("job_id", job.ID).Msg("Expired completed job from registry")
	})
}

// writeJobImages persists uploaded photos into the job's images
// directory with sanitized names, returning absolute paths.
func writeJobImages(jobDir string, images []JobImage) ([]string, error) {
	imgDir := filepath.Join(jobDir, "images")
	if err := os.MkdirAll(imgDir, 0755); err != nil {
		return nil, fmt.Errorf("create images dir: %w", err)
	}

	var paths []string
	for i, img := range images {
		if len(img.Data) == 0 {
			continue
		}
		name := sanitizeFilename(img.Filename)
		if name == "" {
			name = fmt.Sprintf("image_%d.jpg", i+1)
		}
		path := filepath.Join(imgDir, name)
		if err := os.WriteFile(path, img.Data, 0644); err != nil {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// sanitizeFilename keeps alphanumerics, dots, underscores, and
// hyphens, capped at 64 characters.
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, ch := range name {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
			b.WriteRune(ch)
		case ch == '.', ch == '_', ch == '-':
			b.WriteRune(ch)
		}
		if b.Len() == 64 {
			break
		}
	}
	return b.String()
}

// DecodeImage is a convenience for handlers carrying images through
// form round-trips as base64.
func DecodeImage(filename, b64 string) (JobImage, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return JobImage{}, fmt.Errorf("decode image %s: %w", filename, err)
	}
	return JobImage{Filename: filename, Data: data}, nil
}
