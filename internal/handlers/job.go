package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kraig/internal/jobs"
	"github.com/ternarybob/kraig/internal/models"
	"github.com/ternarybob/kraig/internal/templates"
	"github.com/ternarybob/kraig/internal/vision"
)

// JobHandler launches posting jobs and serves the job monitoring page.
type JobHandler struct {
	registry *jobs.Registry
	logger   arbor.ILogger
}

// NewJobHandler creates the job handler.
func NewJobHandler(registry *jobs.Registry, logger arbor.ILogger) *JobHandler {
	return &JobHandler{registry: registry, logger: logger}
}

// PostListingHandler starts the posting agent for the previewed
// listing and redirects to the job page.
func (h *JobHandler) PostListingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	payload, err := decodeSessionPayload(r.FormValue("session_payload"))
	if err != nil || payload.Result == nil {
		h.renderError(w, "Missing session payload; please start over.")
		return
	}

	var images []jobs.JobImage
	for _, img := range payload.Images {
		decoded, err := jobs.DecodeImage(img.Filename, img.Bytes)
		if err != nil {
			continue
		}
		images = append(images, decoded)
	}

	draft := models.ListingDraft{
		Email:       payload.Email,
		Category:    payload.Result.Category,
		Title:       payload.Result.Label,
		Condition:   defaultCondition,
		Price:       vision.SellingPriceInt(payload.Result.SellingPrice),
		Address:     payload.Address,
		Description: payload.Result.Description,
	}
	if draft.Title == "" {
		draft.Title = "For sale"
	}
	if draft.Category == "" {
		draft.Category = "general for sale"
	}
	if draft.Description == "" {
		draft.Description = "Great condition. Pickup only."
	}

	job, err := h.registry.Start(draft, images)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to start posting job")
		h.renderError(w, "Failed to start job: "+err.Error())
		return
	}

	http.Redirect(w, r, "/job/"+job.ID, http.StatusSeeOther)
}

// JobPageHandler renders the live monitoring page for one job.
func (h *JobHandler) JobPageHandler(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimPrefix(r.URL.Path, "/job/")
	if _, ok := h.registry.Get(jobID); !ok {
		h.renderError(w, "Unknown job ID.")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Render(w, "job.html", struct{ JobID string }{JobID: jobID}); err != nil {
		h.logger.Error().Err(err).Msg("Template render failed")
	}
}

// SubmitMagicLinkHandler writes the pasted login link into the job's
// hand-off file and returns to the job page.
func (h *JobHandler) SubmitMagicLinkHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jobID := strings.TrimPrefix(r.URL.Path, "/submit_magic_link/")
	link := strings.TrimSpace(r.FormValue("magic_link"))
	if err := h.registry.SubmitMagicLink(jobID, link); err != nil {
		h.renderError(w, err.Error())
		return
	}

	http.Redirect(w, r, "/job/"+jobID, http.StatusSeeOther)
}

func (h *JobHandler) renderError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Render(w, "index.html", indexData{ErrorMsg: msg, Categories: vision.Categories}); err != nil {
		h.logger.Error().Err(err).Msg("Template render failed")
	}
}
