package handlers

import (
	"encoding/base64"
	"io"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kraig/internal/jobs"
	"github.com/ternarybob/kraig/internal/models"
	"github.com/ternarybob/kraig/internal/templates"
	"github.com/ternarybob/kraig/internal/vision"
)

const (
	requiredPhotoCount = 4
	maxUploadBytes     = 32 << 20
	defaultCondition   = "like new"
)

// FormHandler serves the listing creation flow: photo analysis, label
// choice, and the posting preview.
type FormHandler struct {
	analyzer *vision.Analyzer
	listings *jobs.ListingStore
	logger   arbor.ILogger
}

// NewFormHandler creates the listing form handler.
func NewFormHandler(analyzer *vision.Analyzer, listings *jobs.ListingStore, logger arbor.ILogger) *FormHandler {
	return &FormHandler{analyzer: analyzer, listings: listings, logger: logger}
}

// IndexHandler renders the start page.
func (h *FormHandler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	h.render(w, indexData{})
}

// AnalyzeHandler accepts the email, address, and exactly four photos,
// runs per-photo identification, and renders the combined ranking.
func (h *FormHandler) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.render(w, indexData{ErrorMsg: "Upload too large or malformed."})
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	address := strings.TrimSpace(r.FormValue("address"))
	if email == "" || address == "" {
		h.render(w, indexData{ErrorMsg: "Please provide email and full address."})
		return
	}

	files := r.MultipartForm.File["images"]
	if len(files) != requiredPhotoCount {
		h.render(w, indexData{ErrorMsg: "Please select exactly 4 images in a single selection."})
		return
	}

	var photos []vision.Photo
	var images []sessionImage
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			h.render(w, indexData{ErrorMsg: "Could not read an uploaded image."})
			return
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			h.render(w, indexData{ErrorMsg: "Could not read an uploaded image."})
			return
		}
		mime := header.Header.Get("Content-Type")
		photos = append(photos, vision.Photo{Filename: header.Filename, MIMEType: mime, Data: data})
		images = append(images, sessionImage{
			Filename: header.Filename,
			Mimetype: mime,
			Bytes:    base64.StdEncoding.EncodeToString(data),
		})
	}

	perImage, combined := h.analyzer.AnalyzeImages(r.Context(), photos)

	payload := &sessionPayload{
		PerImage: perImage,
		Combined: combined,
		Images:   images,
		Email:    email,
		Address:  address,
	}
	encoded, err := payload.encode()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode session payload")
		h.render(w, indexData{ErrorMsg: "Internal error, please start over."})
		return
	}

	h.render(w, indexData{
		PerImage:       perImage,
		Combined:       combined,
		SessionPayload: encoded,
		ImageCount:     len(images),
	})
}

// ChooseHandler takes the selected label, generates listing content,
// and renders the posting preview.
func (h *FormHandler) ChooseHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	payload, err := decodeSessionPayload(r.FormValue("session_payload"))
	if err != nil {
		h.render(w, indexData{ErrorMsg: "Missing session payload; please start over."})
		return
	}

	choice := r.FormValue("choice")
	other := strings.TrimSpace(r.FormValue("other_text"))
	label := choice
	if choice == "__other__" && other != "" {
		label = other
	}
	if label == "" || label == "__other__" {
		label = "Unknown"
	}

	suggestion := h.analyzer.Suggest(r.Context(), label)
	payload.Result = &suggestion

	city, postal := models.ParseCityPostal(payload.Address)
	preview := models.ListingDraft{
		Email:       payload.Email,
		Category:    suggestion.Category,
		Title:       suggestion.Label,
		Condition:   defaultCondition,
		Price:       vision.SellingPriceInt(suggestion.SellingPrice),
		Address:     payload.Address,
		Description: suggestion.Description,
	}

	h.listings.Save(jobs.ListingRecord{
		Result:  suggestion,
		Email:   payload.Email,
		Address: payload.Address,
		Preview: preview,
	})

	encoded, err := payload.encode()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode session payload")
		h.render(w, indexData{ErrorMsg: "Internal error, please start over."})
		return
	}

	h.render(w, indexData{
		Suggestion:     &suggestion,
		Preview:        &preview,
		PreviewCity:    city,
		PreviewPostal:  postal,
		SessionPayload: encoded,
		ImageCount:     len(payload.Images),
	})
}

func (h *FormHandler) render(w http.ResponseWriter, data indexData) {
	data.Categories = vision.Categories
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Render(w, "index.html", data); err != nil {
		h.logger.Error().Err(err).Msg("Template render failed")
	}
}
