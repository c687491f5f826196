// Package handlers implements the web frontend: photo analysis, listing
// suggestion, job launch, and the live log stream.
package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/ternarybob/kraig/internal/models"
)

// sessionImage carries an uploaded photo through form round-trips as
// base64. Images never touch disk until a posting job is created.
type sessionImage struct {
	Filename string `json:"filename"`
	Mimetype string `json:"mimetype"`
	Bytes    string `json:"bytes"`
}

// sessionPayload is the state threaded through the analyze, choose,
// and post steps via a hidden form field. It is user-controlled input
// and is re-validated at every step.
type sessionPayload struct {
	PerImage [][]models.LabelGuess     `json:"per_image,omitempty"`
	Combined []models.WeightedLabel    `json:"combined,omitempty"`
	Images   []sessionImage            `json:"images"`
	Email    string                    `json:"email"`
	Address  string                    `json:"address"`
	Result   *models.ListingSuggestion `json:"result,omitempty"`
}

func (p *sessionPayload) encode() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode session payload: %w", err)
	}
	return string(data), nil
}

func decodeSessionPayload(raw string) (*sessionPayload, error) {
	if raw == "" {
		return nil, fmt.Errorf("missing session payload")
	}
	var payload sessionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("malformed session payload: %w", err)
	}
	return &payload, nil
}

// indexData is the template model for the single-page flow.
type indexData struct {
	ErrorMsg       string
	Categories     []string
	PerImage       [][]models.LabelGuess
	Combined       []models.WeightedLabel
	SessionPayload string
	Suggestion     *models.ListingSuggestion
	Preview        *models.ListingDraft
	PreviewCity    string
	PreviewPostal  string
	ImageCount     int
}
