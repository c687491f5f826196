// Package vision turns product photos into listing content: per-image
// identification guesses, a cross-image combined ranking, category
// classification, and price/description generation.
package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kraig/internal/interfaces"
	"github.com/ternarybob/kraig/internal/llm"
	"github.com/ternarybob/kraig/internal/models"
)

// Photo is one uploaded image with its metadata.
type Photo struct {
	Filename string
	MIMEType string
	Data     []byte
}

// Analyzer runs the photo analysis pipeline against the configured
// model provider.
type Analyzer struct {
	factory *llm.ProviderFactory
	logger  arbor.ILogger
}

// NewAnalyzer creates a photo analyzer.
func NewAnalyzer(factory *llm.ProviderFactory, logger arbor.ILogger) *Analyzer {
	return &Analyzer{factory: factory, logger: logger}
}

const identifySystem = `You identify retail products from a single image.
Return EXACT JSON with keys: guesses: [{label, confidence} x3].
Label must be 'Brand Model Variant' if possible (e.g., 'Meta Quest Pro').
Confidence is 0..1. If unsure, include best-guess labels with lower confidence.`

const identifyPrompt = "Identify the item in this photo. Return your top 3 distinct guesses with confidences."

// TopGuesses identifies one photo, returning exactly three guesses.
// Confidences are clamped to [0,1]; short lists are padded with
// zero-confidence Unknown entries so every image carries equal weight
// in the combined ranking.
func (a *Analyzer) TopGuesses(ctx context.Context, photo Photo) []models.LabelGuess {
	mime := photo.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}

	resp, err := a.factory.GenerateContent(ctx, &llm.ContentRequest{
		Messages: []interfaces.Message{
			{Role: "system", Content: identifySystem},
			{Role: "user", Content: identifyPrompt},
		},
		Images:    []llm.ImageAttachment{{MIMEType: mime, Data: photo.Data}},
		ForceJSON: true,
	})

	var guesses []models.LabelGuess
	if err != nil {
		a.logger.Warn().Err(err).Str("filename", photo.Filename).Msg("Vision identification failed")
	} else {
		guesses = parseGuesses(resp.Text)
		if len(guesses) == 0 {
			a.logger.Warn().Str("filename", photo.Filename).Msg("Vision response had no usable guesses")
		}
	}

	clean := make([]models.LabelGuess, 0, 3)
	for _, g := range guesses {
		if len(clean) == 3 {
			break
		}
		label := strings.TrimSpace(g.Label)
		if label == "" {
			continue
		}
		if len(label) > 140 {
			label = label[:140]
		}
		conf := g.Confidence
		if conf < 0 {
			conf = 0
		}
		if conf > 1 {
			conf = 1
		}
		clean = append(clean, models.LabelGuess{Label: label, Confidence: conf})
	}
	for len(clean) < 3 {
		clean = append(clean, models.LabelGuess{Label: "Unknown", Confidence: 0})
	}
	return clean
}

// AnalyzeImages identifies every photo and combines the guesses into a
// top-3 cross-image ranking.
func (a *Analyzer) AnalyzeImages(ctx context.Context, photos []Photo) (perImage [][]models.LabelGuess, combined []models.WeightedLabel) {
	for _, photo := range photos {
		perImage = append(perImage, a.TopGuesses(ctx, photo))
	}
	combined = models.CombineGuesses(perImage, 3)
	return perImage, combined
}

func parseGuesses(text string) []models.LabelGuess {
	raw, err := llm.ExtractJSONObject(text)
	if err != nil {
		return nil
	}
	var payload struct {
		Guesses []models.LabelGuess `json:"guesses"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}
	return payload.Guesses
}

// ClassifyCategory picks the single closest Craigslist category for an
// item label. Model answer first, keyword heuristics if the model
// fails or answers off-list.
func (a *Analyzer) ClassifyCategory(ctx context.Context, label string) string {
	system := "You are a marketplace category classifier for Craigslist.\n" +
		"Given only an item name, choose the SINGLE closest category from the provided list.\n" +
		"Return JSON only: {\"category\":\"<one>\"}."

	var list strings.Builder
	for _, c := range Categories {
		list.WriteString("- ")
		list.WriteString(c)
		list.WriteString("\n")
	}
	user := fmt.Sprintf("Item name: %s\n\nChoose a category from this list:\n%s\nReturn JSON only.", label, list.String())

	resp, err := a.factory.GenerateContent(ctx, &llm.ContentRequest{
		Messages: []interfaces.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ForceJSON: true,
	})
	if err != nil {
		a.logger.Warn().Err(err).Str("label", label).Msg("Category classification failed, using keyword fallback")
		return keywordCategory(label)
	}

	if raw, err := llm.ExtractJSONObject(resp.Text); err == nil {
		var payload struct {
			Category string `json:"category"`
		}
		if json.Unmarshal([]byte(raw), &payload) == nil {
			if category, ok := matchCategory(payload.Category); ok {
				return category
			}
		}
	}

	return keywordCategory(label)
}
