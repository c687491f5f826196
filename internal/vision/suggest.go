package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/ternarybob/kraig/internal/interfaces"
	"github.com/ternarybob/kraig/internal/llm"
	"github.com/ternarybob/kraig/internal/models"
)

const suggestSystem = `You are a Craigslist listing generator.
TASKS:
1) Estimate a reasonable US market price for the given product name (used-good condition) and include a couple of sources.
2) Write a short Craigslist-style description (2-4 sentences).
Return JSON only with keys: {"label":string,"market_price":number,"description":string,"sources":[{"title":string,"url":string}]}.`

// Suggest generates listing content for the chosen label: estimated
// market price, an asking price at 80% of market, a short description,
// and the classified category. Generation failures degrade to "N/A"
// placeholders rather than errors; the user edits the preview anyway.
func (a *Analyzer) Suggest(ctx context.Context, label string) models.ListingSuggestion {
	suggestion := models.ListingSuggestion{
		Label:        label,
		ListingID:    uuid.New().String()[:8],
		MarketPrice:  "N/A",
		SellingPrice: "N/A",
		Description:  "Could not fetch details.",
	}

	resp, err := a.factory.GenerateContent(ctx, &llm.ContentRequest{
		Messages: []interfaces.Message{
			{Role: "system", Content: suggestSystem},
			{Role: "user", Content: fmt.Sprintf("Product: %s. Return strict JSON only.", label)},
		},
		ForceJSON: true,
	})
	if err != nil {
		a.logger.Warn().Err(err).Str("label", label).Msg("Listing suggestion failed")
		suggestion.Category = a.ClassifyCategory(ctx, label)
		return suggestion
	}

	raw, jsonErr := llm.ExtractJSONObject(resp.Text)
	if jsonErr == nil {
		var payload struct {
			Label       string          `json:"label"`
			MarketPrice json.Number     `json:"market_price"`
			Description string          `json:"description"`
			Sources     []models.Source `json:"sources"`
		}
		if json.Unmarshal([]byte(raw), &payload) == nil {
			if l := strings.TrimSpace(payload.Label); l != "" {
				suggestion.Label = l
			}
			if market, err := payload.MarketPrice.Float64(); err == nil && market > 0 {
				suggestion.MarketPrice = formatPrice(market)
				suggestion.SellingPrice = fmt.Sprintf("$%d", int(market*0.8))
			}
			if d := strings.TrimSpace(payload.Description); d != "" {
				suggestion.Description = d
			}
			for _, s := range payload.Sources {
				if len(suggestion.Sources) == 5 {
					break
				}
				if s.Title == "" || s.URL == "" {
					continue
				}
				if len(s.Title) > 140 {
					s.Title = s.Title[:140]
				}
				suggestion.Sources = append(suggestion.Sources, s)
			}
		}
	}

	suggestion.Category = a.ClassifyCategory(ctx, suggestion.Label)
	return suggestion
}

// formatPrice renders a market price with trailing zeros trimmed, the
// way a human would write it ("$249.99", "$250").
func formatPrice(value float64) string {
	s := strconv.FormatFloat(value, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return "$" + s
}

// SellingPriceInt converts a "$123" display price to a whole-dollar
// integer for the posting draft. Unknown prices come back as 0.
func SellingPriceInt(display string) int {
	s := strings.TrimSpace(strings.ReplaceAll(display, "$", ""))
	if s == "" || s == "N/A" {
		return 0
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}
