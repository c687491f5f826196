package models

import "strings"

// LabelGuess is one ranked product identification from the vision model.
type LabelGuess struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"` // clamped to [0,1]
}

// WeightedLabel is a label with its combined cross-image weight.
type WeightedLabel struct {
	Label  string  `json:"label"`
	Weight float64 `json:"weight"`
}

// ListingSuggestion is the generated listing content for a chosen label.
type ListingSuggestion struct {
	Label        string   `json:"label"`
	ListingID    string   `json:"listing_id"`
	MarketPrice  string   `json:"market_price"`  // display string, "N/A" when unknown
	SellingPrice string   `json:"selling_price"` // display string, 80% of market
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	Sources      []Source `json:"sources,omitempty"`
}

// Source is a reference backing a price estimate.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// CanonicalLabel normalizes a label for cross-image deduplication:
// lowercased, trimmed, internal whitespace squashed.
func CanonicalLabel(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), " ")
}

// CombineGuesses merges per-image guess lists into a single ranking.
// Each image's confidences are normalized to sum to 1 so every photo
// contributes equal weight, then weights are summed per canonical label.
// Returns the top N labels by weight, preserving the first-seen display
// form of each label.
func CombineGuesses(perImage [][]LabelGuess, topN int) []WeightedLabel {
	weights := make(map[string]float64)
	display := make(map[string]string)
	var order []string

	for _, guesses := range perImage {
		var sum float64
		for _, g := range guesses {
			sum += g.Confidence
		}
		if sum == 0 {
			sum = 1
		}
		for _, g := range guesses {
			key := CanonicalLabel(g.Label)
			if _, seen := weights[key]; !seen {
				display[key] = g.Label
				order = append(order, key)
			}
			weights[key] += g.Confidence / sum
		}
	}

	combined := make([]WeightedLabel, 0, len(order))
	for _, key := range order {
		combined = append(combined, WeightedLabel{Label: display[key], Weight: weights[key]})
	}
	// Stable selection keeps first-seen order for equal weights
	for i := 0; i < len(combined); i++ {
		best := i
		for j := i + 1; j < len(combined); j++ {
			if combined[j].Weight > combined[best].Weight {
				best = j
			}
		}
		combined[i], combined[best] = combined[best], combined[i]
	}
	if topN > 0 && len(combined) > topN {
		combined = combined[:topN]
	}
	return combined
}
