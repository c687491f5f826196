package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalLabel(t *testing.T) {
	assert.Equal(t, "meta quest pro", CanonicalLabel("  Meta   Quest Pro "))
	assert.Equal(t, "iphone 13", CanonicalLabel("iPhone 13"))
	assert.Equal(t, "", CanonicalLabel("   "))
}

func TestCombineGuesses_NormalizesPerImage(t *testing.T) {
	// Image one is confident, image two is not; after per-image
	// normalization both images contribute a total weight of 1
	perImage := [][]LabelGuess{
		{
			{Label: "Meta Quest Pro", Confidence: 0.8},
			{Label: "Meta Quest 2", Confidence: 0.2},
		},
		{
			{Label: "meta quest pro", Confidence: 0.1},
			{Label: "VR Headset", Confidence: 0.1},
		},
	}

	combined := CombineGuesses(perImage, 3)
	require.Len(t, combined, 3)

	assert.Equal(t, "Meta Quest Pro", combined[0].Label)
	assert.InDelta(t, 1.3, combined[0].Weight, 1e-9)
	assert.InDelta(t, 0.5, combined[1].Weight, 1e-9)
}

func TestCombineGuesses_ZeroConfidenceImage(t *testing.T) {
	perImage := [][]LabelGuess{
		{
			{Label: "Unknown", Confidence: 0},
			{Label: "Unknown", Confidence: 0},
		},
	}

	combined := CombineGuesses(perImage, 3)
	require.Len(t, combined, 1)
	assert.Equal(t, "Unknown", combined[0].Label)
	assert.Equal(t, 0.0, combined[0].Weight)
}

func TestCombineGuesses_TopN(t *testing.T) {
	perImage := [][]LabelGuess{
		{
			{Label: "A", Confidence: 0.5},
			{Label: "B", Confidence: 0.3},
			{Label: "C", Confidence: 0.1},
			{Label: "D", Confidence: 0.1},
		},
	}

	combined := CombineGuesses(perImage, 3)
	require.Len(t, combined, 3)
	assert.Equal(t, "A", combined[0].Label)
}

func TestCombineGuesses_KeepsFirstSeenDisplayForm(t *testing.T) {
	perImage := [][]LabelGuess{
		{{Label: "iPhone 13", Confidence: 1}},
		{{Label: "IPHONE 13", Confidence: 1}},
	}

	combined := CombineGuesses(perImage, 3)
	require.Len(t, combined, 1)
	assert.Equal(t, "iPhone 13", combined[0].Label)
	assert.InDelta(t, 2.0, combined[0].Weight, 1e-9)
}

func TestCombineGuesses_Empty(t *testing.T) {
	assert.Empty(t, CombineGuesses(nil, 3))
}
