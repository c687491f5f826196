package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$250", formatPrice(250))
	assert.Equal(t, "$249.99", formatPrice(249.99))
	assert.Equal(t, "$99.5", formatPrice(99.50))
}

func TestSellingPriceInt(t *testing.T) {
	assert.Equal(t, 123, SellingPriceInt("$123"))
	assert.Equal(t, 199, SellingPriceInt(" $199.99 "))
	assert.Equal(t, 0, SellingPriceInt("N/A"))
	assert.Equal(t, 0, SellingPriceInt(""))
	assert.Equal(t, 0, SellingPriceInt("call for price"))
}

func TestParseGuesses(t *testing.T) {
	guesses := parseGuesses("```json\n{\"guesses\": [{\"label\": \"Meta Quest Pro\", \"confidence\": 0.9}, {\"label\": \"Meta Quest 2\", \"confidence\": 0.1}]}\n```")
	require.Len(t, guesses, 2)
	assert.Equal(t, "Meta Quest Pro", guesses[0].Label)
	assert.InDelta(t, 0.9, guesses[0].Confidence, 1e-9)

	assert.Nil(t, parseGuesses("not json at all"))
	assert.Nil(t, parseGuesses(`{"guesses": "wrong shape"}`))
}
