package jobs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kraig/internal/models"
)

func TestListingStore_Save(t *testing.T) {
	dir := t.TempDir()
	store := NewListingStore(dir, arbor.NewLogger())

	store.Save(ListingRecord{
		Result: models.ListingSuggestion{
			Label:        "Meta Quest Pro",
			ListingID:    "abc12345",
			SellingPrice: "$640",
		},
		Email:   "seller@example.com",
		Address: "123 Main St, San Francisco, CA 94103",
	})

	data, err := os.ReadFile(filepath.Join(dir, "abc12345", "meta.json"))
	require.NoError(t, err)

	var record ListingRecord
	require.NoError(t, json.Unmarshal(data, &record))
	assert.Equal(t, "Meta Quest Pro", record.Result.Label)
	assert.Equal(t, "seller@example.com", record.Email)
	assert.False(t, record.CreatedAt.IsZero())
}
