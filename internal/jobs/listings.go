package jobs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kraig/internal/models"
)

// ListingRecord is the persisted audit trail of a generated listing,
// written when the user confirms a suggestion.
type ListingRecord struct {
	CreatedAt time.Time                `json:"created_at"`
	Result    models.ListingSuggestion `json:"result"`
	Email     string                   `json:"email"`
	Address   string                   `json:"address"`
	Preview   models.ListingDraft      `json:"preview"`
}

// ListingStore persists listing records, one directory per listing ID.
// Saving is best-effort; a failed write is logged and ignored.
type ListingStore struct {
	dir    string
	logger arbor.ILogger
}

// NewListingStore creates a listing record store rooted at dir.
func NewListingStore(dir string, logger arbor.ILogger) *ListingStore {
	return &ListingStore{dir: dir, logger: logger}
}

// Save writes the record to <dir>/<listing_id>/meta.json.
func (s *ListingStore) Save(record ListingRecord) {
	listingDir := filepath.Join(s.dir, record.Result.ListingID)
	if err := os.MkdirAll(listingDir, 0755); err != nil {
		s.logger.Warn().Err(err).Str("listing_id", record.Result.ListingID).Msg("Failed to create listing directory")
		return
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to marshal listing record")
		return
	}
	if err := os.WriteFile(filepath.Join(listingDir, "meta.json"), data, 0644); err != nil {
		s.logger.Warn().Err(err).Str("listing_id", record.Result.ListingID).Msg("Failed to write listing record")
	}
}
