// Package session persists browser cookies per account identity so a
// later run can skip interactive login. Every operation is best-effort:
// a failed load or save is logged and reads back as "no session", never
// as a workflow error.
package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kraig/internal/interfaces"
	"github.com/ternarybob/kraig/internal/models"
)

// Store owns the on-disk cookie record for one account identity.
// Concurrent runs for the same identity are not coordinated; the last
// writer wins.
type Store struct {
	identity string
	path     string
	logger   arbor.ILogger
}

// NewStore creates a cookie store for the given identity rooted at dir.
func NewStore(dir, identity string, logger arbor.ILogger) *Store {
	return &Store{
		identity: identity,
		path:     filepath.Join(dir, KeyFor(identity)+".json"),
		logger:   logger,
	}
}

// KeyFor maps an arbitrary identity string to a filesystem-safe key.
// Characters outside the allow-list (alphanumerics, '-', '_', '.') are
// replaced with '_'. Deterministic; identities differing only in
// disallowed characters may collide.
func KeyFor(identity string) string {
	var b strings.Builder
	for _, ch := range strings.TrimSpace(identity) {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
			b.WriteRune(ch)
		case ch == '-', ch == '_', ch == '.':
			b.WriteRune(ch)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// Path returns the cookie file path for this identity.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted cookie record. A missing or malformed record
// is logged and returned as absent (nil, false), never as an error.
func (s *Store) Load() ([]models.Cookie, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("Failed to read cookie file, treating as absent")
		}
		return nil, false
	}

	var cookies []models.Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("Malformed cookie file, treating as absent")
		return nil, false
	}

	s.logger.Info().Int("cookie_count", len(cookies)).Str("path", s.path).Msg("Loaded persisted session cookies")
	return cookies, true
}

// Restore loads the persisted record and injects it into the live
// browser. Returns true only if a record existed and injection
// succeeded.
func (s *Store) Restore(ctx context.Context, browser interfaces.Browser) bool {
	cookies, ok := s.Load()
	if !ok {
		return false
	}
	if err := browser.SetCookies(ctx, cookies); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to inject persisted cookies into browser")
		return false
	}
	return true
}

// Save captures the current cookie set from the live browser and writes
// it, replacing any prior record. An empty capture still writes an
// empty record. Failures are logged and swallowed.
func (s *Store) Save(ctx context.Context, browser interfaces.Browser) {
	cookies, err := browser.Cookies(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to capture cookies from browser, nothing saved")
		return
	}
	s.write(cookies)
}

// write persists the given cookie set verbatim.
func (s *Store) write(cookies []models.Cookie) {
	if cookies == nil {
		cookies = []models.Cookie{}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("Failed to create cookie directory")
		return
	}

	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to marshal cookies")
		return
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("Failed to write cookie file")
		return
	}

	s.logger.Info().Int("cookie_count", len(cookies)).Str("path", s.path).Msg("Saved session cookies")
}

// Finalize performs the unconditional best-effort save during shutdown.
// It must never fail the caller.
func (s *Store) Finalize(ctx context.Context, browser interfaces.Browser) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn().Str("panic", "recovered").Msg("Final cookie save panicked, ignoring")
		}
	}()
	s.logger.Debug().Msg("Final cookie save before shutdown")
	s.Save(ctx, browser)
}
