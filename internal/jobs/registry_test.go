package jobs

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kraig/internal/common"
	"github.com/ternarybob/kraig/internal/models"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	config := common.NewDefaultConfig()
	config.Web.JobsDir = t.TempDir()
	config.Session.Dir = t.TempDir()
	return NewRegistry(config, arbor.NewLogger())
}

func testDraft() models.ListingDraft {
	return models.ListingDraft{
		Email:       "seller@example.com",
		Category:    "electronics",
		Title:       "Meta Quest Pro",
		Condition:   "like new",
		Price:       650,
		Address:     "123 Main St, San Francisco, CA 94103",
		Description: "Barely used.",
	}
}

func TestNewRegistry_TTL(t *testing.T) {
	config := common.NewDefaultConfig()
	config.Web.JobTTL = "30m"
	assert.Equal(t, 30*time.Minute, NewRegistry(config, arbor.NewLogger()).ttl)

	// Unparseable and non-positive values fall back to an hour
	config.Web.JobTTL = "soon"
	assert.Equal(t, time.Hour, NewRegistry(config, arbor.NewLogger()).ttl)
	config.Web.JobTTL = "-5m"
	assert.Equal(t, time.Hour, NewRegistry(config, arbor.NewLogger()).ttl)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "photo_1.jpg", sanitizeFilename("photo_1.jpg"))
	assert.Equal(t, "....etcpasswd", sanitizeFilename("../../etc/passwd"))
	assert.Equal(t, "myphoto.png", sanitizeFilename("my photo!.png"))
	assert.Equal(t, "", sanitizeFilename("/// "))
	assert.Len(t, sanitizeFilename(strings.Repeat("b", 100)+".jpg"), 64)
}

func TestWriteJobImages(t *testing.T) {
	dir := t.TempDir()
	paths, err := writeJobImages(dir, []JobImage{
		{Filename: "front view.jpg", Data: []byte("jpeg one")},
		{Filename: "", Data: []byte("jpeg two")},
		{Filename: "empty.jpg", Data: nil},
	})
	require.NoError(t, err)
	require.Len(t, paths, 2)

	assert.Equal(t, filepath.Join(dir, "images", "frontview.jpg"), paths[0])
	assert.Equal(t, filepath.Join(dir, "images", "image_2.jpg"), paths[1])

	for _, p := range paths {
		assert.True(t, filepath.IsAbs(p))
		_, err := os.Stat(p)
		assert.NoError(t, err)
	}
}

func TestSubmitMagicLink(t *testing.T) {
	registry := testRegistry(t)

	assert.Error(t, registry.SubmitMagicLink("missing", "https://example.com/ml"))

	linkFile := filepath.Join(t.TempDir(), "magic_link.txt")
	require.NoError(t, os.WriteFile(linkFile, nil, 0644))
	job := newJob("abc12345", filepath.Dir(linkFile), linkFile, testDraft())
	registry.jobs[job.ID] = job

	require.NoError(t, registry.SubmitMagicLink("abc12345", "  https://accounts.craigslist.org/login/ml?key=abc \n"))

	data, err := os.ReadFile(linkFile)
	require.NoError(t, err)
	assert.Equal(t, "https://accounts.craigslist.org/login/ml?key=abc", string(data))
}

func TestStart_RequiresImages(t *testing.T) {
	registry := testRegistry(t)
	_, err := registry.Start(testDraft(), nil)
	assert.ErrorContains(t, err, "no images")
}

func TestDecodeImage(t *testing.T) {
	img, err := DecodeImage("quest.jpg", base64.StdEncoding.EncodeToString([]byte("jpeg bytes")))
	require.NoError(t, err)
	assert.Equal(t, "quest.jpg", img.Filename)
	assert.Equal(t, []byte("jpeg bytes"), img.Data)

	_, err = DecodeImage("bad.jpg", "!!! not base64 !!!")
	assert.Error(t, err)
}
