package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kraig/internal/auth"
	"github.com/ternarybob/kraig/internal/common"
	"github.com/ternarybob/kraig/internal/images"
	"github.com/ternarybob/kraig/internal/models"
	"github.com/ternarybob/kraig/internal/session"
)

// fakeBrowser replays a fixed login probe result and counts cookie
// captures, which is how the tests observe session save points.
type fakeBrowser struct {
	probeJSON string
	saveCount int
	navigated []string
}

func (f *fakeBrowser) Navigate(ctx context.Context, url string) error {
	f.navigated = append(f.navigated, url)
	return nil
}

func (f *fakeBrowser) Cookies(ctx context.Context) ([]models.Cookie, error) {
	f.saveCount++
	return []models.Cookie{{Name: "cl_session", Value: "abc", Domain: ".craigslist.org", Path: "/"}}, nil
}

func (f *fakeBrowser) SetCookies(ctx context.Context, cookies []models.Cookie) error { return nil }

func (f *fakeBrowser) Evaluate(ctx context.Context, script string, out interface{}) error {
	return json.Unmarshal([]byte(f.probeJSON), out)
}

func (f *fakeBrowser) Close() error { return nil }

// fakeRunner records every instruction and fails the ones matching a
// configured substring.
type fakeRunner struct {
	failMatching string
	instructions []string
	filePaths    []string
}

func (f *fakeRunner) run(instruction string) error {
	f.instructions = append(f.instructions, instruction)
	if f.failMatching != "" && strings.Contains(instruction, f.failMatching) {
		return errors.New("scripted failure")
	}
	return nil
}

func (f *fakeRunner) RunInstruction(ctx context.Context, instruction string, maxSteps int) error {
	return f.run(instruction)
}

func (f *fakeRunner) RunFollowUp(ctx context.Context, instruction string, maxSteps int) error {
	return f.run(instruction)
}

func (f *fakeRunner) SetFilePaths(paths []string) { f.filePaths = paths }

const authenticatedProbe = `{"hasLogout": true, "href": "https://accounts.craigslist.org/login/home", "ready": "complete"}`

func testConfig(t *testing.T) *common.Config {
	t.Helper()
	config := common.NewDefaultConfig()
	config.Account.Email = "seller@example.com"
	config.Listing = common.ListingConfig{
		Category:    "electronics",
		Title:       "Meta Quest Pro",
		Condition:   "like new",
		Price:       650,
		Address:     "123 Main St, San Francisco, CA 94103",
		Description: "Barely used, complete in box.",
	}
	config.Session.Dir = t.TempDir()
	return config
}

type orchestratorFixture struct {
	orchestrator *Orchestrator
	browser      *fakeBrowser
	runner       *fakeRunner
	store        *session.Store
	broker       *auth.Broker
}

func newFixture(t *testing.T, config *common.Config, browser *fakeBrowser, runner *fakeRunner, magicLinkFile string) *orchestratorFixture {
	t.Helper()
	logger := arbor.NewLogger()

	phases, err := NewPhases(runner, config, logger)
	require.NoError(t, err)

	store := session.NewStore(config.Session.Dir, config.Account.Email, logger)
	broker := auth.NewBroker(magicLinkFile, logger)
	orchestrator := NewOrchestrator(
		browser,
		phases,
		store,
		auth.NewDetector(logger),
		broker,
		images.NewResolver(config.Listing.Images, logger),
		config,
		logger,
	)
	return &orchestratorFixture{orchestrator: orchestrator, browser: browser, runner: runner, store: store, broker: broker}
}

// seedSession writes a cookie record so the run starts with a saved
// session to restore.
func seedSession(t *testing.T, f *orchestratorFixture) {
	t.Helper()
	f.store.Save(context.Background(), f.browser)
	f.browser.saveCount = 0
}

func TestOrchestrator_ReuseSessionHappyPath(t *testing.T) {
	config := testConfig(t)
	browser := &fakeBrowser{probeJSON: authenticatedProbe}
	runner := &fakeRunner{}
	f := newFixture(t, config, browser, runner, "")
	seedSession(t, f)

	err := f.orchestrator.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, models.StateEnd, f.orchestrator.State())

	// Navigate, fill, publish; no login instructions
	require.Len(t, runner.instructions, 3)
	assert.Contains(t, runner.instructions[0], "post.craigslist.org")
	assert.Contains(t, runner.instructions[1], "Fill in the posting form")
	assert.Contains(t, runner.instructions[2], "publish")

	// Saved after publish plus the unconditional final save
	assert.Equal(t, 2, browser.saveCount)
}

func TestOrchestrator_FreshLoginHappyPath(t *testing.T) {
	config := testConfig(t)
	linkFile := filepath.Join(t.TempDir(), "magic_link.txt")
	require.NoError(t, os.WriteFile(linkFile, []byte("https://accounts.craigslist.org/login/ml?key=abc"), 0600))

	browser := &fakeBrowser{probeJSON: authenticatedProbe}
	runner := &fakeRunner{}
	f := newFixture(t, config, browser, runner, linkFile)

	err := f.orchestrator.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, models.StateEnd, f.orchestrator.State())

	// Login initiation, magic-link follow-up, fill, publish
	require.Len(t, runner.instructions, 4)
	assert.Contains(t, runner.instructions[0], "email login link")
	assert.Contains(t, runner.instructions[1], "ml?key=abc")
	assert.Contains(t, runner.instructions[2], "Fill in the posting form")

	// Saved after login verification, after publish, and on the way out
	assert.Equal(t, 3, browser.saveCount)

	// The magic-link login persisted a session for the next run
	_, ok := f.store.Load()
	assert.True(t, ok)
}

func TestOrchestrator_EmptyMagicLinkCancelsLogin(t *testing.T) {
	config := testConfig(t)
	browser := &fakeBrowser{probeJSON: authenticatedProbe}
	runner := &fakeRunner{}
	f := newFixture(t, config, browser, runner, "")

	// Operator presses Enter at the interactive prompt
	f.broker.WithInput(strings.NewReader("\n"))

	err := f.orchestrator.Run(context.Background())

	assert.ErrorContains(t, err, "login cancelled")
	assert.Equal(t, models.StateAborted, f.orchestrator.State())

	// Login was initiated but nothing after the cancel ran
	require.Len(t, runner.instructions, 1)
	assert.Contains(t, runner.instructions[0], "email login link")

	// Only the unconditional final save
	assert.Equal(t, 1, browser.saveCount)
}

func TestOrchestrator_NavigateFailureAborts(t *testing.T) {
	config := testConfig(t)
	browser := &fakeBrowser{probeJSON: authenticatedProbe}
	runner := &fakeRunner{failMatching: "create a post"}
	f := newFixture(t, config, browser, runner, "")
	seedSession(t, f)

	err := f.orchestrator.Run(context.Background())

	assert.ErrorContains(t, err, "workflow aborted")
	assert.Equal(t, models.StateAborted, f.orchestrator.State())

	// Only the unconditional final save
	assert.Equal(t, 1, browser.saveCount)
}

func TestOrchestrator_FillFailureSavesAndAborts(t *testing.T) {
	config := testConfig(t)
	browser := &fakeBrowser{probeJSON: authenticatedProbe}
	runner := &fakeRunner{failMatching: "Fill in the posting form"}
	f := newFixture(t, config, browser, runner, "")
	seedSession(t, f)

	err := f.orchestrator.Run(context.Background())

	assert.ErrorContains(t, err, "workflow aborted")
	assert.Equal(t, models.StateAborted, f.orchestrator.State())

	// Saved once on the failed fill, once on the way out
	assert.Equal(t, 2, browser.saveCount)
}

func TestOrchestrator_PublishFailureIsNotFatal(t *testing.T) {
	config := testConfig(t)
	browser := &fakeBrowser{probeJSON: authenticatedProbe}
	runner := &fakeRunner{failMatching: "publish"}
	f := newFixture(t, config, browser, runner, "")
	seedSession(t, f)

	err := f.orchestrator.Run(context.Background())

	// The browser stays open for a manual publish; the run still ends
	require.NoError(t, err)
	assert.Equal(t, models.StateEnd, f.orchestrator.State())
	assert.Equal(t, 2, browser.saveCount)
}

func TestOrchestrator_UploadFailureIsNotFatal(t *testing.T) {
	config := testConfig(t)

	imageDir := t.TempDir()
	imagePath := filepath.Join(imageDir, "quest.jpg")
	require.NoError(t, os.WriteFile(imagePath, []byte("jpeg bytes"), 0600))
	config.Listing.Images = []string{imagePath}

	browser := &fakeBrowser{probeJSON: authenticatedProbe}
	runner := &fakeRunner{failMatching: "image upload page for the current post"}
	f := newFixture(t, config, browser, runner, "")
	seedSession(t, f)

	err := f.orchestrator.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, models.StateEnd, f.orchestrator.State())
	assert.Equal(t, []string{imagePath}, runner.filePaths)

	// Saved after the upload attempt, after publish, and on the way out
	assert.Equal(t, 3, browser.saveCount)
}
