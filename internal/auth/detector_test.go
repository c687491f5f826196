package auth

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kraig/internal/models"
)

// fakeBrowser replays scripted probe results. The last result repeats
// once the script runs out.
type fakeBrowser struct {
	navigateErr error
	evaluateErr error
	results     []string
	calls       int
	navigated   []string
}

func (f *fakeBrowser) Navigate(ctx context.Context, url string) error {
	f.navigated = append(f.navigated, url)
	return f.navigateErr
}

func (f *fakeBrowser) Cookies(ctx context.Context) ([]models.Cookie, error) { return nil, nil }

func (f *fakeBrowser) SetCookies(ctx context.Context, cookies []models.Cookie) error { return nil }

func (f *fakeBrowser) Evaluate(ctx context.Context, script string, out interface{}) error {
	if f.evaluateErr != nil {
		return f.evaluateErr
	}
	idx := f.calls
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	f.calls++
	return json.Unmarshal([]byte(f.results[idx]), out)
}

func (f *fakeBrowser) Close() error { return nil }

func newTestDetector() *Detector {
	d := NewDetector(arbor.NewLogger())
	d.pollDelay = time.Millisecond
	return d
}

func TestDetector_LogoutAffordanceMeansAuthenticated(t *testing.T) {
	browser := &fakeBrowser{results: []string{
		`{"hasLoginForm": false, "hasLogout": true, "href": "https://accounts.craigslist.org/login/home", "ready": "complete"}`,
	}}

	status := newTestDetector().Probe(context.Background(), browser)

	assert.Equal(t, models.LoginAuthenticated, status)
	assert.Equal(t, []string{loginURL}, browser.navigated)
	assert.Equal(t, 1, browser.calls)
}

func TestDetector_MakeNewPostMeansAuthenticated(t *testing.T) {
	browser := &fakeBrowser{results: []string{
		`{"hasMakeNewPost": true, "href": "https://accounts.craigslist.org/login/home", "ready": "complete"}`,
	}}

	status := newTestDetector().Probe(context.Background(), browser)
	assert.Equal(t, models.LoginAuthenticated, status)
}

func TestDetector_LoginFormOffLoginURLMeansUnauthenticated(t *testing.T) {
	browser := &fakeBrowser{results: []string{
		`{"hasLoginForm": true, "href": "https://post.craigslist.org/c/sfo", "ready": "complete"}`,
	}}

	status := newTestDetector().Probe(context.Background(), browser)
	assert.Equal(t, models.LoginUnauthenticated, status)
	assert.Equal(t, 1, browser.calls)
}

func TestDetector_LoginFormOnLoginURLPollsUntilRedirect(t *testing.T) {
	// The form lingers for two probes, then the page lands on account home
	browser := &fakeBrowser{results: []string{
		`{"hasLoginForm": true, "href": "https://accounts.craigslist.org/login", "ready": "complete"}`,
		`{"hasLoginForm": true, "href": "https://accounts.craigslist.org/login", "ready": "complete"}`,
		`{"hasLogout": true, "href": "https://accounts.craigslist.org/login/home", "ready": "complete"}`,
	}}

	status := newTestDetector().Probe(context.Background(), browser)
	assert.Equal(t, models.LoginAuthenticated, status)
	assert.Equal(t, 3, browser.calls)
}

func TestDetector_ExhaustionFallsBackToAccountHomeURL(t *testing.T) {
	browser := &fakeBrowser{results: []string{
		`{"href": "https://accounts.craigslist.org/login/home", "ready": "complete"}`,
	}}

	status := newTestDetector().Probe(context.Background(), browser)
	assert.Equal(t, models.LoginAuthenticated, status)
	assert.Equal(t, 20, browser.calls)
}

func TestDetector_ExhaustionWithoutHomeURLMeansUnauthenticated(t *testing.T) {
	browser := &fakeBrowser{results: []string{
		`{"href": "https://www.craigslist.org/about", "ready": "loading"}`,
	}}

	status := newTestDetector().Probe(context.Background(), browser)
	assert.Equal(t, models.LoginUnauthenticated, status)
}

func TestDetector_NavigateErrorFailsClosed(t *testing.T) {
	browser := &fakeBrowser{navigateErr: errors.New("net::ERR_NAME_NOT_RESOLVED")}

	status := newTestDetector().Probe(context.Background(), browser)
	assert.Equal(t, models.LoginUnauthenticated, status)
}

func TestDetector_EvaluateErrorFailsClosed(t *testing.T) {
	browser := &fakeBrowser{evaluateErr: errors.New("context deadline exceeded")}

	status := newTestDetector().Probe(context.Background(), browser)
	assert.Equal(t, models.LoginUnauthenticated, status)
}
