// Package auth classifies browser login state and brokers the human
// magic-link hand-off for the posting workflow.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kraig/internal/interfaces"
	"github.com/ternarybob/kraig/internal/models"
)

const (
	loginURL         = "https://accounts.craigslist.org/login"
	accountsDomain   = "accounts.craigslist.org"
	accountsHomePath = "/home"
)

// probeScript inspects the rendered page for login-state signals.
// Read-only: queries the DOM, mutates nothing.
const probeScript = `
(() => {
  const byText = (txt) => {
    const t = (txt || '').toLowerCase();
    return Array.from(document.querySelectorAll('a,button'))
      .some(el => ((el.textContent || '').toLowerCase().includes(t)));
  };
  const emailInput = document.querySelector('input#inputEmailHandle, input[name="inputEmailHandle"]');
  const loginForm = document.querySelector('form[action*="login" i], form[action*="signin" i]');
  return {
    hasLoginForm: !!(emailInput || loginForm),
    hasLogout: !!(byText('log out') || document.querySelector('a[href*="logout" i]')),
    hasMakeNewPost: byText('make new post'),
    href: location.href,
    ready: document.readyState
  };
})()`

// probeResult mirrors the probe script's return value.
type probeResult struct {
	HasLoginForm   bool   `json:"hasLoginForm"`
	HasLogout      bool   `json:"hasLogout"`
	HasMakeNewPost bool   `json:"hasMakeNewPost"`
	Href           string `json:"href"`
	Ready          string `json:"ready"`
}

// Detector classifies the current browser state as authenticated,
// unauthenticated, or indeterminate by polling the account entry point.
type Detector struct {
	logger      arbor.ILogger
	maxAttempts int
	pollDelay   time.Duration
}

// NewDetector creates a login detector with the default poll budget
// (20 attempts at 500ms, ~10s total).
func NewDetector(logger arbor.ILogger) *Detector {
	return &Detector{
		logger:      logger,
		maxAttempts: 20,
		pollDelay:   500 * time.Millisecond,
	}
}

// Probe navigates to the login entry point and polls for login-state
// signals. Any error during probing fails closed to unauthenticated;
// the detector never claims authenticated on error.
func (d *Detector) Probe(ctx context.Context, browser interfaces.Browser) models.LoginStatus {
	if err := browser.Navigate(ctx, loginURL); err != nil {
		d.logger.Warn().Err(err).Msg("Could not reach login entry point, assuming not logged in")
		return models.LoginUnauthenticated
	}

	var lastHref string
	for attempt := 0; attempt < d.maxAttempts; attempt++ {
		var result probeResult
		if err := browser.Evaluate(ctx, probeScript, &result); err != nil {
			d.logger.Warn().Err(err).Int("attempt", attempt+1).Msg("Login probe evaluation failed, assuming not logged in")
			return models.LoginUnauthenticated
		}
		if result.Href != "" {
			lastHref = result.Href
		}

		// Definitive logged-in signals short-circuit the poll budget
		if result.HasLogout || result.HasMakeNewPost {
			d.logger.Debug().Int("attempt", attempt+1).Msg("Logged-in affordance detected")
			return models.LoginAuthenticated
		}

		if result.HasLoginForm {
			// A login form while still on the login URL may redirect
			// away; give it more cycles
			if strings.Contains(result.Href, "/login") && strings.Contains(result.Href, accountsDomain) {
				d.sleep(ctx)
				continue
			}
			return models.LoginUnauthenticated
		}

		// No clear signal yet
		d.sleep(ctx)
	}

	// Poll budget exhausted: fall back to the last observed URL
	if strings.Contains(lastHref, accountsDomain) && strings.Contains(lastHref, accountsHomePath) {
		d.logger.Debug().Str("href", lastHref).Msg("Probe exhausted, account home URL implies logged in")
		return models.LoginAuthenticated
	}
	d.logger.Debug().Str("href", lastHref).Msg("Probe exhausted with no logged-in signal")
	return models.LoginUnauthenticated
}

func (d *Detector) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(d.pollDelay):
	}
}
