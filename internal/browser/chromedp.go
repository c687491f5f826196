// Package browser wraps a chromedp-driven Chrome session behind the
// narrow capability the workflow needs: navigation, cookie transfer,
// and script evaluation.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kraig/internal/common"
	"github.com/ternarybob/kraig/internal/models"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Session is a single long-lived browser the whole posting run shares.
// The instruction runner and the side channels (cookies, probes) all
// operate on the same tab.
type Session struct {
	ctx             context.Context
	browserCancel   context.CancelFunc
	allocatorCancel context.CancelFunc
	logger          arbor.ILogger
}

// NewSession launches Chrome according to the browser configuration and
// verifies it responds before returning.
func NewSession(config *common.Config, logger arbor.ILogger) (*Session, error) {
	allocatorOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", config.Browser.Headless),
		chromedp.Flag("disable-gpu", config.Browser.Headless),
		chromedp.Flag("no-sandbox", config.Browser.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-timer-throttling", false),
		chromedp.Flag("disable-backgrounding-occluded-windows", false),
		chromedp.Flag("disable-renderer-backgrounding", false),
		chromedp.UserAgent(defaultUserAgent),
	)

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), allocatorOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)

	// Startup test: a browser that cannot reach about:blank is useless
	testCtx, testCancel := context.WithTimeout(browserCtx, 30*time.Second)
	defer testCancel()
	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank"), network.Enable()); err != nil {
		browserCancel()
		allocatorCancel()
		return nil, fmt.Errorf("browser failed startup test: %w", err)
	}

	session := &Session{
		ctx:             browserCtx,
		browserCancel:   browserCancel,
		allocatorCancel: allocatorCancel,
		logger:          logger,
	}

	if config.Browser.Highlight {
		if err := session.installHighlightOverlay(); err != nil {
			logger.Warn().Err(err).Msg("Highlight overlay install failed")
		}
	}

	logger.Info().Bool("headless", config.Browser.Headless).Msg("Browser session started")
	return session, nil
}

// Context exposes the chromedp browser context so the instruction
// runner can issue its own actions against the shared tab.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Navigate loads the given URL in the current tab.
func (s *Session) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := s.BoundedContext(ctx)
	defer cancel()
	if err := chromedp.Run(runCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// WarmUp opens the given homepage and waits for document.readyState to
// reach "complete", polling up to 20 times at 250ms. Failure only
// warns; the workflow proceeds regardless.
func (s *Session) WarmUp(ctx context.Context, url string) {
	s.logger.Info().Str("url", url).Msg("Opening homepage")
	if err := s.Navigate(ctx, url); err != nil {
		s.logger.Warn().Err(err).Msg("Could not load homepage")
		return
	}

	for i := 0; i < 20; i++ {
		var state string
		if err := s.Evaluate(ctx, "document.readyState", &state); err != nil {
			break
		}
		if state == "complete" {
			s.logger.Info().Msg("Homepage loaded")
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(250 * time.Millisecond):
		}
	}
	s.logger.Debug().Msg("Homepage did not reach readyState complete, continuing anyway")
}

// Cookies enumerates every cookie in the browser context, not just the
// current page's, so the whole login session persists.
func (s *Session) Cookies(ctx context.Context) ([]models.Cookie, error) {
	runCtx, cancel := s.BoundedContext(ctx)
	defer cancel()

	var result []models.Cookie
	err := chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := storage.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		for _, c := range cookies {
			result = append(result, models.Cookie{
				Name:     c.Name,
				Value:    c.Value,
				Domain:   c.Domain,
				Path:     c.Path,
				Expires:  c.Expires,
				Secure:   c.Secure,
				HTTPOnly: c.HTTPOnly,
				SameSite: string(c.SameSite),
			})
		}
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("get cookies: %w", err)
	}
	return result, nil
}

// SetCookies injects cookies into the browser context. Individual
// rejects are logged and skipped so one stale cookie cannot sink the
// whole restore.
func (s *Session) SetCookies(ctx context.Context, cookies []models.Cookie) error {
	runCtx, cancel := s.BoundedContext(ctx)
	defer cancel()

	return chromedp.Run(runCtx,
		network.Enable(),
		chromedp.ActionFunc(func(ctx context.Context) error {
			successCount := 0
			for _, c := range cookies {
				param := network.SetCookie(c.Name, c.Value).
					WithDomain(c.Domain).
					WithPath(c.Path).
					WithSecure(c.Secure).
					WithHTTPOnly(c.HTTPOnly)
				if c.SameSite != "" {
					param = param.WithSameSite(network.CookieSameSite(c.SameSite))
				}
				if c.Expires > 0 {
					expires := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
					param = param.WithExpires(&expires)
				}
				if err := param.Do(ctx); err != nil {
					s.logger.Warn().Err(err).Str("cookie_name", c.Name).Str("domain", c.Domain).Msg("Failed to inject cookie, skipping")
					continue
				}
				successCount++
			}
			s.logger.Debug().Int("success_count", successCount).Int("total_cookies", len(cookies)).Msg("Cookie injection complete")
			return nil
		}),
	)
}

// Evaluate runs a script in the current page and unmarshals the JSON
// result into out. Pass a nil out to discard the result.
func (s *Session) Evaluate(ctx context.Context, script string, out interface{}) error {
	runCtx, cancel := s.BoundedContext(ctx)
	defer cancel()
	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, out)); err != nil {
		return fmt.Errorf("evaluate script: %w", err)
	}
	return nil
}

// Close shuts the browser down.
func (s *Session) Close() error {
	s.browserCancel()
	s.allocatorCancel()
	s.logger.Debug().Msg("Browser session closed")
	return nil
}

// BoundedContext ties a chromedp run to both the browser lifetime and
// the caller's deadline. The instruction runner uses it to issue its
// own chromedp actions against the shared tab.
func (s *Session) BoundedContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(s.ctx, deadline)
	}
	return context.WithCancel(s.ctx)
}

// highlightScript draws a short-lived box around elements the page
// interacts with, so a human watching the window can follow along.
const highlightScript = `
(function(){try{
  if (window.__kraig_highlight_installed) return;
  window.__kraig_highlight_installed = true;
  const ov = document.createElement('div');
  ov.id = '__kraig_highlight_box';
  Object.assign(ov.style, {
    position: 'fixed',
    border: '2px solid #00e5ff',
    borderRadius: '4px',
    background: 'rgba(0,229,255,0.08)',
    pointerEvents: 'none',
    zIndex: '2147483647',
    display: 'none',
    transition: 'all 0.05s ease'
  });
  document.documentElement.appendChild(ov);
  const show = (el) => {
    if (!el || !el.getBoundingClientRect) return;
    const r = el.getBoundingClientRect();
    ov.style.left = r.left + 'px';
    ov.style.top = r.top + 'px';
    ov.style.width = Math.max(0, r.width) + 'px';
    ov.style.height = Math.max(0, r.height) + 'px';
    ov.style.display = 'block';
    clearTimeout(ov._t);
    ov._t = setTimeout(() => { ov.style.display = 'none'; }, 1200);
  };
  window.__kraig_highlight = show;
  const onEv = (e) => { show(e.target); };
  document.addEventListener('mousedown', onEv, {capture:true});
  document.addEventListener('click', onEv, {capture:true});
  document.addEventListener('focusin', onEv, {capture:true});
  document.addEventListener('keyup', onEv, {capture:true});
}catch(e){}})();`

// installHighlightOverlay injects the overlay into the current document
// and registers it for every future navigation.
func (s *Session) installHighlightOverlay() error {
	runCtx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	defer cancel()

	return chromedp.Run(runCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(highlightScript).Do(ctx)
			return err
		}),
		chromedp.Evaluate(highlightScript, nil),
	)
}
