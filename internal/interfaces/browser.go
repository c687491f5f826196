package interfaces

import (
	"context"

	"github.com/ternarybob/kraig/internal/models"
)

// Browser is the narrow capability the workflow and the instruction
// runner share from a live browser session. Implementations wrap a real
// browser (chromedp) or a fake in tests. Workflow side channels (login
// probes, cookie transfer) keep their Evaluate scripts read-only; page
// mutation belongs to the InstructionRunner.
type Browser interface {
	// Navigate loads the given URL in the current tab.
	Navigate(ctx context.Context, url string) error

	// Cookies enumerates all cookies in the browser context.
	Cookies(ctx context.Context) ([]models.Cookie, error)

	// SetCookies injects cookies into the browser context.
	SetCookies(ctx context.Context, cookies []models.Cookie) error

	// Evaluate runs a script against the current page and unmarshals
	// the JSON result into out.
	Evaluate(ctx context.Context, script string, out interface{}) error

	// Close shuts the browser down.
	Close() error
}
