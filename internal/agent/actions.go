package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/ternarybob/kraig/internal/llm"
)

// action is one step the model asked for. Exactly one action per model
// turn; Index refers to the element indices of the latest observation.
type action struct {
	Action  string `json:"action"`
	Index   int    `json:"index,omitempty"`
	Text    string `json:"text,omitempty"`
	Value   string `json:"value,omitempty"`
	URL     string `json:"url,omitempty"`
	Seconds int    `json:"seconds,omitempty"`
	Success bool   `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
}

const (
	actionClick    = "click"
	actionType     = "type"
	actionSelect   = "select"
	actionUpload   = "upload"
	actionNavigate = "navigate"
	actionScroll   = "scroll"
	actionWait     = "wait"
	actionDone     = "done"
)

// parseAction extracts the single JSON action from a model response.
func parseAction(response string) (*action, error) {
	raw, err := llm.ExtractJSONObject(response)
	if err != nil {
		return nil, err
	}
	var act action
	if err := json.Unmarshal([]byte(raw), &act); err != nil {
		return nil, fmt.Errorf("malformed action JSON: %w", err)
	}
	if act.Action == "" {
		return nil, fmt.Errorf("action JSON missing \"action\" field")
	}
	return &act, nil
}

func indexSelector(index int) string {
	return fmt.Sprintf(`[data-kraig-index="%d"]`, index)
}

// execute performs the action against the live page and returns a
// short result string that is fed back to the model.
func (r *Runner) execute(ctx context.Context, act *action) (string, error) {
	runCtx, cancel := r.session.BoundedContext(ctx)
	defer cancel()

	switch act.Action {
	case actionClick:
		sel := indexSelector(act.Index)
		if err := chromedp.Run(runCtx, chromedp.Click(sel, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
			return "", fmt.Errorf("click element %d: %w", act.Index, err)
		}
		return fmt.Sprintf("clicked element %d", act.Index), nil

	case actionType:
		sel := indexSelector(act.Index)
		if err := chromedp.Run(runCtx,
			chromedp.Clear(sel, chromedp.ByQuery),
			chromedp.SendKeys(sel, act.Text, chromedp.ByQuery),
		); err != nil {
			return "", fmt.Errorf("type into element %d: %w", act.Index, err)
		}
		return fmt.Sprintf("typed %q into element %d", act.Text, act.Index), nil

	case actionSelect:
		sel := indexSelector(act.Index)
		if err := chromedp.Run(runCtx,
			chromedp.SetValue(sel, act.Value, chromedp.ByQuery),
		); err != nil {
			return "", fmt.Errorf("select option on element %d: %w", act.Index, err)
		}
		return fmt.Sprintf("selected %q on element %d", act.Value, act.Index), nil

	case actionUpload:
		if len(r.filePaths) == 0 {
			return "", fmt.Errorf("no files declared for upload")
		}
		sel := indexSelector(act.Index)
		if err := chromedp.Run(runCtx,
			chromedp.SetUploadFiles(sel, r.filePaths, chromedp.ByQuery),
		); err != nil {
			return "", fmt.Errorf("upload files via element %d: %w", act.Index, err)
		}
		return fmt.Sprintf("attached %d files to element %d", len(r.filePaths), act.Index), nil

	case actionNavigate:
		if act.URL == "" {
			return "", fmt.Errorf("navigate action missing url")
		}
		if err := r.session.Navigate(ctx, act.URL); err != nil {
			return "", err
		}
		return fmt.Sprintf("navigated to %s", act.URL), nil

	case actionScroll:
		script := "window.scrollBy(0, window.innerHeight * 0.8)"
		if act.Value == "up" {
			script = "window.scrollBy(0, -window.innerHeight * 0.8)"
		}
		if err := r.session.Evaluate(ctx, script, nil); err != nil {
			return "", fmt.Errorf("scroll: %w", err)
		}
		return "scrolled", nil

	case actionWait:
		seconds := act.Seconds
		if seconds <= 0 || seconds > 10 {
			seconds = 2
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Duration(seconds) * time.Second):
		}
		return fmt.Sprintf("waited %ds", seconds), nil

	default:
		return "", fmt.Errorf("unknown action %q", act.Action)
	}
}
