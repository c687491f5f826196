// Package agent drives the browser from natural-language instructions:
// each step observes the page, asks the model for the next action, and
// executes it. The loop stops when the model declares the instruction
// done or the step budget runs out.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
)

// observeScript tags every visible interactive element with a stable
// index attribute and returns a compact page summary. The indices are
// reassigned on every observation, so actions must only use indices
// from the most recent snapshot.
const observeScript = `
(() => {
  document.querySelectorAll('[data-kraig-index]').forEach(el => el.removeAttribute('data-kraig-index'));
  const visible = (el) => {
    const r = el.getBoundingClientRect();
    if (r.width === 0 || r.height === 0) return false;
    const style = window.getComputedStyle(el);
    return style.display !== 'none' && style.visibility !== 'hidden';
  };
  const label = (el) => {
    const t = (el.innerText || el.textContent || '').trim().replace(/\s+/g, ' ');
    if (t) return t.slice(0, 120);
    return (el.getAttribute('aria-label') || el.getAttribute('title') || '').slice(0, 120);
  };
  const elements = [];
  let idx = 0;
  document.querySelectorAll('a, button, input, select, textarea, [role="button"], [onclick]').forEach(el => {
    if (!visible(el) || idx >= 150) return;
    el.setAttribute('data-kraig-index', String(idx));
    const entry = {
      index: idx,
      tag: el.tagName.toLowerCase(),
      type: el.getAttribute('type') || '',
      text: label(el),
      name: el.getAttribute('name') || '',
      id: el.id || '',
      placeholder: el.getAttribute('placeholder') || '',
      value: (el.value || '').slice(0, 80),
      href: el.tagName === 'A' ? (el.getAttribute('href') || '').slice(0, 200) : ''
    };
    if (el.tagName === 'SELECT') {
      entry.options = Array.from(el.options).slice(0, 30).map(o => o.text.trim().slice(0, 60));
    }
    elements.push(entry);
    idx++;
  });
  const bodyText = (document.body ? document.body.innerText : '').replace(/\s+/g, ' ').slice(0, 1500);
  return {
    url: location.href,
    title: document.title,
    elements: elements,
    bodyText: bodyText,
    scrollY: window.scrollY,
    pageHeight: document.documentElement.scrollHeight
  };
})()`

// pageElement is one interactive element in an observation.
type pageElement struct {
	Index       int      `json:"index"`
	Tag         string   `json:"tag"`
	Type        string   `json:"type,omitempty"`
	Text        string   `json:"text,omitempty"`
	Name        string   `json:"name,omitempty"`
	ID          string   `json:"id,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Value       string   `json:"value,omitempty"`
	Href        string   `json:"href,omitempty"`
	Options     []string `json:"options,omitempty"`
}

// pageObservation is the model-facing snapshot of the current page.
type pageObservation struct {
	URL        string        `json:"url"`
	Title      string        `json:"title"`
	Elements   []pageElement `json:"elements"`
	BodyText   string        `json:"bodyText"`
	ScrollY    float64       `json:"scrollY"`
	PageHeight float64       `json:"pageHeight"`
}

// observe snapshots the current page state for the model.
func (r *Runner) observe(ctx context.Context) (*pageObservation, error) {
	var obs pageObservation
	if err := r.session.Evaluate(ctx, observeScript, &obs); err != nil {
		return nil, fmt.Errorf("page observation failed: %w", err)
	}
	return &obs, nil
}

func (o *pageObservation) asJSON() string {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Sprintf(`{"url":%q,"title":%q}`, o.URL, o.Title)
	}
	return string(data)
}
