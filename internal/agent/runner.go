package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kraig/internal/browser"
	"github.com/ternarybob/kraig/internal/interfaces"
)

const systemPrompt = `You are a browser automation operator. You are given an instruction
and, on every turn, a JSON observation of the current page listing its
interactive elements by index.

Respond with exactly one action per turn as a JSON object inside a
` + "```json" + ` fenced block. Available actions:

  {"action": "click", "index": N}
  {"action": "type", "index": N, "text": "..."}          (clears the field first)
  {"action": "select", "index": N, "value": "..."}       (value of a <select> option)
  {"action": "upload", "index": N}                       (attaches the declared files to a file input)
  {"action": "navigate", "url": "https://..."}
  {"action": "scroll", "value": "down"}                  (or "up")
  {"action": "wait", "seconds": 2}
  {"action": "done", "success": true, "message": "..."}

Rules:
- Element indices are reassigned on every observation. Only use indices
  from the most recent observation.
- Use "done" with success true as soon as the instruction is satisfied.
- Use "done" with success false only when the instruction cannot be
  completed.
- Before typing into a field, check its current value; do not retype
  values that are already correct.
- Think briefly before the JSON block, then emit the block.`

// Runner executes natural-language browser instructions through an
// observe, decide, act loop. One Runner drives one browser session;
// RunFollowUp keeps the conversation history so later phases can refer
// back to what already happened.
type Runner struct {
	session    *browser.Session
	llmService interfaces.LLMService
	logger     arbor.ILogger

	messages  []interfaces.Message
	filePaths []string
}

// NewRunner creates an instruction runner for the given session.
func NewRunner(session *browser.Session, llmService interfaces.LLMService, logger arbor.ILogger) *Runner {
	return &Runner{
		session:    session,
		llmService: llmService,
		logger:     logger,
	}
}

// SetFilePaths declares local files the next upload action may attach.
func (r *Runner) SetFilePaths(paths []string) {
	r.filePaths = paths
}

// RunInstruction starts a fresh conversation and drives the browser
// until the instruction completes or the step budget is exhausted.
func (r *Runner) RunInstruction(ctx context.Context, instruction string, maxSteps int) error {
	r.messages = []interfaces.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: "Instruction: " + instruction},
	}
	return r.loop(ctx, maxSteps)
}

// RunFollowUp continues the existing conversation with a new
// instruction, keeping prior history as context.
func (r *Runner) RunFollowUp(ctx context.Context, instruction string, maxSteps int) error {
	if len(r.messages) == 0 {
		return r.RunInstruction(ctx, instruction, maxSteps)
	}
	r.messages = append(r.messages, interfaces.Message{
		Role: "user", Content: "New instruction: " + instruction,
	})
	return r.loop(ctx, maxSteps)
}

func (r *Runner) loop(ctx context.Context, maxSteps int) error {
	for step := 1; step <= maxSteps; step++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		obs, err := r.observe(ctx)
		if err != nil {
			return err
		}
		r.messages = append(r.messages, interfaces.Message{
			Role:    "user",
			Content: "Observation: " + obs.asJSON(),
		})

		response, err := r.llmService.Chat(ctx, r.messages)
		if err != nil {
			return fmt.Errorf("model call failed on step %d: %w", step, err)
		}
		r.messages = append(r.messages, interfaces.Message{Role: "assistant", Content: response})

		act, err := parseAction(response)
		if err != nil {
			r.logger.Warn().Int("step", step).Err(err).Msg("Unparseable action, asking model to retry")
			r.messages = append(r.messages, interfaces.Message{
				Role:    "user",
				Content: fmt.Sprintf("Your last response had no valid action JSON (%v). Respond with exactly one action.", err),
			})
			continue
		}

		r.logger.Debug().
			Int("step", step).
			Str("action", act.Action).
			Int("index", act.Index).
			Str("url", obs.URL).
			Msg("Executing action")

		if act.Action == actionDone {
			if act.Success {
				r.logger.Info().Int("steps", step).Str("message", act.Message).Msg("Instruction complete")
				r.trimHistory()
				return nil
			}
			return fmt.Errorf("instruction failed: %s", act.Message)
		}

		result, err := r.execute(ctx, act)
		if err != nil {
			r.logger.Warn().Int("step", step).Err(err).Msg("Action failed, reporting back to model")
			result = fmt.Sprintf("action failed: %v", err)
		}
		r.messages = append(r.messages, interfaces.Message{
			Role:    "user",
			Content: "Result: " + result,
		})

		// Brief settle time so the page can react before the next look
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}

	return fmt.Errorf("step budget of %d exhausted before the instruction completed", maxSteps)
}

// trimHistory drops old observations once an instruction completes so
// follow-up phases carry intent without the full page-snapshot bulk.
func (r *Runner) trimHistory() {
	trimmed := r.messages[:0]
	for _, msg := range r.messages {
		if msg.Role == "user" && strings.HasPrefix(msg.Content, "Observation: ") {
			continue
		}
		trimmed = append(trimmed, msg)
	}
	r.messages = trimmed
}
