package interfaces

import "context"

// InstructionRunner executes a natural-language browser instruction
// against the live session, bounded by a step budget. The instruction
// text is data; the runner decides the concrete browser actions.
type InstructionRunner interface {
	// RunInstruction starts a fresh conversation and drives the browser
	// until the instruction is complete, the step budget is exhausted,
	// or ctx expires.
	RunInstruction(ctx context.Context, instruction string, maxSteps int) error

	// RunFollowUp continues the existing conversation with a new
	// instruction, keeping the prior history as context.
	RunFollowUp(ctx context.Context, instruction string, maxSteps int) error

	// SetFilePaths declares local files an upload step may hand to a
	// file input.
	SetFilePaths(paths []string)
}

// Message represents a single message in a chat conversation.
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// LLMService defines the chat-completion capability the instruction
// runner and the vision pipeline are built on.
type LLMService interface {
	// Chat generates a completion for the conversation history in
	// chronological order.
	Chat(ctx context.Context, messages []Message) (string, error)

	// Close releases provider resources.
	Close() error
}
