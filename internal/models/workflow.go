package models

import "time"

// WorkflowState identifies a state in the posting workflow state machine.
type WorkflowState string

const (
	StateStart            WorkflowState = "start"
	StateSessionCheck     WorkflowState = "session_check"
	StateReuseSession     WorkflowState = "reuse_session"
	StateInteractiveLogin WorkflowState = "interactive_login"
	StateFormReached      WorkflowState = "form_reached"
	StateFormFilled       WorkflowState = "form_filled"
	StateImagesUploaded   WorkflowState = "images_uploaded"
	StatePublished        WorkflowState = "published"
	StateEnd              WorkflowState = "end"
	StateAborted          WorkflowState = "aborted"
)

// PhaseOutcome reports how a single timeout-guarded phase finished.
// It is never persisted; the orchestrator branches on Success and the
// rest feeds logging.
type PhaseOutcome struct {
	Phase    string
	Success  bool
	Elapsed  time.Duration
	TimedOut bool
	Err      error // diagnostic for failed phases, nil on success
}

// LoginStatus is the login detector's three-way classification of the
// current browser state.
type LoginStatus int

const (
	LoginIndeterminate LoginStatus = iota
	LoginAuthenticated
	LoginUnauthenticated
)

func (s LoginStatus) String() string {
	switch s {
	case LoginAuthenticated:
		return "authenticated"
	case LoginUnauthenticated:
		return "unauthenticated"
	default:
		return "indeterminate"
	}
}
