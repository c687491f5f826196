package workflow

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kraig/internal/auth"
	"github.com/ternarybob/kraig/internal/common"
	"github.com/ternarybob/kraig/internal/images"
	"github.com/ternarybob/kraig/internal/interfaces"
	"github.com/ternarybob/kraig/internal/models"
	"github.com/ternarybob/kraig/internal/session"
)

// Orchestrator sequences the posting workflow: session reuse or
// interactive login, form fill, optional image upload, publish. Fatal
// phase failures abort the run; upload and publish failures only warn,
// leaving the browser open for manual completion. The session store is
// saved after every phase that can change login state and once more
// unconditionally on the way out.
type Orchestrator struct {
	browser  interfaces.Browser
	phases   *Phases
	store    *session.Store
	detector *auth.Detector
	broker   *auth.Broker
	resolver *images.Resolver
	config   *common.Config
	logger   arbor.ILogger

	state models.WorkflowState
}

// NewOrchestrator wires the workflow from its collaborators.
func NewOrchestrator(
	browser interfaces.Browser,
	phases *Phases,
	store *session.Store,
	detector *auth.Detector,
	broker *auth.Broker,
	resolver *images.Resolver,
	config *common.Config,
	logger arbor.ILogger,
) *Orchestrator {
	return &Orchestrator{
		browser:  browser,
		phases:   phases,
		store:    store,
		detector: detector,
		broker:   broker,
		resolver: resolver,
		config:   config,
		logger:   logger,
		state:    models.StateStart,
	}
}

// State returns the workflow's current state.
func (o *Orchestrator) State() models.WorkflowState {
	return o.state
}

func (o *Orchestrator) transition(next models.WorkflowState) {
	o.logger.Debug().Str("from", string(o.state)).Str("to", string(next)).Msg("Workflow transition")
	o.state = next
}

// Run executes the full posting workflow. The final cookie save always
// happens, whatever path the run takes.
func (o *Orchestrator) Run(ctx context.Context) error {
	defer o.store.Finalize(ctx, o.browser)

	o.transition(models.StateSessionCheck)
	authenticated := false
	if o.store.Restore(ctx, o.browser) {
		status := o.detector.Probe(ctx, o.browser)
		authenticated = status == models.LoginAuthenticated
		if authenticated {
			o.logger.Info().Msg("Using saved session, skipping login")
		} else {
			o.logger.Info().Msg("Saved cookies invalid or expired, proceeding with email login")
		}
	}

	if authenticated {
		o.transition(models.StateReuseSession)
		if outcome := o.phases.NavigateToFormWithSession(ctx); !outcome.Success {
			return o.abort("could not reach the posting form in time, check network/site status and retry")
		}
	} else {
		o.transition(models.StateInteractiveLogin)
		if err := o.interactiveLogin(ctx); err != nil {
			return err
		}
	}

	o.transition(models.StateFormReached)
	if outcome := o.phases.FillPostingForm(ctx); !outcome.Success {
		o.store.Save(ctx, o.browser)
		return o.abort("form filling phase exceeded its time limit")
	}
	o.transition(models.StateFormFilled)

	resolved := o.resolver.Resolve()
	if len(resolved) > 0 {
		if outcome := o.phases.UploadImages(ctx, resolved); !outcome.Success {
			o.logger.Warn().Msg("Image upload phase timed out, you can upload images manually in the open browser window")
		}
		o.store.Save(ctx, o.browser)
		o.transition(models.StateImagesUploaded)
	}

	if outcome := o.phases.PublishPost(ctx); !outcome.Success {
		o.logger.Warn().Msg("Publish phase did not complete in time, you can press the publish button manually in the open browser window")
	}
	o.store.Save(ctx, o.browser)
	o.transition(models.StatePublished)

	o.transition(models.StateEnd)
	o.logger.Info().Msg("Posting workflow completed")
	return nil
}

// interactiveLogin runs the email magic-link flow and persists the
// resulting session. Every failure here is fatal.
func (o *Orchestrator) interactiveLogin(ctx context.Context) error {
	if outcome := o.phases.InitiateEmailLogin(ctx); !outcome.Success {
		return o.abort("login flow did not complete in time, re-run and try again")
	}

	magicLink, err := o.broker.Obtain(ctx)
	if err != nil {
		return o.abort(fmt.Sprintf("no magic link provided: %v", err))
	}
	if magicLink == "" {
		return o.abort("no magic link provided, login cancelled")
	}

	if outcome := o.phases.CompleteMagicLinkLogin(ctx, magicLink); !outcome.Success {
		return o.abort("failed to complete login and reach the posting form in time")
	}

	if status := o.detector.Probe(ctx, o.browser); status != models.LoginAuthenticated {
		o.logger.Warn().Msg("Login verification failed after email flow, saving cookies anyway for inspection")
	} else {
		o.logger.Info().Msg("Login verified, persisting cookies")
	}
	o.store.Save(ctx, o.browser)
	return nil
}

func (o *Orchestrator) abort(reason string) error {
	o.transition(models.StateAborted)
	o.logger.Error().Str("reason", reason).Msg("Workflow aborted")
	return fmt.Errorf("workflow aborted: %s", reason)
}
