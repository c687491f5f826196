package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kraig/internal/common"
	"github.com/ternarybob/kraig/internal/interfaces"
	"github.com/ternarybob/kraig/internal/models"
)

// Phases builds the instruction text for each posting phase and runs it
// through the instruction runner under the matching timeout tier. Step
// budgets are per-phase: navigation and upload phases get generous
// budgets, the publish click gets a small one.
type Phases struct {
	runner   interfaces.InstructionRunner
	config   *common.Config
	logger   arbor.ILogger
	medTime  time.Duration
	longTime time.Duration
}

// NewPhases wires phase execution. Timeout tiers must already be
// validated by config.
func NewPhases(runner interfaces.InstructionRunner, config *common.Config, logger arbor.ILogger) (*Phases, error) {
	_, med, long, err := config.PhaseTimeouts()
	if err != nil {
		return nil, err
	}
	return &Phases{
		runner:   runner,
		config:   config,
		logger:   logger,
		medTime:  med,
		longTime: long,
	}, nil
}

func (p *Phases) run(ctx context.Context, phase, instruction string, maxSteps int, timeout time.Duration) models.PhaseOutcome {
	return RunPhase(ctx, p.logger, phase, timeout, func(ctx context.Context) error {
		return p.runner.RunInstruction(ctx, instruction, maxSteps)
	})
}

func (p *Phases) runFollowUp(ctx context.Context, phase, instruction string, maxSteps int, timeout time.Duration) models.PhaseOutcome {
	return RunPhase(ctx, p.logger, phase, timeout, func(ctx context.Context) error {
		return p.runner.RunFollowUp(ctx, instruction, maxSteps)
	})
}

// NavigateToFormWithSession drives from the posting entry point to the
// details form, assuming the restored session is already authenticated.
func (p *Phases) NavigateToFormWithSession(ctx context.Context) models.PhaseOutcome {
	instruction := fmt.Sprintf(
		"Navigate to https://post.craigslist.org and press the create a post button, "+
			"click for sale by owner, %s continue until you reach the form to fill out the posting details. "+
			"If the page asks for 'choose the location that fits best:', select the first option.",
		p.config.Listing.Category)
	return p.run(ctx, "Navigate to posting form (using saved session)", instruction, 40, p.longTime)
}

// InitiateEmailLogin submits the account email on the login page so the
// site sends a one-time login link.
func (p *Phases) InitiateEmailLogin(ctx context.Context) models.PhaseOutcome {
	instruction := fmt.Sprintf(
		"First go to https://sfbay.craigslist.org/ and wait for the homepage to fully load. "+
			"Then go to the login page by either clicking the 'my account' or 'log in' link, "+
			"or by navigating directly to https://accounts.craigslist.org/login. "+
			"On the login page, set the email to %s and press the 'email login link' button.",
		p.config.Account.Email)
	return p.run(ctx, "Initiate email login link flow", instruction, 16, p.longTime)
}

// CompleteMagicLinkLogin opens the one-time link and continues to the
// details form. Runs as a follow-up so the runner keeps the login
// conversation context.
func (p *Phases) CompleteMagicLinkLogin(ctx context.Context, magicLink string) models.PhaseOutcome {
	instruction := fmt.Sprintf(
		"Navigate to %s and press the create a post button, click for sale by owner, %s "+
			"if you are on a page that asks for location, put the city from: '%s'. "+
			"Continue until you reach the form to fill out the posting details. "+
			"If the page asks for 'choose the location that fits best:', select the first option.",
		magicLink, p.config.Listing.Category, p.config.Listing.Address)
	return p.runFollowUp(ctx, "Open magic link and reach posting form", instruction, 40, p.longTime)
}

// FillPostingForm enters the listing details and continues through the
// location page to the image upload step.
func (p *Phases) FillPostingForm(ctx context.Context) models.PhaseOutcome {
	l := p.config.Listing
	instruction := fmt.Sprintf(
		"Fill in the posting form using these details: title='%s', price='%d', description='%s', "+
			"and set the item condition to the option closest to '%s' (if the condition is already filled, do not change it). "+
			"For location put the city from: '%s'. "+
			"For the zip code, put the postal code from: '%s'. "+
			"If the site provides suggestions or auto-complete for location, select the best matching option for '%s'. "+
			"Proceed through the location page and continue until you reach the image upload page. "+
			"If the page asks for the neighbourhood, select the first option. "+
			"If the page asks for 'choose the location that fits best:', select the first option.",
		l.Title, l.Price, l.Description, l.Condition, l.Address, l.Address, l.Address)
	return p.runFollowUp(ctx, "Fill posting form and continue", instruction, 30, p.longTime)
}

// UploadImages hands the resolved local files to the uploader. The
// file paths are declared to the runner so its file-input action can
// use them.
func (p *Phases) UploadImages(ctx context.Context, imagePaths []string) models.PhaseOutcome {
	if len(imagePaths) == 0 {
		p.logger.Info().Msg("No images to upload")
		return models.PhaseOutcome{Phase: "Upload images", Success: true}
	}

	p.runner.SetFilePaths(imagePaths)
	instruction := fmt.Sprintf(
		"You are on the Craigslist image upload page for the current post. "+
			"If the drag-and-drop uploader is visible, prefer clicking the 'Use classic image uploader' link if the file picker is not visible. "+
			"Upload all of the following image files from the local filesystem using the file input control (type='file'): %s. "+
			"If multiple selection is supported, select them all at once; otherwise, upload them sequentially. "+
			"Wait until the thumbnails/previews appear and all uploads complete. "+
			"Finally click the 'done with images' button to continue. "+
			"Do not navigate away from the image upload page until uploads complete. "+
			"IF NO IMAGES ARE SHOWN ON THE PAGE AFTER YOU UPLOAD, RETRY THE UPLOAD PROCESS UNTIL THEY APPEAR OR YOU TIME OUT.",
		strings.Join(imagePaths, ", "))
	return p.run(ctx, "Upload images", instruction, 40, p.longTime)
}

// PublishPost clicks publish on the preview page and confirms.
func (p *Phases) PublishPost(ctx context.Context) models.PhaseOutcome {
	instruction := "You are on the Craigslist post preview page. " +
		"Click the 'publish' button. If any confirmation dialog or secondary 'publish'/'confirm' " +
		"button appears, confirm it. Wait until there is a clear indication the post is published " +
		"(e.g., navigated to the manage posting page, a success message, or the publish button is gone/disabled). " +
		"Then stop."
	return p.run(ctx, "Publish post", instruction, 15, p.medTime)
}
