package auth

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
)

// Broker obtains the one-time login link the account owner receives by
// email. In file mode it polls a hand-off file written by another
// process; otherwise it prompts on stdin.
type Broker struct {
	logger      arbor.ILogger
	filePath    string
	input       io.Reader
	maxAttempts int
	pollDelay   time.Duration
}

// NewBroker creates a magic-link broker. An empty filePath selects
// interactive stdin mode. File mode polls for up to ten minutes
// (1200 attempts at 500ms).
func NewBroker(filePath string, logger arbor.ILogger) *Broker {
	return &Broker{
		logger:      logger,
		filePath:    filePath,
		input:       os.Stdin,
		maxAttempts: 1200,
		pollDelay:   500 * time.Millisecond,
	}
}

// WithInput overrides the interactive input source (stdin by default).
func (b *Broker) WithInput(r io.Reader) *Broker {
	b.input = r
	return b
}

// Obtain blocks until a magic link is available or the context is
// cancelled. The link is trimmed but otherwise unvalidated; whether it
// actually works is judged by the login flow that uses it. In
// interactive mode an empty line is the operator cancelling, returned
// as an empty link for the caller to abort on.
func (b *Broker) Obtain(ctx context.Context) (string, error) {
	if b.filePath != "" {
		return b.obtainFromFile(ctx)
	}
	return b.obtainInteractive(ctx)
}

func (b *Broker) obtainFromFile(ctx context.Context) (string, error) {
	b.logger.Info().Str("path", b.filePath).Msg("Waiting for magic link file")

	for attempt := 0; attempt < b.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		data, err := os.ReadFile(b.filePath)
		if err == nil {
			link := strings.TrimSpace(string(data))
			if link != "" {
				b.logger.Info().Msg("Magic link received from file")
				return link, nil
			}
		} else if !os.IsNotExist(err) {
			b.logger.Warn().Err(err).Str("path", b.filePath).Msg("Could not read magic link file, retrying")
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(b.pollDelay):
		}
	}

	return "", fmt.Errorf("timed out waiting for magic link file %s", b.filePath)
}

func (b *Broker) obtainInteractive(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	fmt.Print("Paste the login link from your email (press Enter to cancel): ")
	line, err := bufio.NewReader(b.input).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading magic link: %w", err)
	}
	return strings.TrimSpace(line), nil
}
