// Package notify shows short-lived messages to the person at the keyboard.
package notify

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/FarhadManiCodes/gmail-file-mailer/internal/utils"
)

// User-facing messages.
const (
	MsgSent              = "Email sent successfully!"
	MsgAuthFailed        = "ERROR: Email failed to send"
	MsgDataFailed        = "ERROR: Issue with message data"
	MsgRecipientInvalid  = "ERROR: Recipient email is invalid"
	MsgAttachmentMissing = "ERROR: File could not be found. File will not be attached to email."
	MsgInvalidWatchFile  = "email_data.txt was an invalid file."
)

// popupWidth matches the fixed-size window the messages were written for.
const popupWidth = 72

// Notifier displays a message and returns once it has been dismissed.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// Console draws a boxed message on a terminal and holds it for Duration,
// blocking the caller the same way a modal popup would.
type Console struct {
	out      io.Writer
	log      zerolog.Logger
	duration time.Duration
	wait     func(ctx context.Context, d time.Duration)
}

// NewConsole creates a console notifier. A zero duration does not block.
func NewConsole(out io.Writer, duration time.Duration, log zerolog.Logger) *Console {
	return &Console{
		out:      out,
		log:      log,
		duration: duration,
		wait:     sleep,
	}
}

func (c *Console) Notify(ctx context.Context, message string) {
	c.log.Info().Str("notification", message).Msg("notify")

	text := utils.TruncateString(message, popupWidth, "...")
	border := "+" + strings.Repeat("-", popupWidth+2) + "+"
	fmt.Fprintf(c.out, "%s\n| %-*s |\n%s\n", border, popupWidth, text, border)

	if c.duration > 0 {
		c.wait(ctx, c.duration)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Recorder keeps every message in memory without blocking.
type Recorder struct {
	mu       sync.Mutex
	messages []string
}

func (r *Recorder) Notify(_ context.Context, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

// Messages returns a copy of what has been shown so far.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}
