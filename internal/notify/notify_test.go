package notify

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestConsoleBlocksForDuration(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(&out, 5*time.Second, zerolog.Nop())

	var waited []time.Duration
	c.wait = func(_ context.Context, d time.Duration) { waited = append(waited, d) }

	c.Notify(context.Background(), MsgSent)
	c.Notify(context.Background(), MsgRecipientInvalid)

	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, waited)
	assert.Contains(t, out.String(), "| Email sent successfully!")
	assert.Contains(t, out.String(), "| ERROR: Recipient email is invalid")
}

func TestConsoleZeroDurationDoesNotWait(t *testing.T) {
	c := NewConsole(&bytes.Buffer{}, 0, zerolog.Nop())
	c.wait = func(context.Context, time.Duration) { t.Fatal("unexpected wait") }

	c.Notify(context.Background(), MsgSent)
}

func TestConsoleTruncatesLongMessages(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(&out, 0, zerolog.Nop())

	c.Notify(context.Background(), strings.Repeat("word ", 40))

	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		assert.Len(t, line, popupWidth+4)
	}
	assert.Contains(t, out.String(), "...")
}

func TestSleepReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		sleep(ctx, time.Hour)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sleep ignored cancellation")
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	r.Notify(context.Background(), "one")
	r.Notify(context.Background(), "two")

	msgs := r.Messages()
	assert.Equal(t, []string{"one", "two"}, msgs)

	msgs[0] = "changed"
	assert.Equal(t, "one", r.Messages()[0])
}
