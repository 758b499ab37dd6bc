// Package mailer turns a request file into a delivered message, reporting the
// outcome to the user and the audit directory.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/FarhadManiCodes/gmail-file-mailer/internal/notify"
	"github.com/FarhadManiCodes/gmail-file-mailer/internal/request"
	"github.com/FarhadManiCodes/gmail-file-mailer/internal/utils"
)

// Session is an authenticated connection able to submit a raw MIME message.
type Session interface {
	Send(ctx context.Context, raw []byte) error
}

// Dialer opens a session on behalf of a sender.
type Dialer interface {
	Open(ctx context.Context, sender string) (Session, error)
}

// Auditor records sends. See audit.Writer.
type Auditor interface {
	Record(raw []byte, at time.Time) (string, error)
	Fail() error
}

// Outcome summarizes a processed request.
type Outcome int

const (
	Sent Outcome = iota
	Failed
)

func (o Outcome) String() string {
	if o == Sent {
		return "sent"
	}
	return "failed"
}

var failureMessages = map[error]string{
	ErrAuth:      notify.MsgAuthFailed,
	ErrData:      notify.MsgDataFailed,
	ErrRecipient: notify.MsgRecipientInvalid,
}

// Service runs one request through parse, compose, send and audit.
type Service struct {
	fs       afero.Fs
	dialer   Dialer
	notifier notify.Notifier
	audit    Auditor
	now      func() time.Time
	log      zerolog.Logger
}

func NewService(fs afero.Fs, dialer Dialer, notifier notify.Notifier, audit Auditor, log zerolog.Logger) *Service {
	return &Service{
		fs:       fs,
		dialer:   dialer,
		notifier: notifier,
		audit:    audit,
		now:      time.Now,
		log:      log,
	}
}

// Process sends the request stored at path. Rejections the provider
// classifies are reported and recorded, and Process returns Failed with a nil
// error. Any other error is returned for the caller to treat as fatal.
func (s *Service) Process(ctx context.Context, path string) (Outcome, error) {
	req, err := request.ParseFile(s.fs, path)
	if err != nil {
		s.notifier.Notify(ctx, "ERROR: "+err.Error())
		return Failed, err
	}

	log := s.log.With().Str("from", req.Sender).Str("to", req.Recipient).Logger()
	for _, w := range req.Validate() {
		log.Warn().Msg(w)
	}

	att, err := s.loadAttachment(ctx, req)
	if err != nil {
		return Failed, err
	}

	raw, err := Compose(req, att, s.now())
	if err != nil {
		return Failed, err
	}

	session, err := s.dialer.Open(ctx, req.Sender)
	if err != nil {
		s.notifier.Notify(ctx, "ERROR: could not sign in as "+req.Sender)
		return Failed, fmt.Errorf("open session: %w", err)
	}

	if err := session.Send(ctx, raw); err != nil {
		kind := Kind(err)
		if kind == nil {
			return Failed, fmt.Errorf("send: %w", err)
		}

		log.Error().Err(err).Msg("send rejected")
		s.notifier.Notify(ctx, failureMessages[kind])
		if ferr := s.audit.Fail(); ferr != nil {
			return Failed, ferr
		}
		return Failed, nil
	}

	s.notifier.Notify(ctx, notify.MsgSent)

	// The archive is named for the moment the send completed.
	record, err := s.audit.Record(req.Raw, s.now())
	if err != nil {
		return Sent, err
	}
	log.Info().Str("subject", utils.TruncateString(req.Subject, 60, "...")).Str("record", record).Msg("email sent")
	return Sent, nil
}

// loadAttachment reads the request's attachment. A missing file is reported
// and the message goes out without it.
func (s *Service) loadAttachment(ctx context.Context, req *request.SendRequest) (*Attachment, error) {
	if !req.HasAttachment() {
		return nil, nil
	}

	content, err := afero.ReadFile(s.fs, req.Attachment)
	if errors.Is(err, os.ErrNotExist) {
		s.log.Warn().Str("attachment", req.Attachment).Msg("attachment not found, sending without it")
		s.notifier.Notify(ctx, notify.MsgAttachmentMissing)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}

	s.log.Debug().Str("attachment", req.Attachment).Str("size", utils.FormatFileSize(int64(len(content)))).Msg("attaching file")
	return &Attachment{Filename: req.Attachment, Content: content}, nil
}
