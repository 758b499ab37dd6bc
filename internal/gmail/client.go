// Gmail API client that submits raw MIME messages as the signed-in user
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/FarhadManiCodes/gmail-file-mailer/internal/config"
	"github.com/FarhadManiCodes/gmail-file-mailer/internal/mailer"
)

// TokenProvider hands out a token for a sender. See credentials.Manager.
type TokenProvider interface {
	Token(ctx context.Context, sender string) (*oauth2.Token, error)
}

// Client opens Gmail sessions for senders.
type Client struct {
	tokens TokenProvider
	oauth  *oauth2.Config
	userID string
	opts   []option.ClientOption
	log    zerolog.Logger
}

// NewClient creates a client. oauthCfg is used to refresh tokens that
// expire mid-session and may be nil.
func NewClient(cfg config.GmailConfig, tokens TokenProvider, oauthCfg *oauth2.Config, log zerolog.Logger, opts ...option.ClientOption) *Client {
	userID := cfg.UserID
	if userID == "" {
		userID = "me"
	}
	return &Client{
		tokens: tokens,
		oauth:  oauthCfg,
		userID: userID,
		opts:   opts,
		log:    log,
	}
}

// Open authenticates as sender and returns a session for sending.
func (c *Client) Open(ctx context.Context, sender string) (mailer.Session, error) {
	tok, err := c.tokens.Token(ctx, sender)
	if err != nil {
		return nil, err
	}

	var ts oauth2.TokenSource = oauth2.StaticTokenSource(tok)
	if c.oauth != nil {
		ts = c.oauth.TokenSource(ctx, tok)
	}

	opts := append([]option.ClientOption{option.WithTokenSource(ts)}, c.opts...)
	svc, err := gmailapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gmail: failed to create service: %w", err)
	}

	c.log.Debug().Str("sender", sender).Msg("gmail session opened")
	return &Session{service: svc, userID: c.userID}, nil
}

// Session is an authenticated Gmail service bound to one mailbox.
type Session struct {
	service *gmailapi.Service
	userID  string
}

// Send submits raw through users.messages.send. Rejections are mapped onto
// the mailer failure kinds.
func (s *Session) Send(ctx context.Context, raw []byte) error {
	msg := &gmailapi.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}

	if _, err := s.service.Users.Messages.Send(s.userID, msg).Context(ctx).Do(); err != nil {
		return Classify(err)
	}
	return nil
}
