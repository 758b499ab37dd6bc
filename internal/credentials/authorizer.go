package credentials

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/browser"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
)

var (
	ErrAuthTimeout   = errors.New("timed out waiting for authorization")
	ErrStateMismatch = errors.New("authorization callback state mismatch")
	ErrAccessDenied  = errors.New("authorization was denied")
)

// LocalServerAuthorizer runs the installed-app OAuth flow: it listens on a
// loopback port, sends the user to the consent page and exchanges the code
// delivered to the callback.
type LocalServerAuthorizer struct {
	config  *oauth2.Config
	timeout time.Duration
	open    func(url string) error
	log     zerolog.Logger
}

// NewLocalServerAuthorizer loads the OAuth client secret file downloaded
// from the Google Cloud console.
func NewLocalServerAuthorizer(fs afero.Fs, credentialsFile string, timeout time.Duration, log zerolog.Logger) (*LocalServerAuthorizer, error) {
	data, err := afero.ReadFile(fs, credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read client credentials: %w", err)
	}

	cfg, err := google.ConfigFromJSON(data, gmailapi.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("parse client credentials: %w", err)
	}
	return newLocalServerAuthorizer(cfg, timeout, log), nil
}

func newLocalServerAuthorizer(cfg *oauth2.Config, timeout time.Duration, log zerolog.Logger) *LocalServerAuthorizer {
	return &LocalServerAuthorizer{
		config:  cfg,
		timeout: timeout,
		open:    browser.OpenURL,
		log:     log,
	}
}

// Config returns the OAuth client configuration, used to keep a session's
// token fresh while it is in use.
func (a *LocalServerAuthorizer) Config() *oauth2.Config {
	return a.config
}

// Refresh uses the refresh token to mint a new access token.
func (a *LocalServerAuthorizer) Refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error) {
	expired := *tok
	expired.AccessToken = ""
	return a.config.TokenSource(ctx, &expired).Token()
}

// Authorize blocks until the user completes consent in the browser, the
// timeout elapses, or ctx is cancelled.
func (a *LocalServerAuthorizer) Authorize(ctx context.Context) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("start callback listener: %w", err)
	}

	cfg := *a.config
	cfg.RedirectURL = fmt.Sprintf("http://%s/", ln.Addr().String())

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	type result struct {
		code string
		err  error
	}
	results := make(chan result, 1)

	srv := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			var res result
			switch {
			case q.Get("state") != state:
				res.err = ErrStateMismatch
			case q.Get("error") != "":
				res.err = fmt.Errorf("%w: %s", ErrAccessDenied, q.Get("error"))
			case q.Get("code") == "":
				http.NotFound(w, r)
				return
			default:
				res.code = q.Get("code")
			}

			if res.err != nil {
				http.Error(w, "Authorization failed. You may close this window.", http.StatusBadRequest)
			} else {
				fmt.Fprintln(w, "Authorization complete. You may close this window.")
			}

			select {
			case results <- res:
			default:
			}
		}),
	}
	go srv.Serve(ln) //nolint:errcheck // returns ErrServerClosed on shutdown
	defer srv.Close()

	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce, oauth2.S256ChallengeOption(verifier))
	a.log.Info().Str("redirect", cfg.RedirectURL).Msg("waiting for authorization in browser")
	if err := a.open(authURL); err != nil {
		a.log.Warn().Err(err).Str("url", authURL).Msg("could not open browser, visit the URL manually")
	}

	timer := time.NewTimer(a.timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrAuthTimeout
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		tok, err := cfg.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
		if err != nil {
			return nil, fmt.Errorf("exchange authorization code: %w", err)
		}
		return tok, nil
	}
}
