package credentials

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// newTokenServer fakes the provider token endpoint, accepting only code
// "good-code" or refresh token "r1".
func newTokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())

		var access string
		switch r.PostForm.Get("grant_type") {
		case "authorization_code":
			if r.PostForm.Get("code") != "good-code" || r.PostForm.Get("code_verifier") == "" {
				http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
				return
			}
			access = "from-code"
		case "refresh_token":
			if r.PostForm.Get("refresh_token") != "r1" {
				http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
				return
			}
			access = "from-refresh"
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  access,
			"token_type":    "Bearer",
			"refresh_token": "r1",
			"expires_in":    3600,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestAuthorizer(t *testing.T, tokenURL string) *LocalServerAuthorizer {
	cfg := &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.example.com/auth",
			TokenURL: tokenURL,
		},
		Scopes: []string{"https://www.googleapis.com/auth/gmail.send"},
	}
	return newLocalServerAuthorizer(cfg, 5*time.Second, zerolog.Nop())
}

// callback plays the browser: it follows the consent redirect with the
// given query parameters.
func callback(t *testing.T, params func(state string) url.Values) func(string) error {
	return func(authURL string) error {
		u, err := url.Parse(authURL)
		require.NoError(t, err)
		q := u.Query()
		assert.Equal(t, "offline", q.Get("access_type"))
		assert.Equal(t, "S256", q.Get("code_challenge_method"))

		go func() {
			redirect := q.Get("redirect_uri") + "?" + params(q.Get("state")).Encode()
			resp, err := http.Get(redirect)
			if err == nil {
				resp.Body.Close()
			}
		}()
		return nil
	}
}

func TestAuthorizeExchangesCode(t *testing.T) {
	a := newTestAuthorizer(t, newTokenServer(t).URL)
	a.open = callback(t, func(state string) url.Values {
		return url.Values{"state": {state}, "code": {"good-code"}}
	})

	tok, err := a.Authorize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from-code", tok.AccessToken)
	assert.Equal(t, "r1", tok.RefreshToken)
}

func TestAuthorizeRejectsWrongState(t *testing.T) {
	a := newTestAuthorizer(t, newTokenServer(t).URL)
	a.open = callback(t, func(string) url.Values {
		return url.Values{"state": {"forged"}, "code": {"good-code"}}
	})

	_, err := a.Authorize(context.Background())
	assert.ErrorIs(t, err, ErrStateMismatch)
}

func TestAuthorizeAccessDenied(t *testing.T) {
	a := newTestAuthorizer(t, newTokenServer(t).URL)
	a.open = callback(t, func(state string) url.Values {
		return url.Values{"state": {state}, "error": {"access_denied"}}
	})

	_, err := a.Authorize(context.Background())
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestAuthorizeTimeout(t *testing.T) {
	a := newTestAuthorizer(t, newTokenServer(t).URL)
	a.timeout = 50 * time.Millisecond
	a.open = func(string) error { return nil }

	_, err := a.Authorize(context.Background())
	assert.ErrorIs(t, err, ErrAuthTimeout)
}

func TestAuthorizeCancelled(t *testing.T) {
	a := newTestAuthorizer(t, newTokenServer(t).URL)
	ctx, cancel := context.WithCancel(context.Background())
	a.open = func(string) error {
		cancel()
		return nil
	}

	_, err := a.Authorize(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRefresh(t *testing.T) {
	a := newTestAuthorizer(t, newTokenServer(t).URL)

	tok, err := a.Refresh(context.Background(), &oauth2.Token{
		AccessToken:  "stale",
		RefreshToken: "r1",
		Expiry:       time.Now().Add(-time.Minute),
	})
	require.NoError(t, err)
	assert.Equal(t, "from-refresh", tok.AccessToken)

	_, err = a.Refresh(context.Background(), &oauth2.Token{RefreshToken: "revoked"})
	assert.Error(t, err)
}

func TestNewLocalServerAuthorizerReadsClientSecrets(t *testing.T) {
	fs := afero.NewMemMapFs()
	secrets := `{"installed":{"client_id":"id.apps.googleusercontent.com","client_secret":"s",` +
		`"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token",` +
		`"redirect_uris":["http://localhost"]}}`
	require.NoError(t, afero.WriteFile(fs, "credentials.json", []byte(secrets), 0o600))

	a, err := NewLocalServerAuthorizer(fs, "credentials.json", time.Minute, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "id.apps.googleusercontent.com", a.config.ClientID)
	assert.Equal(t, []string{"https://www.googleapis.com/auth/gmail.send"}, a.config.Scopes)

	_, err = NewLocalServerAuthorizer(fs, "missing.json", time.Minute, zerolog.Nop())
	assert.Error(t, err)
}
