package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	oauthgoogle "golang.org/x/oauth2/google"
	gsheet "google.golang.org/api/sheets/v4"
)

// authorizeTimeout bounds how long Authorize waits for the browser.
const authorizeTimeout = 5 * time.Minute

var (
	ErrMissingOAuthClient = errors.New("missing oauth client (set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE)")
	ErrMissingOAuthToken  = errors.New("missing oauth token (set GOOGLE_OAUTH_TOKEN_JSON or GOOGLE_OAUTH_TOKEN_FILE, or run sheets-auth)")
)

// OAuthConfig selects installed-app credentials acting as a user. Inline
// JSON takes precedence over files.
type OAuthConfig struct {
	ClientJSON string
	ClientFile string
	TokenJSON  string
	TokenFile  string
}

// Enabled reports whether OAuth client credentials were provided.
func (o OAuthConfig) Enabled() bool {
	return strings.TrimSpace(o.ClientJSON) != "" || strings.TrimSpace(o.ClientFile) != ""
}

// ClientConfig parses the OAuth client for the spreadsheets scope.
func (o OAuthConfig) ClientConfig() (*oauth2.Config, error) {
	b, err := readSecret(o.ClientJSON, o.ClientFile)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrMissingOAuthClient
	}
	cfg, err := oauthgoogle.ConfigFromJSON(b, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	return cfg, nil
}

// Token reads the stored user token.
func (o OAuthConfig) Token() (*oauth2.Token, error) {
	b, err := readSecret(o.TokenJSON, o.TokenFile)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrMissingOAuthToken
	}
	var tok oauth2.Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}
	return &tok, nil
}

// TokenSource returns a refreshing token source for the stored token.
func (o OAuthConfig) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	cfg, err := o.ClientConfig()
	if err != nil {
		return nil, err
	}
	tok, err := o.Token()
	if err != nil {
		return nil, err
	}
	return cfg.TokenSource(ctx, tok), nil
}

// SaveToken writes tok to path readable only by the owner.
func SaveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		f.Close()
		return fmt.Errorf("write token: %w", err)
	}
	return f.Close()
}

// Authorize runs the installed-app consent flow: it prints the consent URL
// to out, waits on a local callback listener for the code and exchanges it
// for a token.
func Authorize(ctx context.Context, o OAuthConfig, listener net.Listener, out io.Writer) (*oauth2.Token, error) {
	cfg, err := o.ClientConfig()
	if err != nil {
		return nil, err
	}
	cfg.RedirectURL = "http://" + listener.Addr().String() + "/callback"
	state := uuid.NewString()

	type result struct {
		code string
		err  error
	}
	results := make(chan result, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var res result
		switch {
		case q.Get("error") != "":
			res.err = fmt.Errorf("oauth error: %s", q.Get("error"))
		case q.Get("state") != state:
			res.err = errors.New("oauth state mismatch")
		default:
			res.code = q.Get("code")
		}
		if res.err != nil {
			http.Error(w, res.err.Error(), http.StatusBadRequest)
		} else {
			fmt.Fprintln(w, "You may close this window and return to the terminal.")
		}
		select {
		case results <- res:
		default:
		}
	})
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = srv.Serve(listener) }()
	defer srv.Close()

	fmt.Fprintf(out, "Open this URL to authorize:\n%s\n", cfg.AuthCodeURL(state, oauth2.AccessTypeOffline))

	ctx, cancel := context.WithTimeout(ctx, authorizeTimeout)
	defer cancel()

	select {
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		tok, err := cfg.Exchange(ctx, res.code)
		if err != nil {
			return nil, fmt.Errorf("token exchange: %w", err)
		}
		return tok, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("authorization aborted: %w", ctx.Err())
	}
}

// readSecret returns inline when set, otherwise the contents of file, or
// nil when neither is configured.
func readSecret(inline, file string) ([]byte, error) {
	if s := strings.TrimSpace(inline); s != "" {
		return []byte(s), nil
	}
	if file = strings.TrimSpace(file); file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		return b, nil
	}
	return nil, nil
}
