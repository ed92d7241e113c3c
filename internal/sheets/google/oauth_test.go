package google

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func clientJSON(tokenURL string) string {
	return `{"installed":{"client_id":"id","client_secret":"secret","redirect_uris":["http://localhost"],` +
		`"auth_uri":"https://accounts.example.com/auth","token_uri":"` + tokenURL + `"}}`
}

func TestOAuthConfigErrors(t *testing.T) {
	assert.False(t, OAuthConfig{}.Enabled())

	_, err := OAuthConfig{}.ClientConfig()
	assert.ErrorIs(t, err, ErrMissingOAuthClient)

	_, err = OAuthConfig{ClientJSON: "invalid-json"}.ClientConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oauth config")

	_, err = OAuthConfig{ClientJSON: clientJSON("https://x")}.Token()
	assert.ErrorIs(t, err, ErrMissingOAuthToken)

	_, err = OAuthConfig{TokenJSON: "{"}.Token()
	assert.Error(t, err)

	_, err = OAuthConfig{ClientFile: filepath.Join(t.TempDir(), "missing.json")}.ClientConfig()
	assert.Error(t, err)
}

func TestSaveTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, SaveToken(path, &oauth2.Token{AccessToken: "test", TokenType: "Bearer", RefreshToken: "r"}))

	tok, err := OAuthConfig{TokenFile: path}.Token()
	require.NoError(t, err)
	assert.Equal(t, "test", tok.AccessToken)
	assert.Equal(t, "r", tok.RefreshToken)

	ts, err := OAuthConfig{ClientJSON: clientJSON("https://x"), TokenFile: path}.TokenSource(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, ts)
}

// consentWriter plays the browser: when the consent URL is printed it
// calls the redirect URI with a code and the echoed state.
type consentWriter struct {
	t    *testing.T
	once sync.Once
	done chan struct{}
}

func (c *consentWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(string(p), "\n") {
		if !strings.HasPrefix(line, "https://") {
			continue
		}
		c.once.Do(func() {
			u, err := url.Parse(line)
			require.NoError(c.t, err)
			q := u.Query()
			go func() {
				defer close(c.done)
				resp, err := http.Get(q.Get("redirect_uri") + "?code=the-code&state=" + url.QueryEscape(q.Get("state")))
				if err == nil {
					io.Copy(io.Discard, resp.Body)
					resp.Body.Close()
				}
			}()
		})
	}
	return len(p), nil
}

func TestAuthorizeExchangesCode(t *testing.T) {
	var (
		mu      sync.Mutex
		gotCode string
	)
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		mu.Lock()
		gotCode = r.Form.Get("code")
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access_token":"tok","token_type":"Bearer","refresh_token":"ref","expires_in":3600}`)
	}))
	defer tokenSrv.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	out := &consentWriter{t: t, done: make(chan struct{})}
	tok, err := Authorize(context.Background(), OAuthConfig{ClientJSON: clientJSON(tokenSrv.URL)}, ln, out)
	require.NoError(t, err)
	<-out.done

	mu.Lock()
	assert.Equal(t, "the-code", gotCode)
	mu.Unlock()
	assert.Equal(t, "tok", tok.AccessToken)
	assert.Equal(t, "ref", tok.RefreshToken)
}

func TestAuthorizeRejectsWrongState(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		// The listener is bound, so this waits in the backlog for Serve.
		resp, err := http.Get("http://" + ln.Addr().String() + "/callback?code=x&state=forged")
		if err == nil {
			resp.Body.Close()
		}
	}()

	_, err = Authorize(context.Background(), OAuthConfig{ClientJSON: clientJSON("https://x")}, ln, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "state mismatch")
}
