package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ClientCred caches a client credentials token shared by concurrent callers.
type ClientCred struct {
	conf clientcredentials.Config
	mu   sync.Mutex
	src  oauth2.TokenSource
}

func NewClientCred(conf Conf) *ClientCred {
	cc := conf.toOauth2Config()
	return &ClientCred{
		conf: cc,
		src:  cc.TokenSource(context.Background()),
	}
}

func (c *ClientCred) source() oauth2.TokenSource {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.src
}

// GetToken retrieves a valid access token, requesting a new one only when
// the cached token expired.
func (c *ClientCred) GetToken() (string, error) {
	tok, err := c.source().Token()
	if err != nil {
		return "", fmt.Errorf("failed to get token: %w", err)
	}
	return tok.AccessToken, nil
}

// ForceRefresh requests a new token and makes it the cached one.
func (c *ClientCred) ForceRefresh(ctx context.Context) (string, error) {
	tok, err := c.conf.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get token: %w", err)
	}
	c.mu.Lock()
	c.src = oauth2.ReuseTokenSource(tok, c.conf.TokenSource(context.Background()))
	c.mu.Unlock()
	return tok.AccessToken, nil
}

func (c *ClientCred) SetAuthHeader(r *http.Request) error {
	tok, err := c.source().Token()
	if err != nil {
		return fmt.Errorf("failed to get token: %w", err)
	}
	tok.SetAuthHeader(r)
	return nil
}

// HTTPClient returns a client that authenticates every request. A nil
// cred yields a plain client.
func HTTPClient(cred *ClientCred, timeout time.Duration) *http.Client {
	if cred == nil {
		return &http.Client{Timeout: timeout}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &oauth2.Transport{Source: sourceFunc(cred.source)},
	}
}

// sourceFunc resolves the current token source on every call so that
// ForceRefresh is picked up by existing clients.
type sourceFunc func() oauth2.TokenSource

func (f sourceFunc) Token() (*oauth2.Token, error) { return f().Token() }
