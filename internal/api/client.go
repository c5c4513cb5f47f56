// Package api is the typed client for the storefront REST backend. It owns
// the response envelope contract, the error taxonomy, and the bearer-token
// refresh-and-retry policy; area clients (auth, cart, catalog, orders,
// addresses, admin) layer the endpoint surface on top of the core Client.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

// ErrSessionExpired is returned when the refresh-and-retry cycle ends in a
// terminal auth failure. Tokens have been cleared; the user must log in
// again.
var ErrSessionExpired = errors.New("session expired")

// TokenStore is the persisted token pair the client reads and rotates.
// Implemented by account.Store.
type TokenStore interface {
	Access() string
	Refresh() string
	SetPair(access, refresh string)
	ClearTokens()
}

// Options configures a Client.
type Options struct {
	// BaseURL is the backend root, e.g. "https://api.shop.example".
	BaseURL string
	// HTTPClient is the underlying client. Defaults to a 15s-timeout client.
	HTTPClient *http.Client
	// Tokens is the persisted token pair. Nil disables authentication
	// entirely (useful for anonymous catalog browsing and tests).
	Tokens TokenStore
	// OnSessionExpired is invoked after tokens are cleared on terminal auth
	// failure. The CLI uses it to prompt for a fresh login; a web layer
	// would redirect to its login route.
	OnSessionExpired func()
	// RefreshLeeway triggers a proactive refresh when the access token
	// expires within this window. Zero disables proactive refresh and
	// leaves renewal to the 401 path.
	RefreshLeeway time.Duration
}

// Client is the core HTTP client. All requests go through do, which applies
// the envelope contract and the refresh-and-retry policy.
type Client struct {
	base             *url.URL
	http             *http.Client
	tokens           TokenStore
	onSessionExpired func()
	refreshLeeway    time.Duration

	// refreshGroup deduplicates concurrent refresh attempts: any number of
	// in-flight requests hitting 401 at once produce exactly one call to
	// the refresh endpoint, and all of them wait for its outcome.
	refreshGroup singleflight.Group
}

// NewClient creates a Client for the backend at opts.BaseURL.
func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("base url %q must be absolute", opts.BaseURL)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		base:             base,
		http:             hc,
		tokens:           opts.Tokens,
		onSessionExpired: opts.OnSessionExpired,
		refreshLeeway:    opts.RefreshLeeway,
	}, nil
}

// authExemptPath reports whether path belongs to the auth surface that must
// never trigger refresh-and-retry (the refresh and login endpoints
// themselves, to avoid infinite loops).
func authExemptPath(path string) bool {
	return strings.HasPrefix(path, "/auth/")
}

// get issues a GET and decodes the envelope data into out.
func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, q, nil, out)
}

// post issues a POST with a JSON body and decodes the envelope data into out.
func (c *Client) post(ctx context.Context, path string, q url.Values, in, out any) error {
	return c.do(ctx, http.MethodPost, path, q, in, out)
}

// put issues a PUT with a JSON body and decodes the envelope data into out.
func (c *Client) put(ctx context.Context, path string, q url.Values, in, out any) error {
	return c.do(ctx, http.MethodPut, path, q, in, out)
}

// patch issues a PATCH with a JSON body and decodes the envelope data into out.
func (c *Client) patch(ctx context.Context, path string, q url.Values, in, out any) error {
	return c.do(ctx, http.MethodPatch, path, q, in, out)
}

// delete issues a DELETE and decodes the envelope data into out.
func (c *Client) delete(ctx context.Context, path string, q url.Values, out any) error {
	return c.do(ctx, http.MethodDelete, path, q, nil, out)
}

// do runs one logical API call: encode body, attach bearer, send, and on a
// 401 outside the auth surface refresh the token pair once and retry the
// request exactly once. The refresh itself is deduplicated across
// concurrent callers.
func (c *Client) do(ctx context.Context, method, path string, q url.Values, in, out any) error {
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encode request body")
		}
		payload = b
	}

	refreshable := c.tokens != nil && !authExemptPath(path)

	// Proactive renewal: if the access token is about to expire, refresh
	// before spending a round trip on a guaranteed 401.
	if refreshable && c.refreshLeeway > 0 && c.tokens.Refresh() != "" &&
		tokenExpiresWithin(c.tokens.Access(), c.refreshLeeway) {
		if err := c.refreshAccess(ctx); err != nil {
			c.expireSession()
			return err
		}
	}

	status, body, err := c.send(ctx, method, path, q, payload)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && refreshable && c.tokens.Refresh() != "" {
		if err := c.refreshAccess(ctx); err != nil {
			c.expireSession()
			return err
		}
		status, body, err = c.send(ctx, method, path, q, payload)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			c.expireSession()
			return ErrSessionExpired
		}
	}

	return decodeResponse(status, body, out)
}

// send performs a single HTTP exchange and reads the full response body.
// Transport-level failures come back wrapped as network errors, distinct
// from backend envelope errors.
func (c *Client) send(ctx context.Context, method, path string, q url.Values, payload []byte) (int, []byte, error) {
	u := *c.base
	u.Path = c.base.Path + path
	if q != nil {
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return 0, nil, errors.Wrap(err, "build request")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		if tok := c.tokens.Access(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, errors.Wrap(err, "network error")
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, errors.Wrap(err, "read response")
	}
	return resp.StatusCode, b, nil
}

// refreshAccess rotates the token pair through POST /auth/refresh. Callers
// racing on an expired token share a single in-flight refresh.
func (c *Client) refreshAccess(ctx context.Context) error {
	_, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		refresh := c.tokens.Refresh()
		if refresh == "" {
			return nil, ErrSessionExpired
		}
		in := map[string]string{"refreshToken": refresh}
		var out struct {
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
		}
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, errors.Wrap(err, "encode refresh request")
		}
		status, body, err := c.send(ctx, http.MethodPost, "/auth/refresh", nil, payload)
		if err != nil {
			return nil, err
		}
		if err := decodeResponse(status, body, &out); err != nil {
			return nil, errors.Wrap(ErrSessionExpired, err.Error())
		}
		c.tokens.SetPair(out.AccessToken, out.RefreshToken)
		return nil, nil
	})
	return err
}

// expireSession clears tokens and notifies the session-expired hook.
func (c *Client) expireSession() {
	if c.tokens != nil {
		c.tokens.ClearTokens()
	}
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}

// tokenExpiresWithin reports whether the JWT access token expires within
// leeway. Unparseable tokens report false: the server stays authoritative
// and the 401 path handles renewal.
func tokenExpiresWithin(token string, leeway time.Duration) bool {
	if token == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Until(exp.Time) < leeway
}
