package onenet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTokenTTL is the lifetime of locally minted tokens.
const DefaultTokenTTL = time.Hour

// TokenMinter produces a v2 bearer token for a user.
type TokenMinter interface {
	Mint(ctx context.Context, userID, accessKey string) (string, error)
}

// TokenRequest is the body accepted by a token service.
type TokenRequest struct {
	UserID    string `json:"user_id"`
	AccessKey string `json:"access_key"`
}

// TokenResponse is the body returned by a token service.
type TokenResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Error   string `json:"error,omitempty"`
}

// LocalTokenMinter signs tokens in-process for resource "userid/<id>".
type LocalTokenMinter struct {
	Method SignMethod
	TTL    time.Duration
	now    func() time.Time
}

// NewLocalTokenMinter creates a minter. Zero values select md5 and DefaultTokenTTL.
func NewLocalTokenMinter(method SignMethod, ttl time.Duration) *LocalTokenMinter {
	if method == "" {
		method = SignMD5
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &LocalTokenMinter{Method: method, TTL: ttl, now: time.Now}
}

// Mint implements TokenMinter.
func (m *LocalTokenMinter) Mint(_ context.Context, userID, accessKey string) (string, error) {
	if userID == "" || accessKey == "" {
		return "", fmt.Errorf("%w: user_id and access_key are required", ErrMissingCredential)
	}
	return SignCapabilityAt(m.now(), m.Method, UserResource(userID), accessKey, m.TTL)
}

// UserResource is the capability resource granting a user's full access.
func UserResource(userID string) string {
	return "userid/" + userID
}

// HTTPTokenMinter asks an external token service to mint tokens.
type HTTPTokenMinter struct {
	url        string
	httpClient *http.Client
}

// NewHTTPTokenMinter creates a minter posting to url. A nil client selects
// http.DefaultClient.
func NewHTTPTokenMinter(url string, client *http.Client) *HTTPTokenMinter {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTokenMinter{url: url, httpClient: client}
}

// Mint implements TokenMinter.
func (m *HTTPTokenMinter) Mint(ctx context.Context, userID, accessKey string) (string, error) {
	return m.RequestBearerToken(ctx, userID, accessKey)
}

// RequestBearerToken posts the user's id and access key to the token
// service. A non-2xx status or success=false yields *IntegrationError.
func (m *HTTPTokenMinter) RequestBearerToken(ctx context.Context, userID, accessKey string) (string, error) {
	body, err := json.Marshal(TokenRequest{UserID: userID, AccessKey: accessKey})
	if err != nil {
		return "", fmt.Errorf("encoding token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: token service: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: reading token response: %v", ErrTransport, err)
	}

	var out struct {
		TokenResponse
		Detail string `json:"detail"`
	}
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := firstNonEmpty(out.Error, out.Detail, "Failed to generate token")
		return "", &IntegrationError{Version: VersionV2, Status: resp.StatusCode, Code: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return "", fmt.Errorf("%w: token service: %v", ErrInvalidResponse, decodeErr)
	}
	if !out.Success || out.Token == "" {
		msg := firstNonEmpty(out.Error, out.Detail, "token service declined the request")
		return "", &IntegrationError{Version: VersionV2, Status: resp.StatusCode, Code: -1, Message: msg}
	}
	return out.Token, nil
}

// CachingMinter reuses a token until refreshBefore its expiry.
// Concurrent requests for the same user share one mint.
type CachingMinter struct {
	inner         TokenMinter
	refreshBefore time.Duration
	now           func() time.Time

	mu      sync.Mutex
	entries map[string]cachedToken
	group   singleflight.Group
}

type cachedToken struct {
	token     string
	expiresAt time.Time
}

// NewCachingMinter wraps inner. refreshBefore <= 0 selects one minute.
func NewCachingMinter(inner TokenMinter, refreshBefore time.Duration) *CachingMinter {
	if refreshBefore <= 0 {
		refreshBefore = time.Minute
	}
	return &CachingMinter{
		inner:         inner,
		refreshBefore: refreshBefore,
		now:           time.Now,
		entries:       make(map[string]cachedToken),
	}
}

// Mint implements TokenMinter.
func (c *CachingMinter) Mint(ctx context.Context, userID, accessKey string) (string, error) {
	key := userID + "\x00" + accessKey

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.now().Add(c.refreshBefore).Before(e.expiresAt) {
		c.mu.Unlock()
		return e.token, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(key, func() (any, error) {
		token, err := c.inner.Mint(ctx, userID, accessKey)
		if err != nil {
			return "", err
		}
		// Tokens that don't parse are used once and not cached.
		if capability, perr := ParseCapability(token); perr == nil {
			c.mu.Lock()
			c.entries[key] = cachedToken{token: token, expiresAt: capability.Expiry()}
			c.mu.Unlock()
		}
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Forget drops every cached token.
func (c *CachingMinter) Forget() {
	c.mu.Lock()
	c.entries = make(map[string]cachedToken)
	c.mu.Unlock()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
