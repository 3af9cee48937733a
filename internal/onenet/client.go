package onenet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxResponseBytes bounds how much of a remote body is read.
const maxResponseBytes = 8 << 20

// Logger defines the logging interface used by the Client.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// ClientConfig configures a Client.
type ClientConfig struct {
	V1BaseURL string
	V2BaseURL string

	// HTTPClient defaults to a client with Timeout. Zero Timeout leaves
	// calls bounded only by the caller's context.
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client talks to both OneNET API generations.
// It makes exactly one attempt per call; there are no retries.
type Client struct {
	v1Base     string
	v2Base     string
	httpClient *http.Client
	logger     Logger
}

// NewClient creates a Client.
func NewClient(cfg ClientConfig) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		v1Base:     strings.TrimRight(cfg.V1BaseURL, "/"),
		v2Base:     strings.TrimRight(cfg.V2BaseURL, "/"),
		httpClient: hc,
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the client.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// Request describes one outbound call.
type Request struct {
	Method string
	Path   string
	Query  url.Values

	// JSON is marshalled as the body when set. Otherwise Body is sent with
	// ContentType.
	JSON        any
	Body        io.Reader
	ContentType string

	// Service selects the base URL. Empty uses the credential's version;
	// the v2 file service is called with either credential.
	Service Version
}

// Result is the remote's answer to a call that reached OneNET.
type Result struct {
	HTTPStatus int
	Response   Response
}

// Err converts an application-level failure into *IntegrationError.
func (r *Result) Err() error {
	if r == nil {
		return nil
	}
	return ResponseError(r.Response, r.HTTPStatus, http.StatusText(r.HTTPStatus))
}

// Do sends req with auth's credential header and decodes the envelope.
//
// A missing credential fails before any network activity. Network failures
// wrap ErrTransport; undecodable bodies wrap ErrInvalidResponse. A decoded
// failure envelope is not an error here; see Result.Err.
func (c *Client) Do(ctx context.Context, auth AuthContext, req Request) (*Result, error) {
	headers, err := auth.Headers()
	if err != nil {
		return nil, err
	}

	service := req.Service
	if service == "" {
		service = auth.Version
	}
	base := c.v1Base
	if service == VersionV2 {
		base = c.v2Base
	}

	target := base + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	body, contentType := req.Body, req.ContentType
	if req.JSON != nil {
		raw, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body, contentType = bytes.NewReader(raw), "application/json"
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("onenet request failed", "method", method, "path", req.Path, "auth", auth.String(), "error", err)
		return nil, fmt.Errorf("%w: %s %s: %v", ErrTransport, method, req.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrTransport, err)
	}

	c.logger.Debug("onenet request",
		"method", method,
		"path", req.Path,
		"version", auth.Version,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	decoded, err := DecodeResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s %s (http %d): %w", method, req.Path, resp.StatusCode, err)
	}
	return &Result{HTTPStatus: resp.StatusCode, Response: decoded}, nil
}

// call runs req and decodes a successful envelope's data into T.
// The Result is returned whenever the remote answered, including failures.
func call[T any](ctx context.Context, c *Client, auth AuthContext, req Request) (T, *Result, error) {
	var zero T
	res, err := c.Do(ctx, auth, req)
	if err != nil {
		return zero, nil, err
	}
	if err := res.Err(); err != nil {
		return zero, res, err
	}
	data, err := DecodeData[T](res.Response)
	if err != nil {
		return zero, res, err
	}
	return data, res, nil
}

// requireVersion checks auth belongs to want.
func requireVersion(auth AuthContext, want Version) error {
	if auth.Version != want {
		return fmt.Errorf("%w: need %s, got %q", ErrVersionMismatch, want, string(auth.Version))
	}
	return nil
}
