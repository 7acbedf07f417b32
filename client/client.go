// Package client is the REST client for the Thappy backend. Failures are
// reported as go-errors values: API responses carry the HTTP status code
// and the backend's message verbatim, network failures are retryable
// operation errors that never reached the server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	goerrors "github.com/goliatone/go-errors"
	session "github.com/thappy/go-session"
)

// API endpoint paths.
const (
	EndpointHealth           = "/health"
	EndpointLogin            = "/api/login"
	EndpointRegister         = "/api/register"
	EndpointRegisterWithRole = "/api/register-with-role"
	EndpointProfile          = "/api/profile"
	EndpointUpdateProfile    = "/api/profile/update"

	EndpointClientProfile       = "/api/client/profile"
	EndpointClientProfileGet    = "/api/client/profile/get"
	EndpointClientContactInfo   = "/api/client/profile/contact-info"
	EndpointTherapistsAccepting = "/api/therapists/accepting"
)

const defaultTimeout = 30 * time.Second

// TokenSource supplies the bearer token attached to authenticated
// requests. Returning false sends the request unauthenticated.
type TokenSource interface {
	Get(ctx context.Context) (string, bool)
}

// TokenSourceFunc adapts a function to the TokenSource interface.
type TokenSourceFunc func(ctx context.Context) (string, bool)

// Get implements TokenSource.
func (f TokenSourceFunc) Get(ctx context.Context) (string, bool) {
	if f == nil {
		return "", false
	}
	return f(ctx)
}

// Client talks to the Thappy REST API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  session.Logger
}

// Option customizes Client construction.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTokenSource attaches a bearer token source; a session TokenStore
// satisfies this via its Get method.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		if ts != nil {
			c.tokens = ts
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger session.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns a Client for the given base URL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

var _ session.APIClient = (*Client)(nil)

// apiEnvelope is the common response wrapper.
type apiEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type authResponse struct {
	apiEnvelope
	Token string        `json:"token"`
	User  *session.User `json:"user"`
}

type userResponse struct {
	apiEnvelope
	User *session.User `json:"user"`
}

// HealthResponse reports backend liveness.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service,omitempty"`
}

// Health checks backend liveness.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	out := &HealthResponse{}
	if err := c.do(ctx, http.MethodGet, EndpointHealth, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, creds session.Credentials) (*session.AuthResult, error) {
	out := &authResponse{}
	if err := c.do(ctx, http.MethodPost, EndpointLogin, creds, out); err != nil {
		return nil, err
	}
	if out.Token == "" || out.User == nil {
		return nil, malformedResponse("token or user")
	}
	return &session.AuthResult{Token: out.Token, User: out.User}, nil
}

// Register creates an account. A populated Role routes through the
// role-aware endpoint; otherwise the backend creates a client account.
func (c *Client) Register(ctx context.Context, reg session.Registration) (*session.AuthResult, error) {
	endpoint := EndpointRegister
	if reg.Role != "" {
		endpoint = EndpointRegisterWithRole
	}

	out := &authResponse{}
	if err := c.do(ctx, http.MethodPost, endpoint, reg, out); err != nil {
		return nil, err
	}
	if out.Token == "" || out.User == nil {
		return nil, malformedResponse("token or user")
	}
	return &session.AuthResult{Token: out.Token, User: out.User}, nil
}

// Profile fetches the authenticated user, verifying the token server-side.
func (c *Client) Profile(ctx context.Context) (*session.User, error) {
	out := &userResponse{}
	if err := c.do(ctx, http.MethodGet, EndpointProfile, nil, out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, malformedResponse("user")
	}
	return out.User, nil
}

// UpdateProfile applies a partial update to the authenticated user.
func (c *Client) UpdateProfile(ctx context.Context, update session.UserUpdate) (*session.User, error) {
	out := &userResponse{}
	if err := c.do(ctx, http.MethodPut, EndpointUpdateProfile, update, out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, malformedResponse("user")
	}
	return out.User, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode request body")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build request")
	}

	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		if token, ok := c.tokens.Get(ctx); ok && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "network error").
			WithTextCode(session.TextCodeNetworkError)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "network error").
			WithTextCode(session.TextCodeNetworkError)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return c.statusError(resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "invalid response body").
			WithTextCode(session.TextCodeBadResponse)
	}

	return nil
}

// malformedResponse reports a 2xx body that decoded but is missing the
// fields the operation requires.
func malformedResponse(what string) error {
	return goerrors.New("response missing "+what, goerrors.CategoryOperation).
		WithTextCode(session.TextCodeBadResponse)
}

// statusError converts a non-2xx response into a rich error carrying the
// backend's message and the HTTP status code.
func (c *Client) statusError(status int, raw []byte) error {
	envelope := apiEnvelope{}
	if err := json.Unmarshal(raw, &envelope); err != nil && c.logger != nil {
		c.logger.Debug("undecodable error body for status %d: %v", status, err)
	}

	message := envelope.Error
	if message == "" {
		message = envelope.Message
	}
	if message == "" {
		message = "Request failed"
	}

	return goerrors.New(message, categoryForStatus(status)).WithCode(status)
}

func categoryForStatus(status int) goerrors.Category {
	switch {
	case status == http.StatusUnauthorized:
		return goerrors.CategoryAuth
	case status == http.StatusForbidden:
		return goerrors.CategoryAuthz
	case status == http.StatusNotFound:
		return goerrors.CategoryNotFound
	case status == http.StatusConflict:
		return goerrors.CategoryConflict
	case status == http.StatusTooManyRequests:
		return goerrors.CategoryRateLimit
	case status >= http.StatusInternalServerError:
		return goerrors.CategoryInternal
	case status >= http.StatusBadRequest:
		return goerrors.CategoryBadInput
	default:
		return goerrors.CategoryOperation
	}
}
