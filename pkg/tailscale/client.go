package tailscale

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/tailnetops/tailscale-go/internal/oauth"
)

// Version is the library version reported in the User-Agent header.
const Version = "1.0.0"

// DefaultBaseURL is the base of the Tailscale control-plane API.
const DefaultBaseURL = "https://api.tailscale.com/api/v2/"

// DefaultTimeout bounds each API request, including the OAuth token
// exchange.
const DefaultTimeout = 8 * time.Second

// tokenPath is the token endpoint, relative to the API base.
const tokenPath = "oauth/token"

// Config holds the credential configuration of a Client.
//
// Exactly one of APIKey or the OAuthClientID/OAuthClientSecret pair must be
// supplied. When both are present the OAuth credentials take precedence and
// the key is ignored. Credential validation happens on first use, not at
// construction.
type Config struct {
	// Tailnet is the tailnet name. "-" selects the default tailnet of the
	// configured credentials and is used when empty.
	Tailnet string

	// APIKey is a static Tailscale API key, sent with HTTP basic auth.
	APIKey string

	// OAuthClientID and OAuthClientSecret select the OAuth
	// client-credentials grant against the Tailscale token endpoint.
	OAuthClientID     string
	OAuthClientSecret string
}

// Client is a Tailscale API client. Construct it with New and release its
// resources with Close. A Client is safe for concurrent use.
type Client struct {
	tailnet           string
	apiKey            string
	oauthClientID     string
	oauthClientSecret string

	baseRaw    string
	baseURL    *url.URL
	httpClient *http.Client
	ownsHTTP   bool
	timeout    time.Duration
	logger     *slog.Logger
	storage    TokenStorage

	// tokens is nil unless both OAuth fields are configured.
	tokens *oauth.Manager
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL. Mainly useful for tests.
func WithBaseURL(rawURL string) Option {
	return func(c *Client) {
		c.baseRaw = rawURL
	}
}

// WithHTTPClient sets a custom HTTP client. The caller stays responsible
// for closing it; Close will not touch its connections.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
		c.ownsHTTP = false
	}
}

// WithTimeout sets the per-request timeout. It covers every transport call,
// including the OAuth token exchange and token storage access.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithLogger sets a custom logger. Token values are never logged.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTokenStorage persists OAuth access tokens across process restarts.
// Ignored in static API key mode.
func WithTokenStorage(storage TokenStorage) Option {
	return func(c *Client) {
		c.storage = storage
	}
}

// New creates a Tailscale API client. It does not validate credentials;
// a missing or inconsistent credential configuration surfaces as a
// ConfigurationError on the first request.
func New(cfg Config, opts ...Option) (*Client, error) {
	c := &Client{
		tailnet:           cfg.Tailnet,
		apiKey:            cfg.APIKey,
		oauthClientID:     cfg.OAuthClientID,
		oauthClientSecret: cfg.OAuthClientSecret,
		baseRaw:           DefaultBaseURL,
		timeout:           DefaultTimeout,
		logger:            slog.Default(),
	}
	if c.tailnet == "" {
		c.tailnet = "-"
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{}
		c.ownsHTTP = true
	}

	baseURL, err := url.Parse(c.baseRaw)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", c.baseRaw, err)
	}
	c.baseURL = baseURL

	if c.oauthClientID != "" && c.oauthClientSecret != "" {
		c.tokens = oauth.NewManager(oauth.Config{
			ClientID:     c.oauthClientID,
			ClientSecret: c.oauthClientSecret,
			TokenURL:     c.baseURL.JoinPath(tokenPath).String(),
			HTTPClient:   c.httpClient,
			Timeout:      c.timeout,
			Storage:      c.storage,
			Logger:       c.logger,
		})
	}

	return c, nil
}

// Close tears down the token lifecycle manager, cancelling its expiry timer
// and any in-flight token acquisition, and releases the transport's idle
// connections when the HTTP client is owned by this Client.
func (c *Client) Close() {
	if c.tokens != nil {
		c.tokens.Close()
	}
	if c.ownsHTTP {
		c.httpClient.CloseIdleConnections()
	}
}

// authorize attaches credentials to an outbound request. It reports whether
// an OAuth-sourced bearer value was used, so the caller knows to invalidate
// the token on a 401/403 response.
func (c *Client) authorize(ctx context.Context, req *http.Request) (usedOAuth bool, err error) {
	switch {
	case (c.oauthClientID != "") != (c.oauthClientSecret != ""):
		return false, &ConfigurationError{
			Message: "both an OAuth client ID and an OAuth client secret must be configured",
		}
	case c.tokens != nil:
		value, err := c.tokens.Token(ctx)
		if err != nil {
			return false, classifyTokenError(err)
		}
		req.Header.Set("Authorization", "Bearer "+value)
		return true, nil
	case c.apiKey != "":
		req.SetBasicAuth(c.apiKey, "")
		return false, nil
	default:
		return false, &ConfigurationError{
			Message: "no API key or OAuth client credentials configured",
		}
	}
}

// classifyTokenError maps token manager errors onto the public taxonomy.
func classifyTokenError(err error) error {
	var exchangeErr *oauth.ExchangeError
	if errors.As(err, &exchangeErr) {
		return &AuthenticationError{Message: "failed to obtain an access token", Err: err}
	}
	var transportErr *oauth.TransportError
	if errors.As(err, &transportErr) {
		return &ConnectionError{Message: "could not reach the Tailscale token endpoint", Err: err}
	}
	// Cancellation and manager teardown propagate unchanged.
	return err
}

// request performs one authenticated call against the API. The uri is
// relative to the base URL; a non-nil body is JSON-encoded. It returns the
// raw response body for the caller to decode.
func (c *Client) request(ctx context.Context, method, uri string, body interface{}) ([]byte, error) {
	ref, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid request URI %q: %w", uri, err)
	}
	requestURL := c.baseURL.ResolveReference(ref)

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, requestURL.String(), payload)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "tailscale-go/"+Version)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	usedOAuth, err := c.authorize(ctx, req)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	c.logger.Debug("tailscale api request",
		"request_id", requestID,
		"method", method,
		"url", requestURL.String(),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &ConnectionError{
				Message: "timeout occurred while connecting to the Tailscale API",
				Err:     err,
			}
		}
		return nil, &ConnectionError{
			Message: "error occurred while communicating with the Tailscale API",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnectionError{
			Message: "error occurred while reading the Tailscale API response",
			Err:     err,
		}
	}

	c.logger.Debug("tailscale api response",
		"request_id", requestID,
		"status", resp.StatusCode,
	)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		if usedOAuth {
			// Clear the dead token so the next call performs a fresh
			// exchange. The failing call itself is not retried.
			c.tokens.Invalidate()
		}
		return nil, &AuthenticationError{Message: "authentication to the Tailscale API failed"}
	case resp.StatusCode >= 400:
		return nil, &RequestError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	return data, nil
}

// get performs a GET request and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, uri string, out interface{}) error {
	data, err := c.request(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return err
	}
	return decode(data, out)
}

// post performs a POST request with an optional JSON body and decodes the
// response into out when out is non-nil.
func (c *Client) post(ctx context.Context, uri string, body, out interface{}) error {
	data, err := c.request(ctx, http.MethodPost, uri, body)
	if err != nil {
		return err
	}
	return decode(data, out)
}

func decode(data []byte, out interface{}) error {
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode Tailscale API response: %w", err)
	}
	return nil
}
