package gateway

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

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/fintrack-go/internal/core/domain"
	"github.com/yndnr/fintrack-go/internal/infra/buildinfo"
	"github.com/yndnr/fintrack-go/internal/infra/tlsroots"
	"github.com/yndnr/fintrack-go/internal/telemetry/logger"
	"github.com/yndnr/fintrack-go/internal/telemetry/metric"
)

// maxResponseBody caps how much of a response body is read.
const maxResponseBody = 1 << 20

// Request paths, relative to the base URL.
const (
	pathLogin          = "/auth/login"
	pathRefresh        = "/auth/refresh"
	pathChangePassword = "/auth/change-password"
	pathProfile        = "/users/me"
)

// Config configures the gateway client.
type Config struct {
	// BaseURL is the API root, e.g. http://localhost:8000/api.
	BaseURL string

	// Timeout bounds a single request once it is sent.
	Timeout time.Duration

	// RateLimit paces outgoing requests per second. 0 disables pacing.
	RateLimit float64

	// RateBurst is the limiter burst size.
	RateBurst int

	// UserAgent overrides the default fintrack-cli/<version>.
	UserAgent string

	// CAFile is an extra PEM file or directory of trusted roots for HTTPS.
	CAFile string
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:   "http://localhost:8000/api",
		Timeout:   15 * time.Second,
		RateBurst: 1,
	}
}

// Client talks to the remote auth API.
type Client struct {
	baseURL   string
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	logger    logger.Logger
	metrics   *metric.Registry
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records request latency into r.
func WithMetrics(r *metric.Registry) Option {
	return func(c *Client) {
		c.metrics = r
	}
}

// New creates a new gateway client.
func New(cfg Config, opts ...Option) (*Client, error) {
	baseURL, err := normalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, domain.ErrConfig.WithDetails("gateway.base_url").WithCause(err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultConfig().Timeout
	}

	hc := &http.Client{Timeout: timeout}
	if cfg.CAFile != "" {
		tlsConfig, err := tlsroots.ClientConfig(cfg.CAFile)
		if err != nil {
			return nil, domain.ErrConfig.WithDetails("gateway.ca_file").WithCause(err)
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = tlsConfig
		hc.Transport = transport
	}

	c := &Client{
		baseURL:   baseURL,
		client:    hc,
		userAgent: cfg.UserAgent,
		logger:    logger.Default(),
	}
	if c.userAgent == "" {
		c.userAgent = buildinfo.UserAgent()
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the base URL of the client.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login exchanges credentials for a token pair and the caller's identity.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	err := c.do(ctx, OpLogin, http.MethodPost, pathLogin, "",
		LoginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		return nil, domain.ErrNetwork.WithDetails("login response is missing tokens")
	}
	return &resp, nil
}

// Refresh exchanges a refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	var resp RefreshResponse
	err := c.do(ctx, OpRefresh, http.MethodPost, pathRefresh, "",
		RefreshRequest{RefreshToken: refreshToken}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, domain.ErrNetwork.WithDetails("refresh response is missing access_token")
	}
	return &resp, nil
}

// ChangePassword changes the password of the account owning accessToken.
func (c *Client) ChangePassword(ctx context.Context, accessToken, current, next string) error {
	return c.do(ctx, OpChangePassword, http.MethodPut, pathChangePassword, accessToken,
		ChangePasswordRequest{CurrentPassword: current, NewPassword: next}, nil)
}

// UpdateProfile replaces the first and last name of the account owning accessToken.
func (c *Client) UpdateProfile(ctx context.Context, accessToken string, patch domain.ProfilePatch) (*ProfileResponse, error) {
	var resp ProfileResponse
	err := c.do(ctx, OpUpdateProfile, http.MethodPut, pathProfile, accessToken,
		ProfileRequest{FirstName: patch.FirstName, LastName: patch.LastName}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// do sends one JSON request and decodes a 2xx body into out.
//
// ctx only bounds the wait for the rate limiter. Once the request is
// written it runs to completion or to the client timeout, so a response
// that rotates tokens is never lost to caller cancellation.
func (c *Client) do(ctx context.Context, op Operation, method, path, bearer string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return domain.ErrNetwork.WithDetails(fmt.Sprintf("%s: rate limiter", op)).WithCause(err)
		}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return domain.ErrInvalidArgument.WithDetails("marshal request body").WithCause(err)
	}

	requestID := ulid.Make().String()
	sendCtx := logger.WithRequestID(context.WithoutCancel(ctx), requestID)
	log := c.logger.WithContext(sendCtx).With("operation", string(op))

	req, err := http.NewRequestWithContext(sendCtx, method, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return domain.ErrNetwork.WithDetails("create request").WithCause(err)
	}
	c.addHeaders(req, requestID, bearer)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.observe(op, 0, err, start)
		log.Warn("gateway request failed", "error", err)
		return domain.ErrNetwork.WithDetails(fmt.Sprintf("%s: %v", op, err)).WithCause(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		c.observe(op, 0, err, start)
		log.Warn("gateway response read failed", "status", resp.StatusCode, "error", err)
		return domain.ErrNetwork.WithDetails(fmt.Sprintf("%s: read response", op)).WithCause(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		mapped := mapStatus(op, resp.StatusCode, payload)
		c.observe(op, resp.StatusCode, mapped, start)
		log.Warn("gateway request rejected", "status", resp.StatusCode, "code", domain.GetErrorCode(mapped))
		return mapped
	}

	if out != nil {
		if len(bytes.TrimSpace(payload)) == 0 {
			err = fmt.Errorf("empty body")
		} else {
			err = json.Unmarshal(payload, out)
		}
		if err != nil {
			c.observe(op, resp.StatusCode, err, start)
			log.Warn("gateway response undecodable", "status", resp.StatusCode, "error", err)
			return domain.ErrNetwork.WithDetails(fmt.Sprintf("%s: undecodable response body", op)).WithCause(err)
		}
	}

	c.observe(op, resp.StatusCode, nil, start)
	log.Debug("gateway request completed", "status", resp.StatusCode, "duration", time.Since(start))
	return nil
}

// addHeaders adds authentication and common headers.
func (c *Client) addHeaders(req *http.Request, requestID, bearer string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
}

func (c *Client) observe(op Operation, status int, err error, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.ObserveGateway(string(op), outcome(status, err), time.Since(start))
}

// normalizeBaseURL ensures a scheme and strips trailing slashes.
func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("base URL is empty")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("base URL %q has no host", raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
}
