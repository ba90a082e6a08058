// API service for making raw HTTP requests to the statistics backend
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/desertthunder/tunedash/internal/shared"
)

const DefaultBaseURL = "http://localhost:8000"

// errServerStatus marks 5xx responses so the breaker counts them without turning them into call errors.
var errServerStatus = errors.New("server error status")

// APIService makes raw HTTP requests against the backend, throttled by an optional
// [rate.Limiter] and guarded by an optional circuit breaker.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[*APIResponse]
	logger     *log.Logger
}

// APIOption configures an [APIService].
type APIOption func(*APIService)

// WithRateLimit allows rps requests per second with the given burst. rps <= 0 disables throttling.
func WithRateLimit(rps float64, burst int) APIOption {
	return func(a *APIService) {
		if rps <= 0 {
			a.limiter = nil
			return
		}
		a.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithBreaker wraps every request in a circuit breaker built from cfg.
func WithBreaker(cfg shared.BreakerConfig) APIOption {
	return func(a *APIService) {
		if !cfg.Enabled {
			a.breaker = nil
			return
		}
		a.breaker = newBreaker(cfg, func() *log.Logger { return a.logger })
	}
}

func WithLogger(l *log.Logger) APIOption {
	return func(a *APIService) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAPIService creates a new API service instance for the backend at baseURL.
func NewAPIService(baseURL string, client *http.Client, opts ...APIOption) *APIService {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	a := &APIService{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: client,
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BaseURL is the backend root without a trailing slash.
func (a *APIService) BaseURL() string {
	return a.baseURL
}

// URL resolves path against the base URL.
func (a *APIService) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return a.baseURL + path
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// HTTPError is a non-2xx response from the backend.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	if detail := e.Detail(); detail != "" {
		msg += ": " + detail
	}
	return msg
}

func (e *HTTPError) Unwrap() error {
	return shared.ErrAPIRequest
}

// Detail extracts the backend's "error" or "detail" field, if the body carries one.
func (e *HTTPError) Detail() string {
	var body struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(e.Body, &body); err != nil {
		return ""
	}
	if body.Error != "" {
		return body.Error
	}
	return body.Detail
}

// Unauthorized reports a 401 or 403.
func (e *HTTPError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.Do(ctx, http.MethodGet, path)
}

// GetJSON performs a GET and decodes a 2xx body into out. Non-2xx responses become an [*HTTPError].
func (a *APIService) GetJSON(ctx context.Context, path string, out any) error {
	resp, err := a.Get(ctx, path)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &HTTPError{Method: http.MethodGet, Path: path, StatusCode: resp.StatusCode, Body: resp.Body}
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%w: failed to decode %s: %w", shared.ErrAPIRequest, path, err)
	}
	return nil
}

// Do sends a request. Transport failures are errors; any HTTP status is returned as a response.
func (a *APIService) Do(ctx context.Context, method, path string) (*APIResponse, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("request failed: rate limiter: %w", err)
		}
	}

	if a.breaker == nil {
		return a.send(ctx, method, path)
	}

	resp, err := a.breaker.Execute(func() (*APIResponse, error) {
		resp, err := a.send(ctx, method, path)
		if err == nil && resp.StatusCode >= 500 {
			return resp, errServerStatus
		}
		return resp, err
	})
	switch {
	case errors.Is(err, errServerStatus):
		return resp, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		a.logger.Warn("request rejected by circuit breaker", "method", method, "path", path)
		return nil, fmt.Errorf("request failed: %w: %w", shared.ErrServiceUnavailable, err)
	}
	return resp, err
}

func (a *APIService) send(ctx context.Context, method, path string) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.URL(path), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	a.logger.Debug("backend response", "method", method, "path", path, "status", resp.StatusCode, "bytes", len(data))

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}

	var jsonData any
	if err := json.Unmarshal(data, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}
