package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/screener/internal/shared"
)

const (
	// DefaultMaxRetries bounds how many times a single logical request is
	// reissued after a retryable failure.
	DefaultMaxRetries = 2

	// DefaultBaseDelay seeds the exponential backoff between attempts.
	DefaultBaseDelay = 50 * time.Millisecond

	// MaxRetryDelay caps the backoff between attempts regardless of how
	// many retries are configured.
	MaxRetryDelay = 30 * time.Second
)

// Request describes one logical call to the review backend.
type Request struct {
	Method string
	Path   string
	Query  url.Values

	// Body is JSON-marshalled when non-nil.
	Body any

	// IdempotencyKey is attached as the Idempotency-Key header when
	// non-empty. The same key is reused across the engine's internal
	// retries of this request; callers mint a fresh key per logical
	// action via [shared.GenerateID].
	IdempotencyKey string

	// Validate, when set, checks the decoded response body against the
	// endpoint's minimal structural contract. A validation failure is
	// surfaced as VALIDATION_FAILED even though the transport succeeded.
	Validate func(body []byte) error
}

// Response is the engine's view of a completed request.
type Response struct {
	Status int
	Header http.Header
	Body   []byte

	// NoContent is true for 204 responses and non-JSON payloads; Body is
	// not meaningful in that case.
	NoContent bool
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if r.NoContent {
		return fmt.Errorf("%w: no content to decode", shared.ErrAPIRequest)
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Hooks are the engine's observability side channels. Both are optional
// and purely informational; neither influences the retry decision.
type Hooks struct {
	// OnRetry fires before each backoff wait.
	OnRetry func(path, method string, attempt, maxRetries int, err error)

	// OnAuthError fires on every 401/403, independent of whether the
	// request is ultimately surfaced or retried, so the UI can prompt
	// re-authentication.
	OnAuthError func(status int, body []byte)
}

// Engine issues requests to the review backend with bearer credentials,
// idempotency keys, bounded exponential retry, and response-shape
// validation. It owns no asset state; it is a stateless transport.
type Engine struct {
	baseURL    func() string
	token      func() string
	httpClient *http.Client
	clock      shared.Clock
	logger     *log.Logger
	maxRetries int
	baseDelay  time.Duration
	hooks      Hooks
}

// EngineOpts contains configuration options for creating an [Engine].
type EngineOpts struct {
	// BaseURL and Token are pull-based accessors, re-read on every call
	// so the session layer can rotate either without reconfiguration.
	BaseURL func() string
	Token   func() string

	HTTPClient *http.Client
	Clock      shared.Clock
	Logger     *log.Logger
	MaxRetries int
	BaseDelay  time.Duration
	Hooks      Hooks
}

// NewEngine creates an [Engine] with the provided options.
func NewEngine(opts EngineOpts) *Engine {
	if opts.BaseURL == nil {
		opts.BaseURL = func() string { return "http://localhost:8080" }
	}
	if opts.Token == nil {
		opts.Token = func() string { return "" }
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Clock == nil {
		opts.Clock = shared.NewClock()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultBaseDelay
	}

	return &Engine{
		baseURL:    opts.BaseURL,
		token:      opts.Token,
		httpClient: opts.HTTPClient,
		clock:      opts.Clock,
		logger:     opts.Logger,
		maxRetries: opts.MaxRetries,
		baseDelay:  opts.BaseDelay,
		hooks:      opts.Hooks,
	}
}

// Do executes the request, retrying retryable failures with exponential
// backoff. Retries are strictly sequential and reuse the request's
// idempotency key; a non-retryable failure is raised on first occurrence.
func (e *Engine) Do(ctx context.Context, req Request) (*Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := e.attempt(ctx, req)
		if err == nil {
			return resp, nil
		}

		var apiErr *Error
		if !errors.As(err, &apiErr) {
			// Context cancellation and request construction failures are
			// not backend errors and are never retried.
			return nil, err
		}

		if !apiErr.Retryable || attempt >= e.maxRetries {
			return nil, apiErr
		}

		if e.hooks.OnRetry != nil {
			e.hooks.OnRetry(req.Path, req.Method, attempt, e.maxRetries, apiErr)
		}

		// The shift wraps int64 negative on a high enough attempt count,
		// so clamp out-of-range values to the cap.
		delay := e.baseDelay << attempt
		if delay <= 0 || delay > MaxRetryDelay {
			delay = MaxRetryDelay
		}
		e.logger.Warn("retrying request",
			"method", req.Method, "path", req.Path,
			"attempt", attempt+1, "max", e.maxRetries, "delay", delay, "err", apiErr)

		if err := e.clock.Sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// attempt performs a single HTTP exchange.
func (e *Engine) attempt(ctx context.Context, req Request) (*Response, error) {
	fullURL := strings.TrimRight(e.baseURL(), "/") + req.Path
	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	var reqBody io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token := e.token(); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	if req.IdempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	}

	httpResp, err := e.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, NetworkError(err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, NetworkError(err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		apiErr := Classify(httpResp.StatusCode, body)
		if apiErr.AuthFailure() && e.hooks.OnAuthError != nil {
			e.hooks.OnAuthError(httpResp.StatusCode, body)
		}
		return nil, apiErr
	}

	resp := &Response{
		Status: httpResp.StatusCode,
		Header: httpResp.Header,
		Body:   body,
	}

	if httpResp.StatusCode == http.StatusNoContent || !jsonContentType(httpResp.Header) {
		resp.NoContent = true
		return resp, nil
	}

	if req.Validate != nil {
		if err := req.Validate(body); err != nil {
			return nil, ValidationError(err)
		}
	}

	return resp, nil
}

func jsonContentType(h http.Header) bool {
	ct := h.Get("Content-Type")
	return strings.Contains(ct, "application/json")
}
