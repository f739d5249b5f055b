// Package api is the HTTP client for the wakeup autocomplete and calculation
// endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bborn/wakeup/internal/config"
	"github.com/charmbracelet/log"
)

// Suggestion is one autocomplete candidate.
type Suggestion struct {
	DisplayName string `json:"display_name"`
	FullName    string `json:"full_name"`
}

// CalcRequest carries the raw form values posted to /calculate.
type CalcRequest struct {
	Start        string
	End          string
	ArrivalTime  string // HH:MM
	GettingReady string // minutes
}

// CalcResult is a successful /calculate response.
type CalcResult struct {
	ArrivalTime  string `json:"arrival_time"`
	GettingReady int    `json:"getting_ready"`
	ETA          int    `json:"eta"`
	Margin       int    `json:"margin"`
	AlarmTime    string `json:"alarm_time"`
	CurrentAlarm string `json:"current_alarm,omitempty"`
	Weather      string `json:"weather,omitempty"`
}

var (
	// ErrCanceled is returned when the caller cancelled the request.
	ErrCanceled = errors.New("request canceled")
	// ErrTimeout is returned when the request ran out of time.
	ErrTimeout = errors.New("request timed out")
)

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// BusinessError is a 2xx /calculate response carrying {"error": "..."}.
type BusinessError struct {
	Message string
}

func (e *BusinessError) Error() string {
	return e.Message
}

// Client talks to a wakeupd server.
type Client struct {
	baseURL     string
	http        *http.Client
	calcTimeout time.Duration
	logger      *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithCalculateTimeout overrides the /calculate deadline.
func WithCalculateTimeout(d time.Duration) Option {
	return func(c *Client) { c.calcTimeout = d }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		http:        &http.Client{},
		calcTimeout: config.CalculateTimeout,
		logger:      log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Autocomplete fetches suggestions for query. An empty slice means no results.
func (c *Client) Autocomplete(ctx context.Context, query string) ([]Suggestion, error) {
	u := c.baseURL + "/autocomplete?" + url.Values{"q": {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build autocomplete request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	var suggestions []Suggestion
	if err := json.Unmarshal(body, &suggestions); err != nil {
		return nil, fmt.Errorf("decode suggestions: %w", err)
	}
	if suggestions == nil {
		suggestions = []Suggestion{}
	}
	return suggestions, nil
}

// Calculate posts the form to /calculate. A business failure is returned as
// *BusinessError; running past the calculate timeout returns ErrTimeout.
func (c *Client) Calculate(ctx context.Context, r CalcRequest) (*CalcResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.calcTimeout)
	defer cancel()

	form := url.Values{
		"start_place":   {r.Start},
		"end_place":     {r.End},
		"arrival_time":  {r.ArrivalTime},
		"getting_ready": {r.GettingReady},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/calculate", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build calculate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	body, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Error *string `json:"error"`
		CalcResult
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode calculation: %w", err)
	}
	if resp.Error != nil {
		return nil, &BusinessError{Message: *resp.Error}
	}
	result := resp.CalcResult
	return &result, nil
}

func (c *Client) do(ctx context.Context, req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, classify(ctx, err)
	}

	c.logger.Debug("request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

// classify maps context failures onto ErrTimeout/ErrCanceled and wraps the rest.
func classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(ctx.Err(), context.Canceled):
		return fmt.Errorf("%w: %v", ErrCanceled, err)
	default:
		return fmt.Errorf("transport: %w", err)
	}
}
