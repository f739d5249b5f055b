package geo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sony/gobreaker/v2"
)

// ErrNoRoute is returned when OpenRouteService finds no route.
var ErrNoRoute = errors.New("no route found")

// RouterConfig configures an OpenRouteService client.
type RouterConfig struct {
	BaseURL string
	APIKey  string
	Profile string // defaults to driving-car
	HTTP    *http.Client
	Logger  *log.Logger
}

// Router asks OpenRouteService for travel durations.
type Router struct {
	baseURL string
	apiKey  string
	profile string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[time.Duration]
}

// NewRouter creates an OpenRouteService client.
func NewRouter(cfg RouterConfig) *Router {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	hc := cfg.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	profile := cfg.Profile
	if profile == "" {
		profile = "driving-car"
	}
	return &Router{
		baseURL: trimURL(cfg.BaseURL),
		apiKey:  cfg.APIKey,
		profile: profile,
		http:    hc,
		breaker: newBreaker[time.Duration]("openrouteservice", logger),
	}
}

type orsResponse struct {
	Features []struct {
		Properties struct {
			Segments []struct {
				Duration float64 `json:"duration"` // seconds
			} `json:"segments"`
		} `json:"properties"`
	} `json:"features"`
}

// Duration returns the travel time from one place to another.
func (r *Router) Duration(ctx context.Context, from, to Place) (time.Duration, error) {
	return execute(r.breaker, func() (time.Duration, error) {
		return r.duration(ctx, from, to)
	})
}

func (r *Router) duration(ctx context.Context, from, to Place) (time.Duration, error) {
	// ORS takes [lon, lat] pairs.
	body, err := json.Marshal(map[string]any{
		"coordinates": [][2]float64{{from.Lon, from.Lat}, {to.Lon, to.Lat}},
	})
	if err != nil {
		return 0, fmt.Errorf("openrouteservice: %w", err)
	}

	url := fmt.Sprintf("%s/v2/directions/%s/geojson", r.baseURL, r.profile)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("openrouteservice: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", r.apiKey)

	var resp orsResponse
	if err := doJSON(r.http, "openrouteservice", req, &resp); err != nil {
		return 0, err
	}
	if len(resp.Features) == 0 || len(resp.Features[0].Properties.Segments) == 0 {
		return 0, ErrNoRoute
	}
	secs := resp.Features[0].Properties.Segments[0].Duration
	return time.Duration(secs * float64(time.Second)), nil
}
