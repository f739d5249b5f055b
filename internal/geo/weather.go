package geo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sony/gobreaker/v2"
)

// WeatherConfig configures an OpenWeather client.
type WeatherConfig struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
	Logger  *log.Logger
}

// Weather looks up current conditions on OpenWeather.
type Weather struct {
	baseURL string
	apiKey  string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[string]
}

// NewWeather creates an OpenWeather client.
func NewWeather(cfg WeatherConfig) *Weather {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	hc := cfg.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Weather{
		baseURL: trimURL(cfg.BaseURL),
		apiKey:  cfg.APIKey,
		http:    hc,
		breaker: newBreaker[string]("openweather", logger),
	}
}

// Condition returns the main weather condition at place, e.g. "Rain".
func (w *Weather) Condition(ctx context.Context, place string) (string, error) {
	return execute(w.breaker, func() (string, error) {
		return w.condition(ctx, place)
	})
}

func (w *Weather) condition(ctx context.Context, place string) (string, error) {
	params := url.Values{"q": {place}, "appid": {w.apiKey}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"/data/2.5/weather?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("openweather: %w", err)
	}

	var resp struct {
		Weather []struct {
			Main string `json:"main"`
		} `json:"weather"`
	}
	if err := doJSON(w.http, "openweather", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Weather) == 0 {
		return "", errors.New("openweather: no conditions in response")
	}
	return resp.Weather[0].Main, nil
}
