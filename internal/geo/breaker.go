// Package geo holds the upstream clients wakeupd calculates with: Nominatim
// geocoding, OpenRouteService routing and OpenWeather conditions.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sony/gobreaker/v2"
)

// Breaker defaults.
const (
	breakerMaxFailures uint32        = 5
	breakerTimeout     time.Duration = 30 * time.Second
	breakerInterval    time.Duration = 60 * time.Second
)

// ErrUnavailable wraps failures from an open circuit.
var ErrUnavailable = errors.New("upstream unavailable")

// StatusError is a non-2xx upstream response.
type StatusError struct {
	Service string
	Code    int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Service, e.Code)
}

// newBreaker trips after consecutive failures and logs state changes.
// Cancelled requests do not count against the upstream.
func newBreaker[T any](name string, logger *log.Logger) *gobreaker.CircuitBreaker[T] {
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    breakerInterval,
		Timeout:     breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerMaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

// execute runs fn through cb, tagging open-circuit errors with ErrUnavailable.
func execute[T any](cb *gobreaker.CircuitBreaker[T], fn func() (T, error)) (T, error) {
	v, err := cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return v, fmt.Errorf("%s: %w: %v", cb.Name(), ErrUnavailable, err)
	}
	return v, err
}

// doJSON sends req and decodes a 2xx JSON body into v.
func doJSON(hc *http.Client, service string, req *http.Request, v any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return &StatusError{Service: service, Code: resp.StatusCode}
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(v); err != nil {
		return fmt.Errorf("%s: decode response: %w", service, err)
	}
	return nil
}

func trimURL(u string) string {
	return strings.TrimRight(u, "/")
}
