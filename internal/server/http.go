// Package server provides the wakeupd HTTP API and the SSH front end.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bborn/wakeup/internal/api"
	"github.com/bborn/wakeup/internal/config"
	"github.com/bborn/wakeup/internal/db"
	"github.com/bborn/wakeup/internal/geo"
	"github.com/charmbracelet/log"
)

// autocompleteLimit is the number of suggestions returned per query.
const autocompleteLimit = 5

// Geocoder resolves free text to places.
type Geocoder interface {
	Search(ctx context.Context, query string, limit int) ([]geo.Place, error)
}

// Router estimates travel time between two places.
type Router interface {
	Duration(ctx context.Context, from, to geo.Place) (time.Duration, error)
}

// WeatherSource reports the current weather condition at a place.
type WeatherSource interface {
	Condition(ctx context.Context, place string) (string, error)
}

// History remembers computed alarms per route.
type History interface {
	LatestAlarm(start, end string) (*db.Alarm, error)
	RecordAlarm(a *db.Alarm) error
}

// Config holds server configuration.
type Config struct {
	Addr     string
	Store    *config.Store
	Geocoder Geocoder
	Router   Router
	Weather  WeatherSource // optional
	History  History       // optional
	Cache    Purger        // optional, purged hourly
	Logger   *log.Logger
}

// Server is the HTTP API.
type Server struct {
	addr     string
	store    *config.Store
	geocoder Geocoder
	router   Router
	weather  WeatherSource
	history  History
	cache    Purger
	logger   *log.Logger
	now      func() time.Time
}

// New creates a new API server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	store := cfg.Store
	if store == nil {
		store = config.NewStore("", config.Default(), logger)
	}
	return &Server{
		addr:     cfg.Addr,
		store:    store,
		geocoder: cfg.Geocoder,
		router:   cfg.Router,
		weather:  cfg.Weather,
		history:  cfg.History,
		cache:    cfg.Cache,
		logger:   logger,
		now:      time.Now,
	}
}

// Handler returns the routed, logged handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /autocomplete", s.handleAutocomplete)
	mux.HandleFunc("POST /calculate", s.handleCalculate)
	return s.loggingMiddleware(mux)
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stopMaintenance, err := s.startMaintenance()
	if err != nil {
		return err
	}
	defer stopMaintenance()

	s.logger.Info("starting API server", "addr", s.addr)

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration", time.Since(start),
		)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// JSON response helpers
func jsonResponse(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	jsonResponse(w, map[string]string{"error": message}, status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleAutocomplete returns up to five places matching q.
func (s *Server) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		jsonResponse(w, []api.Suggestion{}, http.StatusOK)
		return
	}

	places, err := s.geocoder.Search(r.Context(), q, autocompleteLimit)
	if err != nil {
		s.logger.Error("autocomplete failed", "query", q, "err", err)
		jsonError(w, "geocoder unavailable", http.StatusBadGateway)
		return
	}

	out := make([]api.Suggestion, 0, len(places))
	for _, p := range places {
		out = append(out, api.Suggestion{DisplayName: p.ShortName(), FullName: p.Name})
	}
	jsonResponse(w, out, http.StatusOK)
}

// handleCalculate answers business failures with 200 and {"error"} so the
// form shows them verbatim; upstream outages are 502.
func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		jsonError(w, "invalid form", http.StatusBadRequest)
		return
	}
	req := api.CalcRequest{
		Start:        strings.TrimSpace(r.PostForm.Get("start_place")),
		End:          strings.TrimSpace(r.PostForm.Get("end_place")),
		ArrivalTime:  strings.TrimSpace(r.PostForm.Get("arrival_time")),
		GettingReady: strings.TrimSpace(r.PostForm.Get("getting_ready")),
	}

	res, err := s.calculate(r.Context(), req)
	var business *api.BusinessError
	switch {
	case err == nil:
		jsonResponse(w, res, http.StatusOK)
	case errors.As(err, &business):
		jsonError(w, business.Message, http.StatusOK)
	case errors.Is(err, context.Canceled):
		s.logger.Debug("calculation abandoned by client")
	default:
		s.logger.Error("calculation failed", "start", req.Start, "end", req.End, "err", err)
		jsonError(w, "upstream unavailable", http.StatusBadGateway)
	}
}
