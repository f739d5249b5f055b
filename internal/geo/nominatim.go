package geo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// Place is one geocoding match.
type Place struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// ShortName is the first two comma-separated parts of the place name.
func (p Place) ShortName() string {
	parts := strings.Split(p.Name, ",")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.Join(parts, ", ")
}

// Cache is satisfied by *db.DB.
type Cache interface {
	GetCached(key string, now time.Time, v any) (bool, error)
	PutCached(key string, v any, now time.Time, ttl time.Duration) error
}

// NominatimConfig configures a Nominatim client.
type NominatimConfig struct {
	BaseURL   string
	UserAgent string
	Rate      float64 // requests per second
	Cache     Cache   // optional
	CacheTTL  time.Duration
	HTTP      *http.Client
	Logger    *log.Logger
}

// Nominatim searches OpenStreetMap's geocoder. Requests are rate limited
// and results are cached.
type Nominatim struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker[[]Place]
	cache     Cache
	ttl       time.Duration
	now       func() time.Time
	logger    *log.Logger
}

// NewNominatim creates a Nominatim client.
func NewNominatim(cfg NominatimConfig) *Nominatim {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	hc := cfg.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	rps := cfg.Rate
	if rps <= 0 {
		rps = 1
	}
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &Nominatim{
		baseURL:   trimURL(cfg.BaseURL),
		userAgent: cfg.UserAgent,
		http:      hc,
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		breaker:   newBreaker[[]Place]("nominatim", logger),
		cache:     cfg.Cache,
		ttl:       ttl,
		now:       time.Now,
		logger:    logger,
	}
}

type nominatimResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Search returns up to limit matches for query, best first. No match is an
// empty slice, not an error.
func (n *Nominatim) Search(ctx context.Context, query string, limit int) ([]Place, error) {
	key := fmt.Sprintf("nominatim:%d:%s", limit, strings.ToLower(strings.TrimSpace(query)))
	if n.cache != nil {
		var cached []Place
		ok, err := n.cache.GetCached(key, n.now(), &cached)
		if err != nil {
			n.logger.Warn("geocode cache read failed", "err", err)
		} else if ok {
			return cached, nil
		}
	}

	places, err := execute(n.breaker, func() ([]Place, error) {
		return n.search(ctx, query, limit)
	})
	if err != nil {
		return nil, err
	}

	if n.cache != nil {
		if err := n.cache.PutCached(key, places, n.now(), n.ttl); err != nil {
			n.logger.Warn("geocode cache write failed", "err", err)
		}
	}
	return places, nil
}

func (n *Nominatim) search(ctx context.Context, query string, limit int) ([]Place, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("nominatim: %w", err)
	}

	params := url.Values{"q": {query}, "format": {"json"}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("nominatim: %w", err)
	}
	// Nominatim's usage policy requires an identifying User-Agent.
	if n.userAgent != "" {
		req.Header.Set("User-Agent", n.userAgent)
	}

	var results []nominatimResult
	if err := doJSON(n.http, "nominatim", req, &results); err != nil {
		return nil, err
	}

	places := make([]Place, 0, len(results))
	for _, r := range results {
		lat, err := strconv.ParseFloat(r.Lat, 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(r.Lon, 64)
		if err != nil {
			continue
		}
		places = append(places, Place{Name: r.DisplayName, Lat: lat, Lon: lon})
	}
	return places, nil
}
