package geo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bborn/wakeup/internal/db"
)

func TestNominatimSearch(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "Berlin" || q.Get("format") != "json" || q.Get("limit") != "5" {
			t.Errorf("query = %v", q)
		}
		if ua := r.Header.Get("User-Agent"); ua != "wakeupd-test" {
			t.Errorf("User-Agent = %q", ua)
		}
		w.Write([]byte(`[
			{"display_name":"Berlin, Germany, Europe","lat":"52.52","lon":"13.40"},
			{"display_name":"broken","lat":"x","lon":"1"}
		]`))
	}))
	defer srv.Close()

	database, err := db.Open(filepath.Join(t.TempDir(), "geo.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	n := NewNominatim(NominatimConfig{
		BaseURL:   srv.URL,
		UserAgent: "wakeupd-test",
		Rate:      1000,
		Cache:     database,
	})

	for i := 0; i < 2; i++ {
		places, err := n.Search(context.Background(), "Berlin", 5)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(places) != 1 {
			t.Fatalf("places = %+v", places)
		}
		if places[0].Lat != 52.52 || places[0].Lon != 13.40 {
			t.Errorf("coords = %v,%v", places[0].Lat, places[0].Lon)
		}
		if got := places[0].ShortName(); got != "Berlin, Germany" {
			t.Errorf("ShortName = %q", got)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("upstream hit %d times, want 1 (second from cache)", hits.Load())
	}
}

func TestShortName(t *testing.T) {
	tests := map[string]string{
		"Berlin":                           "Berlin",
		"Paris, France":                    "Paris, France",
		"10 Downing St, London, UK, Earth": "10 Downing St, London",
	}
	for in, want := range tests {
		if got := (Place{Name: in}).ShortName(); got != want {
			t.Errorf("ShortName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	n := NewNominatim(NominatimConfig{BaseURL: srv.URL, Rate: 1000})
	for i := 0; i < int(breakerMaxFailures); i++ {
		_, err := n.Search(context.Background(), "x", 1)
		var se *StatusError
		if !errors.As(err, &se) || se.Code != http.StatusServiceUnavailable {
			t.Fatalf("call %d: err = %v", i, err)
		}
	}

	_, err := n.Search(context.Background(), "x", 1)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
	if hits.Load() != int32(breakerMaxFailures) {
		t.Errorf("upstream hit %d times after circuit opened", hits.Load())
	}
}

func TestRouterDuration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/directions/driving-car/geojson" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "ors-key" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		var body struct {
			Coordinates [][2]float64 `json:"coordinates"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if len(body.Coordinates) != 2 || body.Coordinates[0] != [2]float64{13.4, 52.5} {
			t.Errorf("coordinates = %v", body.Coordinates)
		}
		w.Write([]byte(`{"features":[{"properties":{"segments":[{"duration":1530.7}]}}]}`))
	}))
	defer srv.Close()

	r := NewRouter(RouterConfig{BaseURL: srv.URL, APIKey: "ors-key"})
	d, err := r.Duration(context.Background(), Place{Lat: 52.5, Lon: 13.4}, Place{Lat: 52.4, Lon: 13.1})
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	if d.Truncate(time.Second) != 1530*time.Second {
		t.Errorf("duration = %v", d)
	}
}

func TestRouterNoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"features":[]}`))
	}))
	defer srv.Close()

	_, err := NewRouter(RouterConfig{BaseURL: srv.URL}).Duration(context.Background(), Place{}, Place{})
	if !errors.Is(err, ErrNoRoute) {
		t.Errorf("err = %v, want ErrNoRoute", err)
	}
}

func TestWeatherCondition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/data/2.5/weather" || q.Get("q") != "Berlin" || q.Get("appid") != "wkey" {
			t.Errorf("request = %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		w.Write([]byte(`{"weather":[{"main":"Rain"}]}`))
	}))
	defer srv.Close()

	cond, err := NewWeather(WeatherConfig{BaseURL: srv.URL, APIKey: "wkey"}).Condition(context.Background(), "Berlin")
	if err != nil {
		t.Fatal(err)
	}
	if cond != "Rain" {
		t.Errorf("condition = %q", cond)
	}
}
