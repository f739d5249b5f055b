package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bborn/wakeup/internal/config"
)

func TestAutocomplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/autocomplete" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "Ber lin" {
			t.Errorf("q = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"display_name":"Berlin, Germany","full_name":"Berlin, Germany, Europe"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	got, err := c.Autocomplete(context.Background(), "Ber lin")
	if err != nil {
		t.Fatalf("Autocomplete: %v", err)
	}
	if len(got) != 1 || got[0].DisplayName != "Berlin, Germany" || got[0].FullName != "Berlin, Germany, Europe" {
		t.Errorf("suggestions = %+v", got)
	}
}

func TestAutocompleteEmptyAndNull(t *testing.T) {
	for _, body := range []string{`[]`, `null`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))
		got, err := NewClient(srv.URL).Autocomplete(context.Background(), "zz")
		srv.Close()
		if err != nil {
			t.Fatalf("%s: %v", body, err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("%s: got %v, want empty non-nil slice", body, got)
		}
	}
}

func TestAutocompleteStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Autocomplete(context.Background(), "berlin")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if se.Code != http.StatusBadGateway {
		t.Errorf("code = %d", se.Code)
	}
}

func TestAutocompleteCanceled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := NewClient(srv.URL).Autocomplete(ctx, "berlin")
	if !errors.Is(err, ErrCanceled) {
		t.Errorf("err = %v, want ErrCanceled", err)
	}
}

func TestCalculate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		want := map[string]string{
			"start_place":   "Home",
			"end_place":     "Office",
			"arrival_time":  "09:00",
			"getting_ready": "30",
		}
		for k, v := range want {
			if got := r.PostForm.Get(k); got != v {
				t.Errorf("%s = %q, want %q", k, got, v)
			}
		}
		w.Write([]byte(`{"arrival_time":"09:00","getting_ready":30,"eta":25,"margin":10,"alarm_time":"07:55","current_alarm":"08:05"}`))
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL).Calculate(context.Background(), CalcRequest{
		Start: "Home", End: "Office", ArrivalTime: "09:00", GettingReady: "30",
	})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if res.AlarmTime != "07:55" || res.ETA != 25 || res.Margin != 10 || res.CurrentAlarm != "08:05" {
		t.Errorf("result = %+v", res)
	}
}

func TestCalculateBusinessError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"Invalid locations entered."}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Calculate(context.Background(), CalcRequest{Start: "a", End: "b", ArrivalTime: "09:00", GettingReady: "5"})
	var be *BusinessError
	if !errors.As(err, &be) {
		t.Fatalf("err = %v, want *BusinessError", err)
	}
	if be.Message != "Invalid locations entered." {
		t.Errorf("message = %q", be.Message)
	}
}

func TestCalculateTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, WithCalculateTimeout(20*time.Millisecond))
	_, err := c.Calculate(context.Background(), CalcRequest{Start: "a", End: "b", ArrivalTime: "09:00", GettingReady: "5"})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient("http://localhost:5000/")
	if c.BaseURL() != "http://localhost:5000" {
		t.Errorf("BaseURL = %q", c.BaseURL())
	}
	if c.calcTimeout != config.CalculateTimeout {
		t.Errorf("calculate timeout = %v, want %v", c.calcTimeout, config.CalculateTimeout)
	}
	if c := NewClient("http://x", WithCalculateTimeout(time.Second)); c.calcTimeout != time.Second {
		t.Errorf("override ignored: %v", c.calcTimeout)
	}
}
