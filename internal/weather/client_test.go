package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(&http.Client{Timeout: 2 * time.Second}, "test-key", srv.URL, srv.URL)
}

func TestByCityNameSuccess(t *testing.T) {
	var gotQuery url.Values
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{
			"cod": 200,
			"id": 2643743,
			"name": "London",
			"coord": {"lat": 51.51, "lon": -0.13},
			"sys": {"country": "GB", "sunrise": 1700000000, "sunset": 1700030000},
			"main": {"temp": 15, "feels_like": 14.2, "temp_min": 13, "temp_max": 17, "pressure": 1012, "humidity": 72},
			"weather": [{"description": "clear sky", "icon": "01d"}],
			"wind": {"speed": 3.6, "deg": 250},
			"clouds": {"all": 10},
			"visibility": 10000
		}`))
	}))

	snap, err := client.ByCityName(context.Background(), "  London  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotQuery.Get("q") != "London" {
		t.Fatalf("expected trimmed query %q, got %q", "London", gotQuery.Get("q"))
	}
	if gotQuery.Get("units") != "metric" {
		t.Fatalf("expected metric units, got %q", gotQuery.Get("units"))
	}
	if gotQuery.Get("appid") != "test-key" {
		t.Fatalf("expected api key in query, got %q", gotQuery.Get("appid"))
	}

	if snap.Name != "London" || snap.Country != "GB" || snap.Temp != 15 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.CityID != 2643743 || snap.Description != "clear sky" || snap.Icon != "01d" {
		t.Fatalf("unexpected snapshot detail: %+v", snap)
	}
	if snap.WindSpeed != 3.6 || snap.WindDeg != 250 || snap.Cloudiness != 10 || snap.Visibility != 10000 {
		t.Fatalf("unexpected wind/clouds: %+v", snap)
	}
	if snap.Sunrise != 1700000000 || snap.Sunset != 1700030000 {
		t.Fatalf("unexpected sun times: %+v", snap)
	}
}

func TestCityNotFound(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"cod": "404", "message": "city not found"}`))
	}))

	_, err := client.ByCityName(context.Background(), "Atlantis")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrCityNotFound) {
		t.Fatalf("expected ErrCityNotFound, got %v", err)
	}
	if err.Error() != "City not found" {
		t.Fatalf("expected message %q, got %q", "City not found", err.Error())
	}
}

func TestProviderMessagePassesThrough(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"cod": 401, "message": "Invalid API key"}`))
	}))

	_, err := client.ByCityID(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error")
	}

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %T: %v", err, err)
	}
	if provErr.Message != "Invalid API key" {
		t.Fatalf("expected provider message to pass through, got %q", provErr.Message)
	}
	if errors.Is(err, ErrCityNotFound) {
		t.Fatal("generic provider error must not match ErrCityNotFound")
	}
}

func TestEmptyProviderMessageFallsBack(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"cod": 500}`))
	}))

	_, err := client.ByCityID(context.Background(), 1)
	if err == nil || err.Error() != "Failed to load weather" {
		t.Fatalf("expected fallback message, got %v", err)
	}
}

func TestMissingAPIKey(t *testing.T) {
	client := NewClient(&http.Client{}, "", "http://127.0.0.1:0", "http://127.0.0.1:0")

	if _, err := client.ByCoordinates(context.Background(), 1, 2); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestMalformedBodyIsNetworkError(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))

	_, err := client.ByCityID(context.Background(), 1)
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestSuggestionsFormatting(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "5" {
			t.Errorf("expected limit=5, got %q", r.URL.Query().Get("limit"))
		}
		w.Write([]byte(`[
			{"name": "Paris", "state": "Île-de-France", "country": "FR"},
			{"name": "Tokyo", "country": "JP"}
		]`))
	}))

	got := client.Suggestions(context.Background(), "par")
	want := []string{"Paris, Île-de-France, FR", "Tokyo, JP"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestSuggestionsCappedAtFive(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"name": "A", "country": "AA"},
			{"name": "B", "country": "BB"},
			{"name": "C", "country": "CC"},
			{"name": "D", "country": "DD"},
			{"name": "E", "country": "EE"},
			{"name": "F", "country": "FF"}
		]`))
	}))

	if got := client.Suggestions(context.Background(), "x"); len(got) != 5 {
		t.Fatalf("expected 5 suggestions, got %d: %v", len(got), got)
	}
}

func TestSuggestionsErrorsAreAbsorbed(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	if got := client.Suggestions(context.Background(), "lon"); got != nil {
		t.Fatalf("expected nil suggestions on server error, got %v", got)
	}

	// Missing credential is also absorbed.
	unconfigured := NewClient(&http.Client{}, "", "", "")
	if got := unconfigured.Suggestions(context.Background(), "lon"); got != nil {
		t.Fatalf("expected nil suggestions without api key, got %v", got)
	}
}

func TestSuggestionsBlankInput(t *testing.T) {
	called := false
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	if got := client.Suggestions(context.Background(), "   "); got != nil {
		t.Fatalf("expected nil for blank input, got %v", got)
	}
	if called {
		t.Fatal("blank input must not hit the network")
	}
}
