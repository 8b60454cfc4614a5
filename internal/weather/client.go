package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

const (
	defaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"
	defaultGeoURL  = "http://api.openweathermap.org/geo/1.0/direct"

	// The provider reports metric units everywhere in this app.
	units = "metric"

	// Canonical success value of the provider's `cod` status field.
	successCode = 200

	maxSuggestions = 5
)

// Client is a stateless wrapper around the OpenWeatherMap current-weather
// and geocoding endpoints.
type Client struct {
	apiKey  string
	baseURL string
	geoURL  string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewClient creates a Client. Empty baseURL/geoURL select the production
// endpoints; tests point them at a local server.
func NewClient(client *http.Client, apiKey, baseURL, geoURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if geoURL == "" {
		geoURL = defaultGeoURL
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		geoURL:  geoURL,
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      3,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: cb,
	}
}

// statusCode tolerates the provider's habit of sending `cod` as a number on
// success and a quoted string on errors.
type statusCode int

func (s *statusCode) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if raw == "" || raw == "null" {
		*s = 0
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*s = 0
		return nil
	}
	*s = statusCode(n)
	return nil
}

type currentPayload struct {
	Cod     statusCode `json:"cod"`
	Message string     `json:"message"`

	ID    int    `json:"id"`
	Name  string `json:"name"`
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Pressure  int     `json:"pressure"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   int     `json:"deg"`
	} `json:"wind"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
	Visibility int `json:"visibility"`
	Sys        struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
}

func snapshotFromPayload(p currentPayload) *Snapshot {
	snap := &Snapshot{
		CityID:     p.ID,
		Name:       p.Name,
		Country:    p.Sys.Country,
		Lat:        p.Coord.Lat,
		Lon:        p.Coord.Lon,
		Temp:       p.Main.Temp,
		FeelsLike:  p.Main.FeelsLike,
		TempMin:    p.Main.TempMin,
		TempMax:    p.Main.TempMax,
		Pressure:   p.Main.Pressure,
		Humidity:   p.Main.Humidity,
		WindSpeed:  p.Wind.Speed,
		WindDeg:    p.Wind.Deg,
		Cloudiness: p.Clouds.All,
		Visibility: p.Visibility,
		Sunrise:    p.Sys.Sunrise,
		Sunset:     p.Sys.Sunset,
	}
	if len(p.Weather) > 0 {
		snap.Description = p.Weather[0].Description
		snap.Icon = p.Weather[0].Icon
	}
	return snap
}

// ByCoordinates fetches current weather for a coordinate pair.
func (c *Client) ByCoordinates(ctx context.Context, lat, lon float64) (*Snapshot, error) {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	return c.current(ctx, values)
}

// ByCityName fetches current weather for a city name. The name is trimmed;
// callers must not pass a blank name.
func (c *Client) ByCityName(ctx context.Context, name string) (*Snapshot, error) {
	values := url.Values{}
	values.Set("q", strings.TrimSpace(name))
	return c.current(ctx, values)
}

// ByCityID fetches current weather by the provider's numeric city id.
func (c *Client) ByCityID(ctx context.Context, id int) (*Snapshot, error) {
	values := url.Values{}
	values.Set("id", strconv.Itoa(id))
	return c.current(ctx, values)
}

func (c *Client) current(ctx context.Context, values url.Values) (*Snapshot, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	buildRequest := func() (*http.Request, error) {
		values.Set("appid", c.apiKey)
		values.Set("units", units)

		u := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	var payload currentPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	if resp.StatusCode != http.StatusOK || int(payload.Cod) != successCode {
		return nil, newProviderError(strconv.Itoa(int(payload.Cod)), payload.Message)
	}

	return snapshotFromPayload(payload), nil
}

// Suggestions queries the geocoding endpoint for autocomplete candidates and
// formats them as "City, State, Country" or "City, Country". It never fails:
// any error yields an empty result, since suggestions are best-effort.
func (c *Client) Suggestions(ctx context.Context, prefix string) []string {
	q := strings.TrimSpace(prefix)
	if q == "" || c.apiKey == "" {
		return nil
	}

	values := url.Values{}
	values.Set("q", q)
	values.Set("limit", strconv.Itoa(maxSuggestions))
	values.Set("appid", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?%s", c.geoURL, values.Encode()), nil)
	if err != nil {
		return nil
	}

	resp, err := c.httpCfg.Client.Do(req)
	if err != nil {
		log.Printf("weather: suggestion fetch failed for %q: %v", q, err)
		return nil
	}
	defer resp.Body.Close()

	var entries []struct {
		Name    string `json:"name"`
		State   string `json:"state"`
		Country string `json:"country"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		log.Printf("weather: suggestion decode failed for %q: %v", q, err)
		return nil
	}

	if len(entries) > maxSuggestions {
		entries = entries[:maxSuggestions]
	}

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.State != "" {
			out = append(out, fmt.Sprintf("%s, %s, %s", e.Name, e.State, e.Country))
		} else {
			out = append(out, fmt.Sprintf("%s, %s", e.Name, e.Country))
		}
	}
	return out
}
