package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"skycast/internal/location"
)

type AppConfig struct {
	OpenWeatherAPIKey string

	// Endpoint overrides, mainly for tests.
	WeatherBaseURL string
	GeoBaseURL     string

	// Path of the SQLite cache database.
	CacheDBPath string

	// HomeCoordinates is the configured "device location". Nil models a
	// denied location permission.
	HomeCoordinates *location.Coordinates

	HTTPTimeout     time.Duration
	RefreshInterval time.Duration
	Port            string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.WeatherBaseURL = os.Getenv("WEATHER_BASE_URL")
	cfg.GeoBaseURL = os.Getenv("GEO_BASE_URL")
	cfg.CacheDBPath = getenvDefault("CACHE_DB_PATH", "skycast.db")
	cfg.Port = getenvDefault("PORT", "8080")

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	// Background revalidation interval: default 15 minutes.
	intervalStr := getenvDefault("REFRESH_INTERVAL", "15m")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
	}
	cfg.RefreshInterval = interval

	coords, err := loadHomeCoordinates()
	if err != nil {
		return nil, err
	}
	cfg.HomeCoordinates = coords

	return cfg, nil
}

func loadHomeCoordinates() (*location.Coordinates, error) {
	latStr := os.Getenv("HOME_LAT")
	lonStr := os.Getenv("HOME_LON")
	if latStr == "" && lonStr == "" {
		return nil, nil
	}
	if latStr == "" || lonStr == "" {
		return nil, fmt.Errorf("HOME_LAT and HOME_LON must be set together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid HOME_LAT: %w", err)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid HOME_LON: %w", err)
	}

	return &location.Coordinates{Lat: lat, Lon: lon}, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
