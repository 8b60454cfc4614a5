package location

import (
	"context"
	"errors"
)

var (
	// ErrPermissionDenied means location access was refused. Recoverable
	// only by an external settings change, not by retrying.
	ErrPermissionDenied = errors.New("location permission denied")

	// ErrUnavailable means permission was granted but no coordinates could
	// be acquired.
	ErrUnavailable = errors.New("location unavailable")
)

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Provider abstracts the device-location collaborator. Request may prompt
// the user; Coordinates acquires the current position after a grant.
type Provider interface {
	Request(ctx context.Context) (granted bool, err error)
	Coordinates(ctx context.Context) (Coordinates, error)
}

// Static serves a fixed coordinate pair from configuration. Permission is
// granted exactly when coordinates are configured, which models the denied
// state for deployments without a home location.
type Static struct {
	coords *Coordinates
}

func NewStatic(coords *Coordinates) *Static {
	return &Static{coords: coords}
}

func (s *Static) Request(ctx context.Context) (bool, error) {
	return s.coords != nil, nil
}

func (s *Static) Coordinates(ctx context.Context) (Coordinates, error) {
	if s.coords == nil {
		return Coordinates{}, ErrUnavailable
	}
	return *s.coords, nil
}
