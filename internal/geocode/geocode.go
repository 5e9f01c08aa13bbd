// Package geocode turns postal addresses into coordinates.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// EarthRadiusMiles converts a distance in miles to radians.
const EarthRadiusMiles = 3963.0

var (
	// ErrUnavailable means no geocoding provider is configured or reachable.
	ErrUnavailable = errors.New("geocoder unavailable")
	// ErrNoResults means the provider found nothing for the address.
	ErrNoResults = errors.New("address not found")
)

// Location is one geocoding result.
type Location struct {
	Latitude         float64
	Longitude        float64
	FormattedAddress string
	Street           string
	City             string
	State            string
	Zipcode          string
	Country          string
}

type Geocoder interface {
	Geocode(ctx context.Context, address string) ([]Location, error)
}

// Disabled answers every lookup with ErrUnavailable.
type Disabled struct{}

func (Disabled) Geocode(context.Context, string) ([]Location, error) {
	return nil, ErrUnavailable
}

// New returns the geocoder for provider, or Disabled when apiKey is empty.
func New(provider, apiKey string, opts ...Option) (Geocoder, error) {
	if apiKey == "" {
		return Disabled{}, nil
	}
	switch strings.ToLower(provider) {
	case "", "mapquest":
		return NewMapQuest(apiKey, opts...), nil
	}
	return nil, fmt.Errorf("unsupported geocoder provider %q", provider)
}

// First returns the first result for address.
func First(ctx context.Context, g Geocoder, address string) (Location, error) {
	locs, err := g.Geocode(ctx, address)
	if err != nil {
		return Location{}, err
	}
	if len(locs) == 0 {
		return Location{}, ErrNoResults
	}
	return locs[0], nil
}

// Radians converts a distance in miles to an angle on the Earth's surface.
func Radians(miles float64) float64 {
	return miles / EarthRadiusMiles
}
