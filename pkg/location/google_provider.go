package location

import (
	"context"

	"googlemaps.github.io/maps"
)

// GoogleProvider resolves a coordinate through the Google Maps Geolocation
// API from nearby WiFi access points and cell towers, falling back to the
// caller's IP when no radio environment is visible.
type GoogleProvider struct {
	client *maps.Client
}

// NewGoogleProvider creates a provider authenticated with the given API key.
func NewGoogleProvider(apiKey string) (*GoogleProvider, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GoogleProvider{client: c}, nil
}

// GetLocation gathers the local radio environment and asks the geolocation
// API for a position. Scan failures are tolerated; the request degrades to
// IP-based positioning.
func (g *GoogleProvider) GetLocation(ctx context.Context) (Coordinate, error) {
	req := &maps.GeolocationRequest{ConsiderIP: true}

	if aps, err := scanWiFiAccessPoints(ctx); err == nil {
		req.WiFiAccessPoints = aps
	}
	if towers, err := scanCellTowers(ctx, 0); err == nil {
		req.CellTowers = towers
	}

	resp, err := g.client.Geolocate(ctx, req)
	if err != nil {
		return Coordinate{}, err
	}

	return Coordinate{
		Latitude:  resp.Location.Lat,
		Longitude: resp.Location.Lng,
	}, nil
}
