package location

import "time"

// Coordinate is a geographic position in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Source records how a coordinate was obtained.
type Source string

const (
	SourceGPS      Source = "gps"
	SourceCache    Source = "cache"
	SourceFallback Source = "fallback"
)

// CachedLocation is a resolved coordinate with its provenance and the instant
// it was acquired. It is written to both cache tiers whenever a coordinate is
// newly resolved.
type CachedLocation struct {
	Coordinate Coordinate `json:"coordinate"`
	Source     Source     `json:"source"`
	Timestamp  time.Time  `json:"timestamp"`
}

// FreshWithin reports whether the entry is younger than the freshness window
// relative to now.
func (c CachedLocation) FreshWithin(window time.Duration, now time.Time) bool {
	return now.Sub(c.Timestamp) < window
}
