package vakit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog"

	"github.com/vakitapp/vakit-agent/pkg/location"
	"github.com/vakitapp/vakit-agent/pkg/prayer"
	"github.com/vakitapp/vakit-agent/pkg/remote"
)

// Endpoint keys for fallback registration.
const (
	endpointTimings       = "timings"
	endpointTimingsByCity = "timingsByCity"
	endpointQibla         = "qibla"
	endpointCities        = "cities"
)

const dateLayout = "02-01-2006"

// Fetcher is the surface the services consume.
type Fetcher interface {
	TimesByCoordinate(ctx context.Context, date time.Time, coord location.Coordinate) (prayer.DaySchedule, error)
	TimesByCity(ctx context.Context, date time.Time, city, country string) (prayer.DaySchedule, error)
	QiblaDirection(ctx context.Context, coord location.Coordinate) (float64, error)
	Cities(ctx context.Context) ([]City, error)
}

// Service fetches and normalizes prayer data, with an LRU cache of resolved
// day schedules in front of the network.
type Service struct {
	client *remote.Client
	cache  *lru.Cache
	logger zerolog.Logger
}

// NewService wires the fetcher over the generic client and registers the
// static fallback datasets for the timing and city endpoints. The qibla
// endpoint's fallback is computed, not static, so it is handled locally.
func NewService(client *remote.Client, cacheSize int, logger zerolog.Logger) (*Service, error) {
	if cacheSize <= 0 {
		cacheSize = 32
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create schedule cache: %w", err)
	}

	client.RegisterFallback(endpointTimings, fallbackTimingsPayload())
	client.RegisterFallback(endpointTimingsByCity, fallbackTimingsPayload())
	client.RegisterFallback(endpointCities, fallbackCitiesPayload())

	return &Service{client: client, cache: cache, logger: logger}, nil
}

// TimesByCoordinate returns the day schedule for the date at the coordinate.
func (s *Service) TimesByCoordinate(ctx context.Context, date time.Time, coord location.Coordinate) (prayer.DaySchedule, error) {
	cacheKey := fmt.Sprintf("coord|%s|%.4f|%.4f", date.Format(dateLayout), coord.Latitude, coord.Longitude)
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.(prayer.DaySchedule), nil
	}

	query := url.Values{}
	query.Set("latitude", fmt.Sprintf("%f", coord.Latitude))
	query.Set("longitude", fmt.Sprintf("%f", coord.Longitude))

	return s.fetchSchedule(ctx, date, cacheKey, remote.Endpoint{
		Key:   endpointTimings,
		Path:  "/timings/" + date.Format(dateLayout),
		Query: query,
	})
}

// TimesByCity returns the day schedule for the date in the named city.
func (s *Service) TimesByCity(ctx context.Context, date time.Time, city, country string) (prayer.DaySchedule, error) {
	cacheKey := fmt.Sprintf("city|%s|%s|%s", date.Format(dateLayout), city, country)
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.(prayer.DaySchedule), nil
	}

	query := url.Values{}
	query.Set("city", city)
	query.Set("country", country)

	return s.fetchSchedule(ctx, date, cacheKey, remote.Endpoint{
		Key:   endpointTimingsByCity,
		Path:  "/timingsByCity/" + date.Format(dateLayout),
		Query: query,
	})
}

func (s *Service) fetchSchedule(ctx context.Context, date time.Time, cacheKey string, ep remote.Endpoint) (prayer.DaySchedule, error) {
	body, err := s.client.Get(ctx, ep)
	if err != nil {
		return prayer.DaySchedule{}, err
	}

	var resp timingsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return prayer.DaySchedule{}, fmt.Errorf("failed to decode timings response: %w", err)
	}
	if resp.Code != 200 {
		return prayer.DaySchedule{}, fmt.Errorf("timings endpoint returned code %d (%s)", resp.Code, resp.Status)
	}

	normalized := prayer.Normalize(resp.Data.Timings)
	schedule := prayer.NewDaySchedule(date, normalized)
	if schedule.Empty() {
		s.logger.Warn().Str("endpoint", ep.Key).Msg("Timings response carried no recognizable event fields")
	}

	s.cache.Add(cacheKey, schedule)
	return schedule, nil
}

// QiblaDirection returns the direction to the Kaaba in degrees from north.
// When the endpoint is unreachable the bearing is computed locally.
func (s *Service) QiblaDirection(ctx context.Context, coord location.Coordinate) (float64, error) {
	body, err := s.client.Get(ctx, remote.Endpoint{
		Key:  endpointQibla,
		Path: fmt.Sprintf("/qibla/%f/%f", coord.Latitude, coord.Longitude),
	})
	if err != nil {
		bearing := qiblaBearing(coord.Latitude, coord.Longitude)
		s.logger.Warn().Err(err).Float64("bearing", bearing).Msg("Qibla endpoint unreachable, using computed bearing")
		return bearing, nil
	}

	var resp qiblaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("failed to decode qibla response: %w", err)
	}
	return resp.Data.Direction, nil
}

// Cities returns the supported city directory.
func (s *Service) Cities(ctx context.Context) ([]City, error) {
	query := url.Values{}
	query.Set("country", "TR")

	body, err := s.client.Get(ctx, remote.Endpoint{
		Key:   endpointCities,
		Path:  "/cities",
		Query: query,
	})
	if err != nil {
		return nil, err
	}

	var resp citiesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode cities response: %w", err)
	}
	return resp.Data, nil
}
