package vakit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vakitapp/vakit-agent/internal/utils"
	"github.com/vakitapp/vakit-agent/pkg/location"
	"github.com/vakitapp/vakit-agent/pkg/prayer"
	"github.com/vakitapp/vakit-agent/pkg/remote"
)

func fastPolicy() utils.RetryPolicy {
	return utils.RetryPolicy{
		Timeout:     time.Second,
		MaxAttempts: 2,
		BaseDelay:   time.Millisecond,
		BackoffCap:  2 * time.Millisecond,
	}
}

func newTestService(t *testing.T, baseURL string) *Service {
	t.Helper()
	client := remote.NewClient([]string{baseURL}, fastPolicy(), zerolog.Nop())
	svc, err := NewService(client, 8, zerolog.Nop())
	require.NoError(t, err)
	return svc
}

func sampleTimingsBody() []byte {
	resp := timingsResponse{Code: 200, Status: "OK"}
	resp.Data.Timings = map[string]string{
		"Fajr":    "05:17",
		"Sunrise": "06:48",
		"Dhuhr":   "12:13",
		"Asr":     "15:02",
		"Maghrib": "17:39",
		"Isha":    "19:10",
		"Sunset":  "17:39",
	}
	resp.Data.Meta.Timezone = "Europe/Istanbul"
	body, _ := json.Marshal(resp)
	return body
}

func TestTimesByCoordinate_NormalizesUpstreamFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/timings/10-03-2026")
		assert.NotEmpty(t, r.URL.Query().Get("latitude"))
		w.Write(sampleTimingsBody())
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	got, err := svc.TimesByCoordinate(context.Background(), date, location.Coordinate{Latitude: 41.0, Longitude: 29.0})

	require.NoError(t, err)
	raw, ok := got.Time(prayer.Imsak)
	assert.True(t, ok)
	assert.Equal(t, "05:17", raw)
	raw, _ = got.Time(prayer.Yatsi)
	assert.Equal(t, "19:10", raw)
	assert.Len(t, got.Times(), 6)
}

func TestTimesByCoordinate_SecondCallServedFromCache(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write(sampleTimingsBody())
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	coord := location.Coordinate{Latitude: 41.0, Longitude: 29.0}

	_, err := svc.TimesByCoordinate(context.Background(), date, coord)
	require.NoError(t, err)
	_, err = svc.TimesByCoordinate(context.Background(), date, coord)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTimesByCity_EndpointDownServesStaticTimetable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	got, err := svc.TimesByCity(context.Background(), date, "Istanbul", "TR")

	require.NoError(t, err)
	raw, ok := got.Time(prayer.Ogle)
	assert.True(t, ok)
	assert.Equal(t, "13:00", raw)
	assert.Len(t, got.Times(), 6)
}

func TestQiblaDirection_FromEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/qibla/")
		var resp qiblaResponse
		resp.Code = 200
		resp.Data.Direction = 151.6
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)

	got, err := svc.QiblaDirection(context.Background(), location.Coordinate{Latitude: 41.0, Longitude: 29.0})

	require.NoError(t, err)
	assert.InDelta(t, 151.6, got, 0.001)
}

func TestQiblaDirection_EndpointDownComputesBearing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)

	// Istanbul's qibla bearing is roughly south-southeast.
	got, err := svc.QiblaDirection(context.Background(), location.Coordinate{Latitude: 41.0082, Longitude: 28.9784})

	require.NoError(t, err)
	assert.InDelta(t, 151.0, got, 2.0)
}

func TestCities_EndpointDownServesStaticDirectory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)

	got, err := svc.Cities(context.Background())

	require.NoError(t, err)
	assert.Len(t, got, 10)
	assert.Equal(t, "İstanbul", got[0].Name)
}

func TestCities_FromEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cities", r.URL.Path)
		json.NewEncoder(w).Encode(citiesResponse{
			Code: 200,
			Data: []City{{Name: "Ankara", Country: "TR", Latitude: 39.93, Longitude: 32.86}},
		})
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)

	got, err := svc.Cities(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Ankara", got[0].Name)
}

func TestQiblaBearing_KnownValues(t *testing.T) {
	// From the Kaaba itself any direction is degenerate; use known cities.
	istanbul := qiblaBearing(41.0082, 28.9784)
	assert.InDelta(t, 151.0, istanbul, 2.0)

	// From due north of the Kaaba the bearing is due south.
	north := qiblaBearing(40.0, 39.8262)
	assert.InDelta(t, 180.0, north, 0.5)
}
