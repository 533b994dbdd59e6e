package vakit

import (
	"encoding/json"
	"math"
)

// kaaba is the qibla reference point.
var kaaba = struct{ lat, lon float64 }{21.4225, 39.8262}

// defaultTimetable is the fixed six-entry table served when every timing
// endpoint is unreachable. The values are deliberately unremarkable mid-range
// times; a visible-but-approximate schedule beats an error screen.
var defaultTimetable = map[string]string{
	"Imsak":   "05:30",
	"Sunrise": "07:00",
	"Dhuhr":   "13:00",
	"Asr":     "16:30",
	"Maghrib": "19:30",
	"Isha":    "21:00",
}

// fallbackCities is the static ten-city directory served when the city
// endpoint is unreachable.
var fallbackCities = []City{
	{Name: "İstanbul", Country: "TR", Latitude: 41.0082, Longitude: 28.9784},
	{Name: "Ankara", Country: "TR", Latitude: 39.9334, Longitude: 32.8597},
	{Name: "İzmir", Country: "TR", Latitude: 38.4237, Longitude: 27.1428},
	{Name: "Bursa", Country: "TR", Latitude: 40.1885, Longitude: 29.0610},
	{Name: "Antalya", Country: "TR", Latitude: 36.8969, Longitude: 30.7133},
	{Name: "Adana", Country: "TR", Latitude: 37.0000, Longitude: 35.3213},
	{Name: "Konya", Country: "TR", Latitude: 37.8746, Longitude: 32.4932},
	{Name: "Gaziantep", Country: "TR", Latitude: 37.0662, Longitude: 37.3833},
	{Name: "Kayseri", Country: "TR", Latitude: 38.7312, Longitude: 35.4787},
	{Name: "Trabzon", Country: "TR", Latitude: 41.0015, Longitude: 39.7178},
}

// fallbackTimingsPayload renders the default timetable in the upstream
// envelope shape so the generic fallback path decodes uniformly.
func fallbackTimingsPayload() []byte {
	resp := timingsResponse{Code: 200, Status: "OK (fallback)"}
	resp.Data.Timings = defaultTimetable
	payload, _ := json.Marshal(resp)
	return payload
}

// fallbackCitiesPayload renders the static city directory in the upstream
// envelope shape.
func fallbackCitiesPayload() []byte {
	payload, _ := json.Marshal(citiesResponse{Code: 200, Data: fallbackCities})
	return payload
}

// qiblaBearing computes the initial great-circle bearing from the coordinate
// to the Kaaba, in degrees from true north.
func qiblaBearing(lat, lon float64) float64 {
	phi1 := lat * math.Pi / 180
	phi2 := kaaba.lat * math.Pi / 180
	dLon := (kaaba.lon - lon) * math.Pi / 180

	y := math.Sin(dLon) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLon)

	bearing := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(bearing+360, 360)
}
