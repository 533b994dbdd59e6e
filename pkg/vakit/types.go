// Package vakit layers the prayer-timing, qibla and city-directory fetchers
// on top of the generic remote client, normalizing upstream response shapes
// onto the six canonical events and supplying static fallbacks for each
// endpoint.
package vakit

// timingsResponse is the upstream envelope for the timing endpoints. Timings
// are decoded as a raw string map because the set of field spellings varies
// by provider; normalization happens against the canonical alias table.
type timingsResponse struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Data   struct {
		Timings map[string]string `json:"timings"`
		Meta    struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
			Timezone  string  `json:"timezone"`
		} `json:"meta"`
	} `json:"data"`
}

// qiblaResponse is the upstream envelope for the qibla endpoint.
type qiblaResponse struct {
	Code int `json:"code"`
	Data struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Direction float64 `json:"direction"`
	} `json:"data"`
}

// City is one entry of the city directory.
type City struct {
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// citiesResponse is the upstream envelope for the city directory endpoint.
type citiesResponse struct {
	Code int    `json:"code"`
	Data []City `json:"data"`
}
