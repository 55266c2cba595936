package domain

import "github.com/goccy/go-json"

// PopularTimesPayload is the provider's foot-traffic histogram, kept opaque.
type PopularTimesPayload = json.RawMessage

// PopularTimes is the result of a coordinate lookup.
type PopularTimes struct {
	Payload     PopularTimesPayload `json:"popular_times"`
	Coordinates LatLng              `json:"coordinates"`
}

// PlaceDetails is the subset of a place search result the API exposes.
type PlaceDetails struct {
	Query            string          `json:"query"`
	PlaceID          string          `json:"place_id,omitempty"`
	GoogleID         string          `json:"google_id,omitempty"`
	Name             string          `json:"name,omitempty"`
	FullAddress      string          `json:"full_address,omitempty"`
	Location         *LatLng         `json:"location,omitempty"`
	Rating           *float64        `json:"rating,omitempty"`
	Reviews          *int            `json:"reviews,omitempty"`
	Category         string          `json:"category,omitempty"`
	Subtypes         json.RawMessage `json:"subtypes,omitempty"`
	PopularTimes     json.RawMessage `json:"popular_times"`
	LivePopularTimes json.RawMessage `json:"live_popular_times"`
}

// HasPopularTimes reports whether the payload carries a usable histogram.
func HasPopularTimes(p json.RawMessage) bool {
	switch string(p) {
	case "", "null", "[]", "{}":
		return false
	}
	return true
}
