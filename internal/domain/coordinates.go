package domain

import (
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/s2"
)

const EarthRadiusMeters = 6371008.8

// LatLng is a parsed, numeric coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ParseCoordinates extracts a numeric lat/lng pair from a loosely-typed
// coordinates mapping. ok is false when either key is missing, null or not
// convertible to a finite float. It never panics.
func ParseCoordinates(raw map[string]any) (LatLng, bool) {
	if raw == nil {
		return LatLng{}, false
	}

	lat, ok := toFloat(raw["lat"])
	if !ok {
		return LatLng{}, false
	}
	lng, ok := toFloat(raw["lng"])
	if !ok {
		return LatLng{}, false
	}

	return LatLng{Lat: lat, Lng: lng}, true
}

// CoordinatesChanged compares two raw coordinate mappings after parsing.
// Two unparseable values are equal, one parseable value is a change, and two
// parsed pairs are compared with exact float equality.
func CoordinatesChanged(old, new map[string]any) bool {
	o, oldOK := ParseCoordinates(old)
	n, newOK := ParseCoordinates(new)

	if !oldOK && !newOK {
		return false
	}
	if oldOK != newOK {
		return true
	}
	return o != n
}

// Map returns the canonical {"lat", "lng"} mapping for storage.
func (c LatLng) Map() map[string]any {
	return map[string]any{"lat": c.Lat, "lng": c.Lng}
}

// Query formats the pair as "lat,lng" for text search providers.
func (c LatLng) Query() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}

func (c LatLng) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// DistanceMeters returns the great-circle distance between two points.
func (c LatLng) DistanceMeters(other LatLng) float64 {
	a := s2.LatLngFromDegrees(c.Lat, c.Lng)
	b := s2.LatLngFromDegrees(other.Lat, other.Lng)
	return a.Distance(b).Radians() * EarthRadiusMeters
}

type float64er interface {
	Float64() (float64, error)
}

func toFloat(v any) (float64, bool) {
	var f float64

	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64er:
		// json.Number from either encoding/json or goccy/go-json
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
