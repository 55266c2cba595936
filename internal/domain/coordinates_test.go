package domain

import (
	"math"
	"testing"

	"github.com/goccy/go-json"
)

func TestParseCoordinates(t *testing.T) {
	cases := []struct {
		name string
		raw  map[string]any
		want LatLng
		ok   bool
	}{
		{"floats", map[string]any{"lat": 41.3, "lng": 69.2}, LatLng{41.3, 69.2}, true},
		{"ints", map[string]any{"lat": 41, "lng": int64(69)}, LatLng{41, 69}, true},
		{"numeric strings", map[string]any{"lat": "41.3", "lng": " 69.2 "}, LatLng{41.3, 69.2}, true},
		{"json number", map[string]any{"lat": json.Number("41.3"), "lng": json.Number("69.2")}, LatLng{41.3, 69.2}, true},
		{"extra keys ignored", map[string]any{"lat": 1.0, "lng": 2.0, "alt": "x"}, LatLng{1, 2}, true},
		{"nil map", nil, LatLng{}, false},
		{"empty map", map[string]any{}, LatLng{}, false},
		{"missing lng", map[string]any{"lat": 41.3}, LatLng{}, false},
		{"null lat", map[string]any{"lat": nil, "lng": 69.2}, LatLng{}, false},
		{"non-numeric", map[string]any{"lat": "abc", "lng": 69.2}, LatLng{}, false},
		{"nested value", map[string]any{"lat": []any{1.0}, "lng": 69.2}, LatLng{}, false},
		{"bool", map[string]any{"lat": true, "lng": 69.2}, LatLng{}, false},
		{"nan string", map[string]any{"lat": "NaN", "lng": 69.2}, LatLng{}, false},
		{"inf", map[string]any{"lat": math.Inf(1), "lng": 69.2}, LatLng{}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseCoordinates(tc.raw)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestParseCoordinatesDecodedJSON(t *testing.T) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(`{"lat": 41.311081, "lng": "69.240562"}`), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	got, ok := ParseCoordinates(raw)
	if !ok {
		t.Fatal("expected decoded JSON coordinates to parse")
	}
	if got.Lat != 41.311081 || got.Lng != 69.240562 {
		t.Fatalf("got %+v", got)
	}
}

func TestCoordinatesChanged(t *testing.T) {
	a := map[string]any{"lat": 41.3, "lng": 69.2}

	cases := []struct {
		name     string
		old, new map[string]any
		want     bool
	}{
		{"both unparseable", nil, map[string]any{"lat": "x"}, false},
		{"both empty", map[string]any{}, nil, false},
		{"set from nothing", nil, a, true},
		{"cleared", a, nil, true},
		{"became invalid", a, map[string]any{"lat": 41.3}, true},
		{"same values", a, map[string]any{"lat": 41.3, "lng": 69.2}, false},
		{"same values different types", a, map[string]any{"lat": "41.3", "lng": "69.2"}, false},
		{"moved", a, map[string]any{"lat": 41.3, "lng": 69.21}, true},
		{"tiny move counts", a, map[string]any{"lat": 41.3 + 1e-12, "lng": 69.2}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CoordinatesChanged(tc.old, tc.new); got != tc.want {
				t.Fatalf("CoordinatesChanged = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCoordinatesChangedIsSymmetric(t *testing.T) {
	values := []map[string]any{
		nil,
		{"lat": 1.0, "lng": 2.0},
		{"lat": "1", "lng": "2"},
		{"lat": 1.5},
		{"lat": 3.0, "lng": 4.0},
	}
	for _, x := range values {
		for _, y := range values {
			if CoordinatesChanged(x, y) != CoordinatesChanged(y, x) {
				t.Fatalf("asymmetric result for %v / %v", x, y)
			}
		}
	}
}

func TestDistanceMeters(t *testing.T) {
	tashkent := LatLng{Lat: 41.2995, Lng: 69.2401}
	samarkand := LatLng{Lat: 39.6542, Lng: 66.9597}

	d := tashkent.DistanceMeters(samarkand)
	// roughly 270 km
	if d < 260_000 || d > 280_000 {
		t.Fatalf("distance = %.0f m, want about 270 km", d)
	}
	if got := tashkent.DistanceMeters(tashkent); got != 0 {
		t.Fatalf("distance to self = %v, want 0", got)
	}
}

func TestLatLngQuery(t *testing.T) {
	if got := (LatLng{Lat: 41.5, Lng: -69}).Query(); got != "41.5,-69" {
		t.Fatalf("Query = %q", got)
	}
}
