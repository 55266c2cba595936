package places

import (
	"context"
	"street-screens-service/internal/domain"
	"street-screens-service/internal/ports"
	"sync"
)

// MockPlacesProvider serves canned popular times keyed by coordinates and
// canned places keyed by query. It records every coordinate lookup.
type MockPlacesProvider struct {
	mu      sync.Mutex
	byPoint map[domain.LatLng]domain.PopularTimesPayload
	byQuery map[string]domain.PlaceDetails
	calls   []domain.LatLng

	// Err, when set, is returned from every call.
	Err error
}

var _ ports.PlacesProvider = (*MockPlacesProvider)(nil)

func NewMockPlacesProvider() *MockPlacesProvider {
	return &MockPlacesProvider{
		byPoint: make(map[domain.LatLng]domain.PopularTimesPayload),
		byQuery: make(map[string]domain.PlaceDetails),
	}
}

func (m *MockPlacesProvider) SetPopularTimes(at domain.LatLng, payload string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byPoint[at] = domain.PopularTimesPayload(payload)
}

func (m *MockPlacesProvider) SetPlace(query string, p domain.PlaceDetails) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byQuery[query] = p
}

// Calls returns the coordinates looked up so far, in order.
func (m *MockPlacesProvider) Calls() []domain.LatLng {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.LatLng(nil), m.calls...)
}

func (m *MockPlacesProvider) LookupByCoordinates(ctx context.Context, lat, lng float64, language string) (*domain.PopularTimes, error) {
	at := domain.LatLng{Lat: lat, Lng: lng}

	m.mu.Lock()
	m.calls = append(m.calls, at)
	payload, ok := m.byPoint[at]
	err := m.Err
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if !ok || !domain.HasPopularTimes(payload) {
		return nil, nil
	}
	return &domain.PopularTimes{Payload: payload, Coordinates: at}, nil
}

func (m *MockPlacesProvider) SearchPlace(ctx context.Context, query, language string) (*domain.PlaceDetails, error) {
	m.mu.Lock()
	p, ok := m.byQuery[query]
	err := m.Err
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}
