package services

import (
	"context"
	"errors"
	"fmt"
	"street-screens-service/internal/domain"
	"street-screens-service/internal/ports"
	"strings"
)

// ErrProviderNotConfigured is returned when no places provider was built,
// usually because the API key is missing.
var ErrProviderNotConfigured = errors.New("places provider not configured")

var supportedLanguages = map[string]bool{"en": true, "ru": true, "uz": true}

const DefaultLanguage = "en"

type PopularTimesService struct {
	provider ports.PlacesProvider
}

// NewPopularTimesService accepts a nil provider; every lookup then fails
// with ErrProviderNotConfigured.
func NewPopularTimesService(provider ports.PlacesProvider) *PopularTimesService {
	return &PopularTimesService{provider: provider}
}

// Search looks a place up by free text. It returns domain.ErrNotFound when
// the place is unknown or has no popular times.
func (s *PopularTimesService) Search(ctx context.Context, query, language string) (*domain.PlaceDetails, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.NewFieldError("q", "q is required")
	}
	if language == "" {
		language = DefaultLanguage
	}
	if !supportedLanguages[language] {
		return nil, domain.NewFieldError("language", fmt.Sprintf("%q is not a valid choice", language))
	}
	if s.provider == nil {
		return nil, ErrProviderNotConfigured
	}

	place, err := s.provider.SearchPlace(ctx, query, language)
	if err != nil {
		return nil, fmt.Errorf("popular times %q: %w", query, err)
	}
	if place == nil {
		return nil, fmt.Errorf("popular times %q: %w", query, domain.ErrNotFound)
	}
	// A place without a histogram is still returned; popular_times is null.
	return place, nil
}
