package places

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"street-screens-service/internal/domain"
	"street-screens-service/internal/platform/logging"
	"street-screens-service/internal/platform/metrics"
	"street-screens-service/internal/platform/obs"
	"street-screens-service/internal/ports"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultBaseURL  = "https://api.app.outscraper.com"
	DefaultLanguage = "en"

	searchEndpoint = "/maps/search-v3"
)

// Options tune an OutscraperProvider. Zero values fall back to defaults.
type Options struct {
	BaseURL        string
	Language       string
	Timeout        time.Duration
	HTTPClient     *http.Client
	Cache          ports.PlacesCache
	CacheTTL       time.Duration
	BreakerTimeout time.Duration
}

// OutscraperProvider implements PlacesProvider on the Outscraper Google Maps
// search API.
//
// It coordinates:
//   - optional persistent response caching
//   - collapsing identical in-flight searches
//   - retry/backoff and a circuit breaker around the HTTP calls
//
// The provider is safe for concurrent use.
type OutscraperProvider struct {
	session  *http.Client
	apiKey   string
	baseURL  string
	language string
	cache    ports.PlacesCache
	cacheTTL time.Duration
	breaker  *gobreaker.CircuitBreaker[[]byte]
	group    singleflight.Group

	// Upper bound for one shared search, retries included.
	flightTimeout time.Duration

	maxAttempts  int
	retryBackoff time.Duration
}

var _ ports.PlacesProvider = (*OutscraperProvider)(nil)

func NewOutscraperProvider(apiKey string, opts Options) (*OutscraperProvider, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, &ConfigurationError{Msg: "OUTSCRAPER_API_KEY is not configured"}
	}

	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if u, err := url.Parse(base); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &ConfigurationError{Msg: fmt.Sprintf("invalid base url %q", opts.BaseURL)}
	}

	lang := opts.Language
	if lang == "" {
		lang = DefaultLanguage
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	session := opts.HTTPClient
	if session == nil {
		session = &http.Client{Timeout: timeout}
	}

	breakerTimeout := opts.BreakerTimeout
	if breakerTimeout <= 0 {
		breakerTimeout = 30 * time.Second
	}

	return &OutscraperProvider{
		session:      session,
		apiKey:       apiKey,
		baseURL:      base,
		language:     lang,
		cache:        opts.Cache,
		cacheTTL:     opts.CacheTTL,
		breaker:      newBreaker(breakerTimeout),
		maxAttempts:  4,
		retryBackoff: 200 * time.Millisecond,

		flightTimeout: 2 * timeout,
	}, nil
}

type searchResponse struct {
	Status string              `json:"status"`
	Data   [][]json.RawMessage `json:"data"`
}

type outscraperPlace struct {
	PlaceID          string          `json:"place_id"`
	GoogleID         string          `json:"google_id"`
	Name             string          `json:"name"`
	FullAddress      string          `json:"full_address"`
	Latitude         *float64        `json:"latitude"`
	Longitude        *float64        `json:"longitude"`
	Rating           *float64        `json:"rating"`
	Reviews          *int            `json:"reviews"`
	Category         string          `json:"category"`
	Subtypes         json.RawMessage `json:"subtypes"`
	PopularTimes     json.RawMessage `json:"popular_times"`
	LivePopularTimes json.RawMessage `json:"live_popular_times"`
}

func (p *outscraperPlace) location() *domain.LatLng {
	if p.Latitude == nil || p.Longitude == nil {
		return nil
	}
	return &domain.LatLng{Lat: *p.Latitude, Lng: *p.Longitude}
}

// LookupByCoordinates searches the place nearest to lat/lng and returns its
// popular times. A place without popular times yields nil, nil.
func (o *OutscraperProvider) LookupByCoordinates(
	ctx context.Context,
	lat, lng float64,
	language string,
) (_ *domain.PopularTimes, err error) {
	defer obs.Time(ctx, "places.lookupByCoordinates")(&err)

	point := domain.LatLng{Lat: lat, Lng: lng}
	if !point.Valid() {
		return nil, fmt.Errorf("lookup by coordinates: %w", domain.NewFieldError("coordinates", "out of range"))
	}

	place, err := o.search(ctx, point.Query(), language)
	if err != nil {
		return nil, fmt.Errorf("lookup by coordinates %s: %w", point.Query(), err)
	}
	if place == nil || !domain.HasPopularTimes(place.PopularTimes) {
		return nil, nil
	}

	coords := point
	if loc := place.location(); loc != nil {
		coords = *loc
	}

	return &domain.PopularTimes{
		Payload:     domain.PopularTimesPayload(place.PopularTimes),
		Coordinates: coords,
	}, nil
}

// SearchPlace returns the first place matching a free-text query.
func (o *OutscraperProvider) SearchPlace(
	ctx context.Context,
	query, language string,
) (_ *domain.PlaceDetails, err error) {
	defer obs.Time(ctx, "places.searchPlace")(&err)

	query = strings.Join(strings.Fields(query), " ")
	if query == "" {
		return nil, fmt.Errorf("search place: %w", domain.NewFieldError("q", "query must be non-empty"))
	}

	place, err := o.search(ctx, query, language)
	if err != nil {
		return nil, fmt.Errorf("search place %q: %w", query, err)
	}
	if place == nil {
		return nil, fmt.Errorf("search place %q: %w", query, domain.ErrNotFound)
	}

	return &domain.PlaceDetails{
		Query:            query,
		PlaceID:          place.PlaceID,
		GoogleID:         place.GoogleID,
		Name:             place.Name,
		FullAddress:      place.FullAddress,
		Location:         place.location(),
		Rating:           place.Rating,
		Reviews:          place.Reviews,
		Category:         place.Category,
		Subtypes:         place.Subtypes,
		PopularTimes:     place.PopularTimes,
		LivePopularTimes: place.LivePopularTimes,
	}, nil
}

// search resolves the first place for a query through cache, singleflight and
// the breaker-guarded HTTP call. nil means the provider found nothing.
func (o *OutscraperProvider) search(ctx context.Context, query, language string) (*outscraperPlace, error) {
	if language == "" {
		language = o.language
	}

	if o.cache != nil {
		raw, ok, err := o.cache.Get(ctx, query, language, o.cacheTTL)
		if err != nil {
			metrics.PlacesCache.WithLabelValues("error").Inc()
			logging.Ctx(ctx).Warn().Err(err).Str("query", query).Msg("places cache read failed")
		} else if ok {
			return decodePlace(raw)
		}
	}

	// The flight outlives any single caller: it runs on a detached context
	// bounded by the provider's own timeout, and each caller waits on its own ctx.
	ch := o.group.DoChan(language+"|"+query, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.flightTimeout)
		defer cancel()

		raw, err := o.breaker.Execute(func() ([]byte, error) {
			return o.fetch(flightCtx, query, language)
		})
		if err != nil {
			result := "error"
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				result = "rejected"
			}
			metrics.PlacesRequests.WithLabelValues(searchEndpoint, result).Inc()
			return nil, err
		}
		metrics.PlacesRequests.WithLabelValues(searchEndpoint, "ok").Inc()

		if raw != nil && o.cache != nil {
			if err := o.cache.Put(flightCtx, query, language, raw); err != nil {
				logging.Ctx(flightCtx).Warn().Err(err).Str("query", query).Msg("places cache write failed")
			}
		}
		return raw, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for search: %w", ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}

	raw, _ := res.Val.([]byte)
	if raw == nil {
		return nil, nil
	}
	return decodePlace(raw)
}

// fetch calls the search endpoint and returns the raw JSON of the first
// place of the first query, or nil when there is none.
func (o *OutscraperProvider) fetch(ctx context.Context, query, language string) ([]byte, error) {
	endpoint := o.baseURL + searchEndpoint

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := o.newRequest(ctx, http.MethodGet, endpoint)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("query", query)
		q.Set("language", language)
		q.Set("limit", strconv.Itoa(1))
		q.Set("async", "false")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}

	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	if len(decoded.Data) == 0 || len(decoded.Data[0]) == 0 {
		return nil, nil
	}
	first := decoded.Data[0][0]
	switch strings.TrimSpace(string(first)) {
	case "", "null", "{}":
		return nil, nil
	}
	return []byte(first), nil
}

func decodePlace(raw []byte) (*outscraperPlace, error) {
	var p outscraperPlace
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode place: %w", err)
	}
	return &p, nil
}
