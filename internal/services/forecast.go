package services

import (
	"math"
	"math/rand/v2"
	"sync"
)

const (
	DefaultForecastBudget   = 10000.0
	defaultRegionMultiplier = 0.5

	forecastMissingMessage = "Region and district are required for efficiency forecast"
	forecastMessage        = "Efficiency forecast generated based on selected region and district"
)

// Larger markets get more screens and impressions. Keyed by region code.
var regionMultipliers = map[string]float64{
	"TAS": 1.0,
	"TOS": 0.8,
	"FER": 0.7,
	"SAM": 0.6,
	"AND": 0.6,
	"BUK": 0.5,
	"NAM": 0.4,
	"KAR": 0.3,
}

// RegionMultiplier returns the market size factor for a region code.
func RegionMultiplier(code string) float64 {
	if m, ok := regionMultipliers[code]; ok {
		return m
	}
	return defaultRegionMultiplier
}

type ForecastQuery struct {
	RegionID     *int64
	DistrictID   *int64
	InterestIDs  []int64
	VenueTypeIDs []int64
	Budget       float64
}

// Forecast is a mock efficiency estimate. The figures are randomized and
// carry no business meaning beyond the region scaling.
type Forecast struct {
	CPM               float64  `json:"cpm"`
	ScreensCount      int      `json:"screens_count"`
	Impressions       int      `json:"impressions"`
	Reach             int      `json:"reach"`
	Frequency         float64  `json:"frequency"`
	EstimatedCost     float64  `json:"estimated_cost"`
	BudgetUtilization float64  `json:"budget_utilization"`
	RegionMultiplier  *float64 `json:"region_multiplier,omitempty"`
	Message           string   `json:"message"`
}

func EmptyForecast() Forecast {
	return Forecast{Message: forecastMissingMessage}
}

// Forecaster draws forecast figures from a random source. It is safe for
// concurrent use.
type Forecaster struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewForecaster uses rng, or a randomly seeded source when rng is nil.
func NewForecaster(rng *rand.Rand) *Forecaster {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Forecaster{rng: rng}
}

func (f *Forecaster) uniform(lo, hi float64) float64 {
	return lo + f.rng.Float64()*(hi-lo)
}

// Generate produces a forecast for a region code and budget. A budget of
// zero or less falls back to DefaultForecastBudget.
func (f *Forecaster) Generate(regionCode string, budget float64) Forecast {
	f.mu.Lock()
	defer f.mu.Unlock()

	mult := RegionMultiplier(regionCode)
	if budget <= 0 {
		budget = DefaultForecastBudget
	}

	screens := max(1, int(f.uniform(10, 50)*mult))
	cpm := round2(f.uniform(10, 30))
	impressions := int(f.uniform(50000, 150000) * mult)
	reach := int(float64(impressions) * (0.3 + f.uniform(0, 0.4)))

	frequency := 0.0
	if reach > 0 {
		frequency = round2(float64(impressions) / float64(reach))
	}
	cost := round2(float64(impressions) / 1000 * cpm)
	utilization := math.Min(cost/budget*100, 100)

	return Forecast{
		CPM:               cpm,
		ScreensCount:      screens,
		Impressions:       impressions,
		Reach:             reach,
		Frequency:         frequency,
		EstimatedCost:     cost,
		BudgetUtilization: round2(utilization),
		RegionMultiplier:  &mult,
		Message:           forecastMessage,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
