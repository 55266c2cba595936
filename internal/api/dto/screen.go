package dto

import (
	"street-screens-service/internal/domain"
	"street-screens-service/internal/services"
	"time"

	"github.com/goccy/go-json"
)

type ScreenRequest struct {
	Title            string         `json:"title" validate:"required,max=255"`
	Position         string         `json:"position" validate:"max=255"`
	Location         string         `json:"location" validate:"max=255"`
	Coordinates      map[string]any `json:"coordinates"`
	RegionID         *int64         `json:"region_id" validate:"omitempty,gt=0"`
	DistrictID       *int64         `json:"district_id" validate:"omitempty,gt=0"`
	VenueTypeIDs     []int64        `json:"venue_type_ids" validate:"omitempty,dive,gt=0"`
	InterestIDs      []int64        `json:"interest_ids" validate:"omitempty,dive,gt=0"`
	CPM              *float64       `json:"cpm" validate:"omitempty,gte=0"`
	Status           string         `json:"status" validate:"omitempty,oneof=active inactive maintenance"`
	TypeCategory     string         `json:"type_category" validate:"max=100"`
	ScreenSize       string         `json:"screen_size" validate:"max=100"`
	ScreenResolution int            `json:"screen_resolution" validate:"gte=0"`
}

func (r ScreenRequest) Input() services.ScreenInput {
	return services.ScreenInput{
		Title:            r.Title,
		Position:         r.Position,
		Location:         r.Location,
		Coordinates:      r.Coordinates,
		RegionID:         r.RegionID,
		DistrictID:       r.DistrictID,
		VenueTypeIDs:     r.VenueTypeIDs,
		InterestIDs:      r.InterestIDs,
		CPM:              r.CPM,
		Status:           domain.ScreenStatus(r.Status),
		TypeCategory:     r.TypeCategory,
		ScreenSize:       r.ScreenSize,
		ScreenResolution: r.ScreenResolution,
	}
}

// ScreenPatchRequest carries a partial update. Coordinates, region_id and
// district_id may be sent as null to clear them.
type ScreenPatchRequest struct {
	Title            *string                  `json:"title" validate:"omitempty,min=1,max=255"`
	Position         *string                  `json:"position" validate:"omitempty,max=255"`
	Location         *string                  `json:"location" validate:"omitempty,max=255"`
	Coordinates      Optional[map[string]any] `json:"coordinates"`
	RegionID         Optional[*int64]         `json:"region_id"`
	DistrictID       Optional[*int64]         `json:"district_id"`
	VenueTypeIDs     *[]int64                 `json:"venue_type_ids"`
	InterestIDs      *[]int64                 `json:"interest_ids"`
	CPM              *float64                 `json:"cpm" validate:"omitempty,gte=0"`
	Status           *string                  `json:"status" validate:"omitempty,oneof=active inactive maintenance"`
	TypeCategory     *string                  `json:"type_category" validate:"omitempty,max=100"`
	ScreenSize       *string                  `json:"screen_size" validate:"omitempty,max=100"`
	ScreenResolution *int                     `json:"screen_resolution" validate:"omitempty,gte=0"`
}

func (r ScreenPatchRequest) Patch() services.ScreenPatch {
	p := services.ScreenPatch{
		Title:            r.Title,
		Position:         r.Position,
		Location:         r.Location,
		VenueTypeIDs:     r.VenueTypeIDs,
		InterestIDs:      r.InterestIDs,
		CPM:              r.CPM,
		TypeCategory:     r.TypeCategory,
		ScreenSize:       r.ScreenSize,
		ScreenResolution: r.ScreenResolution,
	}
	if r.Coordinates.Set {
		p.Coordinates = &r.Coordinates.Value
	}
	if r.RegionID.Set {
		p.RegionID = &r.RegionID.Value
	}
	if r.DistrictID.Set {
		p.DistrictID = &r.DistrictID.Value
	}
	if r.Status != nil {
		st := domain.ScreenStatus(*r.Status)
		p.Status = &st
	}
	return p
}

type ScreenResponse struct {
	ID               int64           `json:"id"`
	Title            string          `json:"title"`
	Position         string          `json:"position"`
	Location         string          `json:"location"`
	Coordinates      map[string]any  `json:"coordinates"`
	RegionID         *int64          `json:"region_id"`
	DistrictID       *int64          `json:"district_id"`
	Region           *RegionRef      `json:"region"`
	District         *DistrictRef    `json:"district"`
	VenueTypeIDs     []int64         `json:"venue_type_ids"`
	InterestIDs      []int64         `json:"interest_ids"`
	VenueTypes       []TagRef        `json:"venue_types"`
	Interests        []TagRef        `json:"interests"`
	CPM              float64         `json:"cpm"`
	Status           string          `json:"status"`
	StatusDisplay    string          `json:"status_display"`
	TypeCategory     string          `json:"type_category"`
	ScreenSize       string          `json:"screen_size"`
	ScreenResolution int             `json:"screen_resolution"`
	PopularTimes     json.RawMessage `json:"popular_times"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	CreatedBy        *int64          `json:"created_by"`
	UpdatedBy        *int64          `json:"updated_by"`
}

func ScreenFromDomain(s *domain.Screen) ScreenResponse {
	popular := json.RawMessage(s.PopularTimes)
	if len(popular) == 0 {
		popular = json.RawMessage("null")
	}

	return ScreenResponse{
		ID:               s.ID,
		Title:            s.Title,
		Position:         s.Position,
		Location:         s.Location,
		Coordinates:      s.Coordinates,
		RegionID:         s.RegionID,
		DistrictID:       s.DistrictID,
		Region:           regionRef(s.Region),
		District:         districtRef(s.District),
		VenueTypeIDs:     nonNilIDs(s.VenueTypeIDs),
		InterestIDs:      nonNilIDs(s.InterestIDs),
		VenueTypes:       venueTypeRefs(s.VenueTypes),
		Interests:        interestRefs(s.Interests),
		CPM:              s.CPM,
		Status:           string(s.Status),
		StatusDisplay:    s.Status.Display(),
		TypeCategory:     s.TypeCategory,
		ScreenSize:       s.ScreenSize,
		ScreenResolution: s.ScreenResolution,
		PopularTimes:     popular,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
		CreatedBy:        s.CreatedBy,
		UpdatedBy:        s.UpdatedBy,
	}
}

func ScreensFromDomain(items []*domain.Screen) []ScreenResponse {
	out := make([]ScreenResponse, 0, len(items))
	for _, s := range items {
		out = append(out, ScreenFromDomain(s))
	}
	return out
}

type ScreenPointResponse struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Position    string         `json:"position"`
	Location    string         `json:"location"`
	Coordinates map[string]any `json:"coordinates"`
	Status      string         `json:"status"`
}

type NearbyScreenResponse struct {
	ScreenResponse
	DistanceMeters float64 `json:"distance_m"`
}
