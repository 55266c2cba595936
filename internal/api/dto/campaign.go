package dto

import (
	"street-screens-service/internal/domain"
	"street-screens-service/internal/services"
	"strings"
	"time"
)

type CampaignRequest struct {
	CampaignName string           `json:"campaign_name" validate:"required,max=255"`
	Budget       float64          `json:"budget" validate:"gte=0"`
	Currency     string           `json:"currency" validate:"omitempty,len=3,alpha"`
	StartDate    time.Time        `json:"start_date" validate:"required"`
	EndDate      time.Time        `json:"end_date" validate:"required,gtfield=StartDate"`
	RegionID     *int64           `json:"region_id" validate:"omitempty,gt=0"`
	DistrictID   *int64           `json:"district_id" validate:"omitempty,gt=0"`
	InterestIDs  []int64          `json:"interest_ids" validate:"omitempty,dive,gt=0"`
	VenueTypeIDs []int64          `json:"venue_type_ids" validate:"omitempty,dive,gt=0"`
	AgeRange     []int            `json:"age_range" validate:"omitempty,len=2,dive,gte=0"`
	Schedule     map[string][]int `json:"schedule"`
	Link         string           `json:"link" validate:"omitempty,url,max=2048"`
	Status       string           `json:"status" validate:"omitempty,oneof=draft active paused completed"`
}

func (r CampaignRequest) Input() services.CampaignInput {
	return services.CampaignInput{
		CampaignName: r.CampaignName,
		Budget:       r.Budget,
		Currency:     r.Currency,
		StartDate:    r.StartDate.UTC(),
		EndDate:      r.EndDate.UTC(),
		RegionID:     r.RegionID,
		DistrictID:   r.DistrictID,
		InterestIDs:  r.InterestIDs,
		VenueTypeIDs: r.VenueTypeIDs,
		AgeRange:     ageRange(r.AgeRange),
		Schedule:     domain.Schedule(r.Schedule),
		Link:         strings.TrimSpace(r.Link),
		Status:       domain.CampaignStatus(r.Status),
	}
}

// CampaignPatchRequest carries a partial update. region_id, district_id and
// age_range may be sent as null to clear them.
type CampaignPatchRequest struct {
	CampaignName *string           `json:"campaign_name" validate:"omitempty,min=1,max=255"`
	Budget       *float64          `json:"budget" validate:"omitempty,gte=0"`
	Currency     *string           `json:"currency" validate:"omitempty,len=3,alpha"`
	StartDate    *time.Time        `json:"start_date"`
	EndDate      *time.Time        `json:"end_date"`
	RegionID     Optional[*int64]  `json:"region_id"`
	DistrictID   Optional[*int64]  `json:"district_id"`
	InterestIDs  *[]int64          `json:"interest_ids"`
	VenueTypeIDs *[]int64          `json:"venue_type_ids"`
	AgeRange     Optional[[]int]   `json:"age_range"`
	Schedule     *map[string][]int `json:"schedule"`
	Link         *string           `json:"link" validate:"omitempty,url,max=2048"`
	Status       *string           `json:"status" validate:"omitempty,oneof=draft active paused completed"`
}

func (r CampaignPatchRequest) Patch() (services.CampaignPatch, error) {
	p := services.CampaignPatch{
		CampaignName: r.CampaignName,
		Budget:       r.Budget,
		Currency:     r.Currency,
		InterestIDs:  r.InterestIDs,
		VenueTypeIDs: r.VenueTypeIDs,
		Link:         r.Link,
	}
	if r.StartDate != nil {
		t := r.StartDate.UTC()
		p.StartDate = &t
	}
	if r.EndDate != nil {
		t := r.EndDate.UTC()
		p.EndDate = &t
	}
	if r.RegionID.Set {
		p.RegionID = &r.RegionID.Value
	}
	if r.DistrictID.Set {
		p.DistrictID = &r.DistrictID.Value
	}
	if r.AgeRange.Set {
		if r.AgeRange.Value != nil && len(r.AgeRange.Value) != 2 {
			return p, domain.NewFieldError("age_range", "age_range must be [min, max]")
		}
		ar := ageRange(r.AgeRange.Value)
		p.AgeRange = &ar
	}
	if r.Schedule != nil {
		s := domain.Schedule(*r.Schedule)
		p.Schedule = &s
	}
	if r.Status != nil {
		st := domain.CampaignStatus(*r.Status)
		p.Status = &st
	}
	return p, nil
}

func ageRange(v []int) *domain.AgeRange {
	if len(v) != 2 {
		return nil
	}
	return &domain.AgeRange{Min: v[0], Max: v[1]}
}

type CampaignResponse struct {
	ID                         int64            `json:"id"`
	CampaignName               string           `json:"campaign_name"`
	Budget                     float64          `json:"budget"`
	Currency                   string           `json:"currency"`
	StartDate                  time.Time        `json:"start_date"`
	EndDate                    time.Time        `json:"end_date"`
	RegionID                   *int64           `json:"region_id"`
	DistrictID                 *int64           `json:"district_id"`
	Region                     *RegionRef       `json:"region"`
	District                   *DistrictRef     `json:"district"`
	InterestIDs                []int64          `json:"interest_ids"`
	VenueTypeIDs               []int64          `json:"venue_type_ids"`
	Interests                  []TagRef         `json:"interests"`
	VenueTypes                 []TagRef         `json:"venue_types"`
	AgeRange                   []int            `json:"age_range"`
	Schedule                   map[string][]int `json:"schedule"`
	MetaScheduleSlots          int              `json:"meta_schedule_slots"`
	MetaScheduleCoverage       string           `json:"meta_schedule_coverage"`
	MetaDurationDays           int              `json:"meta_duration_days"`
	ScheduleCoveragePercentage float64          `json:"schedule_coverage_percentage"`
	IsActive                   bool             `json:"is_active"`
	Link                       string           `json:"link"`
	InvolveCount               int64            `json:"involve_count"`
	Status                     string           `json:"status"`
	StatusDisplay              string           `json:"status_display"`
	CreatedAt                  time.Time        `json:"created_at"`
	UpdatedAt                  time.Time        `json:"updated_at"`
	CreatedBy                  *int64           `json:"created_by"`
	UpdatedBy                  *int64           `json:"updated_by"`
}

func CampaignFromDomain(c *domain.Campaign, now time.Time) CampaignResponse {
	var ages []int
	if c.AgeRange != nil {
		ages = []int{c.AgeRange.Min, c.AgeRange.Max}
	}
	schedule := map[string][]int(c.Schedule)
	if schedule == nil {
		schedule = map[string][]int{}
	}

	return CampaignResponse{
		ID:                         c.ID,
		CampaignName:               c.CampaignName,
		Budget:                     c.Budget,
		Currency:                   c.Currency,
		StartDate:                  c.StartDate,
		EndDate:                    c.EndDate,
		RegionID:                   c.RegionID,
		DistrictID:                 c.DistrictID,
		Region:                     regionRef(c.Region),
		District:                   districtRef(c.District),
		InterestIDs:                nonNilIDs(c.InterestIDs),
		VenueTypeIDs:               nonNilIDs(c.VenueTypeIDs),
		Interests:                  interestRefs(c.Interests),
		VenueTypes:                 venueTypeRefs(c.VenueTypes),
		AgeRange:                   ages,
		Schedule:                   schedule,
		MetaScheduleSlots:          c.MetaScheduleSlots,
		MetaScheduleCoverage:       c.MetaScheduleCoverage,
		MetaDurationDays:           c.MetaDurationDays,
		ScheduleCoveragePercentage: c.ScheduleCoveragePercentage(),
		IsActive:                   c.IsActive(now),
		Link:                       c.Link,
		InvolveCount:               c.InvolveCount,
		Status:                     string(c.Status),
		StatusDisplay:              c.Status.Display(),
		CreatedAt:                  c.CreatedAt,
		UpdatedAt:                  c.UpdatedAt,
		CreatedBy:                  c.CreatedBy,
		UpdatedBy:                  c.UpdatedBy,
	}
}

func CampaignsFromDomain(items []*domain.Campaign, now time.Time) []CampaignResponse {
	out := make([]CampaignResponse, 0, len(items))
	for _, c := range items {
		out = append(out, CampaignFromDomain(c, now))
	}
	return out
}

type UsageResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Code  string `json:"code,omitempty"`
	Slug  string `json:"slug,omitempty"`
	Count int    `json:"count"`
}

// UsageFromDomain renders usage counts. Region and district entries carry a code,
// interests and venue types a slug.
func UsageFromDomain(items []domain.UsageCount, slug bool) []UsageResponse {
	out := make([]UsageResponse, 0, len(items))
	for _, u := range items {
		r := UsageResponse{ID: u.ID, Name: u.Name, Count: u.Count}
		if slug {
			r.Slug = u.Code
		} else {
			r.Code = u.Code
		}
		out = append(out, r)
	}
	return out
}

type VideoRequest struct {
	URL             string `json:"url" validate:"required,url,max=2048"`
	Title           string `json:"title" validate:"max=255"`
	Description     string `json:"description"`
	DurationSeconds *int   `json:"duration" validate:"omitempty,gte=0"`
	FileSize        *int64 `json:"file_size" validate:"omitempty,gte=0"`
}

type ImageRequest struct {
	URL         string `json:"url" validate:"required,url,max=2048"`
	Title       string `json:"title" validate:"max=255"`
	Description string `json:"description"`
	FileSize    *int64 `json:"file_size" validate:"omitempty,gte=0"`
	Width       *int   `json:"width" validate:"omitempty,gt=0"`
	Height      *int   `json:"height" validate:"omitempty,gt=0"`
}

type VideoResponse struct {
	ID              int64     `json:"id"`
	CampaignID      int64     `json:"campaign_id"`
	URL             string    `json:"url"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DurationSeconds *int      `json:"duration"`
	FileSize        *int64    `json:"file_size"`
	CreatedAt       time.Time `json:"created_at"`
}

type ImageResponse struct {
	ID          int64     `json:"id"`
	CampaignID  int64     `json:"campaign_id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	FileSize    *int64    `json:"file_size"`
	Width       *int      `json:"width"`
	Height      *int      `json:"height"`
	CreatedAt   time.Time `json:"created_at"`
}

func VideoFromDomain(v domain.Video) VideoResponse {
	return VideoResponse{
		ID:              v.ID,
		CampaignID:      v.CampaignID,
		URL:             v.URL,
		Title:           v.Title,
		Description:     v.Description,
		DurationSeconds: v.DurationSeconds,
		FileSize:        v.FileSize,
		CreatedAt:       v.CreatedAt,
	}
}

func ImageFromDomain(img domain.Image) ImageResponse {
	return ImageResponse{
		ID:          img.ID,
		CampaignID:  img.CampaignID,
		URL:         img.URL,
		Title:       img.Title,
		Description: img.Description,
		FileSize:    img.FileSize,
		Width:       img.Width,
		Height:      img.Height,
		CreatedAt:   img.CreatedAt,
	}
}

type VideoStatsResponse struct {
	VideoID             int64   `json:"video_id"`
	Title               string  `json:"title"`
	Views               int     `json:"views"`
	CompletedViews      int     `json:"completed_views"`
	CompletionRate      float64 `json:"completion_rate"`
	AverageWatchSeconds float64 `json:"average_watch_seconds"`
}

func VideoStatsFromDomain(items []domain.VideoStats) []VideoStatsResponse {
	out := make([]VideoStatsResponse, 0, len(items))
	for _, s := range items {
		out = append(out, VideoStatsResponse{
			VideoID:             s.VideoID,
			Title:               s.Title,
			Views:               s.Views,
			CompletedViews:      s.CompletedViews,
			CompletionRate:      s.CompletionRate(),
			AverageWatchSeconds: s.AverageWatchSeconds,
		})
	}
	return out
}

type VideoViewRequest struct {
	WatchDurationSeconds *float64 `json:"watch_duration_seconds" validate:"omitempty,gte=0"`
	IsComplete           bool     `json:"is_complete"`
	Country              string   `json:"country" validate:"max=100"`
	City                 string   `json:"city" validate:"max=100"`
}
