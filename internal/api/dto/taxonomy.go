package dto

import (
	"street-screens-service/internal/domain"
	"time"
)

type RegionRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

type DistrictRef struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code,omitempty"`
	RegionID int64  `json:"region_id"`
}

type TagRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type RegionResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type DistrictResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	RegionID    int64     `json:"region_id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type InterestResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type VenueTypeResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateRegionRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Code        string `json:"code" validate:"required,max=10"`
	Description string `json:"description"`
}

type CreateDistrictRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Code        string `json:"code" validate:"required,max=10"`
	Description string `json:"description"`
}

// TagRequest creates or updates an interest or a venue type. The slug is
// derived from the name on create and never accepted from clients.
type TagRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

func RegionFromDomain(r domain.Region) RegionResponse {
	return RegionResponse{
		ID:          r.ID,
		Name:        r.Name,
		Code:        r.Code,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func DistrictFromDomain(d domain.District) DistrictResponse {
	return DistrictResponse{
		ID:          d.ID,
		Name:        d.Name,
		Code:        d.Code,
		RegionID:    d.RegionID,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func InterestFromDomain(i domain.Interest) InterestResponse {
	return InterestResponse{
		ID:          i.ID,
		Name:        i.Name,
		Slug:        i.Slug,
		Description: i.Description,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

func VenueTypeFromDomain(v domain.VenueType) VenueTypeResponse {
	return VenueTypeResponse{
		ID:          v.ID,
		Name:        v.Name,
		Slug:        v.Slug,
		Description: v.Description,
		IsActive:    v.IsActive,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

func regionRef(r *domain.Region) *RegionRef {
	if r == nil {
		return nil
	}
	return &RegionRef{ID: r.ID, Name: r.Name, Code: r.Code}
}

func districtRef(d *domain.District) *DistrictRef {
	if d == nil {
		return nil
	}
	return &DistrictRef{ID: d.ID, Name: d.Name, Code: d.Code, RegionID: d.RegionID}
}

func interestRefs(items []domain.Interest) []TagRef {
	out := make([]TagRef, 0, len(items))
	for _, i := range items {
		out = append(out, TagRef{ID: i.ID, Name: i.Name, Slug: i.Slug})
	}
	return out
}

func venueTypeRefs(items []domain.VenueType) []TagRef {
	out := make([]TagRef, 0, len(items))
	for _, v := range items {
		out = append(out, TagRef{ID: v.ID, Name: v.Name, Slug: v.Slug})
	}
	return out
}

func nonNilIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
