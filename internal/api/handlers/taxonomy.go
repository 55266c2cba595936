package handlers

import (
	"net/http"
	"street-screens-service/internal/api/dto"
	"street-screens-service/internal/domain"
	"street-screens-service/internal/ports"
	"street-screens-service/internal/services"
	"strings"
)

type TaxonomyHandler struct {
	Taxonomy *services.TaxonomyService
}

func regionFilter(r *http.Request) ports.RegionFilter {
	q := r.URL.Query()
	return ports.RegionFilter{
		Code:     strings.TrimSpace(q.Get("code")),
		Search:   strings.TrimSpace(q.Get("search")),
		Ordering: strings.TrimSpace(q.Get("ordering")),
	}
}

func taxonomyFilter(r *http.Request) (ports.TaxonomyFilter, error) {
	q := r.URL.Query()

	f := ports.TaxonomyFilter{
		SearchField: strings.TrimSpace(q.Get("search_field")),
		SearchValue: strings.TrimSpace(q.Get("search_value")),
	}
	if f.SearchField == "" && f.SearchValue != "" {
		f.SearchField = "name"
	}
	for _, raw := range q["sort_by"] {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				f.SortBy = append(f.SortBy, s)
			}
		}
	}

	active, err := queryBool(r, "is_active")
	if err != nil {
		return f, err
	}
	f.IsActive = active
	return f, nil
}

// Regions

func (h *TaxonomyHandler) ListRegions(w http.ResponseWriter, r *http.Request) {
	items, err := h.Taxonomy.ListRegions(r.Context(), regionFilter(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]dto.RegionResponse, 0, len(items))
	for _, it := range items {
		out = append(out, dto.RegionFromDomain(it))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *TaxonomyHandler) GetRegion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	reg, err := h.Taxonomy.GetRegion(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.RegionFromDomain(*reg))
}

func (h *TaxonomyHandler) CreateRegion(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRegionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reg := &domain.Region{Name: req.Name, Code: req.Code, Description: req.Description}
	if err := h.Taxonomy.CreateRegion(r.Context(), reg); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.RegionFromDomain(*reg))
}

func (h *TaxonomyHandler) ListDistricts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	items, err := h.Taxonomy.ListDistricts(r.Context(), id, regionFilter(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]dto.DistrictResponse, 0, len(items))
	for _, it := range items {
		out = append(out, dto.DistrictFromDomain(it))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *TaxonomyHandler) CreateDistrict(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req dto.CreateDistrictRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	d := &domain.District{Name: req.Name, Code: req.Code, RegionID: id, Description: req.Description}
	if err := h.Taxonomy.CreateDistrict(r.Context(), d); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.DistrictFromDomain(*d))
}

// Interests

func (h *TaxonomyHandler) ListInterests(w http.ResponseWriter, r *http.Request) {
	f, err := taxonomyFilter(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	items, err := h.Taxonomy.ListInterests(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]dto.InterestResponse, 0, len(items))
	for _, it := range items {
		out = append(out, dto.InterestFromDomain(it))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *TaxonomyHandler) GetInterest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	it, err := h.Taxonomy.GetInterest(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.InterestFromDomain(*it))
}

func (h *TaxonomyHandler) CreateInterest(w http.ResponseWriter, r *http.Request) {
	var req dto.TagRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == nil {
		writeServiceError(w, r, domain.NewFieldError("name", "name is required"))
		return
	}

	it := &domain.Interest{Name: *req.Name}
	if req.Description != nil {
		it.Description = *req.Description
	}
	if err := h.Taxonomy.CreateInterest(r.Context(), it); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.InterestFromDomain(*it))
}

func (h *TaxonomyHandler) UpdateInterest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req dto.TagRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	it, err := h.Taxonomy.UpdateInterest(r.Context(), id, req.Name, req.Description)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.InterestFromDomain(*it))
}

func (h *TaxonomyHandler) DeleteInterest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Taxonomy.DeleteInterest(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Venue types

func (h *TaxonomyHandler) ListVenueTypes(w http.ResponseWriter, r *http.Request) {
	f, err := taxonomyFilter(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	items, err := h.Taxonomy.ListVenueTypes(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]dto.VenueTypeResponse, 0, len(items))
	for _, it := range items {
		out = append(out, dto.VenueTypeFromDomain(it))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *TaxonomyHandler) GetVenueType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	v, err := h.Taxonomy.GetVenueType(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.VenueTypeFromDomain(*v))
}

func (h *TaxonomyHandler) CreateVenueType(w http.ResponseWriter, r *http.Request) {
	var req dto.TagRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == nil {
		writeServiceError(w, r, domain.NewFieldError("name", "name is required"))
		return
	}

	v := &domain.VenueType{Name: *req.Name, IsActive: true}
	if req.Description != nil {
		v.Description = *req.Description
	}
	if req.IsActive != nil {
		v.IsActive = *req.IsActive
	}
	if err := h.Taxonomy.CreateVenueType(r.Context(), v); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.VenueTypeFromDomain(*v))
}

func (h *TaxonomyHandler) UpdateVenueType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req dto.TagRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	v, err := h.Taxonomy.UpdateVenueType(r.Context(), id, req.Name, req.Description, req.IsActive)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.VenueTypeFromDomain(*v))
}

func (h *TaxonomyHandler) DeleteVenueType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Taxonomy.DeleteVenueType(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
