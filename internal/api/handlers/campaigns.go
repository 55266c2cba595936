package handlers

import (
	"net/http"
	"strconv"
	"street-screens-service/internal/api/dto"
	"street-screens-service/internal/domain"
	"street-screens-service/internal/ports"
	"street-screens-service/internal/services"
	"strings"
	"time"
)

type CampaignHandler struct {
	Campaigns *services.CampaignService
	Now       func() time.Time
}

func (h *CampaignHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func campaignFilter(r *http.Request) (ports.CampaignFilter, error) {
	q := r.URL.Query()

	f := ports.CampaignFilter{
		Status:   domain.CampaignStatus(strings.TrimSpace(q.Get("status"))),
		Currency: strings.ToUpper(strings.TrimSpace(q.Get("currency"))),
		Search:   strings.TrimSpace(q.Get("search")),
		Ordering: strings.TrimSpace(q.Get("ordering")),
	}
	if f.Status != "" && !f.Status.Valid() {
		return f, domain.NewFieldError("status", "select a valid choice")
	}

	var err error
	if f.RegionID, err = queryInt64(r, "region"); err != nil {
		return f, err
	}
	if f.DistrictID, err = queryInt64(r, "district"); err != nil {
		return f, err
	}
	if f.VenueTypeID, err = queryInt64(r, "venue_type"); err != nil {
		return f, err
	}
	if f.InterestID, err = queryInt64(r, "interest"); err != nil {
		return f, err
	}
	return f, nil
}

func (h *CampaignHandler) writeList(w http.ResponseWriter, r *http.Request, items []*domain.Campaign) {
	writeJSON(w, r, http.StatusOK, dto.CampaignsFromDomain(items, h.now()))
}

func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	f, err := campaignFilter(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	items, err := h.Campaigns.List(r.Context(), userID, f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writeList(w, r, items)
}

// ListByStatus serves the fixed status views (active, draft, paused, completed).
func (h *CampaignHandler) ListByStatus(status domain.CampaignStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}

		items, err := h.Campaigns.List(r.Context(), userID, ports.CampaignFilter{Status: status})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		h.writeList(w, r, items)
	}
}

func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.CampaignRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.Campaigns.Create(r.Context(), userID, req.Input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.CampaignFromDomain(c, h.now()))
}

func (h *CampaignHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	c, err := h.Campaigns.Get(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.CampaignFromDomain(c, h.now()))
}

func (h *CampaignHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req dto.CampaignRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.Campaigns.Update(r.Context(), userID, id, req.Input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.CampaignFromDomain(c, h.now()))
}

func (h *CampaignHandler) Patch(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req dto.CampaignPatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	patch, err := req.Patch()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	c, err := h.Campaigns.Patch(r.Context(), userID, id, patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.CampaignFromDomain(c, h.now()))
}

func (h *CampaignHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Campaigns.Delete(r.Context(), userID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetStatus serves the activate, pause and complete actions.
func (h *CampaignHandler) SetStatus(status domain.CampaignStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		c, err := h.Campaigns.SetStatus(r.Context(), userID, id, status)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, dto.CampaignFromDomain(c, h.now()))
	}
}

func (h *CampaignHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	st, err := h.Campaigns.Stats(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}

func (h *CampaignHandler) AggregateByStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	groups, total, budget, err := h.Campaigns.AggregateByStatus(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status_groups": groups,
		"total":         total,
		"total_budget":  budget,
	})
}

func (h *CampaignHandler) Regions(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	items, err := h.Campaigns.RegionUsage(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"regions": dto.UsageFromDomain(items, false), "total_regions": len(items)})
}

func (h *CampaignHandler) Districts(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	items, err := h.Campaigns.DistrictUsage(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"districts": dto.UsageFromDomain(items, false), "total_districts": len(items)})
}

func (h *CampaignHandler) Interests(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	items, err := h.Campaigns.InterestUsage(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"interests": dto.UsageFromDomain(items, true), "total_interests": len(items)})
}

func (h *CampaignHandler) VenueTypes(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	items, err := h.Campaigns.VenueTypeUsage(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"venue_types": dto.UsageFromDomain(items, true), "total_venue_types": len(items)})
}

// requiredID reads a mandatory integer query parameter, answering 400 with
// a plain message when it is missing or malformed.
func requiredID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		writeError(w, r, http.StatusBadRequest, name+" parameter is required")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, name+" must be a valid integer")
		return 0, false
	}
	return id, true
}

func (h *CampaignHandler) FilterByInterest(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	interestID, ok := requiredID(w, r, "interest_id")
	if !ok {
		return
	}

	items, err := h.Campaigns.FilterByInterest(r.Context(), userID, interestID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writeList(w, r, items)
}

func (h *CampaignHandler) FilterByVenueType(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	venueTypeID, ok := requiredID(w, r, "venue_type_id")
	if !ok {
		return
	}

	items, err := h.Campaigns.FilterByVenueType(r.Context(), userID, venueTypeID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writeList(w, r, items)
}

func (h *CampaignHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}

	var q services.ForecastQuery
	var err error
	if q.RegionID, err = queryInt64(r, "region"); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if q.DistrictID, err = queryInt64(r, "district"); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if q.InterestIDs, err = queryInt64List(r, "interests"); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if q.VenueTypeIDs, err = queryInt64List(r, "venue_types"); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("budget")); raw != "" {
		if q.Budget, err = strconv.ParseFloat(raw, 64); err != nil {
			writeServiceError(w, r, domain.NewFieldError("budget", "budget must be a number"))
			return
		}
	}

	f, err := h.Campaigns.Summary(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, f)
}

// Media

func (h *CampaignHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req dto.VideoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	v := &domain.Video{
		CampaignID:      id,
		URL:             req.URL,
		Title:           req.Title,
		Description:     req.Description,
		DurationSeconds: req.DurationSeconds,
		FileSize:        req.FileSize,
	}
	if err := h.Campaigns.AddVideo(r.Context(), userID, v); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.VideoFromDomain(*v))
}

func (h *CampaignHandler) ListVideos(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	items, err := h.Campaigns.ListVideos(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]dto.VideoResponse, 0, len(items))
	for _, v := range items {
		out = append(out, dto.VideoFromDomain(v))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *CampaignHandler) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Campaigns.DeleteVideo(r.Context(), userID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CampaignHandler) AddImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req dto.ImageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	img := &domain.Image{
		CampaignID:  id,
		URL:         req.URL,
		Title:       req.Title,
		Description: req.Description,
		FileSize:    req.FileSize,
		Width:       req.Width,
		Height:      req.Height,
	}
	if err := h.Campaigns.AddImage(r.Context(), userID, img); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.ImageFromDomain(*img))
}

func (h *CampaignHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	items, err := h.Campaigns.ListImages(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]dto.ImageResponse, 0, len(items))
	for _, img := range items {
		out = append(out, dto.ImageFromDomain(img))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *CampaignHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Campaigns.DeleteImage(r.Context(), userID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CampaignHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	stats, err := h.Campaigns.Analytics(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	totalViews := 0
	for _, s := range stats {
		totalViews += s.Views
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"campaign_id": id,
		"videos":      dto.VideoStatsFromDomain(stats),
		"total_views": totalViews,
	})
}
