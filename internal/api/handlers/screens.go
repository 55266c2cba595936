package handlers

import (
	"net/http"
	"strconv"
	"street-screens-service/internal/api/dto"
	"street-screens-service/internal/domain"
	"street-screens-service/internal/ports"
	"street-screens-service/internal/services"
	"strings"
)

type ScreenHandler struct {
	Screens *services.ScreenService
}

func screenFilter(r *http.Request) (ports.ScreenFilter, error) {
	q := r.URL.Query()

	f := ports.ScreenFilter{
		Status:       domain.ScreenStatus(strings.TrimSpace(q.Get("status"))),
		TypeCategory: strings.TrimSpace(q.Get("type_category")),
		Search:       strings.TrimSpace(q.Get("search")),
		Ordering:     strings.TrimSpace(q.Get("ordering")),
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
	return f, nil
}

func (h *ScreenHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	f, err := screenFilter(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	items, err := h.Screens.List(r.Context(), userID, f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.ScreensFromDomain(items))
}

// ListByStatus serves the fixed status views (active, inactive, maintenance).
func (h *ScreenHandler) ListByStatus(status domain.ScreenStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}

		items, err := h.Screens.List(r.Context(), userID, ports.ScreenFilter{Status: status})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, dto.ScreensFromDomain(items))
	}
}

func (h *ScreenHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.ScreenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	s, err := h.Screens.Create(r.Context(), userID, req.Input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.ScreenFromDomain(s))
}

func (h *ScreenHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s, err := h.Screens.Get(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.ScreenFromDomain(s))
}

func (h *ScreenHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req dto.ScreenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	s, err := h.Screens.Update(r.Context(), userID, id, req.Input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.ScreenFromDomain(s))
}

func (h *ScreenHandler) Patch(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req dto.ScreenPatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	s, err := h.Screens.Patch(r.Context(), userID, id, req.Patch())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.ScreenFromDomain(s))
}

func (h *ScreenHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Screens.Delete(r.Context(), userID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetStatus serves the activate, deactivate and set_maintenance actions.
func (h *ScreenHandler) SetStatus(status domain.ScreenStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		s, err := h.Screens.SetStatus(r.Context(), userID, id, status)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, map[string]any{
			"status":  "success",
			"message": "Screen status set to " + s.Status.Display(),
			"screen":  dto.ScreenFromDomain(s),
		})
	}
}

func (h *ScreenHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	st, err := h.Screens.Stats(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}

func (h *ScreenHandler) AggregateByStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	groups, total, err := h.Screens.AggregateByStatus(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"status_groups": groups, "total": total})
}

type positionCount struct {
	Position string `json:"position"`
	Count    int    `json:"count"`
}

type locationCount struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}

func (h *ScreenHandler) Positions(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	items, err := h.Screens.Positions(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]positionCount, 0, len(items))
	for _, it := range items {
		out = append(out, positionCount{Position: it.Value, Count: it.Count})
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"positions": out, "total_positions": len(out)})
}

func (h *ScreenHandler) Locations(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	items, err := h.Screens.Locations(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]locationCount, 0, len(items))
	for _, it := range items {
		out = append(out, locationCount{Location: it.Value, Count: it.Count})
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"locations": out, "total_locations": len(out)})
}

func (h *ScreenHandler) Coordinates(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	points, err := h.Screens.Coordinates(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]dto.ScreenPointResponse, 0, len(points))
	for _, p := range points {
		out = append(out, dto.ScreenPointResponse{
			ID:          p.ID,
			Title:       p.Title,
			Position:    p.Position,
			Location:    p.Location,
			Coordinates: p.Coordinates.Map(),
			Status:      string(p.Status),
		})
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"screens": out, "total_screens": len(out)})
}

const defaultNearbyRadius = 1000.0

func (h *ScreenHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(q.Get("lat")), 64)
	lng, lngErr := strconv.ParseFloat(strings.TrimSpace(q.Get("lng")), 64)
	if latErr != nil || lngErr != nil {
		writeError(w, r, http.StatusBadRequest, "lat and lng parameters are required and must be numbers")
		return
	}

	radius := defaultNearbyRadius
	if raw := strings.TrimSpace(q.Get("radius_m")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "radius_m must be a number")
			return
		}
		radius = v
	}

	items, err := h.Screens.Nearby(r.Context(), userID, domain.LatLng{Lat: lat, Lng: lng}, radius)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]dto.NearbyScreenResponse, 0, len(items))
	for _, it := range items {
		out = append(out, dto.NearbyScreenResponse{
			ScreenResponse: dto.ScreenFromDomain(it.Screen),
			DistanceMeters: it.DistanceMeters,
		})
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"screens": out, "total_screens": len(out), "radius_m": radius})
}
