package handlers

import (
	"errors"
	"net/http"
	"street-screens-service/internal/adapters/places"
	"street-screens-service/internal/domain"
	"street-screens-service/internal/platform/logging"
	"street-screens-service/internal/services"
)

const paymentRequiredMessage = "Outscraper: Payment Required (no free credits left or billing is not configured)."

type PopularTimesHandler struct {
	PopularTimes *services.PopularTimesService
}

// Get looks a place up by free text and returns its popular times.
func (h *PopularTimesHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	place, err := h.PopularTimes.Search(r.Context(), q.Get("q"), q.Get("language"))
	if err == nil {
		writeJSON(w, r, http.StatusOK, place)
		return
	}

	var cfgErr *places.ConfigurationError
	var httpErr *places.HTTPStatusError

	switch {
	case errors.Is(err, domain.ErrInvalid):
		writeServiceError(w, r, err)
	case errors.Is(err, services.ErrProviderNotConfigured), errors.As(err, &cfgErr):
		writeError(w, r, http.StatusInternalServerError, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "Place not found or popular_times not available")
	case errors.As(err, &httpErr) && httpErr.Code == http.StatusPaymentRequired:
		writeJSON(w, r, http.StatusPaymentRequired, map[string]string{
			"error":          paymentRequiredMessage,
			"provider_error": httpErr.Error(),
		})
	default:
		logging.Ctx(r.Context()).Warn().Err(err).Msg("popular times lookup failed")
		writeError(w, r, http.StatusBadGateway, "Outscraper error: "+err.Error())
	}
}
