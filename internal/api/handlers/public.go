package handlers

import (
	"errors"
	"net"
	"net/http"
	"street-screens-service/internal/api/dto"
	"street-screens-service/internal/domain"
	"street-screens-service/internal/services"
)

// PublicHandler serves the unauthenticated endpoints hit by viewers and players.
type PublicHandler struct {
	QR        *services.QRService
	Analytics *services.AnalyticsService
}

// QRRedirect sends a scanner to the campaign's destination link.
func (h *PublicHandler) QRRedirect(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	link, err := h.QR.Resolve(r.Context(), id)
	switch {
	case errors.Is(err, services.ErrNoLink):
		writeError(w, r, http.StatusNotFound, services.NoLinkMessage)
		return
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found")
		return
	case err != nil:
		writeServiceError(w, r, err)
		return
	}

	http.Redirect(w, r, link, http.StatusFound)
}

// RecordVideoView stores one playback event for a video.
func (h *PublicHandler) RecordVideoView(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req dto.VideoViewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	v := &domain.VideoView{
		VideoID:              id,
		IPAddress:            clientIP(r),
		UserAgent:            r.UserAgent(),
		Referer:              r.Referer(),
		WatchDurationSeconds: req.WatchDurationSeconds,
		IsComplete:           req.IsComplete,
		Country:              req.Country,
		City:                 req.City,
	}
	if err := h.Analytics.RecordView(r.Context(), v); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, map[string]any{"id": v.ID, "video_id": v.VideoID})
}

// clientIP strips the port from RemoteAddr. RealIP has already replaced it
// with the forwarded address when one was sent.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
