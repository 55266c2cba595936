package handlers

import (
	"net/http"
	"street-screens-service/internal/config"
)

// Health provides a minimal liveness check endpoint.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"status":      "healthy",
		"service":     config.ServiceName,
		"site_header": config.SiteHeader,
		"site_title":  config.SiteTitle,
	})
}
