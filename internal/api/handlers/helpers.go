package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"street-screens-service/internal/auth"
	"street-screens-service/internal/domain"
	"street-screens-service/internal/platform/logging"
	"street-screens-service/internal/validation"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("encode failed")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// writeServiceError maps domain and validation errors to HTTP statuses.
// Anything unrecognized is logged and reported as 500 without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs *validation.Errors
	var ferr *domain.FieldError

	switch {
	case errors.As(err, &verrs):
		writeJSON(w, r, http.StatusBadRequest, map[string]any{"error": "validation failed", "fields": verrs.Fields()})
	case errors.As(err, &ferr):
		writeJSON(w, r, http.StatusBadRequest, map[string]any{"error": ferr.Error(), "fields": map[string]string{ferr.Field: ferr.Message}})
	case errors.Is(err, domain.ErrInvalid):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, r, http.StatusConflict, "already exists")
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads exactly one JSON object into dst, rejecting unknown fields,
// then runs struct validation.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body: "+err.Error())
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}
	if err := validation.Struct(dst); err != nil {
		writeServiceError(w, r, err)
		return false
	}
	return true
}

// pathID parses the {id} URL parameter.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusNotFound, "not found")
		return 0, false
	}
	return id, true
}

// currentUser returns the authenticated user id. Routes using it sit behind
// the auth middleware, so a miss is reported as 401.
func currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication credentials were not provided")
		return 0, false
	}
	return id, true
}

// queryInt64 parses an optional integer query parameter.
func queryInt64(r *http.Request, name string) (*int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, domain.NewFieldError(name, name+" must be a valid integer")
	}
	return &v, nil
}

// queryInt64List reads repeated or comma separated ids from name and name[].
func queryInt64List(r *http.Request, name string) ([]int64, error) {
	q := r.URL.Query()
	raw := append(append([]string(nil), q[name]...), q[name+"[]"]...)

	var out []int64
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			v, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, domain.NewFieldError(name, name+" must contain valid integers")
			}
			out = append(out, v)
		}
	}
	return out, nil
}

func queryBool(r *http.Request, name string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, domain.NewFieldError(name, name+" must be true or false")
	}
	return &v, nil
}
