// Package enrichment attaches popular-times data to screens whose coordinates
// change. Saves snapshot the stored coordinates first, compare after commit,
// and hand changed screens to a bounded background dispatcher.
package enrichment

import (
	"context"
	"errors"
	"street-screens-service/internal/domain"
	"street-screens-service/internal/platform/logging"
)

// Snapshot is the pre-save state carried from BeforeSave to AfterSave.
type Snapshot struct {
	ScreenID int64
	Old      map[string]any
	IsNew    bool
}

// CoordinateSource reads the currently stored coordinates of a screen.
type CoordinateSource interface {
	ScreenCoordinates(ctx context.Context, id int64) (map[string]any, error)
}

// Submitter accepts enrichment jobs without blocking.
type Submitter interface {
	Submit(job Job) bool
}

type Hooks struct {
	screens    CoordinateSource
	dispatcher Submitter
}

func NewHooks(screens CoordinateSource, dispatcher Submitter) *Hooks {
	return &Hooks{screens: screens, dispatcher: dispatcher}
}

// BeforeSave captures the stored coordinates of screen id. id 0 or a missing
// screen means the save is a create.
func (h *Hooks) BeforeSave(ctx context.Context, id int64) Snapshot {
	if id == 0 {
		return Snapshot{IsNew: true}
	}

	old, err := h.screens.ScreenCoordinates(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return Snapshot{ScreenID: id, IsNew: true}
	}
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("screen_id", id).Msg("enrichment snapshot failed")
		return Snapshot{ScreenID: id}
	}

	return Snapshot{ScreenID: id, Old: old}
}

// AfterSave dispatches enrichment for saved when Decide says so. It never
// fails the save; the return value only reports whether a job was queued.
func (h *Hooks) AfterSave(ctx context.Context, snap Snapshot, saved *domain.Screen, created bool) bool {
	if saved == nil {
		return false
	}

	at, ok := Decide(snap, saved, created)
	if !ok {
		return false
	}

	queued := h.dispatcher.Submit(Job{ScreenID: saved.ID, Coordinates: at})
	if queued {
		logging.Ctx(ctx).Debug().
			Int64("screen_id", saved.ID).
			Float64("lat", at.Lat).
			Float64("lng", at.Lng).
			Msg("enrichment dispatched")
	}
	return queued
}

// Decide returns the coordinates to enrich with, or false to skip.
//
// Coordinates are compared with exact float equality. A new record with
// parseable coordinates is always enriched.
func Decide(snap Snapshot, saved *domain.Screen, created bool) (domain.LatLng, bool) {
	changed := domain.CoordinatesChanged(snap.Old, saved.Coordinates)
	if !changed && !created {
		return domain.LatLng{}, false
	}

	at, ok := saved.ParsedCoordinates()
	if !ok {
		if changed {
			logging.Warn().
				Int64("screen_id", saved.ID).
				Interface("coordinates", saved.Coordinates).
				Msg("coordinates changed but do not parse; skipping enrichment")
		}
		return domain.LatLng{}, false
	}

	return at, true
}
