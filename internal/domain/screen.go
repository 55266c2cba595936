package domain

import (
	"fmt"
	"time"
)

type ScreenStatus string

const (
	ScreenActive      ScreenStatus = "active"
	ScreenInactive    ScreenStatus = "inactive"
	ScreenMaintenance ScreenStatus = "maintenance"
)

const DefaultCPM = 30.0

func (s ScreenStatus) Valid() bool {
	switch s {
	case ScreenActive, ScreenInactive, ScreenMaintenance:
		return true
	}
	return false
}

func (s ScreenStatus) Display() string {
	switch s {
	case ScreenActive:
		return "Active"
	case ScreenInactive:
		return "Inactive"
	case ScreenMaintenance:
		return "Maintenance"
	}
	return string(s)
}

var ScreenStatuses = []ScreenStatus{ScreenActive, ScreenInactive, ScreenMaintenance}

// Screen is a physical display registered by an owner.
// PopularTimes is written only by the enrichment write-back.
type Screen struct {
	ID               int64
	Title            string
	Position         string
	Location         string
	Coordinates      map[string]any
	RegionID         *int64
	DistrictID       *int64
	Region           *Region
	District         *District
	VenueTypeIDs     []int64
	InterestIDs      []int64
	VenueTypes       []VenueType
	Interests        []Interest
	CPM              float64
	Status           ScreenStatus
	TypeCategory     string
	ScreenSize       string
	ScreenResolution int
	PopularTimes     PopularTimesPayload
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CreatedBy        *int64
	UpdatedBy        *int64
}

// ParsedCoordinates returns the screen's coordinates when they parse.
func (s *Screen) ParsedCoordinates() (LatLng, bool) {
	return ParseCoordinates(s.Coordinates)
}

func (s *Screen) OwnedBy(userID int64) bool {
	return s.CreatedBy != nil && *s.CreatedBy == userID
}

// SetStatus applies a status action. Unknown statuses are rejected.
func (s *Screen) SetStatus(status ScreenStatus) error {
	if !status.Valid() {
		return fmt.Errorf("set status %q: %w", status, ErrInvalid)
	}
	s.Status = status
	return nil
}
