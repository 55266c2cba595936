package services

import (
	"context"
	"fmt"
	"sort"
	"street-screens-service/internal/domain"
	"street-screens-service/internal/enrichment"
	"street-screens-service/internal/platform/obs"
	"street-screens-service/internal/ports"
)

// SaveHooks run around every screen write. A nil SaveHooks disables enrichment.
type SaveHooks interface {
	BeforeSave(ctx context.Context, id int64) enrichment.Snapshot
	AfterSave(ctx context.Context, snap enrichment.Snapshot, saved *domain.Screen, created bool) bool
}

// ScreenInput carries the editable fields of a screen for create and full update.
type ScreenInput struct {
	Title            string
	Position         string
	Location         string
	Coordinates      map[string]any
	RegionID         *int64
	DistrictID       *int64
	VenueTypeIDs     []int64
	InterestIDs      []int64
	CPM              *float64
	Status           domain.ScreenStatus
	TypeCategory     string
	ScreenSize       string
	ScreenResolution int
}

// ScreenPatch holds the fields present in a partial update. A non-nil
// Coordinates pointing at a nil map clears the coordinates.
type ScreenPatch struct {
	Title            *string
	Position         *string
	Location         *string
	Coordinates      *map[string]any
	RegionID         **int64
	DistrictID       **int64
	VenueTypeIDs     *[]int64
	InterestIDs      *[]int64
	CPM              *float64
	Status           *domain.ScreenStatus
	TypeCategory     *string
	ScreenSize       *string
	ScreenResolution *int
}

type ScreenService struct {
	screens  ports.ScreenRepository
	taxonomy ports.TaxonomyRepository
	hooks    SaveHooks
}

func NewScreenService(screens ports.ScreenRepository, taxonomy ports.TaxonomyRepository, hooks SaveHooks) *ScreenService {
	return &ScreenService{screens: screens, taxonomy: taxonomy, hooks: hooks}
}

func (s *ScreenService) Create(ctx context.Context, ownerID int64, in ScreenInput) (_ *domain.Screen, err error) {
	defer obs.Time(ctx, "services.screens.create")(&err)

	screen := &domain.Screen{CreatedBy: &ownerID, UpdatedBy: &ownerID}
	applyScreenInput(screen, in)

	if err := s.validate(ctx, screen); err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	if err := s.save(ctx, screen, true); err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	return screen, nil
}

// Get returns a screen owned by ownerID. Screens of other owners are reported
// as not found.
func (s *ScreenService) Get(ctx context.Context, ownerID, id int64) (*domain.Screen, error) {
	screen, err := s.screens.GetScreen(ctx, id)
	if err != nil {
		return nil, err
	}
	if !screen.OwnedBy(ownerID) {
		return nil, fmt.Errorf("get screen id=%d: %w", id, domain.ErrNotFound)
	}
	return screen, nil
}

func (s *ScreenService) List(ctx context.Context, ownerID int64, f ports.ScreenFilter) ([]*domain.Screen, error) {
	f.OwnerID = &ownerID
	return s.screens.ListScreens(ctx, f)
}

// Update replaces every editable field.
func (s *ScreenService) Update(ctx context.Context, ownerID, id int64, in ScreenInput) (_ *domain.Screen, err error) {
	defer obs.Time(ctx, "services.screens.update")(&err)

	screen, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("update screen: %w", err)
	}

	applyScreenInput(screen, in)
	screen.UpdatedBy = &ownerID

	if err := s.validate(ctx, screen); err != nil {
		return nil, fmt.Errorf("update screen id=%d: %w", id, err)
	}
	if err := s.save(ctx, screen, false); err != nil {
		return nil, fmt.Errorf("update screen id=%d: %w", id, err)
	}
	return screen, nil
}

// Patch applies only the fields present in p.
func (s *ScreenService) Patch(ctx context.Context, ownerID, id int64, p ScreenPatch) (_ *domain.Screen, err error) {
	defer obs.Time(ctx, "services.screens.patch")(&err)

	screen, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("patch screen: %w", err)
	}

	applyScreenPatch(screen, p)
	screen.UpdatedBy = &ownerID

	if err := s.validate(ctx, screen); err != nil {
		return nil, fmt.Errorf("patch screen id=%d: %w", id, err)
	}
	if err := s.save(ctx, screen, false); err != nil {
		return nil, fmt.Errorf("patch screen id=%d: %w", id, err)
	}
	return screen, nil
}

func (s *ScreenService) Delete(ctx context.Context, ownerID, id int64) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete screen: %w", err)
	}
	return s.screens.DeleteScreen(ctx, id)
}

// SetStatus runs a status action (activate, deactivate, set_maintenance).
func (s *ScreenService) SetStatus(ctx context.Context, ownerID, id int64, status domain.ScreenStatus) (*domain.Screen, error) {
	screen, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("set screen status: %w", err)
	}
	if err := screen.SetStatus(status); err != nil {
		return nil, err
	}
	screen.UpdatedBy = &ownerID

	if err := s.save(ctx, screen, false); err != nil {
		return nil, fmt.Errorf("set screen status id=%d: %w", id, err)
	}
	return screen, nil
}

// save writes the screen between the enrichment hooks. Hook outcomes never
// affect the result of the save.
func (s *ScreenService) save(ctx context.Context, screen *domain.Screen, created bool) error {
	var snap enrichment.Snapshot
	if s.hooks != nil {
		snap = s.hooks.BeforeSave(ctx, screen.ID)
	}

	var err error
	if created {
		err = s.screens.CreateScreen(ctx, screen)
	} else {
		err = s.screens.UpdateScreen(ctx, screen)
	}
	if err != nil {
		return err
	}

	if s.hooks != nil {
		s.hooks.AfterSave(ctx, snap, screen, created)
	}
	return nil
}

func (s *ScreenService) validate(ctx context.Context, screen *domain.Screen) error {
	if screen.Title == "" {
		return domain.NewFieldError("title", "title is required")
	}
	if !screen.Status.Valid() {
		return domain.NewFieldError("status", fmt.Sprintf("%q is not a valid choice", screen.Status))
	}
	if screen.CPM < 0 {
		return domain.NewFieldError("cpm", "cpm must not be negative")
	}
	if screen.ScreenResolution < 0 {
		return domain.NewFieldError("screen_resolution", "screen_resolution must not be negative")
	}

	return checkTaxonomyRefs(ctx, s.taxonomy, taxonomyRefs{
		RegionID:     screen.RegionID,
		DistrictID:   screen.DistrictID,
		InterestIDs:  screen.InterestIDs,
		VenueTypeIDs: screen.VenueTypeIDs,
	})
}

func applyScreenInput(screen *domain.Screen, in ScreenInput) {
	screen.Title = in.Title
	screen.Position = in.Position
	screen.Location = in.Location
	screen.Coordinates = in.Coordinates
	screen.RegionID = in.RegionID
	screen.DistrictID = in.DistrictID
	screen.VenueTypeIDs = in.VenueTypeIDs
	screen.InterestIDs = in.InterestIDs
	screen.TypeCategory = in.TypeCategory
	screen.ScreenSize = in.ScreenSize
	screen.ScreenResolution = in.ScreenResolution

	screen.CPM = domain.DefaultCPM
	if in.CPM != nil {
		screen.CPM = *in.CPM
	}
	screen.Status = domain.ScreenInactive
	if in.Status != "" {
		screen.Status = in.Status
	}
}

func applyScreenPatch(screen *domain.Screen, p ScreenPatch) {
	if p.Title != nil {
		screen.Title = *p.Title
	}
	if p.Position != nil {
		screen.Position = *p.Position
	}
	if p.Location != nil {
		screen.Location = *p.Location
	}
	if p.Coordinates != nil {
		screen.Coordinates = *p.Coordinates
	}
	if p.RegionID != nil {
		screen.RegionID = *p.RegionID
	}
	if p.DistrictID != nil {
		screen.DistrictID = *p.DistrictID
	}
	if p.VenueTypeIDs != nil {
		screen.VenueTypeIDs = *p.VenueTypeIDs
	}
	if p.InterestIDs != nil {
		screen.InterestIDs = *p.InterestIDs
	}
	if p.CPM != nil {
		screen.CPM = *p.CPM
	}
	if p.Status != nil {
		screen.Status = *p.Status
	}
	if p.TypeCategory != nil {
		screen.TypeCategory = *p.TypeCategory
	}
	if p.ScreenSize != nil {
		screen.ScreenSize = *p.ScreenSize
	}
	if p.ScreenResolution != nil {
		screen.ScreenResolution = *p.ScreenResolution
	}
}

type ScreenStats struct {
	Total       int `json:"total"`
	Active      int `json:"active"`
	Inactive    int `json:"inactive"`
	Maintenance int `json:"maintenance"`
}

type StatusGroup struct {
	Status        string  `json:"status"`
	StatusDisplay string  `json:"status_display"`
	Count         int     `json:"count"`
	TotalBudget   float64 `json:"total_budget,omitempty"`
}

// ValueCount is a distinct value of a text column and its frequency.
type ValueCount struct {
	Value string
	Count int
}

// ScreenPoint is a screen with parseable coordinates, for maps.
type ScreenPoint struct {
	ID          int64
	Title       string
	Position    string
	Location    string
	Coordinates domain.LatLng
	Status      domain.ScreenStatus
}

type NearbyScreen struct {
	Screen         *domain.Screen
	DistanceMeters float64
}

func (s *ScreenService) Stats(ctx context.Context, ownerID int64) (ScreenStats, error) {
	screens, err := s.List(ctx, ownerID, ports.ScreenFilter{})
	if err != nil {
		return ScreenStats{}, fmt.Errorf("screen stats: %w", err)
	}

	st := ScreenStats{Total: len(screens)}
	for _, sc := range screens {
		switch sc.Status {
		case domain.ScreenActive:
			st.Active++
		case domain.ScreenInactive:
			st.Inactive++
		case domain.ScreenMaintenance:
			st.Maintenance++
		}
	}
	return st, nil
}

// AggregateByStatus groups the owner's screens by status, omitting empty groups.
func (s *ScreenService) AggregateByStatus(ctx context.Context, ownerID int64) ([]StatusGroup, int, error) {
	screens, err := s.List(ctx, ownerID, ports.ScreenFilter{})
	if err != nil {
		return nil, 0, fmt.Errorf("aggregate screens by status: %w", err)
	}

	counts := make(map[domain.ScreenStatus]int, len(domain.ScreenStatuses))
	for _, sc := range screens {
		counts[sc.Status]++
	}

	groups := make([]StatusGroup, 0, len(counts))
	for _, st := range domain.ScreenStatuses {
		if n := counts[st]; n > 0 {
			groups = append(groups, StatusGroup{Status: string(st), StatusDisplay: st.Display(), Count: n})
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Status < groups[j].Status })
	return groups, len(screens), nil
}

// Positions counts screens per position, ordered by position.
func (s *ScreenService) Positions(ctx context.Context, ownerID int64) ([]ValueCount, error) {
	screens, err := s.List(ctx, ownerID, ports.ScreenFilter{})
	if err != nil {
		return nil, fmt.Errorf("screen positions: %w", err)
	}
	return countValues(screens, func(sc *domain.Screen) string { return sc.Position }, true), nil
}

// Locations counts screens per location, skipping empty locations.
func (s *ScreenService) Locations(ctx context.Context, ownerID int64) ([]ValueCount, error) {
	screens, err := s.List(ctx, ownerID, ports.ScreenFilter{})
	if err != nil {
		return nil, fmt.Errorf("screen locations: %w", err)
	}
	return countValues(screens, func(sc *domain.Screen) string { return sc.Location }, false), nil
}

func countValues(screens []*domain.Screen, key func(*domain.Screen) string, keepEmpty bool) []ValueCount {
	counts := map[string]int{}
	for _, sc := range screens {
		v := key(sc)
		if v == "" && !keepEmpty {
			continue
		}
		counts[v]++
	}

	out := make([]ValueCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, ValueCount{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}

// Coordinates lists the owner's screens whose coordinates parse.
func (s *ScreenService) Coordinates(ctx context.Context, ownerID int64) ([]ScreenPoint, error) {
	screens, err := s.List(ctx, ownerID, ports.ScreenFilter{})
	if err != nil {
		return nil, fmt.Errorf("screen coordinates: %w", err)
	}

	out := make([]ScreenPoint, 0, len(screens))
	for _, sc := range screens {
		at, ok := sc.ParsedCoordinates()
		if !ok {
			continue
		}
		out = append(out, ScreenPoint{
			ID:          sc.ID,
			Title:       sc.Title,
			Position:    sc.Position,
			Location:    sc.Location,
			Coordinates: at,
			Status:      sc.Status,
		})
	}
	return out, nil
}

// Nearby returns the owner's screens within radiusMeters of center, nearest first.
func (s *ScreenService) Nearby(ctx context.Context, ownerID int64, center domain.LatLng, radiusMeters float64) ([]NearbyScreen, error) {
	if !center.Valid() {
		return nil, domain.NewFieldError("lat", "lat/lng out of range")
	}
	if radiusMeters <= 0 {
		return nil, domain.NewFieldError("radius_m", "radius_m must be positive")
	}

	screens, err := s.List(ctx, ownerID, ports.ScreenFilter{})
	if err != nil {
		return nil, fmt.Errorf("nearby screens: %w", err)
	}

	out := make([]NearbyScreen, 0)
	for _, sc := range screens {
		at, ok := sc.ParsedCoordinates()
		if !ok || !at.Valid() {
			continue
		}
		if d := center.DistanceMeters(at); d <= radiusMeters {
			out = append(out, NearbyScreen{Screen: sc, DistanceMeters: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceMeters < out[j].DistanceMeters })
	return out, nil
}
