package services

import (
	"context"
	"errors"
	"street-screens-service/internal/domain"
	"street-screens-service/internal/enrichment"
	"street-screens-service/internal/ports"
	"testing"
)

func newScreenService(t *testing.T) (*ScreenService, *recordingSubmitter, int64, int64) {
	t.Helper()

	store := newTestStore(t)
	sub := &recordingSubmitter{}
	hooks := enrichment.NewHooks(store.Screens, sub)
	svc := NewScreenService(store.Screens, store.Taxonomy, hooks)

	return svc, sub, store.user(t, "owner@example.com"), store.user(t, "other@example.com")
}

func screenInput(title string, lat, lng float64) ScreenInput {
	return ScreenInput{
		Title:       title,
		Position:    "Entrance",
		Location:    "Amir Temur Square",
		Coordinates: map[string]any{"lat": lat, "lng": lng},
	}
}

func TestScreenCreateAppliesDefaultsAndEnqueues(t *testing.T) {
	ctx := context.Background()
	svc, sub, owner, _ := newScreenService(t)

	s, err := svc.Create(ctx, owner, screenInput("Mall", 41.3111, 69.2797))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if s.CPM != domain.DefaultCPM {
		t.Fatalf("cpm = %v, want %v", s.CPM, domain.DefaultCPM)
	}
	if s.Status != domain.ScreenInactive {
		t.Fatalf("status = %q, want inactive", s.Status)
	}
	if len(sub.jobs) != 1 || sub.jobs[0].ScreenID != s.ID {
		t.Fatalf("jobs = %+v, want one job for screen %d", sub.jobs, s.ID)
	}
	if want := (domain.LatLng{Lat: 41.3111, Lng: 69.2797}); sub.jobs[0].Coordinates != want {
		t.Fatalf("job coordinates = %+v, want %+v", sub.jobs[0].Coordinates, want)
	}
}

func TestScreenCreateWithoutCoordinatesDoesNotEnqueue(t *testing.T) {
	ctx := context.Background()
	svc, sub, owner, _ := newScreenService(t)

	if _, err := svc.Create(ctx, owner, ScreenInput{Title: "No map"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(sub.jobs) != 0 {
		t.Fatalf("jobs = %d, want 0", len(sub.jobs))
	}
}

func TestScreenWritesEnqueueOnlyOnCoordinateChange(t *testing.T) {
	ctx := context.Background()
	svc, sub, owner, _ := newScreenService(t)

	s, err := svc.Create(ctx, owner, screenInput("Mall", 41.3111, 69.2797))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Patch(ctx, owner, s.ID, ScreenPatch{Title: ptr("Mall west")}); err != nil {
		t.Fatalf("Patch title: %v", err)
	}
	if _, err := svc.SetStatus(ctx, owner, s.ID, domain.ScreenActive); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if len(sub.jobs) != 1 {
		t.Fatalf("jobs after non-coordinate writes = %d, want 1", len(sub.jobs))
	}

	moved := map[string]any{"lat": 41.32, "lng": 69.28}
	if _, err := svc.Patch(ctx, owner, s.ID, ScreenPatch{Coordinates: &moved}); err != nil {
		t.Fatalf("Patch coordinates: %v", err)
	}
	if len(sub.jobs) != 2 {
		t.Fatalf("jobs after move = %d, want 2", len(sub.jobs))
	}

	var cleared map[string]any
	got, err := svc.Patch(ctx, owner, s.ID, ScreenPatch{Coordinates: &cleared})
	if err != nil {
		t.Fatalf("Patch clear: %v", err)
	}
	if got.Coordinates != nil {
		t.Fatalf("coordinates = %v, want cleared", got.Coordinates)
	}
	if len(sub.jobs) != 2 {
		t.Fatalf("jobs after clear = %d, want 2", len(sub.jobs))
	}

	in := screenInput("Mall west", 41.32, 69.28)
	in.Status = domain.ScreenActive
	if _, err := svc.Update(ctx, owner, s.ID, in); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(sub.jobs) != 3 {
		t.Fatalf("jobs after update restoring coordinates = %d, want 3", len(sub.jobs))
	}
}

func TestScreenNilHooks(t *testing.T) {
	store := newTestStore(t)
	svc := NewScreenService(store.Screens, store.Taxonomy, nil)

	if _, err := svc.Create(context.Background(), store.user(t, "a@example.com"), screenInput("Mall", 41.3, 69.2)); err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func TestScreenOwnership(t *testing.T) {
	ctx := context.Background()
	svc, _, owner, other := newScreenService(t)

	s, err := svc.Create(ctx, owner, screenInput("Mall", 41.3, 69.2))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Get(ctx, other, s.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get by other err = %v, want ErrNotFound", err)
	}
	if _, err := svc.Patch(ctx, other, s.ID, ScreenPatch{Title: ptr("x")}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Patch by other err = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, other, s.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Delete by other err = %v, want ErrNotFound", err)
	}

	list, err := svc.List(ctx, other, ports.ScreenFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("other owner sees %d screens, want 0", len(list))
	}

	if err := svc.Delete(ctx, owner, s.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, owner, s.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get after delete err = %v, want ErrNotFound", err)
	}
}

func TestScreenValidation(t *testing.T) {
	ctx := context.Background()
	svc, sub, owner, _ := newScreenService(t)

	tests := []struct {
		name  string
		in    ScreenInput
		field string
	}{
		{"missing title", ScreenInput{}, "title"},
		{"bad status", ScreenInput{Title: "x", Status: "broken"}, "status"},
		{"negative cpm", ScreenInput{Title: "x", CPM: ptr(-1.0)}, "cpm"},
		{"unknown region", ScreenInput{Title: "x", RegionID: ptr(int64(99))}, "region_id"},
		{"unknown venue types", ScreenInput{Title: "x", VenueTypeIDs: []int64{1, 77}}, "venue_type_ids"},
		{"district outside region", ScreenInput{Title: "x", RegionID: ptr(int64(1)), DistrictID: ptr(int64(6))}, "district_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, owner, tt.in)
			if !errors.Is(err, domain.ErrInvalid) {
				t.Fatalf("err = %v, want ErrInvalid", err)
			}
			var fe *domain.FieldError
			if !errors.As(err, &fe) || fe.Field != tt.field {
				t.Fatalf("field error = %v, want field %q", err, tt.field)
			}
		})
	}

	if len(sub.jobs) != 0 {
		t.Fatalf("rejected writes enqueued %d jobs", len(sub.jobs))
	}
}

func TestScreenAggregates(t *testing.T) {
	ctx := context.Background()
	svc, _, owner, other := newScreenService(t)

	create := func(title, position, location string, status domain.ScreenStatus, coords map[string]any) {
		t.Helper()
		in := ScreenInput{Title: title, Position: position, Location: location, Status: status, Coordinates: coords}
		if _, err := svc.Create(ctx, owner, in); err != nil {
			t.Fatalf("Create %s: %v", title, err)
		}
	}
	create("a", "Entrance", "Mall", domain.ScreenActive, map[string]any{"lat": 41.3, "lng": 69.2})
	create("b", "Entrance", "", domain.ScreenActive, map[string]any{"lat": "bad", "lng": 69.2})
	create("c", "Atrium", "Mall", domain.ScreenMaintenance, nil)
	create("d", "Atrium", "Station", domain.ScreenInactive, map[string]any{"lat": 40.1, "lng": 65.3})
	if _, err := svc.Create(ctx, other, ScreenInput{Title: "foreign", Status: domain.ScreenActive}); err != nil {
		t.Fatalf("Create foreign: %v", err)
	}

	st, err := svc.Stats(ctx, owner)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st != (ScreenStats{Total: 4, Active: 2, Inactive: 1, Maintenance: 1}) {
		t.Fatalf("stats = %+v", st)
	}

	groups, total, err := svc.AggregateByStatus(ctx, owner)
	if err != nil {
		t.Fatalf("AggregateByStatus: %v", err)
	}
	if total != 4 || len(groups) != 3 {
		t.Fatalf("groups = %+v total = %d", groups, total)
	}
	if groups[0].Status != "active" || groups[0].Count != 2 || groups[0].StatusDisplay != "Active" {
		t.Fatalf("first group = %+v, want 2 active", groups[0])
	}

	positions, err := svc.Positions(ctx, owner)
	if err != nil {
		t.Fatalf("Positions: %v", err)
	}
	if len(positions) != 2 || positions[0] != (ValueCount{Value: "Atrium", Count: 2}) {
		t.Fatalf("positions = %+v", positions)
	}

	locations, err := svc.Locations(ctx, owner)
	if err != nil {
		t.Fatalf("Locations: %v", err)
	}
	if len(locations) != 2 || locations[0] != (ValueCount{Value: "Mall", Count: 2}) {
		t.Fatalf("locations = %+v", locations)
	}

	points, err := svc.Coordinates(ctx, owner)
	if err != nil {
		t.Fatalf("Coordinates: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("points = %d, want 2 (only parseable coordinates)", len(points))
	}
}

func TestScreenNearby(t *testing.T) {
	ctx := context.Background()
	svc, _, owner, _ := newScreenService(t)

	for _, in := range []ScreenInput{
		screenInput("far", 39.6542, 66.9597), // Samarkand
		screenInput("close", 41.3200, 69.2797),
		screenInput("here", 41.3111, 69.2797),
	} {
		if _, err := svc.Create(ctx, owner, in); err != nil {
			t.Fatalf("Create %s: %v", in.Title, err)
		}
	}

	got, err := svc.Nearby(ctx, owner, domain.LatLng{Lat: 41.3111, Lng: 69.2797}, 5000)
	if err != nil {
		t.Fatalf("Nearby: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("nearby = %d, want 2", len(got))
	}
	if got[0].Screen.Title != "here" || got[1].Screen.Title != "close" {
		t.Fatalf("order = %s, %s; want here, close", got[0].Screen.Title, got[1].Screen.Title)
	}
	if got[1].DistanceMeters < 900 || got[1].DistanceMeters > 1100 {
		t.Fatalf("distance = %.1f, want about 990m", got[1].DistanceMeters)
	}

	if _, err := svc.Nearby(ctx, owner, domain.LatLng{Lat: 91}, 10); !errors.Is(err, domain.ErrInvalid) {
		t.Fatalf("invalid center err = %v, want ErrInvalid", err)
	}
	if _, err := svc.Nearby(ctx, owner, domain.LatLng{Lat: 41, Lng: 69}, 0); !errors.Is(err, domain.ErrInvalid) {
		t.Fatalf("zero radius err = %v, want ErrInvalid", err)
	}
}
