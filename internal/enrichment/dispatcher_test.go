package enrichment

import (
	"context"
	"errors"
	"path/filepath"
	"street-screens-service/internal/adapters/places"
	"street-screens-service/internal/adapters/repositories"
	"street-screens-service/internal/domain"
	"street-screens-service/internal/platform/db"
	"sync"
	"testing"
	"time"
)

type stubProvider struct {
	payload string
	err     error
	panics  bool
	block   bool
}

func (s *stubProvider) LookupByCoordinates(ctx context.Context, lat, lng float64, language string) (*domain.PopularTimes, error) {
	if s.panics {
		panic("provider exploded")
	}
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.payload == "" {
		return nil, nil
	}
	return &domain.PopularTimes{Payload: domain.PopularTimesPayload(s.payload), Coordinates: domain.LatLng{Lat: lat, Lng: lng}}, nil
}

func (s *stubProvider) SearchPlace(ctx context.Context, query, language string) (*domain.PlaceDetails, error) {
	return nil, domain.ErrNotFound
}

type recordingWriter struct {
	mu     sync.Mutex
	writes map[int64]string
	err    error
}

func (w *recordingWriter) UpdatePopularTimes(ctx context.Context, id int64, payload domain.PopularTimesPayload) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	if w.writes == nil {
		w.writes = map[int64]string{}
	}
	w.writes[id] = string(payload)
	return nil
}

func (w *recordingWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.writes)
}

var testJob = Job{ScreenID: 5, Coordinates: domain.LatLng{Lat: 41.3, Lng: 69.2}}

func TestProcessOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		provider *stubProvider
		writeErr error
		want     Outcome
		writes   int
	}{
		{"payload written", &stubProvider{payload: `{"histogram":[1,2,3]}`}, nil, OutcomeWritten, 1},
		{"no payload", &stubProvider{}, nil, OutcomeNoPayload, 0},
		{"empty payload", &stubProvider{payload: `[]`}, nil, OutcomeNoPayload, 0},
		{"lookup error", &stubProvider{err: errors.New("boom")}, nil, OutcomeLookupFailed, 0},
		{"provider panic", &stubProvider{panics: true}, nil, OutcomePanic, 0},
		{"screen deleted", &stubProvider{payload: `[1]`}, domain.ErrNotFound, OutcomeWriteFailed, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &recordingWriter{err: tt.writeErr}
			d := NewDispatcher(tt.provider, w, Config{})

			if got := d.Process(context.Background(), testJob); got != tt.want {
				t.Fatalf("outcome = %q, want %q", got, tt.want)
			}
			if w.count() != tt.writes {
				t.Fatalf("writes = %d, want %d", w.count(), tt.writes)
			}
		})
	}
}

func TestProcessHonoursLookupTimeout(t *testing.T) {
	d := NewDispatcher(&stubProvider{block: true}, &recordingWriter{}, Config{LookupTimeout: 20 * time.Millisecond})

	start := time.Now()
	if got := d.Process(context.Background(), testJob); got != OutcomeLookupFailed {
		t.Fatalf("outcome = %q, want %q", got, OutcomeLookupFailed)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("lookup was not bounded: %v", elapsed)
	}
}

func TestSubmitDeadLettersWhenQueueFull(t *testing.T) {
	var mu sync.Mutex
	var outcomes []Outcome

	d := NewDispatcher(&stubProvider{}, &recordingWriter{}, Config{QueueSize: 2})
	d.OnOutcome = func(_ Job, o Outcome) {
		mu.Lock()
		outcomes = append(outcomes, o)
		mu.Unlock()
	}

	// no workers running, so the queue fills up
	if !d.Submit(testJob) || !d.Submit(testJob) {
		t.Fatal("first two submits must be queued")
	}
	if d.Submit(testJob) {
		t.Fatal("third submit must be rejected")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(outcomes) != 1 || outcomes[0] != OutcomeDeadLetter {
		t.Fatalf("outcomes = %v, want [dead_letter]", outcomes)
	}
}

func TestServeProcessesQueuedJobs(t *testing.T) {
	w := &recordingWriter{}
	d := NewDispatcher(&stubProvider{payload: `[{"hour":9}]`}, w, Config{Workers: 2, QueueSize: 8})

	done := make(chan Outcome, 8)
	d.OnOutcome = func(_ Job, o Outcome) { done <- o }

	for id := int64(1); id <= 3; id++ {
		if !d.Submit(Job{ScreenID: id, Coordinates: testJob.Coordinates}) {
			t.Fatalf("submit %d rejected", id)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- d.Serve(ctx) }()

	for i := 0; i < 3; i++ {
		select {
		case o := <-done:
			if o != OutcomeWritten {
				t.Fatalf("outcome = %q", o)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}
	if w.count() != 3 {
		t.Fatalf("writes = %d, want 3", w.count())
	}

	cancel()
	select {
	case err := <-served:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop")
	}
}

// End to end: a created screen gets popular times written back without any
// other column changing.
func TestEnrichmentWritesOnlyPopularTimes(t *testing.T) {
	ctx := context.Background()

	sqlDB, dialect, err := db.Open("sqlite", filepath.Join(t.TempDir(), "enrich.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer sqlDB.Close()
	if err := repositories.InitSchema(ctx, sqlDB, dialect); err != nil {
		t.Fatalf("init schema: %v", err)
	}

	users := repositories.NewSQLUserRepository(sqlDB, dialect)
	owner := &domain.User{Email: "owner@example.com", PasswordHash: "x"}
	if err := users.CreateUser(ctx, owner); err != nil {
		t.Fatalf("create user: %v", err)
	}

	screens := repositories.NewSQLScreenRepository(sqlDB, dialect)
	provider := places.NewMockPlacesProvider()
	at := domain.LatLng{Lat: 41.3, Lng: 69.2}
	provider.SetPopularTimes(at, `{"histogram":[10,20,30]}`)

	d := NewDispatcher(provider, screens, Config{})
	hooks := NewHooks(screens, d)

	s := &domain.Screen{
		Title:       "Chorsu",
		Coordinates: at.Map(),
		CPM:         domain.DefaultCPM,
		Status:      domain.ScreenInactive,
		CreatedBy:   &owner.ID,
		UpdatedBy:   &owner.ID,
	}
	snap := hooks.BeforeSave(ctx, s.ID)
	if err := screens.CreateScreen(ctx, s); err != nil {
		t.Fatalf("create screen: %v", err)
	}
	if !hooks.AfterSave(ctx, snap, s, true) {
		t.Fatal("expected dispatch")
	}

	before, err := screens.GetScreen(ctx, s.ID)
	if err != nil {
		t.Fatalf("get screen: %v", err)
	}

	job := <-d.jobs
	if got := d.Process(ctx, job); got != OutcomeWritten {
		t.Fatalf("outcome = %q", got)
	}

	after, err := screens.GetScreen(ctx, s.ID)
	if err != nil {
		t.Fatalf("get screen: %v", err)
	}
	if string(after.PopularTimes) != `{"histogram":[10,20,30]}` {
		t.Fatalf("popular_times = %s", after.PopularTimes)
	}
	if !after.UpdatedAt.Equal(before.UpdatedAt) || after.Title != before.Title || after.Status != before.Status {
		t.Fatalf("write-back changed other fields: before=%+v after=%+v", before, after)
	}

	// the write-back does not go through the hooks, so nothing new is queued
	if len(d.jobs) != 0 {
		t.Fatalf("queue depth = %d, want 0", len(d.jobs))
	}
}
