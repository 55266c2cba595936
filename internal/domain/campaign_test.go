package domain

import (
	"errors"
	"testing"
	"time"
)

func TestScheduleSlots(t *testing.T) {
	s := Schedule{
		"mon":    {9, 10, 11},
		"monday": {11, 12},
		"Fri":    {0, 23, 23},
		"funday": {1, 2},
		"sun":    {24, -1},
	}
	if got := s.Slots(); got != 6 {
		t.Fatalf("Slots = %d, want 6", got)
	}
}

func TestScheduleValidate(t *testing.T) {
	if err := (Schedule{"tuesday": {0, 23}}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := (Schedule{"tuesday": {24}}).Validate()
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}

	var fe *FieldError
	if !errors.As((Schedule{"someday": {1}}).Validate(), &fe) || fe.Field != "schedule" {
		t.Fatalf("expected schedule field error, got %v", fe)
	}
}

func TestScheduleCoveragePercentage(t *testing.T) {
	cases := []struct {
		slots int
		want  float64
	}{
		{0, 0},
		{1, 0.6},
		{84, 50},
		{100, 59.5},
		{168, 100},
	}
	for _, tc := range cases {
		c := &Campaign{MetaScheduleSlots: tc.slots}
		if got := c.ScheduleCoveragePercentage(); got != tc.want {
			t.Errorf("slots=%d: coverage = %v, want %v", tc.slots, got, tc.want)
		}
	}
}

func TestDeriveMeta(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	c := &Campaign{
		StartDate: start,
		EndDate:   start.Add(10*24*time.Hour + time.Hour),
		Schedule:  Schedule{"mon": {8, 9}, "tue": {8}},
	}
	c.DeriveMeta()

	if c.MetaScheduleSlots != 3 {
		t.Fatalf("slots = %d, want 3", c.MetaScheduleSlots)
	}
	if c.MetaScheduleCoverage != "1.8%" {
		t.Fatalf("coverage = %q, want 1.8%%", c.MetaScheduleCoverage)
	}
	if c.MetaDurationDays != 11 {
		t.Fatalf("duration days = %d, want 11", c.MetaDurationDays)
	}
}

func TestCampaignIsActive(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	mid := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	c := &Campaign{Status: CampaignActive, StartDate: start, EndDate: end}
	if !c.IsActive(mid) {
		t.Fatal("active campaign inside window should be active")
	}
	if !c.IsActive(start) || !c.IsActive(end) {
		t.Fatal("window bounds are inclusive")
	}
	if c.IsActive(end.Add(time.Second)) {
		t.Fatal("campaign after end should not be active")
	}

	c.Status = CampaignPaused
	if c.IsActive(mid) {
		t.Fatal("paused campaign should not be active")
	}
}

func TestCampaignValidate(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	valid := Campaign{
		CampaignName: "Spring",
		Budget:       100,
		Currency:     "USD",
		StartDate:    start,
		EndDate:      start.Add(24 * time.Hour),
		Status:       CampaignDraft,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := map[string]func(c *Campaign){
		"end_date":  func(c *Campaign) { c.EndDate = c.StartDate },
		"currency":  func(c *Campaign) { c.Currency = "US" },
		"age_range": func(c *Campaign) { c.AgeRange = &AgeRange{Min: 40, Max: 18} },
		"status":    func(c *Campaign) { c.Status = "archived" },
		"budget":    func(c *Campaign) { c.Budget = -1 },
	}
	for field, mutate := range cases {
		c := valid
		mutate(&c)

		var fe *FieldError
		if err := c.Validate(); !errors.As(err, &fe) || fe.Field != field {
			t.Errorf("%s: got %v", field, err)
		}
	}
}

func TestSortUsage(t *testing.T) {
	items := []UsageCount{{ID: 1, Name: "b", Count: 1}, {ID: 2, Name: "a", Count: 1}, {ID: 3, Name: "c", Count: 5}}
	SortUsage(items)
	if items[0].ID != 3 || items[1].ID != 2 || items[2].ID != 1 {
		t.Fatalf("unexpected order: %+v", items)
	}
}
