package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
)

var CampaignStatuses = []CampaignStatus{CampaignDraft, CampaignActive, CampaignPaused, CampaignCompleted}

func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignDraft, CampaignActive, CampaignPaused, CampaignCompleted:
		return true
	}
	return false
}

func (s CampaignStatus) Display() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// WeeklySlots is the number of day/hour slots in a week.
const WeeklySlots = 7 * 24

// Schedule maps a weekday to the hours (0-23) a campaign plays on it.
type Schedule map[string][]int

var weekdays = map[string]string{
	"mon": "mon", "monday": "mon",
	"tue": "tue", "tuesday": "tue",
	"wed": "wed", "wednesday": "wed",
	"thu": "thu", "thursday": "thu",
	"fri": "fri", "friday": "fri",
	"sat": "sat", "saturday": "sat",
	"sun": "sun", "sunday": "sun",
}

// Validate checks day keys and hour ranges.
func (s Schedule) Validate() error {
	for day, hours := range s {
		if _, ok := weekdays[strings.ToLower(day)]; !ok {
			return NewFieldError("schedule", fmt.Sprintf("unknown day %q", day))
		}
		for _, h := range hours {
			if h < 0 || h > 23 {
				return NewFieldError("schedule", fmt.Sprintf("hour %d out of range for %s", h, day))
			}
		}
	}
	return nil
}

// Slots counts distinct day/hour slots. "mon" and "monday" name the same day.
func (s Schedule) Slots() int {
	seen := make(map[string]struct{})
	for day, hours := range s {
		d, ok := weekdays[strings.ToLower(day)]
		if !ok {
			continue
		}
		for _, h := range hours {
			if h < 0 || h > 23 {
				continue
			}
			seen[fmt.Sprintf("%s:%d", d, h)] = struct{}{}
		}
	}
	return len(seen)
}

type AgeRange struct {
	Min int
	Max int
}

type Campaign struct {
	ID                   int64
	CampaignName         string
	Budget               float64
	Currency             string
	StartDate            time.Time
	EndDate              time.Time
	RegionID             *int64
	DistrictID           *int64
	Region               *Region
	District             *District
	InterestIDs          []int64
	VenueTypeIDs         []int64
	Interests            []Interest
	VenueTypes           []VenueType
	AgeRange             *AgeRange
	Schedule             Schedule
	MetaScheduleSlots    int
	MetaScheduleCoverage string
	MetaDurationDays     int
	Link                 string
	InvolveCount         int64
	Status               CampaignStatus
	Videos               []Video
	Images               []Image
	CreatedAt            time.Time
	UpdatedAt            time.Time
	CreatedBy            *int64
	UpdatedBy            *int64
}

// DeriveMeta refreshes the stored schedule/duration summary fields.
func (c *Campaign) DeriveMeta() {
	c.MetaScheduleSlots = c.Schedule.Slots()
	c.MetaScheduleCoverage = fmt.Sprintf("%.1f%%", c.ScheduleCoveragePercentage())

	days := 0
	if c.EndDate.After(c.StartDate) {
		days = int(math.Ceil(c.EndDate.Sub(c.StartDate).Hours() / 24))
	}
	c.MetaDurationDays = days
}

// ScheduleCoveragePercentage is the share of weekly slots used, rounded to one decimal.
func (c *Campaign) ScheduleCoveragePercentage() float64 {
	if c.MetaScheduleSlots <= 0 {
		return 0
	}
	return math.Round(float64(c.MetaScheduleSlots)/WeeklySlots*1000) / 10
}

// IsActive is true while an active campaign is inside its date window.
func (c *Campaign) IsActive(now time.Time) bool {
	return c.Status == CampaignActive && !now.Before(c.StartDate) && !now.After(c.EndDate)
}

func (c *Campaign) OwnedBy(userID int64) bool {
	return c.CreatedBy != nil && *c.CreatedBy == userID
}

// Validate checks cross-field rules that struct tags cannot express.
func (c *Campaign) Validate() error {
	if !c.StartDate.Before(c.EndDate) {
		return NewFieldError("end_date", "end_date must be after start_date")
	}
	if c.Budget < 0 {
		return NewFieldError("budget", "budget must not be negative")
	}
	if len(c.Currency) != 3 {
		return NewFieldError("currency", "currency must be a 3-letter code")
	}
	if c.AgeRange != nil {
		if c.AgeRange.Min < 0 || c.AgeRange.Max < c.AgeRange.Min {
			return NewFieldError("age_range", "age_range must be [min, max] with 0 <= min <= max")
		}
	}
	if !c.Status.Valid() {
		return NewFieldError("status", fmt.Sprintf("unknown status %q", c.Status))
	}
	return c.Schedule.Validate()
}

type Video struct {
	ID              int64
	CampaignID      int64
	URL             string
	Title           string
	Description     string
	DurationSeconds *int
	FileSize        *int64
	CreatedAt       time.Time
}

type Image struct {
	ID          int64
	CampaignID  int64
	URL         string
	Title       string
	Description string
	FileSize    *int64
	Width       *int
	Height      *int
	CreatedAt   time.Time
}

// UsageCount is how many campaigns reference a taxonomy entry.
type UsageCount struct {
	ID   int64
	Name string
	// district code, or slug for interests and venue types
	Code  string
	Count int
}

// SortUsage orders by count descending, then name.
func SortUsage(items []UsageCount) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].Name < items[j].Name
	})
}
