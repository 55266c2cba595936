package services

import (
	"context"
	"errors"
	"fmt"
	"street-screens-service/internal/domain"
	"street-screens-service/internal/platform/obs"
	"street-screens-service/internal/ports"
	"strings"
	"time"
)

const DefaultCurrency = "USD"

// CampaignInput carries the editable fields of a campaign for create and full update.
type CampaignInput struct {
	CampaignName string
	Budget       float64
	Currency     string
	StartDate    time.Time
	EndDate      time.Time
	RegionID     *int64
	DistrictID   *int64
	InterestIDs  []int64
	VenueTypeIDs []int64
	AgeRange     *domain.AgeRange
	Schedule     domain.Schedule
	Link         string
	Status       domain.CampaignStatus
}

// CampaignPatch holds the fields present in a partial update.
type CampaignPatch struct {
	CampaignName *string
	Budget       *float64
	Currency     *string
	StartDate    *time.Time
	EndDate      *time.Time
	RegionID     **int64
	DistrictID   **int64
	InterestIDs  *[]int64
	VenueTypeIDs *[]int64
	AgeRange     **domain.AgeRange
	Schedule     *domain.Schedule
	Link         *string
	Status       *domain.CampaignStatus
}

type CampaignService struct {
	campaigns ports.CampaignRepository
	taxonomy  ports.TaxonomyRepository
	analytics ports.AnalyticsRepository
	forecast  *Forecaster
}

func NewCampaignService(campaigns ports.CampaignRepository, taxonomy ports.TaxonomyRepository, analytics ports.AnalyticsRepository, forecast *Forecaster) *CampaignService {
	if forecast == nil {
		forecast = NewForecaster(nil)
	}
	return &CampaignService{campaigns: campaigns, taxonomy: taxonomy, analytics: analytics, forecast: forecast}
}

func (s *CampaignService) Create(ctx context.Context, ownerID int64, in CampaignInput) (_ *domain.Campaign, err error) {
	defer obs.Time(ctx, "services.campaigns.create")(&err)

	c := &domain.Campaign{CreatedBy: &ownerID, UpdatedBy: &ownerID}
	applyCampaignInput(c, in)

	if err := s.prepare(ctx, c); err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}
	if err := s.campaigns.CreateCampaign(ctx, c); err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}
	return c, nil
}

// Get returns a campaign owned by ownerID. Campaigns of other owners are
// reported as not found.
func (s *CampaignService) Get(ctx context.Context, ownerID, id int64) (*domain.Campaign, error) {
	c, err := s.campaigns.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.OwnedBy(ownerID) {
		return nil, fmt.Errorf("get campaign id=%d: %w", id, domain.ErrNotFound)
	}
	return c, nil
}

func (s *CampaignService) List(ctx context.Context, ownerID int64, f ports.CampaignFilter) ([]*domain.Campaign, error) {
	f.OwnerID = &ownerID
	return s.campaigns.ListCampaigns(ctx, f)
}

func (s *CampaignService) Update(ctx context.Context, ownerID, id int64, in CampaignInput) (_ *domain.Campaign, err error) {
	defer obs.Time(ctx, "services.campaigns.update")(&err)

	c, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("update campaign: %w", err)
	}
	applyCampaignInput(c, in)
	c.UpdatedBy = &ownerID

	if err := s.prepare(ctx, c); err != nil {
		return nil, fmt.Errorf("update campaign id=%d: %w", id, err)
	}
	if err := s.campaigns.UpdateCampaign(ctx, c); err != nil {
		return nil, fmt.Errorf("update campaign id=%d: %w", id, err)
	}
	return c, nil
}

func (s *CampaignService) Patch(ctx context.Context, ownerID, id int64, p CampaignPatch) (_ *domain.Campaign, err error) {
	defer obs.Time(ctx, "services.campaigns.patch")(&err)

	c, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("patch campaign: %w", err)
	}
	applyCampaignPatch(c, p)
	c.UpdatedBy = &ownerID

	if err := s.prepare(ctx, c); err != nil {
		return nil, fmt.Errorf("patch campaign id=%d: %w", id, err)
	}
	if err := s.campaigns.UpdateCampaign(ctx, c); err != nil {
		return nil, fmt.Errorf("patch campaign id=%d: %w", id, err)
	}
	return c, nil
}

func (s *CampaignService) Delete(ctx context.Context, ownerID, id int64) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	return s.campaigns.DeleteCampaign(ctx, id)
}

// SetStatus runs a status action (activate, pause, complete).
func (s *CampaignService) SetStatus(ctx context.Context, ownerID, id int64, status domain.CampaignStatus) (*domain.Campaign, error) {
	if !status.Valid() {
		return nil, domain.NewFieldError("status", fmt.Sprintf("unknown status %q", status))
	}

	c, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("set campaign status: %w", err)
	}
	c.Status = status
	c.UpdatedBy = &ownerID

	if err := s.campaigns.UpdateCampaign(ctx, c); err != nil {
		return nil, fmt.Errorf("set campaign status id=%d: %w", id, err)
	}
	return c, nil
}

// prepare normalizes defaults, derives the schedule summary and checks
// every rule a save must satisfy.
func (s *CampaignService) prepare(ctx context.Context, c *domain.Campaign) error {
	c.CampaignName = strings.TrimSpace(c.CampaignName)
	if c.CampaignName == "" {
		return domain.NewFieldError("campaign_name", "campaign_name is required")
	}
	c.Currency = strings.ToUpper(strings.TrimSpace(c.Currency))
	if c.Currency == "" {
		c.Currency = DefaultCurrency
	}
	if c.Status == "" {
		c.Status = domain.CampaignDraft
	}

	if err := c.Validate(); err != nil {
		return err
	}
	c.DeriveMeta()

	return checkTaxonomyRefs(ctx, s.taxonomy, taxonomyRefs{
		RegionID:     c.RegionID,
		DistrictID:   c.DistrictID,
		InterestIDs:  c.InterestIDs,
		VenueTypeIDs: c.VenueTypeIDs,
	})
}

func applyCampaignInput(c *domain.Campaign, in CampaignInput) {
	c.CampaignName = in.CampaignName
	c.Budget = in.Budget
	c.Currency = in.Currency
	c.StartDate = in.StartDate
	c.EndDate = in.EndDate
	c.RegionID = in.RegionID
	c.DistrictID = in.DistrictID
	c.InterestIDs = in.InterestIDs
	c.VenueTypeIDs = in.VenueTypeIDs
	c.AgeRange = in.AgeRange
	c.Schedule = in.Schedule
	c.Link = in.Link
	c.Status = in.Status
}

func applyCampaignPatch(c *domain.Campaign, p CampaignPatch) {
	if p.CampaignName != nil {
		c.CampaignName = *p.CampaignName
	}
	if p.Budget != nil {
		c.Budget = *p.Budget
	}
	if p.Currency != nil {
		c.Currency = *p.Currency
	}
	if p.StartDate != nil {
		c.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		c.EndDate = *p.EndDate
	}
	if p.RegionID != nil {
		c.RegionID = *p.RegionID
	}
	if p.DistrictID != nil {
		c.DistrictID = *p.DistrictID
	}
	if p.InterestIDs != nil {
		c.InterestIDs = *p.InterestIDs
	}
	if p.VenueTypeIDs != nil {
		c.VenueTypeIDs = *p.VenueTypeIDs
	}
	if p.AgeRange != nil {
		c.AgeRange = *p.AgeRange
	}
	if p.Schedule != nil {
		c.Schedule = *p.Schedule
	}
	if p.Link != nil {
		c.Link = *p.Link
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
}

type CampaignStats struct {
	Total       int     `json:"total"`
	Active      int     `json:"active"`
	Draft       int     `json:"draft"`
	Paused      int     `json:"paused"`
	Completed   int     `json:"completed"`
	TotalBudget float64 `json:"total_budget"`
}

func (s *CampaignService) Stats(ctx context.Context, ownerID int64) (CampaignStats, error) {
	campaigns, err := s.List(ctx, ownerID, ports.CampaignFilter{})
	if err != nil {
		return CampaignStats{}, fmt.Errorf("campaign stats: %w", err)
	}

	st := CampaignStats{Total: len(campaigns)}
	for _, c := range campaigns {
		st.TotalBudget += c.Budget
		switch c.Status {
		case domain.CampaignActive:
			st.Active++
		case domain.CampaignDraft:
			st.Draft++
		case domain.CampaignPaused:
			st.Paused++
		case domain.CampaignCompleted:
			st.Completed++
		}
	}
	return st, nil
}

// AggregateByStatus groups the owner's campaigns by status with the budget
// of each group. It also returns the overall count and budget.
func (s *CampaignService) AggregateByStatus(ctx context.Context, ownerID int64) ([]StatusGroup, int, float64, error) {
	campaigns, err := s.List(ctx, ownerID, ports.CampaignFilter{})
	if err != nil {
		return nil, 0, 0, fmt.Errorf("aggregate campaigns by status: %w", err)
	}

	byStatus := make(map[domain.CampaignStatus]*StatusGroup)
	var total float64
	for _, c := range campaigns {
		g, ok := byStatus[c.Status]
		if !ok {
			g = &StatusGroup{Status: string(c.Status), StatusDisplay: c.Status.Display()}
			byStatus[c.Status] = g
		}
		g.Count++
		g.TotalBudget += c.Budget
		total += c.Budget
	}

	groups := make([]StatusGroup, 0, len(byStatus))
	for _, st := range domain.CampaignStatuses {
		if g, ok := byStatus[st]; ok {
			groups = append(groups, *g)
		}
	}
	return groups, len(campaigns), total, nil
}

// RegionUsage counts the owner's campaigns per region.
func (s *CampaignService) RegionUsage(ctx context.Context, ownerID int64) ([]domain.UsageCount, error) {
	campaigns, err := s.List(ctx, ownerID, ports.CampaignFilter{})
	if err != nil {
		return nil, fmt.Errorf("region usage: %w", err)
	}

	u := newUsage()
	for _, c := range campaigns {
		if c.Region != nil {
			u.add(c.Region.ID, c.Region.Name, c.Region.Code)
		}
	}
	return u.sorted(), nil
}

// DistrictUsage counts the owner's campaigns per district.
func (s *CampaignService) DistrictUsage(ctx context.Context, ownerID int64) ([]domain.UsageCount, error) {
	campaigns, err := s.List(ctx, ownerID, ports.CampaignFilter{})
	if err != nil {
		return nil, fmt.Errorf("district usage: %w", err)
	}

	u := newUsage()
	for _, c := range campaigns {
		if c.District != nil {
			u.add(c.District.ID, c.District.Name, c.District.Code)
		}
	}
	return u.sorted(), nil
}

// InterestUsage counts the owner's campaigns per targeted interest.
func (s *CampaignService) InterestUsage(ctx context.Context, ownerID int64) ([]domain.UsageCount, error) {
	campaigns, err := s.List(ctx, ownerID, ports.CampaignFilter{})
	if err != nil {
		return nil, fmt.Errorf("interest usage: %w", err)
	}

	u := newUsage()
	for _, c := range campaigns {
		for _, i := range c.Interests {
			u.add(i.ID, i.Name, i.Slug)
		}
	}
	return u.sorted(), nil
}

// VenueTypeUsage counts the owner's campaigns per targeted venue type.
func (s *CampaignService) VenueTypeUsage(ctx context.Context, ownerID int64) ([]domain.UsageCount, error) {
	campaigns, err := s.List(ctx, ownerID, ports.CampaignFilter{})
	if err != nil {
		return nil, fmt.Errorf("venue type usage: %w", err)
	}

	u := newUsage()
	for _, c := range campaigns {
		for _, v := range c.VenueTypes {
			u.add(v.ID, v.Name, v.Slug)
		}
	}
	return u.sorted(), nil
}

type usage struct {
	order []int64
	items map[int64]*domain.UsageCount
}

func newUsage() *usage {
	return &usage{items: make(map[int64]*domain.UsageCount)}
}

func (u *usage) add(id int64, name, code string) {
	it, ok := u.items[id]
	if !ok {
		it = &domain.UsageCount{ID: id, Name: name, Code: code}
		u.items[id] = it
		u.order = append(u.order, id)
	}
	it.Count++
}

func (u *usage) sorted() []domain.UsageCount {
	out := make([]domain.UsageCount, 0, len(u.order))
	for _, id := range u.order {
		out = append(out, *u.items[id])
	}
	domain.SortUsage(out)
	return out
}

func (s *CampaignService) FilterByInterest(ctx context.Context, ownerID, interestID int64) ([]*domain.Campaign, error) {
	return s.List(ctx, ownerID, ports.CampaignFilter{InterestID: &interestID})
}

func (s *CampaignService) FilterByVenueType(ctx context.Context, ownerID, venueTypeID int64) ([]*domain.Campaign, error) {
	return s.List(ctx, ownerID, ports.CampaignFilter{VenueTypeID: &venueTypeID})
}

// Summary builds the efficiency forecast for a targeting selection.
func (s *CampaignService) Summary(ctx context.Context, q ForecastQuery) (Forecast, error) {
	if q.RegionID == nil || q.DistrictID == nil {
		return EmptyForecast(), nil
	}

	region, err := s.taxonomy.GetRegion(ctx, *q.RegionID)
	if errors.Is(err, domain.ErrNotFound) {
		return Forecast{}, domain.NewFieldError("region", fmt.Sprintf("invalid pk(s) [%d]: object does not exist", *q.RegionID))
	}
	if err != nil {
		return Forecast{}, fmt.Errorf("summary: %w", err)
	}
	if err := checkTaxonomyRefs(ctx, s.taxonomy, taxonomyRefs{
		RegionID:     q.RegionID,
		DistrictID:   q.DistrictID,
		InterestIDs:  q.InterestIDs,
		VenueTypeIDs: q.VenueTypeIDs,
	}); err != nil {
		return Forecast{}, err
	}

	return s.forecast.Generate(region.Code, q.Budget), nil
}

// Videos

func (s *CampaignService) AddVideo(ctx context.Context, ownerID int64, v *domain.Video) error {
	if _, err := s.Get(ctx, ownerID, v.CampaignID); err != nil {
		return fmt.Errorf("add video: %w", err)
	}
	if strings.TrimSpace(v.URL) == "" {
		return domain.NewFieldError("url", "url is required")
	}
	return s.campaigns.AddVideo(ctx, v)
}

func (s *CampaignService) ListVideos(ctx context.Context, ownerID, campaignID int64) ([]domain.Video, error) {
	if _, err := s.Get(ctx, ownerID, campaignID); err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return s.campaigns.ListVideos(ctx, campaignID)
}

func (s *CampaignService) DeleteVideo(ctx context.Context, ownerID, videoID int64) error {
	v, err := s.campaigns.GetVideo(ctx, videoID)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if _, err := s.Get(ctx, ownerID, v.CampaignID); err != nil {
		return fmt.Errorf("delete video id=%d: %w", videoID, err)
	}
	return s.campaigns.DeleteVideo(ctx, videoID)
}

// Images

func (s *CampaignService) AddImage(ctx context.Context, ownerID int64, img *domain.Image) error {
	if _, err := s.Get(ctx, ownerID, img.CampaignID); err != nil {
		return fmt.Errorf("add image: %w", err)
	}
	if strings.TrimSpace(img.URL) == "" {
		return domain.NewFieldError("url", "url is required")
	}
	return s.campaigns.AddImage(ctx, img)
}

func (s *CampaignService) ListImages(ctx context.Context, ownerID, campaignID int64) ([]domain.Image, error) {
	if _, err := s.Get(ctx, ownerID, campaignID); err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	return s.campaigns.ListImages(ctx, campaignID)
}

func (s *CampaignService) DeleteImage(ctx context.Context, ownerID, imageID int64) error {
	img, err := s.campaigns.GetImage(ctx, imageID)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	if _, err := s.Get(ctx, ownerID, img.CampaignID); err != nil {
		return fmt.Errorf("delete image id=%d: %w", imageID, err)
	}
	return s.campaigns.DeleteImage(ctx, imageID)
}

// Analytics returns per-video view aggregates for one of the owner's campaigns.
func (s *CampaignService) Analytics(ctx context.Context, ownerID, campaignID int64) ([]domain.VideoStats, error) {
	if _, err := s.Get(ctx, ownerID, campaignID); err != nil {
		return nil, fmt.Errorf("campaign analytics: %w", err)
	}
	return s.analytics.CampaignVideoStats(ctx, campaignID)
}
