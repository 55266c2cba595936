package services

import (
	"context"
	"errors"
	"fmt"
	"street-screens-service/internal/platform/logging"
	"street-screens-service/internal/platform/metrics"
	"street-screens-service/internal/ports"
	"strings"
)

// ErrNoLink means the campaign exists but has no destination configured.
var ErrNoLink = errors.New("campaign has no destination link")

// NoLinkMessage is shown to people who scan a code without a destination.
const NoLinkMessage = "This advertisement does not have a destination link configured."

type QRService struct {
	campaigns ports.CampaignRepository
}

func NewQRService(campaigns ports.CampaignRepository) *QRService {
	return &QRService{campaigns: campaigns}
}

// Resolve returns the destination of a campaign's QR code and counts the
// scan. A failed count is logged and does not block the redirect.
func (s *QRService) Resolve(ctx context.Context, campaignID int64) (string, error) {
	c, err := s.campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		metrics.QRRedirects.WithLabelValues("not_found").Inc()
		return "", fmt.Errorf("qr redirect: %w", err)
	}

	link := strings.TrimSpace(c.Link)
	if link == "" {
		metrics.QRRedirects.WithLabelValues("no_link").Inc()
		return "", ErrNoLink
	}

	if err := s.campaigns.IncrementInvolveCount(ctx, campaignID); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("campaign_id", campaignID).Msg("qr: involve count not incremented")
	}

	metrics.QRRedirects.WithLabelValues("redirected").Inc()
	return link, nil
}
