package processors

import (
	"time"

	"github.com/username/wheelfolio/src/models"
)

// CampaignProcessor derives summary statistics from a campaign's trade
// sequence. Implementations are pure: they never mutate the campaign and
// are safe to call concurrently over read snapshots.
type CampaignProcessor interface {
	Summarize(campaign *models.Campaign, now time.Time) models.CampaignSummary
}
