package storage

import (
	"errors"

	"github.com/username/wheelfolio/src/models"
)

var ErrCampaignNotFound = errors.New("campaign not found")

// CampaignStore is the load/save boundary the core is written against.
// The analytics and import packages never touch it directly; the service
// layer wires their inputs and outputs through here.
type CampaignStore interface {
	// LoadCampaign returns the campaign with its trades in chronological
	// order (insertion order on ties), or ErrCampaignNotFound.
	LoadCampaign(name string) (*models.Campaign, error)
	// SaveCampaign upserts the campaign and its trades. Trades without an
	// ID are inserted and get one assigned; trades with an ID are updated
	// in place.
	SaveCampaign(campaign *models.Campaign) error
	// ListCampaigns returns all campaigns, newest first, without trades.
	ListCampaigns() ([]models.Campaign, error)
}
