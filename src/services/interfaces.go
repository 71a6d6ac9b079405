package services

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/shopspring/decimal"
	"github.com/username/wheelfolio/src/models"
	"github.com/username/wheelfolio/src/parsers"
)

var (
	ErrParsingFailed  = errors.New("csv parsing failed")
	ErrCampaignExists = errors.New("campaign already exists")
	ErrInvalidInput   = errors.New("invalid input")
)

// TradeRejection is a trade that parsed cleanly but was refused at add time,
// e.g. because its symbol does not match the campaign it was aimed at.
type TradeRejection struct {
	Trade models.Trade `json:"trade"`
	Err   error        `json:"-"`
}

func (r TradeRejection) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Trade  models.Trade `json:"trade"`
		Reason string       `json:"reason"`
	}{Trade: r.Trade, Reason: r.Err.Error()})
}

// ImportOutcome aggregates what an import did: the trades that were applied
// and persisted, per-row parse failures, non-fatal warnings, and add-time
// rejections. The caller decides what partial success means to the user.
type ImportOutcome struct {
	Applied   []models.Trade     `json:"applied"`
	RowErrors []parsers.RowError `json:"row_errors"`
	Warnings  []parsers.RowError `json:"warnings"`
	Rejected  []TradeRejection   `json:"rejected"`
	Campaigns []string           `json:"campaigns"`
}

// CampaignService is the orchestration layer between the HTTP surface and
// the core: parsing, campaign mutation, persistence and summary caching.
type CampaignService interface {
	CreateCampaign(name, symbol string, targetExitPrice *decimal.Decimal) (*models.Campaign, error)
	ListCampaigns() ([]models.Campaign, error)
	GetCampaign(name string) (*models.Campaign, error)
	AddTrade(campaignName string, trade models.Trade) (*models.Trade, error)
	UpdateTrade(campaignName string, tradeID int64, trade models.Trade) error
	ImportCSV(file io.Reader, source, symbol, campaignName string) (*ImportOutcome, error)
	Summary(campaignName string) (*models.CampaignSummary, error)
}
