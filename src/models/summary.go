package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OpenLeg is a sold or bought contract quantity with no offsetting trade
// yet. The quantity is always positive; Action tells the direction.
type OpenLeg struct {
	Action     Action          `json:"action"`
	Strike     decimal.Decimal `json:"strike"`
	Expiration time.Time       `json:"expiration"`
	Quantity   int             `json:"quantity"`
}

// CampaignSummary is the value object produced by the analytics engine.
// BreakEvenPrice is nil when the campaign mixes strikes or option types so
// that no single break-even exists; that ambiguity is surfaced, never
// papered over with an approximation.
type CampaignSummary struct {
	Campaign        string           `json:"campaign"`
	Symbol          string           `json:"symbol"`
	NetPremium      decimal.Decimal  `json:"net_premium"`
	TotalCredits    decimal.Decimal  `json:"total_credits"`
	TotalDebits     decimal.Decimal  `json:"total_debits"`
	RealizedPL      decimal.Decimal  `json:"realized_pl"`
	OpenExposure    []OpenLeg        `json:"open_exposure"`
	BreakEvenPrice  *decimal.Decimal `json:"break_even_price,omitempty"`
	ElapsedWeeks    int64            `json:"elapsed_weeks"`
	ProfitPerWeek   decimal.Decimal  `json:"profit_per_week"`
	TargetExitPrice *decimal.Decimal `json:"target_exit_price,omitempty"`
}
