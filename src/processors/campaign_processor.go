package processors

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/wheelfolio/src/models"
	"github.com/username/wheelfolio/src/utils"
)

// campaignProcessorImpl implements the CampaignProcessor interface.
type campaignProcessorImpl struct{}

// NewCampaignProcessor creates a new instance of CampaignProcessor.
func NewCampaignProcessor() CampaignProcessor {
	return &campaignProcessorImpl{}
}

// Summarize computes the campaign statistics over a chronological snapshot
// of the trades. All arithmetic stays in exact decimals.
func (p *campaignProcessorImpl) Summarize(campaign *models.Campaign, now time.Time) models.CampaignSummary {
	trades := campaign.SortedTrades()

	summary := models.CampaignSummary{
		Campaign:        campaign.Name,
		Symbol:          campaign.Symbol,
		TargetExitPrice: campaign.TargetExitPrice,
		OpenExposure:    []models.OpenLeg{},
	}

	for i := range trades {
		flow := trades[i].CashFlow()
		summary.NetPremium = summary.NetPremium.Add(flow)
		if trades[i].Action.IsSell() {
			summary.TotalCredits = summary.TotalCredits.Add(flow)
		} else {
			summary.TotalDebits = summary.TotalDebits.Add(flow.Neg())
		}
	}

	summary.RealizedPL, summary.OpenExposure = matchLegs(trades)
	summary.BreakEvenPrice = breakEvenPrice(trades, summary.NetPremium)

	summary.ElapsedWeeks = elapsedWeeks(campaign.CreatedAt, now)
	summary.ProfitPerWeek = summary.RealizedPL.Div(decimal.NewFromInt(summary.ElapsedWeeks))

	return summary
}

// legKey buckets trades that refer to the same contract.
type legKey struct {
	strike     string
	expiration string
	optionType models.OptionType
}

// openLot is an unmatched remainder of one trade.
type openLot struct {
	trade     *models.Trade
	remaining int
}

// matchLegs pairs opening and closing trades FIFO within each
// (strike, expiration, option type) bucket. The realized P/L is the premium
// collected minus the premium paid over matched quantities only; unmatched
// remainders come back as open exposure.
func matchLegs(trades []models.Trade) (decimal.Decimal, []models.OpenLeg) {
	buckets := make(map[legKey][]models.Trade)
	var order []legKey
	for i := range trades {
		key := legKey{
			strike:     trades[i].Strike.String(),
			expiration: utils.FormatISODate(trades[i].Expiration),
			optionType: trades[i].Action.OptionType(),
		}
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], trades[i])
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].expiration != order[j].expiration {
			return order[i].expiration < order[j].expiration
		}
		if order[i].strike != order[j].strike {
			return order[i].strike < order[j].strike
		}
		return order[i].optionType < order[j].optionType
	})

	realized := decimal.Decimal{}
	var open []models.OpenLeg

	for _, key := range order {
		txs := buckets[key]

		var openLong []*openLot
		var openShort []*openLot

		for i := range txs {
			current := &txs[i]
			perShare := current.Price
			remaining := current.Quantity

			if current.Action.IsSell() {
				// A sell closes open long lots first (FIFO); any remainder
				// opens a new short position.
				for remaining > 0 && len(openLong) > 0 {
					lot := openLong[0]
					matched := utils.MinInt(remaining, lot.remaining)

					realized = realized.Add(
						perShare.Sub(lot.trade.Price).
							Mul(decimal.NewFromInt(int64(matched) * models.SharesPerContract)))

					remaining -= matched
					lot.remaining -= matched
					if lot.remaining == 0 {
						openLong = openLong[1:]
					}
				}
				if remaining > 0 {
					openShort = append(openShort, &openLot{trade: current, remaining: remaining})
				}
			} else {
				// A buy closes open short lots first (FIFO); any remainder
				// opens a new long position.
				for remaining > 0 && len(openShort) > 0 {
					lot := openShort[0]
					matched := utils.MinInt(remaining, lot.remaining)

					realized = realized.Add(
						lot.trade.Price.Sub(perShare).
							Mul(decimal.NewFromInt(int64(matched) * models.SharesPerContract)))

					remaining -= matched
					lot.remaining -= matched
					if lot.remaining == 0 {
						openShort = openShort[1:]
					}
				}
				if remaining > 0 {
					openLong = append(openLong, &openLot{trade: current, remaining: remaining})
				}
			}
		}

		for _, lot := range openShort {
			open = append(open, models.OpenLeg{
				Action:     lot.trade.Action,
				Strike:     lot.trade.Strike,
				Expiration: lot.trade.Expiration,
				Quantity:   lot.remaining,
			})
		}
		for _, lot := range openLong {
			open = append(open, models.OpenLeg{
				Action:     lot.trade.Action,
				Strike:     lot.trade.Strike,
				Expiration: lot.trade.Expiration,
				Quantity:   lot.remaining,
			})
		}
	}

	if open == nil {
		open = []models.OpenLeg{}
	}
	return realized, open
}

// breakEvenPrice computes the underlying price at which the strategy nets
// zero at expiration. It is only defined when every trade shares one strike
// and one option type and premium was actually sold; anything else returns
// nil rather than a misleading number.
func breakEvenPrice(trades []models.Trade, netPremium decimal.Decimal) *decimal.Decimal {
	if len(trades) == 0 {
		return nil
	}

	strike := trades[0].Strike
	optionType := trades[0].Action.OptionType()
	soldContracts := 0
	for i := range trades {
		if !trades[i].Strike.Equal(strike) || trades[i].Action.OptionType() != optionType {
			return nil
		}
		if trades[i].Action.IsSell() {
			soldContracts += trades[i].Quantity
		}
	}
	if soldContracts == 0 {
		return nil
	}

	creditPerShare := netPremium.Div(decimal.NewFromInt(int64(soldContracts) * models.SharesPerContract))

	var breakEven decimal.Decimal
	if optionType == models.OptionPut {
		breakEven = strike.Sub(creditPerShare)
	} else {
		breakEven = strike.Add(creditPerShare)
	}
	return &breakEven
}

// elapsedWeeks is ceil(days/7) with a floor of one week, so a campaign
// younger than a day cannot inflate its per-week profit.
func elapsedWeeks(createdAt, now time.Time) int64 {
	days := int64(now.Sub(createdAt).Hours() / 24)
	weeks := (days + 6) / 7
	if weeks < 1 {
		weeks = 1
	}
	return weeks
}
