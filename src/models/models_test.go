package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func validTrade() Trade {
	return Trade{
		Symbol:     "APLD",
		Quantity:   3,
		Price:      decimal.RequireFromString("0.23"),
		Date:       day("2025-06-25"),
		Action:     ActionBuyCall,
		Strike:     decimal.RequireFromString("10.00"),
		Expiration: day("2025-06-27"),
	}
}

func TestTradeValidate(t *testing.T) {
	trade := validTrade()
	assert.NoError(t, trade.Validate())

	zeroQty := validTrade()
	zeroQty.Quantity = 0
	assert.ErrorIs(t, zeroQty.Validate(), ErrInvalidTrade)

	negPrice := validTrade()
	negPrice.Price = decimal.RequireFromString("-0.10")
	assert.ErrorIs(t, negPrice.Validate(), ErrInvalidTrade)

	expired := validTrade()
	expired.Expiration = day("2025-06-20")
	assert.ErrorIs(t, expired.Validate(), ErrInvalidTrade)

	badDelta := validTrade()
	d := decimal.RequireFromString("1.5")
	badDelta.Delta = &d
	assert.ErrorIs(t, badDelta.Validate(), ErrInvalidTrade)

	noSymbol := validTrade()
	noSymbol.Symbol = "  "
	assert.ErrorIs(t, noSymbol.Validate(), ErrInvalidTrade)
}

func TestTradeCashFlow(t *testing.T) {
	sell := Trade{
		Symbol: "NVTS", Quantity: 1, Action: ActionSellPut,
		Price:  decimal.RequireFromString("2.50"),
		Strike: decimal.RequireFromString("150"),
		Date:   day("2025-06-01"), Expiration: day("2025-06-20"),
	}
	assert.True(t, sell.CashFlow().Equal(decimal.NewFromInt(250)), "got %s", sell.CashFlow())

	buy := sell
	buy.Action = ActionBuyPut
	buy.Quantity = 2
	assert.True(t, buy.CashFlow().Equal(decimal.NewFromInt(-500)), "got %s", buy.CashFlow())
}

func TestCampaignAddTrade(t *testing.T) {
	campaign := &Campaign{Name: "apld-june", Symbol: "APLD", CreatedAt: day("2025-06-01")}

	trade := validTrade()
	trade.Symbol = "apld" // case-insensitive match, stored uppercase
	require.NoError(t, campaign.AddTrade(trade))
	require.Len(t, campaign.Trades, 1)
	assert.Equal(t, "APLD", campaign.Trades[0].Symbol)
	assert.Equal(t, "apld-june", campaign.Trades[0].Campaign)

	wrongSymbol := validTrade()
	wrongSymbol.Symbol = "TSLA"
	assert.ErrorIs(t, campaign.AddTrade(wrongSymbol), ErrSymbolMismatch)
	assert.Len(t, campaign.Trades, 1)
}

func TestCampaignUpdateTrade(t *testing.T) {
	campaign := &Campaign{Name: "apld-june", Symbol: "APLD", CreatedAt: day("2025-06-01")}

	first := validTrade()
	require.NoError(t, campaign.AddTrade(first))
	second := validTrade()
	second.Action = ActionSellCall
	require.NoError(t, campaign.AddTrade(second))

	campaign.Trades[0].ID = 11
	campaign.Trades[1].ID = 12

	edited := validTrade()
	edited.Quantity = 5
	require.NoError(t, campaign.UpdateTrade(11, edited))

	// Identity and position are preserved by an edit.
	assert.Equal(t, int64(11), campaign.Trades[0].ID)
	assert.Equal(t, 5, campaign.Trades[0].Quantity)
	assert.Equal(t, ActionSellCall, campaign.Trades[1].Action)

	assert.ErrorIs(t, campaign.UpdateTrade(99, edited), ErrTradeNotFound)

	moved := validTrade()
	moved.Symbol = "TSLA"
	assert.ErrorIs(t, campaign.UpdateTrade(11, moved), ErrSymbolMismatch)
}

func TestCampaignSortedTrades(t *testing.T) {
	campaign := &Campaign{Name: "apld-june", Symbol: "APLD", CreatedAt: day("2025-06-01")}

	late := validTrade()
	late.Date = day("2025-06-26")
	late.Expiration = day("2025-06-27")
	require.NoError(t, campaign.AddTrade(late))

	early := validTrade()
	early.Date = day("2025-06-10")
	require.NoError(t, campaign.AddTrade(early))

	tied := validTrade()
	tied.Date = day("2025-06-10")
	tied.Action = ActionSellCall
	require.NoError(t, campaign.AddTrade(tied))

	sorted := campaign.SortedTrades()
	require.Len(t, sorted, 3)
	assert.Equal(t, day("2025-06-10"), sorted[0].Date)
	assert.Equal(t, ActionBuyCall, sorted[0].Action) // insertion order breaks the tie
	assert.Equal(t, ActionSellCall, sorted[1].Action)
	assert.Equal(t, day("2025-06-26"), sorted[2].Date)

	// The campaign's own sequence is untouched.
	assert.Equal(t, day("2025-06-26"), campaign.Trades[0].Date)
}

func TestParseAction(t *testing.T) {
	for _, valid := range []string{"SellPut", "BuyPut", "SellCall", "BuyCall"} {
		action, err := ParseAction(valid)
		require.NoError(t, err)
		assert.Equal(t, Action(valid), action)
	}
	_, err := ParseAction("HoldPut")
	assert.ErrorIs(t, err, ErrUnknownAction)
	_, err = ParseAction("sellput")
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestActionFor(t *testing.T) {
	assert.Equal(t, ActionSellPut, ActionFor(OptionPut, true))
	assert.Equal(t, ActionBuyPut, ActionFor(OptionPut, false))
	assert.Equal(t, ActionSellCall, ActionFor(OptionCall, true))
	assert.Equal(t, ActionBuyCall, ActionFor(OptionCall, false))

	assert.True(t, ActionSellCall.IsSell())
	assert.False(t, ActionBuyPut.IsSell())
	assert.Equal(t, OptionPut, ActionBuyPut.OptionType())
	assert.Equal(t, OptionCall, ActionSellCall.OptionType())
}
