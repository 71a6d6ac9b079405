package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SharesPerContract is the standard US option contract multiplier: one
// contract controls 100 shares, so every premium cash flow is
// quantity * price * 100.
const SharesPerContract = 100

var (
	ErrInvalidTrade   = errors.New("invalid trade")
	ErrSymbolMismatch = errors.New("trade symbol does not match campaign symbol")
	ErrTradeNotFound  = errors.New("trade not found")
)

// Trade is one canonical option transaction, independent of the broker
// format it came from.
type Trade struct {
	ID         int64            `json:"id"`
	Symbol     string           `json:"symbol"`
	Quantity   int              `json:"quantity"` // contracts, always > 0; direction comes from Action
	Price      decimal.Decimal  `json:"price"`    // per-share premium
	Date       time.Time        `json:"date"`
	Action     Action           `json:"action"`
	Strike     decimal.Decimal  `json:"strike"`
	Expiration time.Time        `json:"expiration"`
	Delta      *decimal.Decimal `json:"delta,omitempty"` // nil when the source omits it
	Campaign   string           `json:"campaign"`
}

// Validate checks the trade invariants shared by manual entry and import.
func (t *Trade) Validate() error {
	if strings.TrimSpace(t.Symbol) == "" {
		return fmt.Errorf("%w: empty symbol", ErrInvalidTrade)
	}
	if t.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidTrade, t.Quantity)
	}
	if t.Price.IsNegative() {
		return fmt.Errorf("%w: negative price %s", ErrInvalidTrade, t.Price)
	}
	if !t.Strike.IsPositive() {
		return fmt.Errorf("%w: strike must be positive, got %s", ErrInvalidTrade, t.Strike)
	}
	if _, err := ParseAction(string(t.Action)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTrade, err)
	}
	if t.Expiration.Before(t.Date) {
		return fmt.Errorf("%w: expiration %s before trade date %s",
			ErrInvalidTrade, t.Expiration.Format("2006-01-02"), t.Date.Format("2006-01-02"))
	}
	if t.Delta != nil {
		one := decimal.NewFromInt(1)
		if t.Delta.LessThan(one.Neg()) || t.Delta.GreaterThan(one) {
			return fmt.Errorf("%w: delta %s outside [-1, 1]", ErrInvalidTrade, t.Delta)
		}
	}
	return nil
}

// CashFlow is the signed premium of the trade: positive for sells (credit),
// negative for buys (debit).
func (t *Trade) CashFlow() decimal.Decimal {
	gross := t.Price.Mul(decimal.NewFromInt(int64(t.Quantity) * SharesPerContract))
	if t.Action.IsSell() {
		return gross
	}
	return gross.Neg()
}

// Campaign is a named, symbol-scoped container of trades. Campaigns own
// their trades; a trade never moves between campaigns.
type Campaign struct {
	Name            string           `json:"name"`
	Symbol          string           `json:"symbol"`
	TargetExitPrice *decimal.Decimal `json:"target_exit_price,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	Trades          []Trade          `json:"trades,omitempty"`
}

// AddTrade validates the trade and appends it. A trade whose symbol does not
// match the campaign symbol is rejected, whether it comes from an import or
// manual entry.
func (c *Campaign) AddTrade(t Trade) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if !strings.EqualFold(t.Symbol, c.Symbol) {
		return fmt.Errorf("%w: %s vs campaign %s (%s)", ErrSymbolMismatch, t.Symbol, c.Name, c.Symbol)
	}
	t.Symbol = strings.ToUpper(t.Symbol)
	t.Campaign = c.Name
	c.Trades = append(c.Trades, t)
	return nil
}

// UpdateTrade replaces the trade with the given id in place. Identity,
// campaign membership and position in the sequence are preserved.
func (c *Campaign) UpdateTrade(id int64, t Trade) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if !strings.EqualFold(t.Symbol, c.Symbol) {
		return fmt.Errorf("%w: %s vs campaign %s (%s)", ErrSymbolMismatch, t.Symbol, c.Name, c.Symbol)
	}
	for i := range c.Trades {
		if c.Trades[i].ID == id {
			t.ID = id
			t.Symbol = strings.ToUpper(t.Symbol)
			t.Campaign = c.Name
			c.Trades[i] = t
			return nil
		}
	}
	return fmt.Errorf("%w: id %d in campaign %s", ErrTradeNotFound, id, c.Name)
}

// SortedTrades returns a copy of the trades in chronological order, ties
// broken by insertion order. The campaign itself is never reordered.
func (c *Campaign) SortedTrades() []Trade {
	out := make([]Trade, len(c.Trades))
	copy(out, c.Trades)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
