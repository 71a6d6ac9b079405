package models

import (
	"errors"
	"fmt"
)

// OptionType distinguishes the two contract kinds.
type OptionType string

const (
	OptionCall OptionType = "Call"
	OptionPut  OptionType = "Put"
)

// Action is the canonical vocabulary for option transactions. Broker-specific
// codes (STO, BTC, ...) are mapped onto this set by the importers; nothing
// downstream of the parsers ever sees a broker code.
type Action string

const (
	ActionSellPut  Action = "SellPut"
	ActionBuyPut   Action = "BuyPut"
	ActionSellCall Action = "SellCall"
	ActionBuyCall  Action = "BuyCall"
)

var ErrUnknownAction = errors.New("unknown action")

// ParseAction accepts only the exact canonical literals.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionSellPut, ActionBuyPut, ActionSellCall, ActionBuyCall:
		return Action(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// ActionFor combines an option type with a trade direction.
func ActionFor(optionType OptionType, sell bool) Action {
	if optionType == OptionPut {
		if sell {
			return ActionSellPut
		}
		return ActionBuyPut
	}
	if sell {
		return ActionSellCall
	}
	return ActionBuyCall
}

// IsSell reports whether the action credits the account.
func (a Action) IsSell() bool {
	return a == ActionSellPut || a == ActionSellCall
}

// OptionType returns the contract kind the action operates on.
func (a Action) OptionType() OptionType {
	if a == ActionSellPut || a == ActionBuyPut {
		return OptionPut
	}
	return OptionCall
}
