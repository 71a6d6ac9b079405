package parsers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/wheelfolio/src/models"
	"github.com/username/wheelfolio/src/utils"
)

var robinhoodHeader = []string{
	"Activity Date", "Process Date", "Settle Date", "Instrument",
	"Description", "Trans Code", "Quantity", "Price", "Amount",
}

// A Robinhood statement mixes option trades with stock trades, dividends,
// fees and transfers. The only reliable marker for an option row is the
// shape of its free-text description, e.g. "APLD 6/27/2025 Call $10.00".
var optionDescriptionRe = regexp.MustCompile(
	`^(?P<symbol>[A-Z][A-Z0-9.]*) (?P<month>\d{1,2})/(?P<day>\d{1,2})/(?P<year>\d{1,4}) (?P<type>Call|Put) \$(?P<strike>[\d,.]+)$`)

// optionLeg is the structured result of decoding a description.
type optionLeg struct {
	symbol     string
	expiration time.Time
	optionType models.OptionType
	strike     decimal.Decimal
}

// parseOptionDescription decodes the option-trade description pattern.
// Returns false for anything else (stock trades, dividends, transfers);
// their absence from an import is expected, not an error.
func parseOptionDescription(description string) (optionLeg, bool) {
	m := optionDescriptionRe.FindStringSubmatch(strings.TrimSpace(description))
	if m == nil {
		return optionLeg{}, false
	}

	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	year, _ := strconv.Atoi(m[4])
	if year < 100 {
		year += 2000
	}
	expiration := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range components; a 13th month or 32nd day
	// means the description only looked like an option leg.
	if int(expiration.Month()) != month || expiration.Day() != day {
		return optionLeg{}, false
	}

	strike, err := utils.ParseMoney(m[6])
	if err != nil || !strike.IsPositive() {
		return optionLeg{}, false
	}

	return optionLeg{
		symbol:     m[1],
		expiration: expiration,
		optionType: models.OptionType(m[5]),
		strike:     strike,
	}, true
}

// RobinhoodParser extracts option trades from a Robinhood transaction
// statement, scoped to one underlying symbol and tagged with one campaign.
type RobinhoodParser struct {
	symbol   string
	campaign string
}

func NewRobinhoodParser(symbol, campaign string) *RobinhoodParser {
	return &RobinhoodParser{
		symbol:   strings.ToUpper(strings.TrimSpace(symbol)),
		campaign: campaign,
	}
}

func (p *RobinhoodParser) Parse(file io.Reader) (*Result, error) {
	reader := csv.NewReader(file)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read header: %v", ErrSchema, err)
	}
	if err := checkHeader(header, robinhoodHeader); err != nil {
		return nil, err
	}

	result := &Result{}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				result.Failed = append(result.Failed, RowError{Line: line, Err: err})
				continue
			}
			return nil, fmt.Errorf("failed to read CSV records: %w", err)
		}

		leg, ok := parseOptionDescription(record[4])
		if !ok {
			continue // not an option row
		}
		if p.symbol != "" && leg.symbol != p.symbol {
			continue // option trade for another underlying
		}

		trade, warn, err := p.parseRow(record, leg)
		if err != nil {
			result.Failed = append(result.Failed, RowError{Line: line, Err: err})
			continue
		}
		if warn != nil {
			result.Warnings = append(result.Warnings, RowError{Line: line, Err: warn})
		}
		result.Trades = append(result.Trades, trade)
	}

	return result, nil
}

func (p *RobinhoodParser) parseRow(record []string, leg optionLeg) (trade models.Trade, warn, err error) {
	transCode := strings.TrimSpace(record[5])
	switch transCode {
	case "STO":
		trade.Action = models.ActionFor(leg.optionType, true)
	case "BTC":
		trade.Action = models.ActionFor(leg.optionType, false)
	default:
		return trade, nil, fmt.Errorf("%w: %q", ErrUnsupportedTransCode, transCode)
	}

	// Direction comes from the trans code; a negative source quantity is
	// taken in absolute value.
	quantity, err := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(record[6]), ",", ""))
	if err != nil {
		return trade, nil, fmt.Errorf("%w: quantity %q", utils.ErrMalformedNumber, record[6])
	}
	trade.Quantity = utils.AbsInt(quantity)

	trade.Price, err = utils.ParseMoney(record[7])
	if err != nil {
		return trade, nil, fmt.Errorf("price: %w", err)
	}

	amount, err := utils.ParseMoney(record[8])
	if err != nil {
		return trade, nil, fmt.Errorf("amount: %w", err)
	}

	trade.Date, err = parseUSDate(strings.TrimSpace(record[0]))
	if err != nil {
		return trade, nil, fmt.Errorf("%w: activity date %q", ErrInvalidDate, record[0])
	}

	trade.Symbol = leg.symbol
	trade.Strike = leg.strike
	trade.Expiration = leg.expiration
	trade.Campaign = p.campaign
	// Delta is not present in Robinhood statements.

	if err := trade.Validate(); err != nil {
		return trade, nil, err
	}

	// Sells should credit the account and buys should debit it. A
	// contradiction is worth surfacing but not worth dropping the row.
	if trade.Action.IsSell() && amount.IsNegative() {
		warn = fmt.Errorf("%w: %s with amount %s", ErrAmountMismatch, trade.Action, amount)
	} else if !trade.Action.IsSell() && amount.IsPositive() {
		warn = fmt.Errorf("%w: %s with amount %s", ErrAmountMismatch, trade.Action, amount)
	}

	return trade, warn, nil
}

// parseUSDate parses M/D/YYYY with optional zero padding.
func parseUSDate(s string) (time.Time, error) {
	t, err := time.Parse("1/2/2006", s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}
