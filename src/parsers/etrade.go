package parsers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/username/wheelfolio/src/models"
	"github.com/username/wheelfolio/src/utils"
)

var etradeHeader = []string{
	"Symbol", "Quantity", "Price", "Date", "Action",
	"Strike", "Expiration", "Delta", "Campaign",
}

// ETradeParser maps the fixed-column ETrade export directly to canonical
// trades. Every column already speaks the canonical vocabulary, so the only
// work is positional parsing and per-row validation.
type ETradeParser struct{}

func NewETradeParser() *ETradeParser {
	return &ETradeParser{}
}

func (p *ETradeParser) Parse(file io.Reader) (*Result, error) {
	reader := csv.NewReader(file)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read header: %v", ErrSchema, err)
	}
	if err := checkHeader(header, etradeHeader); err != nil {
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

		trade, err := p.parseRow(record)
		if err != nil {
			result.Failed = append(result.Failed, RowError{Line: line, Err: err})
			continue
		}
		result.Trades = append(result.Trades, trade)
	}

	return result, nil
}

func (p *ETradeParser) parseRow(record []string) (models.Trade, error) {
	var trade models.Trade

	trade.Symbol = strings.ToUpper(strings.TrimSpace(record[0]))

	quantity, err := strconv.Atoi(strings.TrimSpace(record[1]))
	if err != nil {
		return trade, fmt.Errorf("%w: quantity %q", utils.ErrMalformedNumber, record[1])
	}
	trade.Quantity = quantity

	trade.Price, err = utils.ParseMoney(record[2])
	if err != nil {
		return trade, fmt.Errorf("price: %w", err)
	}

	trade.Date, err = utils.ParseISODate(strings.TrimSpace(record[3]))
	if err != nil {
		return trade, fmt.Errorf("%w: date %q", ErrInvalidDate, record[3])
	}

	trade.Action, err = models.ParseAction(strings.TrimSpace(record[4]))
	if err != nil {
		return trade, fmt.Errorf("%w: %q", ErrInvalidAction, record[4])
	}

	trade.Strike, err = utils.ParseMoney(record[5])
	if err != nil {
		return trade, fmt.Errorf("strike: %w", err)
	}

	trade.Expiration, err = utils.ParseISODate(strings.TrimSpace(record[6]))
	if err != nil {
		return trade, fmt.Errorf("%w: expiration %q", ErrInvalidDate, record[6])
	}

	// An empty delta means absent, not zero.
	if deltaStr := strings.TrimSpace(record[7]); deltaStr != "" {
		delta, err := decimal.NewFromString(deltaStr)
		if err != nil {
			return trade, fmt.Errorf("%w: delta %q", utils.ErrMalformedNumber, record[7])
		}
		trade.Delta = &delta
	}

	trade.Campaign = strings.TrimSpace(record[8])

	if err := trade.Validate(); err != nil {
		return trade, err
	}
	return trade, nil
}

func checkHeader(got, want []string) error {
	if len(got) != len(want) {
		return fmt.Errorf("%w: expected %d columns, got %d", ErrSchema, len(want), len(got))
	}
	for i := range want {
		if strings.TrimSpace(strings.TrimPrefix(got[i], "\uFEFF")) != want[i] {
			return fmt.Errorf("%w: column %d is %q, expected %q", ErrSchema, i+1, got[i], want[i])
		}
	}
	return nil
}
