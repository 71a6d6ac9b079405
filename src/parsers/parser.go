package parsers

import (
	"fmt"
	"io"

	"github.com/username/wheelfolio/src/models"
)

// Options carries caller-side import scoping. Campaign and Symbol drive the
// Robinhood importer (multi-symbol statements scoped to one campaign); the
// ETrade schema names the campaign per row, so that importer ignores them.
type Options struct {
	Campaign string
	Symbol   string
}

// RowError ties a row-level diagnostic to its 1-based line in the source
// file. It wraps the underlying sentinel so callers can errors.Is against
// ErrInvalidAction, ErrInvalidDate and friends.
type RowError struct {
	Line int   `json:"line"`
	Err  error `json:"-"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

func (e RowError) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`{"line":%d,"reason":%q}`, e.Line, e.Err.Error())), nil
}

// Result is the outcome of parsing one file: the canonical trades, the rows
// that failed, and non-fatal per-row warnings. Partial success is the
// caller's call; the parser just reports.
type Result struct {
	Trades   []models.Trade `json:"trades"`
	Failed   []RowError     `json:"failed"`
	Warnings []RowError     `json:"warnings"`
}

type Parser interface {
	Parse(file io.Reader) (*Result, error)
}
