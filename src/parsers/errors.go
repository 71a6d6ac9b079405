package parsers

import "errors"

// File-level: the header does not match the broker schema. The whole import
// aborts with zero rows applied.
var ErrSchema = errors.New("csv header does not match expected schema")

// Row-level: collected per row, the rest of the file still parses.
var (
	ErrInvalidAction        = errors.New("invalid action")
	ErrInvalidDate          = errors.New("invalid date")
	ErrUnsupportedTransCode = errors.New("unsupported transaction code")
	ErrAmountMismatch       = errors.New("amount sign contradicts action")
)
