package inout

import "errors"

var (
	// ErrEmptyHistory means no price rows are available; the cycle is skipped.
	ErrEmptyHistory = errors.New("inout: price history is empty")
	// ErrInsufficientWindow means a rolling computation lacked enough rows.
	ErrInsufficientWindow = errors.New("inout: insufficient window")
	// ErrNoCandidate means no risk-off instrument could be selected.
	ErrNoCandidate = errors.New("inout: no out candidate")
	// ErrMissingQuote means an instruction was skipped for lack of a current price.
	ErrMissingQuote = errors.New("inout: missing quote")
)
