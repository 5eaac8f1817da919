package screener

import "errors"

var (
	// ErrEmptyUniverse is returned when a screening request carries no symbols.
	// It is a caller-correctable validation failure; no fetching is attempted.
	ErrEmptyUniverse = errors.New("universe must be a non-empty list")

	// ErrNoUsableQuote signals that a symbol's quote had a missing or
	// non-positive price. The orchestrator drops the symbol silently.
	ErrNoUsableQuote = errors.New("no usable quote")

	// ErrRunHistoryUnavailable is returned by run-history lookups when no
	// repository is configured.
	ErrRunHistoryUnavailable = errors.New("run history not available")
)
