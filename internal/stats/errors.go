package stats

import "errors"

var (
	// ErrEmptyInput reports that a calculation was given no events.
	ErrEmptyInput = errors.New("no events to analyze")
	// ErrDivisionUndefined reports that no day qualified for a per-day average.
	ErrDivisionUndefined = errors.New("no studied days after start date")
)
