package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData marks a series too short for the requested lookback or horizon.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrMalformedBar rejects a series with corrupted input.
	ErrMalformedBar = errors.New("malformed bar")
	// ErrAuxiliaryUnavailable marks an auxiliary feed that could not be fetched or parsed.
	ErrAuxiliaryUnavailable = errors.New("auxiliary data unavailable")
	// ErrInvalidParameter rejects out-of-range strategy settings.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// MalformedBarError identifies the first offending bar of a rejected series.
type MalformedBarError struct {
	Index  int
	Reason string
}

func (e *MalformedBarError) Error() string {
	return fmt.Sprintf("malformed bar at index %d: %s", e.Index, e.Reason)
}

func (e *MalformedBarError) Unwrap() error { return ErrMalformedBar }
