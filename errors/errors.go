// Package errors defines all exported error sentinels for the dphash library.
//
// This is the single source of truth for error values. The top-level
// dphash package and internal/hashfam import from here, so errors.Is
// checks work across package boundaries.
package errors

import "errors"

// Hash family errors.
var (
	// ErrOutOfRange is returned by the hash family when asked to draw a
	// function over a range R that is not strictly smaller than the
	// configured prime P.
	ErrOutOfRange = errors.New("dphash: hash range must be smaller than the configured prime")
)

// Construction errors.
var (
	ErrInvalidGrowthConstant = errors.New("dphash: threshold growth constant must be >= 1")
	ErrInvalidTopScale       = errors.New("dphash: top-level scale constant must be >= 1")
	ErrInvalidPrime          = errors.New("dphash: hash prime must be a 32-bit-or-larger prime")
)

