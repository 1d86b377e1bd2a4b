package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrInvalidOrderSize = errors.New("invalid order size")
	ErrEmptyLadder      = errors.New("empty ladder")
	ErrInvalidSide      = errors.New("invalid side")
	ErrRateLimited      = errors.New("rate limited")
	ErrWSDisconnect     = errors.New("websocket disconnected")
)

// InsufficientLiquidityError reports that a single ladder could not absorb
// the requested order size. Both quantities travel with the error so the
// boundary layer can tell callers how much was fillable.
type InsufficientLiquidityError struct {
	Filled    float64
	Requested float64
}

func (e *InsufficientLiquidityError) Error() string {
	return fmt.Sprintf("insufficient liquidity: filled %g of %g", e.Filled, e.Requested)
}

// InsufficientAggregateLiquidityError reports that all candidate markets
// together could not absorb a routed order; Missing is the unfilled remainder.
type InsufficientAggregateLiquidityError struct {
	Missing float64
}

func (e *InsufficientAggregateLiquidityError) Error() string {
	return fmt.Sprintf("insufficient aggregate liquidity: %g unfilled across all markets", e.Missing)
}
