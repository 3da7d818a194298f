package market

import "errors"

var (
	ErrNotListed         = errors.New("stock not available")
	ErrNotHeld           = errors.New("stock not held")
	ErrNotEnoughShares   = errors.New("not enough shares")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidShares     = errors.New("shares must be positive")
	ErrNoPrice           = errors.New("cannot determine current price")
)
