package engine

import "errors"

var (
	// ErrValidation wraps malformed order specs: bad side, non-positive
	// quantity or price, missing fields for the order's type.
	ErrValidation = errors.New("invalid order")
	// ErrWouldTakeLiquidity rejects a post-only order that would cross the book.
	ErrWouldTakeLiquidity = errors.New("post-only order would take liquidity")
	// ErrInsufficientDepth kills a fill-or-kill order that cannot fill completely.
	ErrInsufficientDepth = errors.New("insufficient depth for fill-or-kill")
	// ErrUnknownSymbol is returned for symbols with no configured pair.
	ErrUnknownSymbol = errors.New("unknown symbol")
)
