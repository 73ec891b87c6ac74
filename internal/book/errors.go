package book

import "errors"

var (
	// ErrInvalidPrice is returned when a non-positive price would enter the book.
	ErrInvalidPrice = errors.New("price must be > 0")
)
