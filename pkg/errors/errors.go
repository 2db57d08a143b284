package errors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrEmptyKey     = errors.New("empty key")
	ErrEmptySymbol  = errors.New("empty symbol")
	ErrEntityExists = errors.New("entity already exists")
	ErrInvalidData  = errors.New("invalid data type")
	ErrNoMetrics    = errors.New("no metrics records")
)
