package domain

import "errors"

var (
	ErrBatchNotFound          = errors.New("batch not found")
	ErrReservationNotFound    = errors.New("reservation not found")
	ErrCapacityExceeded       = errors.New("capacity exceeded")
	ErrAlreadyResolved        = errors.New("reservation already resolved")
	ErrInvalidQuantity        = errors.New("invalid quantity")
	ErrInvalidTotalQuantity   = errors.New("total quantity below committed quantity")
	ErrInvalidHolder          = errors.New("invalid holder reference")
	ErrOrderReferenceRequired = errors.New("order reference required")
	ErrBatchTerminal          = errors.New("batch is expired or retired")
	ErrInvalidID              = errors.New("invalid id")
)
