package domain

import "errors"

var (
	ErrEventNameRequired  = errors.New("event name required")
	ErrEventAlreadyExists = errors.New("event already exists")
	ErrEventNotFound      = errors.New("event not found")
	ErrSoldOut            = errors.New("event sold out")
	ErrIncorrectPayment   = errors.New("incorrect payment amount")
	ErrIdentityRequired   = errors.New("caller identity required")
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrAmountOutOfRange   = errors.New("amount out of range")
	ErrInvalidID          = errors.New("invalid id")
)
