package domain

import (
	"strconv"
	"time"
)

// TicketID is assigned sequentially from zero and never reused.
type TicketID uint64

func (id TicketID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseTicketID parses a decimal ticket id.
func ParseTicketID(s string) (TicketID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidID
	}
	return TicketID(n), nil
}

// Identity is the opaque token of a purchasing caller, supplied by the host.
type Identity string

// Ticket is an owned claim on one unit of an event's supply.
type Ticket struct {
	ID          TicketID
	Owner       Identity
	ConcertName string
	PurchasedAt time.Time
}
