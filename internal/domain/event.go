package domain

import "time"

type EventState string

const (
	EventStateAvailable EventState = "available"
	EventStateSoldOut   EventState = "sold_out"
)

// Event represents a show with a fixed ticket price and a fixed supply.
// RemainingTickets never exceeds TotalTickets and only moves down.
type Event struct {
	Name             string
	Artist           string
	Date             string
	Venue            string
	TicketPrice      uint64
	TotalTickets     uint64
	RemainingTickets uint64
	CreatedAt        time.Time
}

// State projects the sales state from the remaining supply.
func (e Event) State() EventState {
	if e.RemainingTickets == 0 {
		return EventStateSoldOut
	}
	return EventStateAvailable
}

// Sold reports how many tickets have been issued for the event.
func (e Event) Sold() uint64 {
	return e.TotalTickets - e.RemainingTickets
}
