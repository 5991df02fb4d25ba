// Package memory is an in-process backend for the catalog and allocation
// repositories. A single mutex serializes every transaction, so a purchase
// observes and mutates one consistent snapshot.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cimillas/concert-ticketing/internal/domain"
)

type txKey struct{}

// tx collects undo steps for the running transaction.
type tx struct {
	undo []func()
}

type Store struct {
	mu      sync.Mutex
	events  map[string]domain.Event
	tickets map[domain.TicketID]domain.Ticket
	nextID  domain.TicketID
}

func New() *Store {
	return &Store{
		events:  make(map[string]domain.Event),
		tickets: make(map[domain.TicketID]domain.Ticket),
	}
}

// WithTx runs fn holding the store lock. Mutations made by fn are undone in
// reverse order if fn returns an error. Nested calls join the outer transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{}
	txCtx := context.WithValue(ctx, txKey{}, t)
	if err := fn(txCtx); err != nil {
		t.rollback()
		return err
	}
	// Commit point; a context cancelled mid-transaction still rolls back.
	if err := ctx.Err(); err != nil {
		t.rollback()
		return err
	}
	return nil
}

func (t *tx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func txFromContext(ctx context.Context) *tx {
	t, _ := ctx.Value(txKey{}).(*tx)
	return t
}

// lock takes the store mutex unless ctx already carries a transaction, which
// holds it. The returned func releases whatever was taken.
func (s *Store) lock(ctx context.Context) (*tx, func()) {
	if t := txFromContext(ctx); t != nil {
		return t, func() {}
	}
	s.mu.Lock()
	return nil, s.mu.Unlock
}

func (s *Store) CreateEvent(ctx context.Context, event domain.Event) error {
	t, unlock := s.lock(ctx)
	defer unlock()

	if _, exists := s.events[event.Name]; exists {
		return domain.ErrEventAlreadyExists
	}
	s.events[event.Name] = event
	if t != nil {
		t.undo = append(t.undo, func() { delete(s.events, event.Name) })
	}
	return nil
}

func (s *Store) GetEvent(ctx context.Context, name string) (domain.Event, error) {
	_, unlock := s.lock(ctx)
	defer unlock()

	event, ok := s.events[name]
	if !ok {
		return domain.Event{}, domain.ErrEventNotFound
	}
	return event, nil
}

// GetEventForUpdate is GetEvent; the transaction already holds the store lock.
func (s *Store) GetEventForUpdate(ctx context.Context, name string) (domain.Event, error) {
	return s.GetEvent(ctx, name)
}

func (s *Store) ListEvents(ctx context.Context) ([]domain.Event, error) {
	_, unlock := s.lock(ctx)
	defer unlock()

	out := make([]domain.Event, 0, len(s.events))
	for _, event := range s.events {
		out = append(out, event)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) DecrementRemaining(ctx context.Context, name string) (uint64, error) {
	t, unlock := s.lock(ctx)
	defer unlock()

	event, ok := s.events[name]
	if !ok {
		return 0, domain.ErrEventNotFound
	}
	if event.RemainingTickets == 0 {
		return 0, domain.ErrSoldOut
	}
	event.RemainingTickets--
	s.events[name] = event
	if t != nil {
		t.undo = append(t.undo, func() {
			e := s.events[name]
			e.RemainingTickets++
			s.events[name] = e
		})
	}
	return event.TicketPrice, nil
}

func (s *Store) NextTicketID(ctx context.Context) (domain.TicketID, error) {
	t, unlock := s.lock(ctx)
	defer unlock()

	id := s.nextID
	s.nextID++
	if t != nil {
		t.undo = append(t.undo, func() { s.nextID = id })
	}
	return id, nil
}

func (s *Store) CreateTicket(ctx context.Context, ticket domain.Ticket) error {
	t, unlock := s.lock(ctx)
	defer unlock()

	if _, ok := s.events[ticket.ConcertName]; !ok {
		return domain.ErrEventNotFound
	}
	if _, exists := s.tickets[ticket.ID]; exists {
		return fmt.Errorf("create ticket: duplicate id %d", ticket.ID)
	}
	s.tickets[ticket.ID] = ticket
	if t != nil {
		t.undo = append(t.undo, func() { delete(s.tickets, ticket.ID) })
	}
	return nil
}

func (s *Store) GetTicket(ctx context.Context, id domain.TicketID) (domain.Ticket, error) {
	_, unlock := s.lock(ctx)
	defer unlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return domain.Ticket{}, domain.ErrTicketNotFound
	}
	return ticket, nil
}

func (s *Store) ListTicketsByOwner(ctx context.Context, owner domain.Identity) ([]domain.Ticket, error) {
	_, unlock := s.lock(ctx)
	defer unlock()

	var out []domain.Ticket
	for _, ticket := range s.tickets {
		if ticket.Owner == owner {
			out = append(out, ticket)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Snapshot returns copies of all events and tickets plus the counter value.
// Callers outside a transaction get a consistent view.
func (s *Store) Snapshot(ctx context.Context) ([]domain.Event, []domain.Ticket, domain.TicketID) {
	_, unlock := s.lock(ctx)
	defer unlock()

	events := make([]domain.Event, 0, len(s.events))
	for _, e := range s.events {
		events = append(events, e)
	}
	tickets := make([]domain.Ticket, 0, len(s.tickets))
	for _, t := range s.tickets {
		tickets = append(tickets, t)
	}
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].ID < tickets[j].ID })
	return events, tickets, s.nextID
}
