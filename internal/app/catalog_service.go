package app

import (
	"context"
	"strings"

	"github.com/cimillas/concert-ticketing/internal/clock"
	"github.com/cimillas/concert-ticketing/internal/domain"
)

// CatalogRepository owns the event collection. CreateEvent must report
// domain.ErrEventAlreadyExists without mutating anything when the name is taken.
type CatalogRepository interface {
	CreateEvent(ctx context.Context, event domain.Event) error
	GetEvent(ctx context.Context, name string) (domain.Event, error)
	ListEvents(ctx context.Context) ([]domain.Event, error)
}

type CatalogService struct {
	repo  CatalogRepository
	clock clock.Clock
}

func NewCatalogService(repo CatalogRepository, clk clock.Clock) *CatalogService {
	return &CatalogService{
		repo:  repo,
		clock: clk,
	}
}

type RegisterEventInput struct {
	Name         string
	Artist       string
	Date         string
	Venue        string
	TicketPrice  uint64
	TotalTickets uint64
}

// RegisterEvent inserts a new event with its full supply remaining.
// Zero price and zero supply are accepted.
func (s *CatalogService) RegisterEvent(ctx context.Context, in RegisterEventInput) (domain.Event, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Event{}, domain.ErrEventNameRequired
	}

	event := domain.Event{
		Name:             name,
		Artist:           in.Artist,
		Date:             in.Date,
		Venue:            in.Venue,
		TicketPrice:      in.TicketPrice,
		TotalTickets:     in.TotalTickets,
		RemainingTickets: in.TotalTickets,
		CreatedAt:        s.clock.Now(),
	}

	if err := s.repo.CreateEvent(ctx, event); err != nil {
		return domain.Event{}, err
	}
	return event, nil
}

func (s *CatalogService) GetEvent(ctx context.Context, name string) (domain.Event, error) {
	if name == "" {
		return domain.Event{}, domain.ErrEventNotFound
	}
	return s.repo.GetEvent(ctx, name)
}

func (s *CatalogService) ListEvents(ctx context.Context) ([]domain.Event, error) {
	return s.repo.ListEvents(ctx)
}
