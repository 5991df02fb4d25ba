package app

import (
	"context"
	"errors"
	"time"

	"github.com/cimillas/concert-ticketing/internal/clock"
	"github.com/cimillas/concert-ticketing/internal/domain"
)

// AllocationRepository owns tickets and the ticket id counter. Every mutating
// call must run inside WithTx so that supply, counter and ticket table change
// together or not at all.
type AllocationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetEventForUpdate(ctx context.Context, name string) (domain.Event, error)
	// DecrementRemaining takes one unit of supply and returns the ticket price.
	DecrementRemaining(ctx context.Context, name string) (uint64, error)
	NextTicketID(ctx context.Context) (domain.TicketID, error)
	CreateTicket(ctx context.Context, ticket domain.Ticket) error
	GetTicket(ctx context.Context, id domain.TicketID) (domain.Ticket, error)
	ListTicketsByOwner(ctx context.Context, owner domain.Identity) ([]domain.Ticket, error)
}

// TicketNotifier is told about committed sales.
type TicketNotifier interface {
	TicketSold(ctx context.Context, ticket domain.Ticket) error
}

// PurchaseRecorder observes every purchase attempt.
type PurchaseRecorder interface {
	RecordPurchase(ctx context.Context, concert string, outcome string, d time.Duration)
}

const (
	OutcomeSold             = "sold"
	OutcomeSoldOut          = "sold_out"
	OutcomeNotFound         = "not_found"
	OutcomeIncorrectPayment = "incorrect_payment"
	OutcomeRejected         = "rejected"
	OutcomeError            = "error"
)

// PurchaseOutcome classifies the result of BuyTicket for metrics.
func PurchaseOutcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSold
	case errors.Is(err, domain.ErrSoldOut):
		return OutcomeSoldOut
	case errors.Is(err, domain.ErrEventNotFound):
		return OutcomeNotFound
	case errors.Is(err, domain.ErrIncorrectPayment):
		return OutcomeIncorrectPayment
	case errors.Is(err, domain.ErrIdentityRequired):
		return OutcomeRejected
	default:
		return OutcomeError
	}
}

type AllocationService struct {
	repo          AllocationRepository
	clock         clock.Clock
	policy        PaymentPolicy
	notifier      TicketNotifier
	recorder      PurchaseRecorder
	onNotifyError func(error)
}

func NewAllocationService(repo AllocationRepository, clk clock.Clock, opts ...AllocationServiceOption) *AllocationService {
	svc := &AllocationService{
		repo:          repo,
		clock:         clk,
		policy:        PolicyValidateFirst,
		recorder:      nopRecorder{},
		onNotifyError: func(error) {},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type AllocationServiceOption func(*AllocationService)

// WithPaymentPolicy overrides the default validate-first policy.
func WithPaymentPolicy(p PaymentPolicy) AllocationServiceOption {
	return func(s *AllocationService) {
		if p != "" {
			s.policy = p
		}
	}
}

// WithNotifier publishes committed sales. Failures are passed to onErr and
// never undo the sale.
func WithNotifier(n TicketNotifier, onErr func(error)) AllocationServiceOption {
	return func(s *AllocationService) {
		s.notifier = n
		if onErr != nil {
			s.onNotifyError = onErr
		}
	}
}

func WithRecorder(r PurchaseRecorder) AllocationServiceOption {
	return func(s *AllocationService) {
		if r != nil {
			s.recorder = r
		}
	}
}

func (s *AllocationService) Policy() PaymentPolicy {
	return s.policy
}

type BuyTicketInput struct {
	ConcertName string
	Caller      domain.Identity
	Payment     uint64
}

// BuyTicket sells one ticket for the named event to the caller. It is not
// idempotent: every successful call mints a new ticket.
func (s *AllocationService) BuyTicket(ctx context.Context, in BuyTicketInput) (domain.Ticket, error) {
	started := time.Now()
	ticket, err := s.buy(ctx, in)
	s.recorder.RecordPurchase(ctx, in.ConcertName, PurchaseOutcome(err), time.Since(started))
	if err != nil {
		return domain.Ticket{}, err
	}

	if s.notifier != nil {
		if err := s.notifier.TicketSold(ctx, ticket); err != nil {
			s.onNotifyError(err)
		}
	}
	return ticket, nil
}

func (s *AllocationService) buy(ctx context.Context, in BuyTicketInput) (domain.Ticket, error) {
	if in.Caller == "" {
		return domain.Ticket{}, domain.ErrIdentityRequired
	}
	if in.ConcertName == "" {
		return domain.Ticket{}, domain.ErrEventNotFound
	}

	now := s.clock.Now()
	var result domain.Ticket
	// Set when decrement-first commits a unit for a mismatched payment.
	var burned bool

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		switch s.policy {
		case PolicyDecrementFirst:
			price, err := s.repo.DecrementRemaining(txCtx, in.ConcertName)
			if err != nil {
				return err
			}
			if in.Payment != price {
				burned = true
				return nil
			}
		default:
			event, err := s.repo.GetEventForUpdate(txCtx, in.ConcertName)
			if err != nil {
				return err
			}
			if event.RemainingTickets == 0 {
				return domain.ErrSoldOut
			}
			if in.Payment != event.TicketPrice {
				return domain.ErrIncorrectPayment
			}
			if _, err := s.repo.DecrementRemaining(txCtx, in.ConcertName); err != nil {
				return err
			}
		}

		id, err := s.repo.NextTicketID(txCtx)
		if err != nil {
			return err
		}

		ticket := domain.Ticket{
			ID:          id,
			Owner:       in.Caller,
			ConcertName: in.ConcertName,
			PurchasedAt: now,
		}
		if err := s.repo.CreateTicket(txCtx, ticket); err != nil {
			return err
		}

		result = ticket
		return nil
	})
	if err != nil {
		return domain.Ticket{}, err
	}
	if burned {
		return domain.Ticket{}, domain.ErrIncorrectPayment
	}
	return result, nil
}

func (s *AllocationService) GetTicket(ctx context.Context, id domain.TicketID) (domain.Ticket, error) {
	return s.repo.GetTicket(ctx, id)
}

func (s *AllocationService) ListTicketsByOwner(ctx context.Context, owner domain.Identity) ([]domain.Ticket, error) {
	if owner == "" {
		return nil, domain.ErrIdentityRequired
	}
	return s.repo.ListTicketsByOwner(ctx, owner)
}

type nopRecorder struct{}

func (nopRecorder) RecordPurchase(context.Context, string, string, time.Duration) {}
