package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cimillas/concert-ticketing/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AllocationRepository struct {
	pool *pgxpool.Pool
}

func NewAllocationRepository(pool *pgxpool.Pool) *AllocationRepository {
	return &AllocationRepository{pool: pool}
}

func (r *AllocationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *AllocationRepository) GetEventForUpdate(ctx context.Context, name string) (domain.Event, error) {
	const query = `SELECT ` + eventColumns + ` FROM events WHERE name = $1 FOR UPDATE`
	return scanEvent(conn(ctx, r.pool).QueryRow(ctx, query, name))
}

// DecrementRemaining takes one unit in a single statement; the WHERE clause
// and the table CHECK keep remaining_tickets from going negative.
func (r *AllocationRepository) DecrementRemaining(ctx context.Context, name string) (uint64, error) {
	const stmt = `
UPDATE events
SET remaining_tickets = remaining_tickets - 1
WHERE name = $1 AND remaining_tickets > 0
RETURNING ticket_price`

	q := conn(ctx, r.pool)
	var price int64
	err := q.QueryRow(ctx, stmt, name).Scan(&price)
	if err == nil {
		return uint64(price), nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		if isCheckViolation(err) {
			return 0, domain.ErrSoldOut
		}
		return 0, fmt.Errorf("decrement remaining: %w", err)
	}

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE name = $1)`, name).Scan(&exists); err != nil {
		return 0, fmt.Errorf("check event: %w", err)
	}
	if !exists {
		return 0, domain.ErrEventNotFound
	}
	return 0, domain.ErrSoldOut
}

// NextTicketID bumps the counter row. The row lock is held until the
// surrounding transaction ends, and a rollback restores the value.
func (r *AllocationRepository) NextTicketID(ctx context.Context) (domain.TicketID, error) {
	const stmt = `UPDATE ticket_counter SET next_id = next_id + 1 WHERE id = TRUE RETURNING next_id - 1`
	var id int64
	if err := conn(ctx, r.pool).QueryRow(ctx, stmt).Scan(&id); err != nil {
		return 0, fmt.Errorf("next ticket id: %w", err)
	}
	return domain.TicketID(id), nil
}

func (r *AllocationRepository) CreateTicket(ctx context.Context, ticket domain.Ticket) error {
	id, err := toBigint(uint64(ticket.ID))
	if err != nil {
		return err
	}

	const stmt = `
INSERT INTO tickets (id, owner, concert_name, purchased_at)
VALUES ($1, $2, $3, $4)`
	_, err = conn(ctx, r.pool).Exec(ctx, stmt, id, string(ticket.Owner), ticket.ConcertName, ticket.PurchasedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrEventNotFound
		}
		return fmt.Errorf("create ticket: %w", err)
	}
	return nil
}

func (r *AllocationRepository) GetTicket(ctx context.Context, id domain.TicketID) (domain.Ticket, error) {
	key, err := toBigint(uint64(id))
	if err != nil {
		return domain.Ticket{}, domain.ErrTicketNotFound
	}
	const query = `SELECT id, owner, concert_name, purchased_at FROM tickets WHERE id = $1`
	t, err := scanTicket(conn(ctx, r.pool).QueryRow(ctx, query, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Ticket{}, domain.ErrTicketNotFound
	}
	return t, err
}

func (r *AllocationRepository) ListTicketsByOwner(ctx context.Context, owner domain.Identity) ([]domain.Ticket, error) {
	const query = `
SELECT id, owner, concert_name, purchased_at
FROM tickets
WHERE owner = $1
ORDER BY id ASC`
	rows, err := conn(ctx, r.pool).Query(ctx, query, string(owner))
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate tickets: %w", rows.Err())
	}
	return tickets, nil
}

func scanTicket(row pgx.Row) (domain.Ticket, error) {
	var (
		t     domain.Ticket
		id    int64
		owner string
	)
	if err := row.Scan(&id, &owner, &t.ConcertName, &t.PurchasedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Ticket{}, err
		}
		return domain.Ticket{}, fmt.Errorf("scan ticket: %w", err)
	}
	t.ID = domain.TicketID(id)
	t.Owner = domain.Identity(owner)
	t.PurchasedAt = t.PurchasedAt.UTC()
	return t, nil
}
