package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cimillas/concert-ticketing/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CatalogRepository struct {
	pool *pgxpool.Pool
}

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

const eventColumns = `name, artist, date, venue, ticket_price, total_tickets, remaining_tickets, created_at`

func (r *CatalogRepository) CreateEvent(ctx context.Context, event domain.Event) error {
	price, err := toBigint(event.TicketPrice)
	if err != nil {
		return err
	}
	total, err := toBigint(event.TotalTickets)
	if err != nil {
		return err
	}
	remaining, err := toBigint(event.RemainingTickets)
	if err != nil {
		return err
	}

	const stmt = `
INSERT INTO events (` + eventColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = conn(ctx, r.pool).Exec(ctx, stmt,
		event.Name,
		event.Artist,
		event.Date,
		event.Venue,
		price,
		total,
		remaining,
		event.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEventAlreadyExists
		}
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (r *CatalogRepository) GetEvent(ctx context.Context, name string) (domain.Event, error) {
	const query = `SELECT ` + eventColumns + ` FROM events WHERE name = $1`
	return scanEvent(conn(ctx, r.pool).QueryRow(ctx, query, name))
}

func (r *CatalogRepository) ListEvents(ctx context.Context) ([]domain.Event, error) {
	const query = `SELECT ` + eventColumns + ` FROM events ORDER BY created_at ASC, name ASC`
	rows, err := conn(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate events: %w", rows.Err())
	}
	return events, nil
}

func scanEvent(row pgx.Row) (domain.Event, error) {
	var (
		e                       domain.Event
		price, total, remaining int64
	)
	err := row.Scan(&e.Name, &e.Artist, &e.Date, &e.Venue, &price, &total, &remaining, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Event{}, domain.ErrEventNotFound
		}
		return domain.Event{}, fmt.Errorf("scan event: %w", err)
	}
	e.TicketPrice = uint64(price)
	e.TotalTickets = uint64(total)
	e.RemainingTickets = uint64(remaining)
	e.CreatedAt = e.CreatedAt.UTC()
	return e, nil
}
