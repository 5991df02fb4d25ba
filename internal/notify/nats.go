// Package notify publishes sale notifications after a purchase commits.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/cimillas/concert-ticketing/internal/domain"
)

const DefaultSubject = "tickets.sold"

type Config struct {
	URL            string
	Subject        string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		URL:            nats.DefaultURL,
		Subject:        DefaultSubject,
		MaxReconnects:  10,
		ReconnectWait:  2 * time.Second,
		ConnectTimeout: 5 * time.Second,
	}
}

func (c Config) Validate() error {
	if c.URL == "" {
		return errors.New("nats url cannot be empty")
	}
	if !strings.HasPrefix(c.URL, "nats://") && !strings.HasPrefix(c.URL, "tls://") {
		return errors.New("nats url must start with nats:// or tls://")
	}
	if strings.TrimSpace(c.Subject) == "" {
		return errors.New("nats subject cannot be empty")
	}
	return nil
}

// Connect dials NATS with the reconnect settings from cfg.
func Connect(cfg Config) (*nats.Conn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid nats config: %w", err)
	}
	conn, err := nats.Connect(cfg.URL,
		nats.Name("concert-ticketing"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return conn, nil
}

// publisher is the part of *nats.Conn the notifier uses.
type publisher interface {
	PublishMsg(msg *nats.Msg) error
}

// TicketSold is the payload published for every committed sale.
type TicketSold struct {
	TicketID    uint64    `json:"ticket_id"`
	Owner       string    `json:"owner"`
	ConcertName string    `json:"concert_name"`
	PurchasedAt time.Time `json:"purchased_at"`
}

// NATSPublisher implements app.TicketNotifier.
type NATSPublisher struct {
	conn    publisher
	subject string
}

func NewNATSPublisher(conn publisher, subject string) *NATSPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSPublisher{conn: conn, subject: subject}
}

func (p *NATSPublisher) TicketSold(ctx context.Context, ticket domain.Ticket) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(TicketSold{
		TicketID:    uint64(ticket.ID),
		Owner:       string(ticket.Owner),
		ConcertName: ticket.ConcertName,
		PurchasedAt: ticket.PurchasedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode ticket sold: %w", err)
	}

	msg := nats.NewMsg(p.subject)
	msg.Data = data
	// Lets JetStream drop duplicates if a publish is retried.
	msg.Header.Set(nats.MsgIdHdr, ticket.ID.String())

	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}
	return nil
}
