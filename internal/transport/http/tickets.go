package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/cimillas/concert-ticketing/internal/domain"
)

// TicketReader is the minimal interface needed for the ticket lookups.
type TicketReader interface {
	GetTicket(ctx context.Context, id domain.TicketID) (domain.Ticket, error)
	ListTicketsByOwner(ctx context.Context, owner domain.Identity) ([]domain.Ticket, error)
}

// HandleMyTickets lists the tickets owned by the calling identity.
func HandleMyTickets(svc TicketReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
		tickets, err := svc.ListTicketsByOwner(r.Context(), CallerIdentity(r))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		resp := make([]ticketResponse, 0, len(tickets))
		for _, ticket := range tickets {
			resp = append(resp, toTicketResponse(ticket))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleTicket serves GET /tickets/{id}.
func HandleTicket(svc TicketReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
		raw, ok := parseTicketPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}
		id, err := domain.ParseTicketID(raw)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		ticket, err := svc.GetTicket(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toTicketResponse(ticket))
	}
}

func parseTicketPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[0] != "tickets" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

type ticketResponse struct {
	TicketID    uint64    `json:"ticket_id"`
	Owner       string    `json:"owner"`
	ConcertName string    `json:"concert_name"`
	PurchasedAt time.Time `json:"purchased_at"`
}

func toTicketResponse(t domain.Ticket) ticketResponse {
	return ticketResponse{
		TicketID:    uint64(t.ID),
		Owner:       string(t.Owner),
		ConcertName: t.ConcertName,
		PurchasedAt: t.PurchasedAt,
	}
}
