package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cimillas/concert-ticketing/internal/app"
	"github.com/cimillas/concert-ticketing/internal/domain"
)

const maxBodyBytes = 1 << 20

// EventService is the minimal interface needed for the catalog endpoints.
type EventService interface {
	RegisterEvent(ctx context.Context, in app.RegisterEventInput) (domain.Event, error)
	GetEvent(ctx context.Context, name string) (domain.Event, error)
	ListEvents(ctx context.Context) ([]domain.Event, error)
}

// TicketBuyer is the minimal interface needed to buy a ticket.
type TicketBuyer interface {
	BuyTicket(ctx context.Context, in app.BuyTicketInput) (domain.Ticket, error)
}

// HandleEvents serves GET and POST on /events.
func HandleEvents(svc EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			events, err := svc.ListEvents(r.Context())
			if err != nil {
				writeDomainError(w, err)
				return
			}
			resp := make([]eventResponse, 0, len(events))
			for _, event := range events {
				resp = append(resp, toEventResponse(event))
			}
			writeJSON(w, http.StatusOK, resp)
		case http.MethodPost:
			var req registerEventRequest
			if !decodeBody(w, r, &req) {
				return
			}
			event, err := svc.RegisterEvent(r.Context(), app.RegisterEventInput{
				Name:         req.Name,
				Artist:       req.Artist,
				Date:         req.Date,
				Venue:        req.Venue,
				TicketPrice:  req.TicketPrice,
				TotalTickets: req.TotalTickets,
			})
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, toEventResponse(event))
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

// HandleEvent serves /events/{name} and /events/{name}/tickets.
func HandleEvent(svc EventService, buyer TicketBuyer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, sub, ok := parseEventPath(r.URL.EscapedPath())
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		switch sub {
		case "":
			if r.Method != http.MethodGet {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			event, err := svc.GetEvent(r.Context(), name)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toEventResponse(event))
		case "tickets":
			if r.Method != http.MethodPost {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			caller := CallerIdentity(r)
			if caller == "" {
				writeDomainError(w, domain.ErrIdentityRequired)
				return
			}
			var req buyTicketRequest
			if !decodeBody(w, r, &req) {
				return
			}
			ticket, err := buyer.BuyTicket(r.Context(), app.BuyTicketInput{
				ConcertName: name,
				Caller:      caller,
				Payment:     req.Payment,
			})
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, toTicketResponse(ticket))
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

// parseEventPath splits an escaped /events/{name}[/tickets] path. Names
// may contain encoded slashes, so segments are unescaped after splitting.
func parseEventPath(path string) (name, sub string, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || len(parts) > 3 || parts[0] != "events" {
		return "", "", false
	}
	name, err := url.PathUnescape(parts[1])
	if err != nil || strings.TrimSpace(name) == "" {
		return "", "", false
	}
	if len(parts) == 3 {
		sub = parts[2]
		if sub == "" {
			return "", "", false
		}
	}
	return name, sub, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return false
	}
	return true
}

type registerEventRequest struct {
	Name         string `json:"name"`
	Artist       string `json:"artist"`
	Date         string `json:"date"`
	Venue        string `json:"venue"`
	TicketPrice  uint64 `json:"ticket_price"`
	TotalTickets uint64 `json:"total_tickets"`
}

type buyTicketRequest struct {
	Payment uint64 `json:"payment"`
}

type eventResponse struct {
	Name             string    `json:"name"`
	Artist           string    `json:"artist"`
	Date             string    `json:"date"`
	Venue            string    `json:"venue"`
	TicketPrice      uint64    `json:"ticket_price"`
	TotalTickets     uint64    `json:"total_tickets"`
	RemainingTickets uint64    `json:"remaining_tickets"`
	State            string    `json:"state"`
	CreatedAt        time.Time `json:"created_at"`
}

func toEventResponse(e domain.Event) eventResponse {
	return eventResponse{
		Name:             e.Name,
		Artist:           e.Artist,
		Date:             e.Date,
		Venue:            e.Venue,
		TicketPrice:      e.TicketPrice,
		TotalTickets:     e.TotalTickets,
		RemainingTickets: e.RemainingTickets,
		State:            string(e.State()),
		CreatedAt:        e.CreatedAt,
	}
}
