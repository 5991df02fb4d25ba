package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cimillas/concert-ticketing/internal/domain"
)

type fakeTicketReader struct {
	tickets map[domain.TicketID]domain.Ticket
}

func (f *fakeTicketReader) GetTicket(_ context.Context, id domain.TicketID) (domain.Ticket, error) {
	ticket, ok := f.tickets[id]
	if !ok {
		return domain.Ticket{}, domain.ErrTicketNotFound
	}
	return ticket, nil
}

func (f *fakeTicketReader) ListTicketsByOwner(_ context.Context, owner domain.Identity) ([]domain.Ticket, error) {
	if owner == "" {
		return nil, domain.ErrIdentityRequired
	}
	var out []domain.Ticket
	for _, ticket := range f.tickets {
		if ticket.Owner == owner {
			out = append(out, ticket)
		}
	}
	return out, nil
}

func newFakeTicketReader() *fakeTicketReader {
	return &fakeTicketReader{tickets: map[domain.TicketID]domain.Ticket{
		0: {ID: 0, Owner: "alice", ConcertName: "Solstice"},
		1: {ID: 1, Owner: "bob", ConcertName: "Solstice"},
	}}
}

func TestHandleTicket(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		expectedCode   string
	}{
		{name: "found", path: "/tickets/1", expectedStatus: http.StatusOK},
		{name: "first ticket is zero", path: "/tickets/0", expectedStatus: http.StatusOK},
		{name: "unknown id", path: "/tickets/42", expectedStatus: http.StatusNotFound, expectedCode: codeTicketNotFound},
		{name: "invalid id", path: "/tickets/abc", expectedStatus: http.StatusBadRequest, expectedCode: codeInvalidID},
		{name: "negative id", path: "/tickets/-1", expectedStatus: http.StatusBadRequest, expectedCode: codeInvalidID},
		{name: "nested path", path: "/tickets/1/extra", expectedStatus: http.StatusNotFound, expectedCode: codeNotFound},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			HandleTicket(newFakeTicketReader()).ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
			if tt.expectedCode != "" {
				if got := decodeErrorCode(t, rec); got != tt.expectedCode {
					t.Fatalf("expected code %s, got %s", tt.expectedCode, got)
				}
			}
		})
	}
}

func TestHandleMyTickets(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/tickets", nil)
	req.Header.Set(callerIdentityHeader, "alice")
	rec := httptest.NewRecorder()

	HandleMyTickets(newFakeTicketReader()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var resp []ticketResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 || resp[0].Owner != "alice" {
		t.Fatalf("unexpected tickets %+v", resp)
	}
}

func TestHandleMyTickets_RequiresIdentity(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/tickets", nil)
	rec := httptest.NewRecorder()

	HandleMyTickets(newFakeTicketReader()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if got := decodeErrorCode(t, rec); got != codeIdentityRequired {
		t.Fatalf("expected code %s, got %s", codeIdentityRequired, got)
	}
}
