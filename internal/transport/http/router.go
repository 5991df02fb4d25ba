package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/cimillas/concert-ticketing/internal/ratelimit"
)

// Services groups what the router dispatches to.
type Services struct {
	Events  EventService
	Buyer   TicketBuyer
	Tickets TicketReader
	// Limiter is optional. Purchases are unthrottled without one.
	Limiter ratelimit.Limiter
	// Metrics is optional and mounted on /metrics.
	Metrics http.Handler
	// Health optionally checks the storage backend on /health.
	Health func(ctx context.Context) error
}

// NewRouter builds the API mux. Middleware such as CORS and request
// logging is applied by the caller.
func NewRouter(svc Services, logger *slog.Logger) *http.ServeMux {
	var event http.Handler = HandleEvent(svc.Events, svc.Buyer)
	if svc.Limiter != nil {
		event = RateLimit(svc.Limiter, logger, event)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", HealthHandler(svc.Health))
	mux.Handle("/events", HandleEvents(svc.Events))
	mux.Handle("/events/", event)
	mux.Handle("/tickets", HandleMyTickets(svc.Tickets))
	mux.Handle("/tickets/", HandleTicket(svc.Tickets))
	if svc.Metrics != nil {
		mux.Handle("/metrics", svc.Metrics)
	}
	mux.Handle("/", NotFoundHandler())
	return mux
}
