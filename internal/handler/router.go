package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Shivanand-hulikatti/ticketpass/internal/auth"
	"github.com/Shivanand-hulikatti/ticketpass/internal/model"
)

// Deps are the collaborators the router dispatches to.
type Deps struct {
	Auth     AuthService
	Events   EventService
	Bookings BookingService
	Passes   PassVerifier
	Tokens   auth.Verifier
	DB       Pinger
	Metrics  http.Handler // optional, mounted at /metrics
	Logger   *slog.Logger
	Limiter  *LoginLimiter // optional
}

// NewRouter builds the complete HTTP surface of the service.
func NewRouter(d Deps) http.Handler {
	authH := NewAuthHandler(d.Auth, d.Logger)
	eventH := NewEventHandler(d.Events, d.Logger)
	bookingH := NewBookingHandler(d.Bookings, d.Logger)
	validateH := NewValidateHandler(d.Passes, d.Logger)

	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(d.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(CORS)

	r.Get("/health", HealthCheck(d.DB))
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authH.Register)
			r.With(d.Limiter.Middleware).Post("/login", authH.Login)
		})

		r.Get("/events/{id}", eventH.GetEvent)
		r.Post("/validate", validateH.Validate)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate(d.Tokens))

			r.Post("/bookings", bookingH.CreateBooking)
			r.Get("/bookings", bookingH.ListMyPasses)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(model.RoleOrganizer))

				r.Post("/events", eventH.CreateEvent)
				r.Patch("/events/{id}/deactivate", eventH.DeactivateEvent)
				r.Delete("/events/{id}", eventH.DeleteEvent)
				r.Get("/organizer/events", eventH.ListOrganizerEvents)
				r.Delete("/bookings/{id}", bookingH.RevokeBooking)
			})
		})
	})

	return r
}
