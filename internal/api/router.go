package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/salonelite/salon-booking/internal/appointment"
	"github.com/salonelite/salon-booking/internal/booking"
	"github.com/salonelite/salon-booking/internal/catalog"
	"github.com/salonelite/salon-booking/internal/session"
)

// CatalogStore is a catalog that admins can also edit.
type CatalogStore interface {
	catalog.Catalog
	catalog.Writer
}

type RouterConfig struct {
	Booking *booking.Service
	Catalog CatalogStore
	Issuer  *session.Issuer
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(SessionMiddleware(cfg.Issuer))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/session", func(r chi.Router) {
		r.Post("/login", loginHandler(cfg.Issuer))
		r.Post("/register", registerHandler(cfg.Issuer))
		r.Post("/guest", guestHandler(cfg.Issuer))
	})

	r.Route("/services", func(r chi.Router) {
		r.Get("/", listServicesHandler(cfg.Catalog))
		r.Get("/{id}", getServiceHandler(cfg.Catalog))
		r.Group(func(r chi.Router) {
			r.Use(requireRole(session.RoleAdmin))
			r.Post("/", upsertServiceHandler(cfg.Catalog))
			r.Put("/{id}", upsertServiceHandler(cfg.Catalog))
			r.Delete("/{id}", deleteServiceHandler(cfg.Catalog))
		})
	})

	r.Route("/stylists", func(r chi.Router) {
		r.Get("/", listStylistsHandler(cfg.Catalog))
		r.Get("/{id}", getStylistHandler(cfg.Catalog))
		r.Group(func(r chi.Router) {
			r.Use(requireRole(session.RoleAdmin))
			r.Post("/", upsertStylistHandler(cfg.Catalog))
			r.Put("/{id}", upsertStylistHandler(cfg.Catalog))
			r.Delete("/{id}", deleteStylistHandler(cfg.Catalog))
		})
	})

	r.Get("/availability", availabilityHandler(cfg.Booking))

	r.Route("/appointments", func(r chi.Router) {
		r.Use(requireActor)
		r.Post("/", createAppointmentHandler(cfg.Booking))
		r.Get("/", listAppointmentsHandler(cfg.Booking))
		r.Get("/{id}", getAppointmentHandler(cfg.Booking))
		r.Patch("/{id}", updateAppointmentHandler(cfg.Booking))
		r.Post("/{id}/confirm", transitionHandler(cfg.Booking, appointment.StatusConfirmed))
		r.Post("/{id}/complete", transitionHandler(cfg.Booking, appointment.StatusCompleted))
		r.Post("/{id}/cancel", transitionHandler(cfg.Booking, appointment.StatusCancelled))
	})

	r.With(requireRole(session.RoleStylist)).Get("/agenda", agendaHandler(cfg.Booking))

	return r
}
