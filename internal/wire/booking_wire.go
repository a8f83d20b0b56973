package wire

import (
	"hostel-booking/internal/adaptor"
	"hostel-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
)

func wireBooking(r chi.Router, bookingHandler *adaptor.BookingHandler, deps Deps) {
	// ==================== RESIDENT ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(deps.Repo.Session, deps.Logger))

		// POST /api/bookings - submit a booking request
		r.With(middleware.RateLimit(deps.Redis, deps.Config.RateLimit, "bookings", deps.Logger)).
			Post("/api/bookings", bookingHandler.CreateBooking)

		// GET /api/user/bookings - own booking history
		r.Get("/api/user/bookings", bookingHandler.GetUserBookings)
	})

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/bookings", func(r chi.Router) {
		r.Use(middleware.AuthSession(deps.Repo.Session, deps.Logger))
		r.Use(middleware.Admin(deps.Repo.User, deps.Logger))

		r.Get("/", bookingHandler.ListBookings)
		r.Get("/{id}", bookingHandler.GetBookingByID)

		// PUT /api/admin/bookings/{id}/status - approve, reject or cancel
		r.Put("/{id}/status", bookingHandler.SetBookingStatus)
	})
}
