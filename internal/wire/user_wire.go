package wire

import (
	"hostel-booking/internal/adaptor"
	"hostel-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
)

func wireUser(r chi.Router, userHandler *adaptor.UserHandler, deps Deps) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(deps.Repo.Session, deps.Logger))

		// GET /api/user/profile - the signed-in resident
		r.Get("/api/user/profile", userHandler.GetProfile)
	})
}
