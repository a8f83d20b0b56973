package wire

import (
	"hostel-booking/internal/adaptor"
	"hostel-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
)

func wireRoom(r chi.Router, roomHandler *adaptor.RoomHandler, deps Deps) {
	// ==================== PUBLIC ROUTES ====================
	r.Get("/api/rooms", roomHandler.ListRooms)
	r.Get("/api/rooms/{id}", roomHandler.GetRoom)

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/rooms", func(r chi.Router) {
		r.Use(middleware.AuthSession(deps.Repo.Session, deps.Logger))
		r.Use(middleware.Admin(deps.Repo.User, deps.Logger))

		r.Post("/", roomHandler.CreateRoom)
		r.Put("/{id}/maintenance", roomHandler.SetMaintenance)
		r.Post("/{id}/recount", roomHandler.RecountOccupancy)
	})
}
