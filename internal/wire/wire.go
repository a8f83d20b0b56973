package wire

import (
	"net/http"

	"hostel-booking/internal/adaptor"
	"hostel-booking/internal/data/repository"
	"hostel-booking/internal/usecase"
	"hostel-booking/pkg/middleware"
	"hostel-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App holds the wired HTTP surface.
type App struct {
	Router *chi.Mux
}

// Deps are the shared clients built in main. Redis may be nil.
type Deps struct {
	Repo     *repository.Repository
	Notifier usecase.Notifier
	Redis    *redis.Client
	Config   *utils.Config
	Logger   *zap.Logger
}

func Wiring(deps Deps) *App {
	service := usecase.NewService(deps.Repo, deps.Notifier, deps.Logger)
	handler := adaptor.NewHandler(service, deps.Logger)

	return &App{
		Router: setupRouter(handler, deps),
	}
}

func setupRouter(handler *adaptor.Handler, deps Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Recover(deps.Logger))

	wireUser(r, handler.User, deps)
	wireRoom(r, handler.Room, deps)
	wireBooking(r, handler.Booking, deps)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
