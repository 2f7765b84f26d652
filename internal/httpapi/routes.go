package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/rackhouse/poolhall-backend/internal/auth"
	"github.com/rackhouse/poolhall-backend/internal/engine"
	"github.com/rackhouse/poolhall-backend/internal/hub"
	"github.com/rackhouse/poolhall-backend/internal/ratelimit"
	"github.com/rackhouse/poolhall-backend/internal/store"
	"github.com/rackhouse/poolhall-backend/internal/ws"
)

type Deps struct {
	Hub       *hub.Hub
	Store     *store.Store
	Limiter   *ratelimit.Limiter
	Logger    *zap.Logger
	JWTSecret string
	InviteTTL time.Duration
}

func SetupRoutes(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(d.Hub, d.JWTSecret, hallLoader(d.Store, d.InviteTTL), d.Logger))

	r.Route("/api", func(r chi.Router) {
		r.Use(d.Limiter.Middleware)
		r.Get("/pool-halls", ListHalls(d.Store, d.Logger))
		r.With(auth.Middleware(d.JWTSecret), auth.RequireAdmin).
			Post("/pool-halls", RegisterHall(d.Store, d.Logger))
	})

	return r
}

// hallLoader seeds a cold hall actor from the registered catalog.
func hallLoader(s *store.Store, inviteTTL time.Duration) ws.LoadHall {
	return func(ctx context.Context, hallID string) (engine.State, error) {
		h, err := s.GetHall(ctx, hallID)
		if err != nil {
			return engine.State{}, err
		}
		seats := make([]engine.TableSeat, 0, len(h.Tables))
		for _, t := range h.Tables {
			seats = append(seats, engine.TableSeat{ID: t.ID, Number: t.Number})
		}
		return engine.NewState(h.ID, seats, inviteTTL), nil
	}
}
