package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	consentsvc "github.com/ivankudzin/skillswap/internal/services/consent"
	matchingsvc "github.com/ivankudzin/skillswap/internal/services/matching"
	statssvc "github.com/ivankudzin/skillswap/internal/services/stats"
	"github.com/ivankudzin/skillswap/internal/transport/http/handlers"
)

type Dependencies struct {
	MatchingService *matchingsvc.Service
	ConsentService  *consentsvc.Service
	StatsService    *statssvc.Service
	Tokens          TokenParser
	Logger          *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	matchingHandler := handlers.NewMatchingHandler(deps.MatchingService, deps.ConsentService)
	statsHandler := handlers.NewStatsHandler(deps.StatsService)

	r.Get("/healthz", healthHandler.Get)
	r.Get("/matches/stats/today", statsHandler.Today)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(deps.Tokens, deps.Logger))
		r.Post("/matches/start", matchingHandler.Start)
		r.Get("/matches/me", matchingHandler.Me)
		r.Get("/matches/{id}", matchingHandler.Get)
		r.Post("/matches/{id}/agreement", matchingHandler.Agreement)
	})
}
