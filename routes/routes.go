package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Dosada05/swiss-system/handlers"
	"github.com/Dosada05/swiss-system/middleware"
)

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Tournament *handlers.TournamentHandler
	Seating    *handlers.SeatingHandler
	Match      *handlers.MatchHandler
	Timer      *handlers.TimerHandler
	WebSocket  *handlers.WebSocketHandler
}

func SetupRoutes(router *chi.Mux, h Handlers, jwtSecret []byte, allowedOrigins []string) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)

	organizer := middleware.Authorize(middleware.RoleOrganizer, middleware.RoleAdmin)
	admin := middleware.Authorize(middleware.RoleAdmin)

	router.Route("/api", func(api chi.Router) {
		api.Route("/tournaments", func(r chi.Router) {
			// Публичные маршруты
			r.Get("/{tournamentID}", h.Tournament.GetByIDHandler)
			r.Get("/{tournamentID}/standings", h.Tournament.StandingsHandler)
			r.Get("/{tournamentID}/matches", h.Tournament.ListMatchesHandler)
			r.Get("/{tournamentID}/rounds/current", h.Tournament.CurrentRoundHandler)
			r.Get("/{tournamentID}/rounds/{roundNumber}/timer", h.Timer.GetHandler)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Authenticate(jwtSecret))
				r.Use(organizer)

				r.Post("/", h.Tournament.CreateHandler)
				r.Post("/{tournamentID}/participants", h.Tournament.RegisterParticipantHandler)
				r.Delete("/{tournamentID}/participants/{participantID}", h.Tournament.DropParticipantHandler)

				r.Put("/{tournamentID}/participants/{participantID}/seat", h.Seating.AssignSeatHandler)
				r.Delete("/{tournamentID}/participants/{participantID}/seat", h.Seating.ClearSeatHandler)
				r.Post("/{tournamentID}/seating/randomize", h.Seating.RandomizeHandler)
				r.Post("/{tournamentID}/draft/start", h.Seating.StartDraftHandler)

				r.Post("/{tournamentID}/rounds/{roundNumber}/timer/start", h.Timer.StartHandler)
				r.Post("/{tournamentID}/rounds/{roundNumber}/timer/pause", h.Timer.PauseHandler)
				r.Post("/{tournamentID}/rounds/{roundNumber}/timer/resume", h.Timer.ResumeHandler)
				r.Put("/{tournamentID}/rounds/{roundNumber}/timer/duration", h.Timer.UpdateDurationHandler)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.Authenticate(jwtSecret))
				r.Use(admin)
				r.Post("/{tournamentID}/complete", h.Tournament.CompleteHandler)
			})
		})

		api.Route("/matches/{matchID}", func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))

			r.With(organizer).Post("/result", h.Match.SubmitResultHandler)
			r.With(admin).Put("/result", h.Match.OverrideResultHandler)
		})
	})
}
