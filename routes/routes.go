package routes

import (
	"net/http"

	"github.com/courtflow/scheduler/handlers"
	"github.com/courtflow/scheduler/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Template  *handlers.TemplateHandler
	Bracket   *handlers.BracketHandler
	Schedule  *handlers.ScheduleHandler
	Court     *handlers.CourtHandler
	TimeBlock *handlers.TimeBlockHandler
	WebSocket *handlers.WebSocketHandler
}

// SetupRoutes wires the HTTP surface. Reads are open to any authenticated
// user; structure and schedule mutations need the organizer or admin role.
func SetupRoutes(h Handlers, jwtSecret string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/swagger/*", httpSwagger.Handler())

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Live grid updates. Browsers cannot set Authorization headers on
	// WebSocket upgrades, so this endpoint stays outside Authenticate.
	r.Get("/ws/events/{eventID}", h.WebSocket.ServeGrid)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtSecret))

		// Read surface.
		r.Get("/templates/{templateID}", h.Template.GetTemplate)
		r.Get("/courts", h.Court.ListCourts)
		r.Get("/courts/{courtID}", h.Court.GetCourt)
		r.Get("/court-groups", h.Court.ListCourtGroups)
		r.Get("/timeblocks/{blockID}", h.TimeBlock.GetTimeBlock)
		r.Get("/events/{eventID}/timeblocks", h.TimeBlock.ListTimeBlocks)
		r.Get("/events/{eventID}/grid", h.Schedule.GetGrid)
		r.Get("/events/{eventID}/conflicts", h.Schedule.DetectConflicts)
		r.Post("/brackets/resolve", h.Bracket.ResolveBracket)

		// Mutations.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole("organizer", "admin"))

			r.Post("/templates", h.Template.CreateTemplate)
			r.Put("/templates/{templateID}", h.Template.UpdateTemplate)
			r.Delete("/templates/{templateID}", h.Template.DeleteTemplate)
			r.Post("/templates/{templateID}/validate", h.Template.ValidateTemplate)
			r.Post("/templates/{templateID}/activate", h.Template.ActivateTemplate)
			r.Post("/templates/{templateID}/rules/auto", h.Template.AutoGenerateRules)
			r.Post("/templates/{templateID}/phases", h.Template.InsertPhase)
			r.Delete("/templates/{templateID}/phases/{phaseID}", h.Template.RemovePhase)

			r.Post("/divisions/{divisionID}/phases/{phaseID}/expand", h.Bracket.ExpandPhase)

			r.Post("/courts", h.Court.CreateCourt)
			r.Put("/courts/{courtID}", h.Court.UpdateCourt)
			r.Delete("/courts/{courtID}", h.Court.DeleteCourt)
			r.Post("/court-groups", h.Court.CreateCourtGroup)
			r.Delete("/court-groups/{groupID}", h.Court.DeleteCourtGroup)

			r.Post("/timeblocks", h.TimeBlock.CreateTimeBlock)
			r.Delete("/timeblocks/{blockID}", h.TimeBlock.DeleteTimeBlock)

			r.Post("/events/{eventID}/schedule/allocate", h.Schedule.AutoAllocate)
			r.Delete("/events/{eventID}/schedule", h.Schedule.ClearSchedule)
			r.Post("/events/{eventID}/schedule/export", h.Schedule.ExportGrid)
			r.Post("/encounters/{encounterID}/move", h.Schedule.MoveEncounter)
		})
	})

	return r
}
