package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures the router and all API routes.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/lists", func(r chi.Router) {
			r.Get("/", h.GetLists)
			r.Post("/", h.CreateList)
			r.Route("/{listID}", func(r chi.Router) {
				r.Delete("/", h.DeleteList)
				r.Get("/count", h.RecipientCount)
				r.Get("/members", h.GetMembers)
				r.Post("/members", h.AddMember)
				r.Delete("/members/{memberID}", h.DeleteMember)
				r.Delete("/members/by-email", h.DeleteMemberByEmail)
				r.Post("/import", h.ImportMembers)
				r.Post("/import/preview", h.PreviewImport)
				r.Post("/validate", h.ValidateDomains)
				r.Get("/validate", h.GetValidationReport)
			})
		})

		r.Route("/senders", func(r chi.Router) {
			r.Get("/", h.GetSenders)
			r.Put("/{senderID}/outbound", h.UpdateSenderOutbound)
		})

		r.Route("/campaigns", func(r chi.Router) {
			r.Post("/send", h.SendCampaign)
			r.Get("/state", h.CampaignState)
		})

		r.Post("/attachments", h.UploadAttachment)

		r.Get("/sends", h.GetSends)
		r.Get("/sends/{sendID}", h.GetSendDetails)
		r.Get("/stats", h.GetStats)
	})

	return r
}
