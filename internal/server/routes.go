package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, deps Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("MountainQuiz API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(deps.Logger, deps.DB))

	r.Route("/api", func(r chi.Router) {
		r.Get("/mountains", handleSearch(deps.Search))
		r.Get("/mountains/{id}", handleGetMountain(deps.Search, deps.Images))
		r.Get("/mountains/{id}/forecast", handleForecast(deps.Search, deps.Weather))

		r.Post("/submissions", handleCreateSubmission(deps.Store))

		r.Post("/quiz", handleBuildQuiz(deps.Builder))
		r.Post("/quiz/start", handleStartQuiz(deps.Sets, deps.Builder, deps.Registry))
		r.Post("/quiz/answer", handleAnswerQuiz(deps.Store, deps.Registry))
		r.Post("/quiz/quit", handleQuitQuiz(deps.Registry))
		r.Get("/quiz/ranking", handleRanking(deps.Store, deps.RankingPageSize))
	})

	// Admin auth.
	r.Post("/api/admin/login", handleAdminLogin(deps.Store))
	r.Post("/api/admin/logout", handleAdminLogout(deps.Store))
	r.Get("/api/admin/me", handleAdminMe(deps.Store))

	// Moderation — requires admin_session cookie.
	r.Route("/api/admin/submissions", func(r chi.Router) {
		r.Use(adminAuthMiddleware(deps.Store))
		r.Get("/", handleAdminListSubmissions(deps.Store))
		r.Post("/{id}/approve", handleAdminReviewSubmission(deps.Store, StatusApproved))
		r.Post("/{id}/reject", handleAdminReviewSubmission(deps.Store, StatusRejected))
	})
}
