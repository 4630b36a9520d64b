package handler

import "net/http"

// Handlers groups every HTTP handler of the API
type Handlers struct {
	Projects  *ProjectHandler
	Revisions *RevisionHandler
	Credits   *CreditsHandler
}

// Middleware wraps a handler
type Middleware func(http.Handler) http.Handler

// Register adds all routes to mux. protect authenticates a route; limit
// additionally rate-limits generation submissions and runs after protect.
func (h *Handlers) Register(mux *http.ServeMux, protect, limit Middleware) {
	auth := func(fn http.HandlerFunc) http.Handler { return protect(fn) }
	generate := func(fn http.HandlerFunc) http.Handler { return protect(limit(fn)) }

	// Public routes
	mux.HandleFunc("GET /health", HealthCheck)
	mux.HandleFunc("GET /api/published", h.Projects.ListPublished)
	mux.HandleFunc("GET /api/published/{id}", h.Projects.GetPublicCode)
	mux.HandleFunc("POST /api/payments/confirm", h.Credits.ConfirmPayment)

	// Credits
	mux.Handle("GET /api/credits", auth(h.Credits.GetBalance))
	mux.Handle("GET /api/credits/transactions", auth(h.Credits.ListTransactions))
	mux.Handle("GET /api/credits/plans", auth(h.Credits.ListPlans))
	mux.Handle("POST /api/credits/purchase", auth(h.Credits.CreatePurchase))

	// Projects
	mux.Handle("GET /api/projects", auth(h.Projects.ListProjects))
	mux.Handle("POST /api/projects", generate(h.Projects.CreateProject))
	mux.Handle("GET /api/projects/{id}", auth(h.Projects.GetProject))
	mux.Handle("GET /api/projects/{id}/timeline", auth(h.Projects.GetTimeline))
	mux.Handle("DELETE /api/projects/{id}", auth(h.Projects.DeleteProject))
	mux.Handle("PUT /api/projects/{id}/code", auth(h.Projects.SaveCode))
	mux.Handle("POST /api/projects/{id}/publish", auth(h.Projects.SetPublished))

	// Revisions
	mux.Handle("POST /api/projects/{id}/revisions", generate(h.Revisions.Revise))
	mux.Handle("POST /api/projects/{id}/revisions/stream", generate(h.Revisions.ReviseStream))
	mux.Handle("POST /api/projects/{id}/rollback/{versionId}", auth(h.Revisions.Rollback))
}
