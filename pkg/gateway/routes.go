package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DeBrosOfficial/noforma/pkg/httputil"
)

// Routes returns the http.Handler with all routes and middleware configured
func (g *Gateway) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(g.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(g.corsMiddleware)
	r.Use(g.securityHeadersMiddleware)
	if g.metrics != nil {
		r.Use(g.metrics.middleware)
	}
	r.Use(g.rateLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// diagnostics
	r.Get("/", g.withTimeout(g.statusHandler))
	r.Get("/health", g.healthHandler)
	r.Get("/contract-info", g.withTimeout(g.contractInfoHandler))
	r.Post("/config", g.configHandler)
	if g.deps.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(g.deps.Metrics, promhttp.HandlerOpts{}))
	}

	// records
	r.Route("/knowledge-base", entityRoutes(g, g.knowledgeBase))
	r.Route("/customers", entityRoutes(g, g.customers))
	r.Route("/projects", entityRoutes(g, g.projects))
	r.Get("/counts", g.withTimeout(g.countsHandler))

	// submissions
	r.Get("/transactions", g.withTimeout(g.listTransactionsHandler))
	r.Get("/transactions/{id}", g.withTimeout(g.getTransactionHandler))
	r.Get("/tx/{hash}", g.withTimeout(g.txLookupHandler))

	// scheduling
	r.Get("/free-slots", g.freeSlotsHandler)
	r.Post("/new-schedule", g.newScheduleHandler)

	return r
}
