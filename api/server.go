/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. Logger:     zap request logging
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/health           Liveness + row counts
  /api/employees/*      Employee directory (writes behind the admin gate)
  /api/items/*          Equipment catalog (writes behind the admin gate)
  /api/withdrawals      Record / list withdrawals
  /api/stock            Remaining stock report
  /api/summary/*        Per-employee summary
  /api/scenarios/*      Demo scenarios (admin gate)

SECURITY NOTE:
  Recording a withdrawal and reading reports is public. Master data writes
  and scenarios require X-Admin-Password when a hash is configured.

SEE ALSO:
  - handlers.go: Handler implementations
  - admin.go: Admin gate
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// DefaultAllowedOrigins is used when no CORS origins are configured.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, gate *AdminGate, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultAllowedOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(zapLoggerMiddleware(h.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", AdminPasswordHeader},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		// Employee directory
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Get("/lookup", h.LookupEmployee)
			r.Group(func(r chi.Router) {
				r.Use(gate.Middleware)
				r.Post("/", h.CreateEmployee)
				r.Put("/{id}", h.UpdateEmployee)
				r.Delete("/{id}", h.DeleteEmployee)
			})
		})

		// Equipment catalog
		r.Route("/items", func(r chi.Router) {
			r.Get("/", h.ListItems)
			r.Group(func(r chi.Router) {
				r.Use(gate.Middleware)
				r.Post("/", h.CreateItem)
				r.Put("/{id}", h.UpdateItem)
				r.Delete("/{id}", h.DeleteItem)
			})
		})

		// Ledger
		r.Route("/withdrawals", func(r chi.Router) {
			r.Get("/", h.ListWithdrawals)
			r.Post("/", h.RecordWithdrawal)
		})
		r.Get("/stock", h.GetStock)
		r.Get("/summary/employees", h.GetEmployeeSummary)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Use(gate.Middleware)
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("client_ip", r.RemoteAddr))
		})
	}
}
