package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openfolio/ledgerd/internal/accounts"
	"github.com/openfolio/ledgerd/internal/auth"
	"github.com/openfolio/ledgerd/internal/grants"
	"github.com/openfolio/ledgerd/internal/observability"
	"github.com/openfolio/ledgerd/internal/principals"
	"github.com/openfolio/ledgerd/internal/reports"
	"github.com/openfolio/ledgerd/internal/transactions"
	"github.com/openfolio/ledgerd/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger              *slog.Logger
	Config              *Config
	AuthMiddleware      *auth.Middleware
	AuthHandler         *auth.Handler
	PrincipalsHandler   *principals.Handler
	AccountsHandler     *accounts.Handler
	GrantsHandler       *grants.Handler
	TransactionsHandler *transactions.Handler
	ReportsHandler      *reports.Handler
	JobsHandler         *jobs.Handler
	Pool                *pgxpool.Pool
	Metrics             *observability.Metrics
}

// NewRouter constructs the chi.Router with service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Auth:    params.AuthMiddleware,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if params.Pool != nil {
			if err := params.Pool.Ping(req.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/principals", params.PrincipalsHandler.MountRoutes)
	r.Route("/accounts", params.AccountsHandler.MountRoutes)
	r.Route("/grants", params.GrantsHandler.MountRoutes)
	r.Route("/transactions", params.TransactionsHandler.MountRoutes)
	if params.ReportsHandler != nil {
		r.Route("/admin", params.ReportsHandler.MountRoutes)
	}
	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
