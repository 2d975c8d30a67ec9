package storefront

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"BuildStore/internal/auth"
	"BuildStore/internal/cart"
	"BuildStore/internal/catalog"
	"BuildStore/internal/checkout"
	"BuildStore/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

type Deps struct {
	Catalog  *catalog.Server
	Cart     *cart.Server
	Checkout *checkout.Server
	Admin    *auth.Server
}

const readyTimeout = 2 * time.Second

// NewHandler wires every storefront surface onto one router:
//
//	/products, /categories  public catalog
//	/cart/...               cookie cart, summary and checkout link
//	/admin/...              login, whoami, product management
func NewHandler(deps Deps, httpDeps HTTPDeps) http.Handler {
	r := chi.NewRouter()
	r.MethodNotAllowed(kit.MethodNotAllowed)
	r.NotFound(kit.NotFound)

	setupMiddleware(r, httpDeps)
	setupMetrics(r, httpDeps)

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(deps.Catalog.Store, httpDeps.Log))

	cr := deps.Cart.Routes()
	if deps.Checkout != nil {
		deps.Checkout.Register(cr)
	}
	r.Mount("/cart", cr)

	ar := deps.Admin.Routes()
	ar.Group(func(pr chi.Router) {
		pr.Use(auth.RequireAdmin(deps.Admin.JWT))
		pr.Mount("/products", deps.Catalog.AdminRoutes())
	})
	r.Mount("/admin", ar)

	r.Mount("/", deps.Catalog.Routes())
	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		if deps.MetricsEnabled && deps.Log != nil {
			deps.Log.Warn("metrics enabled but Registry is nil")
		}
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

type pinger interface {
	Ping(ctx context.Context) error
}

func readyz(store pinger, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			if log != nil {
				log.Warn("readyz failed: catalog", zap.Error(err))
			}
			kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog not ready", nil)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}
