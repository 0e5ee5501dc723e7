package router

import (
	"encoding/json"
	"net/http"

	"github.com/api-sage/fcy-ledger/src/internal/adapter/http/middleware"
	"github.com/api-sage/fcy-ledger/src/internal/commons"
	"github.com/api-sage/fcy-ledger/src/internal/metrics"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type RouteRegistrar interface {
	RegisterRoutes(r chi.Router)
}

type Options struct {
	ChannelID  string
	ChannelKey string
	Metrics    *metrics.Metrics
}

// New mounts the channel-authenticated API, the bank webhook surface and the
// open operational endpoints. Webhooks authenticate per bank, not per channel.
func New(opts Options, webhooks RouteRegistrar, api ...RouteRegistrar) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Observe(opts.Metrics))

	r.Get("/health", health)
	r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	registerSwaggerRoutes(r)

	if webhooks != nil {
		webhooks.RegisterRoutes(r)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.BasicAuth(opts.ChannelID, opts.ChannelKey))
		for _, registrar := range api {
			if registrar != nil {
				registrar.RegisterRoutes(r)
			}
		}
	})

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(commons.SuccessResponse("ok", map[string]string{"status": "up"}))
}
