package main

import (
	"net/http"

	"github.com/JaimeStill/weles/internal/api"
	"github.com/JaimeStill/weles/internal/config"
	"github.com/JaimeStill/weles/internal/infrastructure"
	"github.com/JaimeStill/weles/pkg/handlers"
	"github.com/JaimeStill/weles/pkg/metrics"
	"github.com/JaimeStill/weles/pkg/module"
)

type Modules struct {
	API *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{
		API: apiModule,
	}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

// buildRouter registers the operational endpoints served outside the API
// module: liveness, readiness with per-check detail, and metrics.
func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}))

	router.HandleNative("GET /readyz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		report := infra.Lifecycle.Probe(r.Context())
		status := http.StatusOK
		if !report.Ready {
			status = http.StatusServiceUnavailable
		}
		handlers.RespondJSON(w, status, report)
	}))

	router.HandleNative("GET /metrics", metrics.Handler(infra.Metrics))

	return router
}
