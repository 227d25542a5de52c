// Package api assembles the registry's HTTP surface: users, datasets,
// models, tasks, and the archive, mounted as one module under the
// configured base path together with its OpenAPI document.
package api

import (
	"net/http"

	"github.com/JaimeStill/weles/internal/config"
	"github.com/JaimeStill/weles/internal/infrastructure"
	"github.com/JaimeStill/weles/pkg/middleware"
	"github.com/JaimeStill/weles/pkg/module"
)

// NewModule builds the domain systems over infra and returns the API module.
// CORS runs outermost so preflight requests are neither logged nor counted.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	if err := registerRoutes(mux, domain, runtime); err != nil {
		return nil, err
	}

	m := module.New(cfg.API.BasePath, mux)
	m.Use(
		middleware.CORS(&cfg.API.CORS),
		middleware.Logger(runtime.Logger),
		middleware.Metrics(runtime.Metrics, "http"),
	)
	return m, nil
}
