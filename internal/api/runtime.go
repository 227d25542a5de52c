package api

import (
	"github.com/JaimeStill/weles/internal/config"
	"github.com/JaimeStill/weles/internal/infrastructure"
	"github.com/JaimeStill/weles/pkg/openapi"
	"github.com/JaimeStill/weles/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination    pagination.Config
	MaxUploadSize int64
	BasePath      string
	OpenAPI       openapi.Config
	Version       string
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &scoped,
		Pagination:     cfg.API.Pagination,
		MaxUploadSize:  cfg.API.MaxUploadSizeBytes(),
		BasePath:       cfg.API.BasePath,
		OpenAPI:        cfg.API.OpenAPI,
		Version:        cfg.Version,
	}
}
