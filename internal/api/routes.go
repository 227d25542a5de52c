package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/weles/internal/datasets"
	"github.com/JaimeStill/weles/internal/models"
	"github.com/JaimeStill/weles/internal/tasks"
	"github.com/JaimeStill/weles/internal/users"
	"github.com/JaimeStill/weles/pkg/openapi"
	"github.com/JaimeStill/weles/pkg/routes"
)

// SpecPath serves the API document, relative to the module prefix.
const SpecPath = "/openapi.json"

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	runtime *Runtime,
) error {
	groups := []routes.Group{
		domain.Users.Handler().Routes(),
		domain.Datasets.Handler(domain.Users, runtime.MaxUploadSize).Routes(),
		domain.Models.Handler(domain.Users, runtime.MaxUploadSize).Routes(),
		runtime.Tasks.Handler().Routes(),
		newArchiveHandler(runtime.Archive, runtime.Logger).routes(),
	}

	patterns := routes.Register(mux, groups...)

	spec, err := newSpec(runtime, groups)
	if err != nil {
		return err
	}
	mux.HandleFunc("GET "+SpecPath, openapi.ServeSpec(spec))

	runtime.Logger.Debug("api routes registered", "count", len(patterns), "patterns", patterns)
	return nil
}

func newSpec(runtime *Runtime, groups []routes.Group) ([]byte, error) {
	spec := openapi.NewSpec(&runtime.OpenAPI, runtime.Version)
	spec.AddServer(runtime.BasePath)
	for _, schemas := range []map[string]*openapi.Schema{
		users.Schemas,
		datasets.Schemas,
		models.Schemas,
		tasks.Schemas,
	} {
		spec.Components.AddSchemas(schemas)
	}

	undocumented, err := routes.Document(spec, groups...)
	if err != nil {
		return nil, err
	}
	if len(undocumented) > 0 {
		runtime.Logger.Warn("routes missing from api document", "patterns", undocumented)
	}

	data, err := openapi.MarshalJSON(spec)
	if err != nil {
		return nil, fmt.Errorf("marshal api document: %w", err)
	}
	return data, nil
}
