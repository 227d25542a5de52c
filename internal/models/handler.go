package models

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/weles/internal/datasets"
	"github.com/JaimeStill/weles/internal/users"
	"github.com/JaimeStill/weles/pkg/handlers"
	"github.com/JaimeStill/weles/pkg/pagination"
	"github.com/JaimeStill/weles/pkg/routes"
)

// Handler provides HTTP endpoints for the model registry.
type Handler struct {
	sys           System
	auth          users.Authenticator
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
}

func NewHandler(
	sys System,
	auth users.Authenticator,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		sys:           sys,
		auth:          auth,
		logger:        logger.With("handler", "models"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for model endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/models",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, Doc: docs.List},
			{Method: "POST", Pattern: "", Handler: h.Upload, Doc: docs.Upload},
			{Method: "POST", Pattern: "/search", Handler: h.Search, Doc: docs.Search},
			{Method: "GET", Pattern: "/{name}", Handler: h.Find, Doc: docs.Find},
			{Method: "GET", Pattern: "/{name}/info", Handler: h.Info, Doc: docs.Info},
			{Method: "GET", Pattern: "/{name}/requirements", Handler: h.Requirements, Doc: docs.Requirements},
			{Method: "GET", Pattern: "/{name}/print", Handler: h.Print, Doc: docs.Print},
			{Method: "POST", Pattern: "/{name}/predict/{type}", Handler: h.Predict, Doc: docs.Predict},
			{Method: "POST", Pattern: "/{name}/audit/{measure}", Handler: h.Audit, Doc: docs.Audit},
		},
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	if err != nil {
		h.fail(w, fmt.Errorf("%w: %w", ErrQueryMalformed, err))
		return
	}
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Upload accepts a multipart model submission and responds with the id of
// the provisioning task.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := handlers.ParseForm(r, h.maxUploadSize); err != nil {
		h.fail(w, fmt.Errorf("%w: %w", ErrInvalidUpload, err))
		return
	}

	owner, err := users.Require(r, h.auth)
	if err != nil {
		h.fail(w, err)
		return
	}

	artifact, err := handlers.FormBytes(r, "model")
	if err != nil {
		h.fail(w, fmt.Errorf("%w: %w", ErrInvalidUpload, err))
		return
	}

	requirements, err := handlers.FormBytes(r, "requirements")
	if err != nil {
		h.fail(w, fmt.Errorf("%w: %w", ErrInvalidUpload, err))
		return
	}

	var sessionInfo []byte
	if r.FormValue("is_sessionInfo") == "1" {
		if sessionInfo, err = handlers.FormBytes(r, "sessionInfo"); err != nil {
			h.fail(w, fmt.Errorf("%w: %w", ErrInvalidUpload, err))
			return
		}
	}

	train, err := datasetInput(r, r.FormValue("is_train_dataset_hash") == "1", "train_dataset")
	if err != nil {
		h.fail(w, fmt.Errorf("%w: %w", ErrInvalidUpload, err))
		return
	}
	train.Alias = datasets.AliasFromForm(r, "train_data_name", "dataset_desc")

	cmd := UploadCommand{
		Name:            r.FormValue("model_name"),
		Description:     r.FormValue("model_desc"),
		Target:          r.FormValue("target"),
		Language:        r.FormValue("language"),
		LanguageVersion: r.FormValue("language_version"),
		Artifact:        artifact,
		Manifest:        requirements,
		SessionInfo:     sessionInfo,
		Platform: Platform{
			System:              r.FormValue("system"),
			SystemRelease:       r.FormValue("system_release"),
			Distribution:        r.FormValue("distribution"),
			DistributionVersion: r.FormValue("distribution_version"),
			Architecture:        r.FormValue("architecture"),
			Processor:           r.FormValue("processor"),
		},
		Tags:      r.Form["tags"],
		Owner:     owner,
		TrainData: train,
	}

	sub, err := h.sys.Upload(r.Context(), cmd)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusAccepted, sub)
}

// Search accepts a JSON body of SearchFilters and returns matching model names.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var filters SearchFilters
	if err := json.NewDecoder(r.Body).Decode(&filters); err != nil {
		h.fail(w, fmt.Errorf("%w: %w", ErrQueryMalformed, err))
		return
	}

	names, err := h.sys.Search(r.Context(), filters)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, names)
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	m, err := h.sys.Find(r.Context(), r.PathValue("name"))
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, m)
}

func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	info, err := h.sys.Info(r.Context(), r.PathValue("name"))
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, info)
}

func (h *Handler) Requirements(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.sys.Requirements(r.Context(), r.PathValue("name"))
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, reqs)
}

func (h *Handler) Print(w http.ResponseWriter, r *http.Request) {
	out, err := h.sys.PrintModel(r.Context(), r.PathValue("name"))
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondBytes(w, http.StatusOK, "text/plain; charset=utf-8", out)
}

// Predict runs the model on CSV in the data field, or on the stored dataset
// named by hash when is_hash is "1".
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	if err := handlers.ParseForm(r, h.maxUploadSize); err != nil {
		h.fail(w, fmt.Errorf("%w: %w", datasets.ErrInvalidCSV, err))
		return
	}

	in, err := datasetInput(r, r.FormValue("is_hash") == "1", "data")
	if err != nil {
		h.fail(w, fmt.Errorf("%w: %w", datasets.ErrInvalidCSV, err))
		return
	}

	out, err := h.sys.Predict(r.Context(), PredictCommand{
		Name:        r.PathValue("name"),
		Type:        r.PathValue("type"),
		Data:        in.Content,
		DatasetHash: in.Hash,
	})
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondBytes(w, http.StatusOK, "text/csv", out)
}

// Audit scores the model on the posted data with the measure in the path.
// Requires user_name and password.
func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	if err := handlers.ParseForm(r, h.maxUploadSize); err != nil {
		h.fail(w, fmt.Errorf("%w: %w", datasets.ErrInvalidCSV, err))
		return
	}

	user, err := users.Require(r, h.auth)
	if err != nil {
		h.fail(w, err)
		return
	}

	in, err := datasetInput(r, r.FormValue("is_hash") == "1", "data")
	if err != nil {
		h.fail(w, fmt.Errorf("%w: %w", datasets.ErrInvalidCSV, err))
		return
	}
	in.Alias = datasets.AliasFromForm(r, "data_name", "data_desc")

	result, err := h.sys.Audit(r.Context(), AuditCommand{
		Name:    r.PathValue("name"),
		Measure: r.PathValue("measure"),
		Target:  r.FormValue("target"),
		Data:    in,
		User:    user,
	})
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// datasetInput reads data either as a hash, from the hash field, or as CSV
// content from field.
func datasetInput(r *http.Request, isHash bool, field string) (datasets.Input, error) {
	if isHash {
		hash := r.FormValue("hash")
		if hash == "" {
			hash = r.FormValue(field)
		}
		if hash == "" {
			return datasets.Input{}, handlers.ErrFieldMissing
		}
		return datasets.Input{Hash: hash, IsHash: true}, nil
	}

	content, err := handlers.FormBytes(r, field)
	if err != nil {
		return datasets.Input{}, err
	}
	return datasets.Input{Content: content}, nil
}
