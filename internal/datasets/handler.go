package datasets

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JaimeStill/weles/internal/users"
	"github.com/JaimeStill/weles/pkg/handlers"
	"github.com/JaimeStill/weles/pkg/pagination"
	"github.com/JaimeStill/weles/pkg/routes"
)

const defaultHead = 5

// Handler provides HTTP endpoints for dataset operations.
type Handler struct {
	sys           System
	auth          users.Authenticator
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
}

// NewHandler creates a dataset Handler. Uploads are authenticated against auth.
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
		logger:        logger.With("handler", "datasets"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for dataset endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/datasets",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, Doc: docs.List},
			{Method: "POST", Pattern: "", Handler: h.Upload, Doc: docs.Upload},
			{Method: "GET", Pattern: "/{hash}", Handler: h.Content, Doc: docs.Content},
			{Method: "GET", Pattern: "/{hash}/info", Handler: h.Info, Doc: docs.Info},
			{Method: "GET", Pattern: "/{hash}/head", Handler: h.Head, Doc: docs.Head},
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Upload stores the CSV in the data field, attaching the optional
// data_name and data_desc alias. Requires user_name and password.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := handlers.ParseForm(r, h.maxUploadSize); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidCSV)
		return
	}

	owner, err := users.Require(r, h.auth)
	if err != nil {
		handlers.RespondError(w, h.logger, users.MapHTTPStatus(err), err)
		return
	}

	data, err := handlers.FormBytes(r, "data")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	in := Input{
		Content: data,
		Owner:   owner,
		Alias:   AliasFromForm(r, "data_name", "data_desc"),
	}

	result, err := h.sys.Save(r.Context(), in)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) Content(w http.ResponseWriter, r *http.Request) {
	data, err := h.sys.Content(r.Context(), r.PathValue("hash"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondBytes(w, http.StatusOK, "text/csv", data)
}

func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	info, err := h.sys.Info(r.Context(), r.PathValue("hash"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, info)
}

// Head returns the first n rows, five by default.
func (h *Handler) Head(w http.ResponseWriter, r *http.Request) {
	n := defaultHead
	if s := r.URL.Query().Get("n"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRow)
			return
		}
		n = v
	}

	data, err := h.sys.Head(r.Context(), r.PathValue("hash"), n)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondBytes(w, http.StatusOK, "text/csv", data)
}

// AliasFromForm reads an alias from the named form fields. It returns nil
// when no name was sent.
func AliasFromForm(r *http.Request, nameField, descField string) *AliasInput {
	name := r.FormValue(nameField)
	if name == "" {
		return nil
	}
	return &AliasInput{Name: name, Description: r.FormValue(descField)}
}
