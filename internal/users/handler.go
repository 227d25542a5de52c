package users

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/weles/pkg/handlers"
	"github.com/JaimeStill/weles/pkg/routes"
)

// Handler provides HTTP endpoints for account registration and login.
type Handler struct {
	sys    System
	logger *slog.Logger
}

func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "users"),
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/users",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Create, Doc: docs.Create},
			{Method: "POST", Pattern: "/login", Handler: h.Login, Doc: docs.Login},
		},
	}
}

// Create registers the account in the user_name, password and mail form fields.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	cmd := CreateCommand{
		Name:     r.FormValue("user_name"),
		Password: r.FormValue("password"),
		Mail:     r.FormValue("mail"),
	}

	if err := h.sys.Create(r.Context(), cmd); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, User{Name: cmd.Name, Mail: cmd.Mail})
}

// Login verifies the posted credentials.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	name, err := Require(r, h.sys)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]string{"user_name": name})
}
