package users

import (
	"context"
	"net/http"
)

// Authenticator checks a name and password pair.
type Authenticator interface {
	Authenticate(ctx context.Context, name, password string) (bool, error)
}

// System defines the user operations.
type System interface {
	Authenticator

	Handler() *Handler
	Create(ctx context.Context, cmd CreateCommand) error
	Find(ctx context.Context, name string) (*User, error)
}

// Require authenticates the user_name and password form fields of r and
// returns the user name. Failed checks yield ErrBadCredentials.
func Require(r *http.Request, auth Authenticator) (string, error) {
	name := r.FormValue("user_name")
	password := r.FormValue("password")
	if name == "" || password == "" {
		return "", ErrBadCredentials
	}

	ok, err := auth.Authenticate(r.Context(), name, password)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrBadCredentials
	}
	return name, nil
}
