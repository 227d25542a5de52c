package users

import (
	"errors"
	"net/http"
)

var (
	ErrBadCredentials = errors.New("bad credentials")
	ErrDuplicate      = errors.New("such user already exists")
	ErrNotFound       = errors.New("user not found")
	ErrInvalidUser    = errors.New("user_name and password are required")
)

// MapHTTPStatus maps user errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrBadCredentials) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidUser) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
