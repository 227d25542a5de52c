package datasets

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound   = errors.New("dataset not found")
	ErrDuplicate  = errors.New("dataset already exists")
	ErrInvalidCSV = errors.New("invalid csv")
	ErrInvalidRow = errors.New("row count must be a non-negative integer")
)

// MapHTTPStatus maps dataset errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidCSV) || errors.Is(err, ErrInvalidRow) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
