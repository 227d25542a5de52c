package audits

import (
	"errors"
	"net/http"
)

var (
	ErrInvalidMeasure = errors.New("invalid measure")
	ErrDuplicate      = errors.New("audit already recorded")
	ErrNotFound       = errors.New("audit not found")
)

func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrInvalidMeasure) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
