package runtimes

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrDispatchFailed indicates a model script could not be run to completion.
	ErrDispatchFailed = errors.New("dispatch failed")
	// ErrResultMissing indicates a script exited without writing its result file.
	ErrResultMissing = fmt.Errorf("%w: result file missing", ErrDispatchFailed)
	// ErrInvalidPredictionType indicates a prediction type other than exact or prob.
	ErrInvalidPredictionType = errors.New("invalid prediction type")
	// ErrUnsupportedRuntime indicates no runtime is registered for a language.
	ErrUnsupportedRuntime = errors.New("unsupported runtime")
)

// MapHTTPStatus maps runtime errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidPredictionType), errors.Is(err, ErrUnsupportedRuntime):
		return http.StatusBadRequest
	case errors.Is(err, ErrDispatchFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
