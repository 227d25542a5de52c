package tasks

import (
	"errors"
	"net/http"
)

var (
	// ErrTaskNotFound indicates an unknown or evicted task id.
	ErrTaskNotFound = errors.New("task not found")
	// ErrTaskFinished indicates an operation on a task that already ended.
	ErrTaskFinished = errors.New("task already finished")
	// ErrQueueFull indicates the provisioning queue cannot accept more work.
	ErrQueueFull = errors.New("task queue full")
	// ErrCancelled is the cause recorded for tasks stopped by Cancel.
	ErrCancelled = errors.New("task cancelled")
	// ErrInvalidID indicates a task id that is not a UUID.
	ErrInvalidID = errors.New("invalid task id")
)

// MapHTTPStatus maps task errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrTaskFinished):
		return http.StatusConflict
	case errors.Is(err, ErrQueueFull):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
