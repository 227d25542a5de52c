package models

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/weles/internal/audits"
	"github.com/JaimeStill/weles/internal/datasets"
	"github.com/JaimeStill/weles/internal/environments"
	"github.com/JaimeStill/weles/internal/runtimes"
	"github.com/JaimeStill/weles/internal/tasks"
	"github.com/JaimeStill/weles/internal/users"
)

var (
	ErrNotFound        = errors.New("model not found")
	ErrDuplicate       = errors.New("model already exists")
	ErrInvalidUpload   = errors.New("invalid upload")
	ErrInvalidLanguage = errors.New("invalid language")
	ErrQueryMalformed  = errors.New("malformed query")
	ErrArtifactMissing = errors.New("model artifact missing")
)

// MapHTTPStatus maps registry errors, including those surfaced from the
// packages the registry drives, to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidUpload),
		errors.Is(err, ErrInvalidLanguage),
		errors.Is(err, ErrQueryMalformed):
		return http.StatusBadRequest
	case errors.Is(err, users.ErrBadCredentials):
		return users.MapHTTPStatus(err)
	case errors.Is(err, datasets.ErrNotFound),
		errors.Is(err, datasets.ErrInvalidCSV):
		return datasets.MapHTTPStatus(err)
	case errors.Is(err, audits.ErrInvalidMeasure):
		return audits.MapHTTPStatus(err)
	case errors.Is(err, runtimes.ErrInvalidPredictionType),
		errors.Is(err, runtimes.ErrUnsupportedRuntime),
		errors.Is(err, runtimes.ErrDispatchFailed):
		return runtimes.MapHTTPStatus(err)
	case errors.Is(err, environments.ErrBuildFailed),
		errors.Is(err, environments.ErrBuildTimeout),
		errors.Is(err, environments.ErrManifestMissing):
		return environments.MapHTTPStatus(err)
	case errors.Is(err, tasks.ErrQueueFull):
		return tasks.MapHTTPStatus(err)
	}
	return http.StatusInternalServerError
}
