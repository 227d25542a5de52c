package environments

import (
	"errors"
	"net/http"
)

var (
	// ErrBuildFailed indicates the interpreter tool or package installer failed.
	ErrBuildFailed = errors.New("environment build failed")
	// ErrBuildTimeout indicates a build exceeded the configured timeout.
	ErrBuildTimeout = errors.New("environment build timed out")
	// ErrManifestMissing indicates the manifest file could not be read.
	ErrManifestMissing = errors.New("manifest not found")
)

// MapHTTPStatus maps environment errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrBuildTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrManifestMissing):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
