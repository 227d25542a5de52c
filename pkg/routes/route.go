// Package routes declares handler tables that domain packages hand to the
// API module for registration on a ServeMux.
package routes

import (
	"net/http"

	"github.com/JaimeStill/weles/pkg/openapi"
)

// Route binds an HTTP method and a pattern relative to its group prefix.
// An empty Pattern serves the prefix itself. Doc, when set, is the route's
// entry in the API document.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
	Doc     *openapi.Operation
}

func (r Route) pattern(prefix string) string {
	return r.Method + " " + prefix + r.Pattern
}
