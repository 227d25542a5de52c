package routes

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/weles/pkg/openapi"
)

// Group is the route table of one resource, mounted under Prefix.
type Group struct {
	Prefix string
	Routes []Route
}

// Register adds every route of groups to mux and returns the registered
// patterns in order. Conflicting patterns panic, as with http.ServeMux.
func Register(mux *http.ServeMux, groups ...Group) []string {
	var patterns []string
	for _, group := range groups {
		for _, route := range group.Routes {
			p := route.pattern(group.Prefix)
			mux.HandleFunc(p, route.Handler)
			patterns = append(patterns, p)
		}
	}
	return patterns
}

// Document adds every route of groups that carries a Doc to spec and
// returns the patterns that carry none.
func Document(spec *openapi.Spec, groups ...Group) ([]string, error) {
	var undocumented []string
	for _, group := range groups {
		for _, route := range group.Routes {
			if route.Doc == nil {
				undocumented = append(undocumented, route.pattern(group.Prefix))
				continue
			}
			if err := spec.Add(route.Method, group.Prefix+route.Pattern, route.Doc); err != nil {
				return nil, fmt.Errorf("document %s: %w", route.pattern(group.Prefix), err)
			}
		}
	}
	return undocumented, nil
}
