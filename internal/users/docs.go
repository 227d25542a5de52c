package users

import (
	"maps"

	"github.com/JaimeStill/weles/pkg/openapi"
)

var credentials = map[string]*openapi.Schema{
	"user_name": openapi.String("Account name"),
	"password":  openapi.String("Account password"),
}

// Schemas are the component schemas referenced by the user routes.
var Schemas = map[string]*openapi.Schema{
	"User": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"user_name": {Type: "string"},
			"mail":      {Type: "string"},
		},
	},
}

// WithCredentials returns fields plus the user_name and password form
// fields checked by Require.
func WithCredentials(fields map[string]*openapi.Schema) map[string]*openapi.Schema {
	out := maps.Clone(fields)
	if out == nil {
		out = make(map[string]*openapi.Schema, len(credentials))
	}
	maps.Copy(out, credentials)
	return out
}

var docs = struct {
	Create *openapi.Operation
	Login  *openapi.Operation
}{
	Create: &openapi.Operation{
		Summary: "Create an account",
		Tags:    []string{"Users"},
		RequestBody: openapi.RequestBodyForm(
			WithCredentials(map[string]*openapi.Schema{"mail": openapi.String("Contact address")}),
			"user_name", "password",
		),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Account created", openapi.SchemaRef("User")),
			400: openapi.ResponseRef("BadRequest"),
			409: openapi.ResponseRef("Conflict"),
		},
	},
	Login: &openapi.Operation{
		Summary:     "Check credentials",
		Tags:        []string{"Users"},
		RequestBody: openapi.RequestBodyForm(WithCredentials(nil), "user_name", "password"),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Credentials accepted", openapi.SchemaRef("User")),
			401: openapi.ResponseRef("Unauthorized"),
		},
	},
}
