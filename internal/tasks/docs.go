package tasks

import "github.com/JaimeStill/weles/pkg/openapi"

// Schemas are the component schemas referenced by the task routes.
var Schemas = map[string]*openapi.Schema{
	"TaskSnapshot": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"state": {
				Type: "string",
				Enum: []any{Pending, Uploading, CreatingEnvironment, Success, Failed},
			},
			"current":               {Type: "integer"},
			"total":                 {Type: "integer"},
			"status":                {Type: "string"},
			"language":              {Type: "string", Description: "Set while running"},
			"build_start_timestamp": {Type: "string", Description: "Set while running"},
			"info":                  {Type: "object", Description: "Set once the task has ended"},
		},
		Required: []string{"state", "current", "total", "status"},
	},
}

var idParam = &openapi.Parameter{
	Name:     "id",
	In:       "path",
	Required: true,
	Schema:   &openapi.Schema{Type: "string", Format: "uuid"},
}

var docs = struct {
	Status *openapi.Operation
	Cancel *openapi.Operation
}{
	Status: &openapi.Operation{
		Summary:     "Poll a task",
		Description: "Finished tasks return the same payload on every poll until evicted.",
		Tags:        []string{"Tasks"},
		Parameters:  []*openapi.Parameter{idParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Task progress", openapi.SchemaRef("TaskSnapshot")),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Cancel: &openapi.Operation{
		Summary:    "Cancel a task",
		Tags:       []string{"Tasks"},
		Parameters: []*openapi.Parameter{idParam},
		Responses: map[int]*openapi.Response{
			204: {Description: "Cancellation requested"},
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
		},
	},
}
