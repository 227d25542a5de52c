package openapi

import "maps"

var errorBody = &Schema{
	Type: "object",
	Properties: map[string]*Schema{
		"error": {Type: "string", Description: "Error message"},
	},
	Required: []string{"error"},
}

// NewComponents creates Components holding the error body schema and one
// response per error status the API returns.
func NewComponents() *Components {
	responses := make(map[string]*Response)
	for name, description := range map[string]string{
		"BadRequest":         "Malformed input",
		"Unauthorized":       "Missing or bad credentials",
		"NotFound":           "Resource not found",
		"Conflict":           "Resource already exists or has finished",
		"ServiceUnavailable": "Dependency unavailable or queue full",
		"BadGateway":         "Model subprocess failed",
		"GatewayTimeout":     "Environment build timed out",
	} {
		responses[name] = ResponseJSON(description, SchemaRef("Error"))
	}

	return &Components{
		Schemas:   map[string]*Schema{"Error": errorBody},
		Responses: responses,
	}
}

// PageParams returns the query parameters accepted by paginated listings.
func PageParams() []*Parameter {
	return []*Parameter{
		QueryParam("page", "integer", "Page number, starting at 1"),
		QueryParam("page_size", "integer", "Results per page"),
		QueryParam("sort", "string", "Comma-separated fields; prefix with - for descending"),
	}
}

// AddSchemas merges schemas into the component schemas.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}

// PageOf is the schema of a paginated listing of item.
func PageOf(item *Schema) *Schema {
	return &Schema{
		Type: "object",
		Properties: map[string]*Schema{
			"data":        {Type: "array", Items: item},
			"total":       {Type: "integer"},
			"page":        {Type: "integer"},
			"page_size":   {Type: "integer"},
			"total_pages": {Type: "integer"},
			"has_next":    {Type: "boolean"},
		},
	}
}
