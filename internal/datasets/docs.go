package datasets

import (
	"github.com/JaimeStill/weles/internal/users"
	"github.com/JaimeStill/weles/pkg/openapi"
)

// Schemas are the component schemas referenced by the dataset routes.
var Schemas = map[string]*openapi.Schema{
	"Dataset": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"dataset_id":        {Type: "string", Description: "sha256 of the canonical CSV"},
			"number_of_rows":    {Type: "integer"},
			"number_of_columns": {Type: "integer"},
			"missing":           {Type: "integer"},
			"owner":             {Type: "string"},
			"timestamp":         {Type: "string", Format: "date-time"},
		},
	},
	"Feature": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"id":         {Type: "integer"},
			"name":       {Type: "string"},
			"unique_val": {Type: "integer"},
			"missing":    {Type: "integer"},
		},
	},
	"Alias": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"dataset_id":  {Type: "string"},
			"name":        {Type: "string"},
			"description": {Type: "string"},
			"owner":       {Type: "string"},
			"timestamp":   {Type: "string", Format: "date-time"},
		},
	},
	"DatasetInfo": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"dataset":  openapi.SchemaRef("Dataset"),
			"features": {Type: "array", Items: openapi.SchemaRef("Feature")},
			"aliases":  {Type: "array", Items: openapi.SchemaRef("Alias")},
		},
	},
	"SaveResult": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"dataset_hash":    {Type: "string"},
			"dataset_existed": {Type: "boolean"},
			"alias_added":     {Type: "boolean"},
		},
	},
}

var hashParam = openapi.PathParam("hash", "Dataset hash")

var docs = struct {
	List    *openapi.Operation
	Upload  *openapi.Operation
	Content *openapi.Operation
	Info    *openapi.Operation
	Head    *openapi.Operation
}{
	List: &openapi.Operation{
		Summary: "List datasets",
		Tags:    []string{"Datasets"},
		Parameters: append(openapi.PageParams(),
			openapi.QueryParam("owner", "string", "Exact owner"),
			openapi.QueryParam("alias", "string", "Substring of an alias name"),
		),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Page of datasets", openapi.PageOf(openapi.SchemaRef("Dataset"))),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Upload: &openapi.Operation{
		Summary:     "Store a dataset",
		Description: "Byte-identical content is stored once; a new alias name is still attached.",
		Tags:        []string{"Datasets"},
		RequestBody: openapi.RequestBodyForm(users.WithCredentials(map[string]*openapi.Schema{
			"data":      openapi.Binary("CSV with a header row"),
			"data_name": openapi.String("Alias name"),
			"data_desc": openapi.String("Alias description"),
		}), "data", "user_name", "password"),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Dataset stored or reused", openapi.SchemaRef("SaveResult")),
			400: openapi.ResponseRef("BadRequest"),
			401: openapi.ResponseRef("Unauthorized"),
		},
	},
	Content: &openapi.Operation{
		Summary:    "Download a dataset",
		Tags:       []string{"Datasets"},
		Parameters: []*openapi.Parameter{hashParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseText("Canonical CSV", "text/csv"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Info: &openapi.Operation{
		Summary:    "Describe a dataset",
		Tags:       []string{"Datasets"},
		Parameters: []*openapi.Parameter{hashParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Dataset, columns and aliases", openapi.SchemaRef("DatasetInfo")),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Head: &openapi.Operation{
		Summary: "First rows of a dataset",
		Tags:    []string{"Datasets"},
		Parameters: []*openapi.Parameter{
			hashParam,
			openapi.QueryParam("n", "integer", "Number of data rows, default 5"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseText("Header and first rows as CSV", "text/csv"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
}
