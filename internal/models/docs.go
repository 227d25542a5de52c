package models

import (
	"maps"

	"github.com/JaimeStill/weles/internal/users"
	"github.com/JaimeStill/weles/pkg/openapi"
)

// Schemas are the component schemas referenced by the model routes.
var Schemas = map[string]*openapi.Schema{
	"Model": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"model_name":           {Type: "string"},
			"hash":                 {Type: "string", Description: "sha256 of the artifact"},
			"target":               {Type: "string"},
			"train_data_id":        {Type: "string"},
			"timestamp":            {Type: "string", Format: "date-time"},
			"language":             {Type: "string", Enum: []any{"python", "r"}},
			"language_version":     {Type: "string"},
			"description":          {Type: "string"},
			"owner":                {Type: "string"},
			"tags":                 {Type: "array", Items: &openapi.Schema{Type: "string"}},
			"system":               {Type: "string"},
			"system_release":       {Type: "string"},
			"distribution":         {Type: "string"},
			"distribution_version": {Type: "string"},
			"architecture":         {Type: "string"},
			"processor":            {Type: "string"},
		},
	},
	"ModelInfo": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"model":    openapi.SchemaRef("Model"),
			"dataset":  openapi.SchemaRef("Dataset"),
			"features": {Type: "array", Items: openapi.SchemaRef("Feature")},
			"aliases":  {Type: "array", Items: openapi.SchemaRef("Alias")},
			"audits":   {Type: "array", Items: openapi.SchemaRef("Audit")},
		},
	},
	"Audit": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"model_name": {Type: "string"},
			"dataset_id": {Type: "string"},
			"measure":    {Type: "string"},
			"value":      {Type: "number"},
			"user_name":  {Type: "string"},
			"timestamp":  {Type: "string", Format: "date-time"},
		},
	},
	"AuditResult": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"already_audited": {Type: "boolean"},
			"dataset_hash":    {Type: "string"},
			"dataset_existed": {Type: "boolean"},
			"alias_added":     {Type: "boolean"},
			"value":           {Type: "number", Description: "Absent when already audited"},
		},
	},
	"SearchFilters": {
		Type:        "object",
		Description: "Range expressions are clauses such as \">100;<200;\" or \"=3;\".",
		Properties: map[string]*openapi.Schema{
			"language":         {Type: "string"},
			"language_version": {Type: "string", Description: "Semantic version range"},
			"row":              {Type: "string", Description: "Training rows range"},
			"column":           {Type: "string", Description: "Training columns range"},
			"missing":          {Type: "string", Description: "Missing cells range"},
			"owner":            {Type: "string"},
			"tags":             {Type: "array", Items: &openapi.Schema{Type: "string"}, Description: "Any of"},
			"regex":            {Type: "string", Description: "RE2 pattern on the model name"},
		},
	},
	"Submission": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"task_id": {Type: "string", Format: "uuid"},
		},
	},
}

var nameParam = openapi.PathParam("name", "Model name")

// dataFields are the form fields that carry either CSV or a dataset hash.
var dataFields = map[string]*openapi.Schema{
	"data":    openapi.Binary("CSV, or a dataset hash when is_hash is 1"),
	"is_hash": openapi.Flag("Treat data as a stored dataset hash"),
	"hash":    openapi.String("Dataset hash, alternative to data"),
}

func withData(extra map[string]*openapi.Schema) map[string]*openapi.Schema {
	out := maps.Clone(dataFields)
	maps.Copy(out, extra)
	return out
}

var docs = struct {
	List         *openapi.Operation
	Upload       *openapi.Operation
	Search       *openapi.Operation
	Find         *openapi.Operation
	Info         *openapi.Operation
	Requirements *openapi.Operation
	Print        *openapi.Operation
	Predict      *openapi.Operation
	Audit        *openapi.Operation
}{
	List: &openapi.Operation{
		Summary: "List models",
		Tags:    []string{"Models"},
		Parameters: append(openapi.PageParams(),
			openapi.QueryParam("language", "string", "Exact language"),
			openapi.QueryParam("owner", "string", "Exact owner"),
			openapi.QueryParam("train_data_id", "string", "Training dataset hash"),
		),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Page of models", openapi.PageOf(openapi.SchemaRef("Model"))),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Upload: &openapi.Operation{
		Summary:     "Upload a model",
		Description: "Stores the files and starts a provisioning task. A name already in use keeps the stored model and the task reports model_existed.",
		Tags:        []string{"Models"},
		RequestBody: openapi.RequestBodyForm(users.WithCredentials(map[string]*openapi.Schema{
			"model_name":            openapi.String("Unique model name"),
			"model_desc":            openapi.String("Description"),
			"target":                openapi.String("Target column of the training data"),
			"language":              {Type: "string", Enum: []any{"python", "r"}},
			"language_version":      openapi.String("Interpreter version, such as 3.8.10"),
			"model":                 openapi.Binary("Serialized model"),
			"requirements":          openapi.Binary("Package manifest"),
			"is_sessionInfo":        openapi.Flag("An R sessionInfo file is attached"),
			"sessionInfo":           openapi.Binary("R sessionInfo"),
			"train_dataset":         openapi.Binary("Training CSV, or its hash when is_train_dataset_hash is 1"),
			"is_train_dataset_hash": openapi.Flag("Treat train_dataset as a stored dataset hash"),
			"train_data_name":       openapi.String("Training data alias name"),
			"dataset_desc":          openapi.String("Training data alias description"),
			"tags":                  {Type: "array", Items: &openapi.Schema{Type: "string"}},
			"system":                openapi.String("Training platform system"),
			"system_release":        openapi.String("Training platform release"),
			"distribution":          openapi.String("Training platform distribution"),
			"distribution_version":  openapi.String("Training platform distribution version"),
			"architecture":          openapi.String("Training platform architecture"),
			"processor":             openapi.String("Training platform processor"),
		}), "model_name", "target", "language", "language_version", "model", "requirements", "train_dataset", "user_name", "password"),
		Responses: map[int]*openapi.Response{
			202: openapi.ResponseJSON("Provisioning task started", openapi.SchemaRef("Submission")),
			400: openapi.ResponseRef("BadRequest"),
			401: openapi.ResponseRef("Unauthorized"),
			503: openapi.ResponseRef("ServiceUnavailable"),
		},
	},
	Search: &openapi.Operation{
		Summary:     "Search models",
		Tags:        []string{"Models"},
		RequestBody: openapi.RequestBodyJSON(openapi.SchemaRef("SearchFilters")),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Matching model names", &openapi.Schema{Type: "array", Items: &openapi.Schema{Type: "string"}}),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Find: &openapi.Operation{
		Summary:    "Get a model",
		Tags:       []string{"Models"},
		Parameters: []*openapi.Parameter{nameParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Model", openapi.SchemaRef("Model")),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Info: &openapi.Operation{
		Summary:    "Describe a model",
		Tags:       []string{"Models"},
		Parameters: []*openapi.Parameter{nameParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Model, training data and audits", openapi.SchemaRef("ModelInfo")),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Requirements: &openapi.Operation{
		Summary:    "Model package versions",
		Tags:       []string{"Models"},
		Parameters: []*openapi.Parameter{nameParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Package to version", &openapi.Schema{
				Type:                 "object",
				AdditionalProperties: &openapi.Schema{Type: "string"},
			}),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Print: &openapi.Operation{
		Summary:    "Print a model",
		Tags:       []string{"Models"},
		Parameters: []*openapi.Parameter{nameParam},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseText("Interpreter rendering of the model", "text/plain"),
			404: openapi.ResponseRef("NotFound"),
			502: openapi.ResponseRef("BadGateway"),
			504: openapi.ResponseRef("GatewayTimeout"),
		},
	},
	Predict: &openapi.Operation{
		Summary: "Predict",
		Tags:    []string{"Models"},
		Parameters: []*openapi.Parameter{
			nameParam,
			{Name: "type", In: "path", Required: true, Schema: &openapi.Schema{Type: "string", Enum: []any{"exact", "prob"}}},
		},
		RequestBody: openapi.RequestBodyForm(withData(nil)),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseText("Predictions, one row per input row", "text/csv"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
			502: openapi.ResponseRef("BadGateway"),
			504: openapi.ResponseRef("GatewayTimeout"),
		},
	},
	Audit: &openapi.Operation{
		Summary:     "Audit",
		Description: "Each model, dataset and measure is scored once; repeats report already_audited.",
		Tags:        []string{"Models"},
		Parameters: []*openapi.Parameter{
			nameParam,
			{Name: "measure", In: "path", Required: true, Schema: &openapi.Schema{Type: "string", Enum: []any{"acc", "mae", "mse"}}},
		},
		RequestBody: openapi.RequestBodyForm(users.WithCredentials(withData(map[string]*openapi.Schema{
			"target":    openapi.String("Target column, defaults to the model's"),
			"data_name": openapi.String("Alias name"),
			"data_desc": openapi.String("Alias description"),
		})), "user_name", "password"),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Audit outcome", openapi.SchemaRef("AuditResult")),
			400: openapi.ResponseRef("BadRequest"),
			401: openapi.ResponseRef("Unauthorized"),
			404: openapi.ResponseRef("NotFound"),
			502: openapi.ResponseRef("BadGateway"),
			504: openapi.ResponseRef("GatewayTimeout"),
		},
	},
}
