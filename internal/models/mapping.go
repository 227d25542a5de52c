package models

import (
	"net/url"

	"github.com/JaimeStill/weles/pkg/query"
	"github.com/JaimeStill/weles/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "models", "m").
	Project("model_name", "Name").
	Project("hash", "Hash").
	Project("target", "Target").
	Project("train_data_id", "TrainDataID").
	Project("timestamp", "Timestamp").
	Project("language", "Language").
	Project("language_version", "LanguageVersion").
	Project("description", "Description").
	Project("owner", "Owner").
	Project("system", "System").
	Project("system_release", "SystemRelease").
	Project("distribution", "Distribution").
	Project("distribution_version", "DistributionVersion").
	Project("architecture", "Architecture").
	Project("processor", "Processor")

var defaultSort = query.SortField{
	Field:      "Timestamp",
	Descending: true,
}

// Filters narrows model listings with exact matches.
type Filters struct {
	Language *string `json:"language,omitempty"`
	Owner    *string `json:"owner,omitempty"`
	Dataset  *string `json:"train_data_id,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Language", f.Language).
		WhereEquals("Owner", f.Owner).
		WhereEquals("TrainDataID", f.Dataset)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if l := values.Get("language"); l != "" {
		f.Language = &l
	}

	if o := values.Get("owner"); o != "" {
		f.Owner = &o
	}

	if d := values.Get("train_data_id"); d != "" {
		f.Dataset = &d
	}

	return f
}

func scanModel(s repository.Scanner) (Model, error) {
	var m Model
	err := s.Scan(
		&m.Name,
		&m.Hash,
		&m.Target,
		&m.TrainDataID,
		&m.Timestamp,
		&m.Language,
		&m.LanguageVersion,
		&m.Description,
		&m.Owner,
		&m.System,
		&m.SystemRelease,
		&m.Distribution,
		&m.DistributionVersion,
		&m.Architecture,
		&m.Processor,
	)
	return m, err
}
