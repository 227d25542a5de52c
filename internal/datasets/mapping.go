package datasets

import (
	"net/url"

	"github.com/JaimeStill/weles/pkg/query"
	"github.com/JaimeStill/weles/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "datasets", "d").
	Project("dataset_id", "ID").
	Project("number_of_rows", "Rows").
	Project("number_of_columns", "Columns").
	Project("missing", "Missing").
	Project("owner", "Owner").
	Project("timestamp", "Timestamp")

var defaultSort = query.SortField{
	Field:      "Timestamp",
	Descending: true,
}

const aliasSubquery = "SELECT dataset_id FROM public.datasets_aliases WHERE name ILIKE $%d"

// Filters narrows dataset listings. Owner matches exactly; Alias matches
// any alias name containing the value.
type Filters struct {
	Owner *string `json:"owner,omitempty"`
	Alias *string `json:"alias,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	b.WhereEquals("Owner", f.Owner)
	if f.Alias != nil && *f.Alias != "" {
		b.WhereInSubquery("ID", aliasSubquery, []any{"%" + *f.Alias + "%"})
	}
	return b
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if o := values.Get("owner"); o != "" {
		f.Owner = &o
	}

	if a := values.Get("alias"); a != "" {
		f.Alias = &a
	}

	return f
}

func scanDataset(s repository.Scanner) (Dataset, error) {
	var d Dataset
	err := s.Scan(
		&d.ID,
		&d.Rows,
		&d.Columns,
		&d.Missing,
		&d.Owner,
		&d.Timestamp,
	)
	return d, err
}

func scanFeature(s repository.Scanner) (Feature, error) {
	var f Feature
	err := s.Scan(&f.ID, &f.Name, &f.Unique, &f.Missing)
	return f, err
}

func scanAlias(s repository.Scanner) (Alias, error) {
	var a Alias
	err := s.Scan(&a.DatasetID, &a.Name, &a.Description, &a.Owner, &a.Timestamp)
	return a, err
}
