package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/JaimeStill/weles/pkg/query"
)

// Range filters are sequences of "<n;", ">n;" and "=n;" clauses, for
// example ">100;<200;". Bounds are strict.
var (
	numericClause = regexp.MustCompile(`^([<>=])([0-9]+);`)
	versionClause = regexp.MustCompile(`^([<>=])([0-9]+(?:\.[0-9]+)*);`)
)

var searchProjection = query.
	NewProjectionMap("public", "models", "m").
	Project("model_name", "Name").
	Project("language", "Language").
	Project("language_version", "LanguageVersion").
	Project("owner", "Owner").
	Join("public", "datasets", "d", "JOIN", "d.dataset_id = m.train_data_id").
	Project("number_of_rows", "Rows").
	Project("number_of_columns", "Columns").
	Project("missing", "Missing")

const tagSubquery = "SELECT model_name FROM public.tags WHERE tag IN (%s)"

// SearchFilters selects models by metadata and by the shape of their
// training data. Empty fields are ignored; Tags match any of the values.
type SearchFilters struct {
	Language        string   `json:"language,omitempty"`
	LanguageVersion string   `json:"language_version,omitempty"`
	Rows            string   `json:"row,omitempty"`
	Columns         string   `json:"column,omitempty"`
	Missing         string   `json:"missing,omitempty"`
	Owner           string   `json:"owner,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Regex           string   `json:"regex,omitempty"`
}

func parseClauses(expr string, clause *regexp.Regexp) (map[byte]string, error) {
	found := make(map[byte]string)
	rest := strings.TrimSpace(expr)

	for rest != "" {
		m := clause.FindStringSubmatch(rest)
		if m == nil {
			return nil, fmt.Errorf("%w: %q", ErrQueryMalformed, expr)
		}
		op := m[1][0]
		if _, dup := found[op]; dup {
			return nil, fmt.Errorf("%w: repeated %q in %q", ErrQueryMalformed, op, expr)
		}
		found[op] = m[2]
		rest = strings.TrimSpace(rest[len(m[0]):])
	}

	if _, eq := found['=']; eq && len(found) > 1 {
		return nil, fmt.Errorf("%w: %q combines = with a bound", ErrQueryMalformed, expr)
	}
	return found, nil
}

// ParseRange parses a numeric range filter. An empty expression yields the
// zero Range.
func ParseRange(expr string) (query.Range, error) {
	var r query.Range

	found, err := parseClauses(expr, numericClause)
	if err != nil {
		return r, err
	}

	for op, s := range found {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return r, fmt.Errorf("%w: %w", ErrQueryMalformed, err)
		}
		switch op {
		case '<':
			r.Less = &v
		case '>':
			r.Greater = &v
		case '=':
			r.Equal = &v
		}
	}

	if r.Greater != nil && r.Less != nil && *r.Greater >= *r.Less {
		return r, fmt.Errorf("%w: empty interval %q", ErrQueryMalformed, expr)
	}
	return r, nil
}

// VersionRange bounds a language version.
type VersionRange struct {
	Greater *semver.Version
	Less    *semver.Version
	Equal   *semver.Version
}

// ParseVersionRange parses a range filter over dotted versions.
func ParseVersionRange(expr string) (VersionRange, error) {
	var r VersionRange

	found, err := parseClauses(expr, versionClause)
	if err != nil {
		return r, err
	}

	for op, s := range found {
		v, err := semver.NewVersion(s)
		if err != nil {
			return r, fmt.Errorf("%w: %w", ErrQueryMalformed, err)
		}
		switch op {
		case '<':
			r.Less = v
		case '>':
			r.Greater = v
		case '=':
			r.Equal = v
		}
	}

	if r.Greater != nil && r.Less != nil && !r.Greater.LessThan(r.Less) {
		return r, fmt.Errorf("%w: empty interval %q", ErrQueryMalformed, expr)
	}
	return r, nil
}

// IsZero reports whether no bound is set.
func (r VersionRange) IsZero() bool {
	return r.Greater == nil && r.Less == nil && r.Equal == nil
}

// Contains reports whether version satisfies every bound. Versions that do
// not parse never match a non-zero range.
func (r VersionRange) Contains(version string) bool {
	if r.IsZero() {
		return true
	}

	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}

	if r.Equal != nil && !v.Equal(r.Equal) {
		return false
	}
	if r.Greater != nil && !v.GreaterThan(r.Greater) {
		return false
	}
	if r.Less != nil && !v.LessThan(r.Less) {
		return false
	}
	return true
}

type search struct {
	rows     query.Range
	columns  query.Range
	missing  query.Range
	version  VersionRange
	language *string
	owner    *string
	tags     []any
	pattern  *regexp.Regexp
}

func (f SearchFilters) compile() (*search, error) {
	var (
		s   search
		err error
	)

	if s.rows, err = ParseRange(f.Rows); err != nil {
		return nil, err
	}
	if s.columns, err = ParseRange(f.Columns); err != nil {
		return nil, err
	}
	if s.missing, err = ParseRange(f.Missing); err != nil {
		return nil, err
	}
	if s.version, err = ParseVersionRange(f.LanguageVersion); err != nil {
		return nil, err
	}

	if f.Language != "" {
		lang := strings.ToLower(f.Language)
		s.language = &lang
	}
	if f.Owner != "" {
		s.owner = &f.Owner
	}
	for _, tag := range f.Tags {
		s.tags = append(s.tags, tag)
	}

	if f.Regex != "" {
		if s.pattern, err = regexp.Compile(f.Regex); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQueryMalformed, err)
		}
	}
	return &s, nil
}

func (s *search) builder() *query.Builder {
	b := query.
		NewBuilder(searchProjection, query.SortField{Field: "Name"}).
		WhereEquals("Language", s.language).
		WhereEquals("Owner", s.owner).
		WhereRange("Rows", s.rows).
		WhereRange("Columns", s.columns).
		WhereRange("Missing", s.missing)

	if len(s.tags) > 0 {
		b.WhereInSubquery("Name", fmt.Sprintf(tagSubquery, query.Placeholders(len(s.tags))), s.tags)
	}
	return b
}

// keep applies the filters that run after the query.
func (s *search) keep(name, version string) bool {
	if !s.version.Contains(version) {
		return false
	}
	return s.pattern == nil || s.pattern.MatchString(name)
}
