package query_test

import (
	"testing"

	"github.com/JaimeStill/weles/pkg/query"
)

func testProjection() *query.ProjectionMap {
	return query.NewProjectionMap("public", "models", "m").
		Project("model_name", "name").
		Project("language", "language").
		Project("timestamp", "timestamp")
}

func joinedProjection() *query.ProjectionMap {
	return query.NewProjectionMap("public", "models", "m").
		Project("model_name", "name").
		Join("public", "datasets", "d", "LEFT JOIN", "m.train_data_id = d.dataset_id").
		Project("number_of_rows", "rows")
}

func ptr[T any](v T) *T { return &v }

func TestProjectionMapTable(t *testing.T) {
	if got := testProjection().Table(); got != "public.models m" {
		t.Errorf("Table() = %q, want %q", got, "public.models m")
	}
}

func TestProjectionMapColumns(t *testing.T) {
	want := "m.model_name, m.language, m.timestamp"
	if got := testProjection().Columns(); got != want {
		t.Errorf("Columns() = %q, want %q", got, want)
	}
}

func TestProjectionMapJoin(t *testing.T) {
	p := joinedProjection()

	wantFrom := "public.models m LEFT JOIN public.datasets d ON m.train_data_id = d.dataset_id"
	if got := p.From(); got != wantFrom {
		t.Errorf("From() = %q, want %q", got, wantFrom)
	}
	if got := p.Column("rows"); got != "d.number_of_rows" {
		t.Errorf("Column(rows) = %q, want d.number_of_rows", got)
	}
	if got := p.Alias(); got != "m" {
		t.Errorf("Alias() = %q, want base alias m", got)
	}
}

func TestProjectionMapColumnLookup(t *testing.T) {
	p := testProjection()

	tests := []struct {
		name     string
		viewName string
		want     string
	}{
		{"mapped field", "language", "m.language"},
		{"renamed field", "name", "m.model_name"},
		{"unmapped passthrough", "unknown", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Column(tt.viewName); got != tt.want {
				t.Errorf("Column(%q) = %q, want %q", tt.viewName, got, tt.want)
			}
		})
	}
}

func TestParseSortFields(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []query.SortField
	}{
		{"empty string", "", nil},
		{"single ascending", "name", []query.SortField{{Field: "name"}}},
		{"single descending", "-timestamp", []query.SortField{{Field: "timestamp", Descending: true}}},
		{
			"mixed with spaces", " name , -timestamp ",
			[]query.SortField{{Field: "name"}, {Field: "timestamp", Descending: true}},
		},
		{"empty parts skipped", "name,,language", []query.SortField{{Field: "name"}, {Field: "language"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := query.ParseSortFields(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseSortFields(%q) length = %d, want %d", tt.input, len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseSortFields(%q)[%d] = %v, want %v", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBuilderBuild(t *testing.T) {
	sql, args := query.NewBuilder(testProjection()).Build()

	wantSQL := "SELECT m.model_name, m.language, m.timestamp FROM public.models m"
	if sql != wantSQL {
		t.Errorf("Build() sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 0 {
		t.Errorf("Build() args = %v, want empty", args)
	}
}

func TestBuilderBuildCountWithJoin(t *testing.T) {
	b := query.NewBuilder(joinedProjection())
	b.WhereEquals("name", "iris_rf")
	sql, args := b.BuildCount()

	wantSQL := "SELECT COUNT(*) FROM public.models m LEFT JOIN public.datasets d ON m.train_data_id = d.dataset_id WHERE m.model_name = $1"
	if sql != wantSQL {
		t.Errorf("BuildCount() sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 1 {
		t.Errorf("BuildCount() args = %v", args)
	}
}

func TestBuilderBuildPage(t *testing.T) {
	b := query.NewBuilder(testProjection(), query.SortField{Field: "timestamp", Descending: true})
	sql, _ := b.BuildPage(2, 10)

	wantSQL := "SELECT m.model_name, m.language, m.timestamp FROM public.models m ORDER BY m.timestamp DESC LIMIT 10 OFFSET 10"
	if sql != wantSQL {
		t.Errorf("BuildPage() sql = %q, want %q", sql, wantSQL)
	}
}

func TestBuilderBuildSingle(t *testing.T) {
	sql, args := query.NewBuilder(testProjection()).BuildSingle("name", "iris_rf")

	wantSQL := "SELECT m.model_name, m.language, m.timestamp FROM public.models m WHERE m.model_name = $1"
	if sql != wantSQL {
		t.Errorf("BuildSingle() sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 1 || args[0] != "iris_rf" {
		t.Errorf("BuildSingle() args = %v, want [iris_rf]", args)
	}
}

func TestBuilderWhereEqualsNilSkipped(t *testing.T) {
	var language *string
	_, args := query.NewBuilder(testProjection()).WhereEquals("language", language).Build()
	if len(args) != 0 {
		t.Errorf("args = %v, want empty", args)
	}
}

func TestBuilderWhereRange(t *testing.T) {
	tests := []struct {
		name     string
		r        query.Range
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "zero range",
			r:       query.Range{},
			wantSQL: "SELECT COUNT(*) FROM public.models m LEFT JOIN public.datasets d ON m.train_data_id = d.dataset_id",
		},
		{
			name:     "open interval",
			r:        query.Range{Greater: ptr(100.0), Less: ptr(200.0)},
			wantSQL:  "SELECT COUNT(*) FROM public.models m LEFT JOIN public.datasets d ON m.train_data_id = d.dataset_id WHERE d.number_of_rows > $1 AND d.number_of_rows < $2",
			wantArgs: []any{100.0, 200.0},
		},
		{
			name:     "equality",
			r:        query.Range{Equal: ptr(150.0)},
			wantSQL:  "SELECT COUNT(*) FROM public.models m LEFT JOIN public.datasets d ON m.train_data_id = d.dataset_id WHERE d.number_of_rows = $1",
			wantArgs: []any{150.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.r.IsZero() != (len(tt.wantArgs) == 0) {
				t.Errorf("IsZero() mismatch")
			}
			sql, args := query.NewBuilder(joinedProjection()).WhereRange("rows", tt.r).BuildCount()
			if sql != tt.wantSQL {
				t.Errorf("sql = %q, want %q", sql, tt.wantSQL)
			}
			if len(args) != len(tt.wantArgs) {
				t.Fatalf("args = %v, want %v", args, tt.wantArgs)
			}
			for i := range args {
				if args[i] != tt.wantArgs[i] {
					t.Errorf("args[%d] = %v, want %v", i, args[i], tt.wantArgs[i])
				}
			}
		})
	}
}

func TestBuilderWhereInSubquery(t *testing.T) {
	tags := []any{"iris", "forest"}
	sql, args := query.NewBuilder(testProjection()).
		WhereEquals("language", "python").
		WhereInSubquery("name", "SELECT model_name FROM public.tags WHERE tag IN ("+query.Placeholders(len(tags))+")", tags).
		Build()

	wantSQL := "SELECT m.model_name, m.language, m.timestamp FROM public.models m WHERE m.language = $1 AND m.model_name IN (SELECT model_name FROM public.tags WHERE tag IN ($2, $3))"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
	if len(args) != 3 || args[2] != "forest" {
		t.Errorf("args = %v", args)
	}
}

func TestBuilderOrderByFields(t *testing.T) {
	b := query.NewBuilder(testProjection(), query.SortField{Field: "name"})
	b.OrderByFields([]query.SortField{{Field: "timestamp", Descending: true}})
	sql, _ := b.Build()

	wantSQL := "SELECT m.model_name, m.language, m.timestamp FROM public.models m ORDER BY m.timestamp DESC"
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
}
