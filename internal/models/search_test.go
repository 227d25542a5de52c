package models

import (
	"errors"
	"strings"
	"testing"
)

func TestParseRange(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name    string
		expr    string
		greater *float64
		less    *float64
		equal   *float64
		wantErr bool
	}{
		{"empty", "", nil, nil, nil, false},
		{"lower bound", ">100;", f(100), nil, nil, false},
		{"upper bound", "<5;", nil, f(5), nil, false},
		{"both bounds", ">100;<200;", f(100), f(200), nil, false},
		{"bounds reversed order", "<200;>100;", f(100), f(200), nil, false},
		{"spaces between clauses", " >1; <3; ", f(1), f(3), nil, false},
		{"equal", "=0;", nil, nil, f(0), false},
		{"missing semicolon", ">100", nil, nil, nil, true},
		{"negative", ">-1;", nil, nil, nil, true},
		{"repeated operator", ">1;>2;", nil, nil, nil, true},
		{"equal with bound", "=3;<5;", nil, nil, nil, true},
		{"empty interval", ">5;<5;", nil, nil, nil, true},
		{"garbage", "rows", nil, nil, nil, true},
	}

	eq := func(a, b *float64) bool {
		if a == nil || b == nil {
			return a == b
		}
		return *a == *b
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseRange(tt.expr)
			if tt.wantErr {
				if !errors.Is(err, ErrQueryMalformed) {
					t.Fatalf("err = %v, want ErrQueryMalformed", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !eq(r.Greater, tt.greater) || !eq(r.Less, tt.less) || !eq(r.Equal, tt.equal) {
				t.Errorf("range = %+v", r)
			}
		})
	}
}

func TestVersionRange(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		version string
		want    bool
	}{
		{"zero range matches anything", "", "not-a-version", true},
		{"lower bound", ">3.7;", "3.8.10", true},
		{"lower bound strict", ">3.8;", "3.8.0", false},
		{"window", ">3.6;<3.10;", "3.9.1", true},
		{"above window", ">3.6;<3.10;", "3.11", false},
		{"equal", "=4.1.2;", "4.1.2", true},
		{"equal mismatch", "=4.1.2;", "4.1.3", false},
		{"unparseable version", ">1;", "latest", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseVersionRange(tt.expr)
			if err != nil {
				t.Fatalf("ParseVersionRange: %v", err)
			}
			if got := r.Contains(tt.version); got != tt.want {
				t.Errorf("Contains(%q) = %v, want %v", tt.version, got, tt.want)
			}
		})
	}
}

func TestParseVersionRangeMalformed(t *testing.T) {
	for _, expr := range []string{">3.9;<3.8;", "~3;", ">3.x;"} {
		if _, err := ParseVersionRange(expr); !errors.Is(err, ErrQueryMalformed) {
			t.Errorf("ParseVersionRange(%q) err = %v, want ErrQueryMalformed", expr, err)
		}
	}
}

func TestSearchBuilder(t *testing.T) {
	s, err := SearchFilters{
		Language: "Python",
		Rows:     ">100;<200;",
		Tags:     []string{"iris", "demo"},
	}.compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	sql, args := s.builder().Build()

	for _, want := range []string{
		"FROM public.models m JOIN public.datasets d ON d.dataset_id = m.train_data_id",
		"m.language = $1",
		"d.number_of_rows > $2",
		"d.number_of_rows < $3",
		"m.model_name IN (SELECT model_name FROM public.tags WHERE tag IN ($4, $5))",
		"ORDER BY m.model_name ASC",
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("sql missing %q:\n%s", want, sql)
		}
	}

	if len(args) != 5 {
		t.Fatalf("args = %v, want 5", args)
	}
	if lang, ok := args[0].(*string); !ok || *lang != "python" {
		t.Errorf("language arg = %v, want lowercased", args[0])
	}
	if args[1] != 100.0 || args[2] != 200.0 {
		t.Errorf("range args = %v, %v", args[1], args[2])
	}
}

func TestSearchBuilderNoFilters(t *testing.T) {
	s, err := SearchFilters{}.compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	sql, args := s.builder().Build()
	if strings.Contains(sql, "WHERE") {
		t.Errorf("unexpected WHERE in %s", sql)
	}
	if len(args) != 0 {
		t.Errorf("args = %v", args)
	}
}

func TestSearchKeep(t *testing.T) {
	s, err := SearchFilters{LanguageVersion: ">3.7;", Regex: "^iris_"}.compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	tests := []struct {
		name    string
		model   string
		version string
		want    bool
	}{
		{"both match", "iris_rf", "3.9.7", true},
		{"version too old", "iris_rf", "3.6.0", false},
		{"name mismatch", "boston_lm", "3.9.7", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.keep(tt.model, tt.version); got != tt.want {
				t.Errorf("keep = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSearchCompileRejectsBadRegex(t *testing.T) {
	if _, err := (SearchFilters{Regex: "("}).compile(); !errors.Is(err, ErrQueryMalformed) {
		t.Fatalf("err = %v, want ErrQueryMalformed", err)
	}
}
