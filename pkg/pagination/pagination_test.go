package pagination_test

import (
	"encoding/json"
	"errors"
	"net/url"
	"slices"
	"strings"
	"testing"

	"github.com/JaimeStill/weles/pkg/pagination"
	"github.com/JaimeStill/weles/pkg/query"
)

var listing = pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}

func TestConfigFinalize(t *testing.T) {
	tests := []struct {
		name     string
		cfg      pagination.Config
		env      map[string]string
		wantSize int
		wantMax  int
		wantErr  string
	}{
		{name: "defaults", wantSize: 20, wantMax: 100},
		{
			name:     "file values kept",
			cfg:      pagination.Config{DefaultPageSize: 10, MaxPageSize: 50},
			wantSize: 10,
			wantMax:  50,
		},
		{
			name:     "env overrides file",
			cfg:      pagination.Config{DefaultPageSize: 10, MaxPageSize: 50},
			env:      map[string]string{"WELES_PAGE_SIZE": "25", "WELES_MAX_PAGE_SIZE": "250"},
			wantSize: 25,
			wantMax:  250,
		},
		{
			name:    "default above max",
			cfg:     pagination.Config{DefaultPageSize: 200, MaxPageSize: 100},
			wantErr: "cannot exceed",
		},
		{
			name:    "malformed env",
			env:     map[string]string{"WELES_MAX_PAGE_SIZE": "lots"},
			wantErr: "WELES_MAX_PAGE_SIZE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg := tt.cfg
			err := cfg.Finalize(&pagination.ConfigEnv{
				DefaultPageSize: "WELES_PAGE_SIZE",
				MaxPageSize:     "WELES_MAX_PAGE_SIZE",
			})

			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if cfg.DefaultPageSize != tt.wantSize || cfg.MaxPageSize != tt.wantMax {
				t.Errorf("got %d/%d, want %d/%d",
					cfg.DefaultPageSize, cfg.MaxPageSize, tt.wantSize, tt.wantMax)
			}
		})
	}
}

func TestConfigMerge(t *testing.T) {
	base := listing
	base.Merge(&pagination.Config{MaxPageSize: 500})

	if base.DefaultPageSize != 20 || base.MaxPageSize != 500 {
		t.Errorf("merged = %+v", base)
	}
}

func TestPageRequestFromQuery(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantPage   int
		wantSize   int
		wantOffset int
		wantSearch string
		wantSort   []query.SortField
	}{
		{name: "empty", wantPage: 1, wantSize: 20},
		{name: "second page", query: "page=2", wantPage: 2, wantSize: 20, wantOffset: 20},
		{name: "zero page", query: "page=0&page_size=5", wantPage: 1, wantSize: 5},
		{name: "negative size", query: "page=3&page_size=-1", wantPage: 3, wantSize: 20, wantOffset: 40},
		{name: "size clamped", query: "page=2&page_size=1000", wantPage: 2, wantSize: 100, wantOffset: 100},
		{
			name:       "search and sort",
			query:      "search=iris&sort=name,-created",
			wantPage:   1,
			wantSize:   20,
			wantSearch: "iris",
			wantSort: []query.SortField{
				{Field: "name"},
				{Field: "created", Descending: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatal(err)
			}

			req, err := pagination.PageRequestFromQuery(values, listing)
			if err != nil {
				t.Fatal(err)
			}

			if req.Page != tt.wantPage || req.PageSize != tt.wantSize {
				t.Errorf("page %d size %d, want %d size %d",
					req.Page, req.PageSize, tt.wantPage, tt.wantSize)
			}
			if got := req.Offset(); got != tt.wantOffset {
				t.Errorf("Offset() = %d, want %d", got, tt.wantOffset)
			}

			var search string
			if req.Search != nil {
				search = *req.Search
			}
			if search != tt.wantSearch {
				t.Errorf("search = %q, want %q", search, tt.wantSearch)
			}
			if !slices.Equal(req.Sort, tt.wantSort) {
				t.Errorf("sort = %v, want %v", req.Sort, tt.wantSort)
			}
		})
	}
}

func TestPageRequestFromQueryInvalid(t *testing.T) {
	for _, q := range []string{"page=two", "page_size=1.5", "page=1&page_size=x"} {
		t.Run(q, func(t *testing.T) {
			values, _ := url.ParseQuery(q)
			_, err := pagination.PageRequestFromQuery(values, listing)
			if !errors.Is(err, pagination.ErrInvalidPage) {
				t.Errorf("err = %v, want ErrInvalidPage", err)
			}
		})
	}
}

func TestNewPageResult(t *testing.T) {
	tests := []struct {
		name      string
		data      []string
		total     int
		page      int
		wantPages int
		wantNext  bool
	}{
		{"no models", nil, 0, 1, 1, false},
		{"single page", []string{"iris", "mtcars"}, 2, 1, 1, false},
		{"first of three", []string{"iris"}, 41, 1, 3, true},
		{"last of three", []string{"iris"}, 41, 3, 3, false},
		{"exact fit", []string{"iris"}, 40, 2, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := pagination.NewPageResult(tt.data, tt.total, tt.page, 20)
			if res.TotalPages != tt.wantPages {
				t.Errorf("TotalPages = %d, want %d", res.TotalPages, tt.wantPages)
			}
			if res.HasNext != tt.wantNext {
				t.Errorf("HasNext = %v, want %v", res.HasNext, tt.wantNext)
			}
			if res.Data == nil {
				t.Error("Data is nil")
			}
		})
	}
}

func TestPageResultJSON(t *testing.T) {
	b, err := json.Marshal(pagination.NewPageResult[string](nil, 0, 1, 20))
	if err != nil {
		t.Fatal(err)
	}

	want := `{"data":[],"total":0,"page":1,"page_size":20,"total_pages":1,"has_next":false}`
	if string(b) != want {
		t.Errorf("json = %s, want %s", b, want)
	}
}
