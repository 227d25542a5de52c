package datasets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/JaimeStill/weles/pkg/pagination"
)

type mockSystem struct {
	System
	saveFn    func(ctx context.Context, in Input) (*SaveResult, error)
	contentFn func(ctx context.Context, hash string) ([]byte, error)
	headFn    func(ctx context.Context, hash string, n int) ([]byte, error)
	listFn    func(ctx context.Context, page pagination.PageRequest, f Filters) (*pagination.PageResult[Dataset], error)
}

func (m *mockSystem) Save(ctx context.Context, in Input) (*SaveResult, error) {
	return m.saveFn(ctx, in)
}

func (m *mockSystem) Content(ctx context.Context, hash string) ([]byte, error) {
	return m.contentFn(ctx, hash)
}

func (m *mockSystem) Head(ctx context.Context, hash string, n int) ([]byte, error) {
	return m.headFn(ctx, hash, n)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, f Filters) (*pagination.PageResult[Dataset], error) {
	return m.listFn(ctx, page, f)
}

type staticAuth map[string]string

func (a staticAuth) Authenticate(_ context.Context, name, password string) (bool, error) {
	return a[name] == password, nil
}

func setupMux(sys System) *http.ServeMux {
	h := NewHandler(
		sys,
		staticAuth{"ann": "pw"},
		discardLogger(),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
		1<<20,
	)
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		mux.HandleFunc(route.Method+" "+group.Prefix+route.Pattern, route.Handler)
	}
	return mux
}

func postForm(mux http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandlerUpload(t *testing.T) {
	var got Input
	sys := &mockSystem{
		saveFn: func(_ context.Context, in Input) (*SaveResult, error) {
			got = in
			return &SaveResult{Hash: "h", AliasAdded: in.Alias != nil}, nil
		},
	}
	mux := setupMux(sys)

	rec := postForm(mux, "/datasets", url.Values{
		"user_name": {"ann"},
		"password":  {"pw"},
		"data":      {"a,b\n1,2\n"},
		"data_name": {"train"},
		"data_desc": {"first split"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got.Owner != "ann" || string(got.Content) != "a,b\n1,2\n" {
		t.Errorf("input = %+v", got)
	}
	if got.Alias == nil || got.Alias.Name != "train" || got.Alias.Description != "first split" {
		t.Errorf("alias = %+v", got.Alias)
	}

	var res SaveResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.Hash != "h" || !res.AliasAdded {
		t.Errorf("result = %+v", res)
	}
}

func TestHandlerUploadRejected(t *testing.T) {
	called := false
	sys := &mockSystem{
		saveFn: func(context.Context, Input) (*SaveResult, error) {
			called = true
			return nil, ErrInvalidCSV
		},
	}
	mux := setupMux(sys)

	tests := []struct {
		name   string
		form   url.Values
		status int
		saved  bool
	}{
		{"bad credentials", url.Values{"user_name": {"ann"}, "password": {"no"}, "data": {"a\n"}}, http.StatusUnauthorized, false},
		{"missing data", url.Values{"user_name": {"ann"}, "password": {"pw"}}, http.StatusBadRequest, false},
		{"invalid csv", url.Values{"user_name": {"ann"}, "password": {"pw"}, "data": {"a\n"}}, http.StatusBadRequest, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called = false
			rec := postForm(mux, "/datasets", tt.form)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if called != tt.saved {
				t.Errorf("save called = %v, want %v", called, tt.saved)
			}
		})
	}
}

func TestHandlerHead(t *testing.T) {
	var gotN int
	sys := &mockSystem{
		headFn: func(_ context.Context, hash string, n int) ([]byte, error) {
			gotN = n
			if hash == "missing" {
				return nil, ErrNotFound
			}
			return []byte("a\n1\n"), nil
		},
	}
	mux := setupMux(sys)

	tests := []struct {
		target string
		status int
		n      int
	}{
		{"/datasets/h/head", http.StatusOK, defaultHead},
		{"/datasets/h/head?n=1", http.StatusOK, 1},
		{"/datasets/h/head?n=x", http.StatusBadRequest, -1},
		{"/datasets/missing/head", http.StatusNotFound, defaultHead},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			gotN = -1
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if gotN != tt.n {
				t.Errorf("n = %d, want %d", gotN, tt.n)
			}
		})
	}
}

func TestHandlerContent(t *testing.T) {
	sys := &mockSystem{
		contentFn: func(context.Context, string) ([]byte, error) {
			return []byte("a\n1\n"), nil
		},
	}
	rec := httptest.NewRecorder()
	setupMux(sys).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/datasets/h", nil))

	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "text/csv" {
		t.Errorf("status = %d, content type %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if rec.Body.String() != "a\n1\n" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestHandlerList(t *testing.T) {
	var got Filters
	sys := &mockSystem{
		listFn: func(_ context.Context, page pagination.PageRequest, f Filters) (*pagination.PageResult[Dataset], error) {
			got = f
			res := pagination.NewPageResult([]Dataset{{ID: "h"}}, 1, page.Page, page.PageSize)
			return &res, nil
		},
	}
	rec := httptest.NewRecorder()
	setupMux(sys).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/datasets?owner=ann&alias=iris", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got.Owner == nil || *got.Owner != "ann" || got.Alias == nil || *got.Alias != "iris" {
		t.Errorf("filters = %+v", got)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrInvalidCSV, http.StatusBadRequest},
		{ErrInvalidRow, http.StatusBadRequest},
		{errors.New("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
