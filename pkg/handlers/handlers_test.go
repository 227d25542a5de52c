package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/JaimeStill/weles/pkg/handlers"
)

func TestRespondJSON(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		data       any
		wantStatus int
	}{
		{
			name:       "200 with map",
			status:     http.StatusOK,
			data:       map[string]string{"key": "value"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "201 with struct",
			status:     http.StatusCreated,
			data:       struct{ ID int }{ID: 42},
			wantStatus: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handlers.RespondJSON(rec, tt.status, tt.data)

			res := rec.Result()
			defer res.Body.Close()

			if res.StatusCode != tt.wantStatus {
				t.Errorf("status: got %d, want %d", res.StatusCode, tt.wantStatus)
			}
			if ct := res.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("content-type: got %s", ct)
			}

			body, _ := io.ReadAll(res.Body)
			var parsed map[string]any
			if err := json.Unmarshal(body, &parsed); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
		})
	}
}

func TestRespondError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := httptest.NewRecorder()

	handlers.RespondError(rec, logger, http.StatusBadRequest, errors.New("invalid input"))

	res := rec.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type: got %s", ct)
	}

	body, _ := io.ReadAll(res.Body)
	var parsed map[string]string
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if parsed["error"] != "invalid input" {
		t.Errorf("error: got %s, want invalid input", parsed["error"])
	}
}

func TestRespondBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	handlers.RespondBytes(rec, http.StatusOK, "text/csv", []byte("0\n1\n"))

	res := rec.Result()
	defer res.Body.Close()

	if ct := res.Header.Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content-type: got %s", ct)
	}
	body, _ := io.ReadAll(res.Body)
	if string(body) != "0\n1\n" {
		t.Errorf("body: got %q", body)
	}
}

func TestFormBytes(t *testing.T) {
	t.Run("file part", func(t *testing.T) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		fw, _ := mw.CreateFormFile("data", "train.csv")
		fw.Write([]byte("a,b\n1,2\n"))
		mw.Close()

		req := httptest.NewRequest(http.MethodPost, "/", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		if err := handlers.ParseForm(req, 1<<20); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}

		got, err := handlers.FormBytes(req, "data")
		if err != nil {
			t.Fatalf("FormBytes: %v", err)
		}
		if string(got) != "a,b\n1,2\n" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("url-encoded value", func(t *testing.T) {
		form := url.Values{"data": {"x,y"}}
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if err := handlers.ParseForm(req, 1<<20); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}

		got, err := handlers.FormBytes(req, "data")
		if err != nil || string(got) != "x,y" {
			t.Errorf("got %q, %v", got, err)
		}

		if _, err := handlers.FormBytes(req, "other"); !errors.Is(err, handlers.ErrFieldMissing) {
			t.Errorf("missing field err = %v", err)
		}
	})
}
