// Package handlers provides response helpers shared by HTTP handlers.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// RespondJSON writes data as a JSON body with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError logs err and writes it as {"error": "..."}.
// Server-side failures log at error level, client errors at warn.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request rejected", "status", status, "error", err)
	}
	RespondJSON(w, status, map[string]string{"error": err.Error()})
}

// RespondBytes writes a raw payload, such as CSV produced by a model script.
func RespondBytes(w http.ResponseWriter, status int, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	w.Write(data)
}

// ErrFieldMissing reports a form field that is neither a file part nor a value.
var ErrFieldMissing = errors.New("form field missing")

// ParseForm parses a multipart body bounded by maxMemory, falling back to
// url-encoded forms.
func ParseForm(r *http.Request, maxMemory int64) error {
	err := r.ParseMultipartForm(maxMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}

// FormBytes returns the payload of field, read from a file part when one was
// uploaded and from the plain form value otherwise.
func FormBytes(r *http.Request, field string) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if err == nil {
		defer file.Close()
		return io.ReadAll(file)
	}

	if v := r.FormValue(field); v != "" {
		return []byte(v), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrFieldMissing, field)
}
