package audits

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JaimeStill/weles/pkg/repository"
)

func TestParseMeasure(t *testing.T) {
	tests := []struct {
		in      string
		want    Measure
		wantErr bool
	}{
		{"acc", Accuracy, false},
		{"MAE", MeanAbsoluteError, false},
		{"mse", MeanSquaredError, false},
		{"rmse", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMeasure(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidMeasure) {
					t.Errorf("err = %v, want ErrInvalidMeasure", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseMeasure(%q) = %q, %v", tt.in, got, err)
			}
		})
	}
}

func TestUniqueViolationMapsToDuplicate(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	mapped := repository.MapError(err, ErrNotFound, ErrDuplicate)
	if !errors.Is(mapped, ErrDuplicate) {
		t.Errorf("mapped = %v, want ErrDuplicate", mapped)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrInvalidMeasure, http.StatusBadRequest},
		{ErrDuplicate, http.StatusConflict},
		{ErrNotFound, http.StatusNotFound},
		{errors.New("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
