// Package audits records model scores against stored datasets. A model is
// scored at most once per dataset and measure.
package audits

import (
	"fmt"
	"strings"
	"time"
)

// Measure is a built-in audit metric.
type Measure string

const (
	Accuracy          Measure = "acc"
	MeanAbsoluteError Measure = "mae"
	MeanSquaredError  Measure = "mse"
)

// ParseMeasure validates s as a Measure.
func ParseMeasure(s string) (Measure, error) {
	switch m := Measure(strings.ToLower(s)); m {
	case Accuracy, MeanAbsoluteError, MeanSquaredError:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMeasure, s)
}

// Audit is one recorded score.
type Audit struct {
	Model     string    `json:"model_name"`
	DatasetID string    `json:"dataset_id"`
	Measure   Measure   `json:"measure"`
	Value     float64   `json:"value"`
	User      string    `json:"user_name"`
	Timestamp time.Time `json:"timestamp"`
}
