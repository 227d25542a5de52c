// Package models is the model registry. It stores uploaded artifacts,
// provisions their environments through background tasks, and serves
// predictions, audits and metadata queries against them.
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/weles/internal/audits"
	"github.com/JaimeStill/weles/internal/datasets"
	"github.com/JaimeStill/weles/internal/manifest"
)

// Platform records where a model was trained.
type Platform struct {
	System              string `json:"system"`
	SystemRelease       string `json:"system_release"`
	Distribution        string `json:"distribution"`
	DistributionVersion string `json:"distribution_version"`
	Architecture        string `json:"architecture"`
	Processor           string `json:"processor"`
}

// Model is a registered model.
type Model struct {
	Name            string    `json:"model_name"`
	Hash            string    `json:"hash"`
	Target          string    `json:"target"`
	TrainDataID     string    `json:"train_data_id"`
	Timestamp       time.Time `json:"timestamp"`
	Language        string    `json:"language"`
	LanguageVersion string    `json:"language_version"`
	Description     string    `json:"description"`
	Owner           string    `json:"owner"`
	Tags            []string  `json:"tags"`
	Platform
}

// UploadCommand carries a model upload. TrainData is either CSV content or
// the hash of a stored dataset.
type UploadCommand struct {
	Name            string
	Description     string
	Target          string
	Language        string
	LanguageVersion string
	Artifact        []byte
	Manifest        []byte
	SessionInfo     []byte
	Platform        Platform
	Tags            []string
	Owner           string
	TrainData       datasets.Input
}

// Submission is returned by Upload before provisioning finishes.
type Submission struct {
	TaskID uuid.UUID `json:"task_id"`
}

// UploadInfo is the info payload of a finished upload task.
type UploadInfo struct {
	ModelExisted        bool
	TrainingDataHash    string
	TrainingDataExisted bool
	AddedAliasForData   bool
}

// MarshalJSON writes training_data_hash as false when no dataset was saved.
func (u UploadInfo) MarshalJSON() ([]byte, error) {
	var hash any = false
	if u.TrainingDataHash != "" {
		hash = u.TrainingDataHash
	}
	return json.Marshal(struct {
		ModelExisted        bool `json:"model_existed"`
		TrainingDataHash    any  `json:"training_data_hash"`
		TrainingDataExisted bool `json:"training_data_existed"`
		AddedAliasForData   bool `json:"added_alias_for_data"`
	}{u.ModelExisted, hash, u.TrainingDataExisted, u.AddedAliasForData})
}

// PredictCommand requests predictions. DatasetHash selects a stored
// dataset, in which case the model's target column is dropped from it;
// otherwise Data holds CSV features.
type PredictCommand struct {
	Name        string
	Type        string
	Data        []byte
	DatasetHash string
}

// AuditCommand requests a score of a model against data.
type AuditCommand struct {
	Name    string
	Measure string
	Target  string
	Data    datasets.Input
	User    string
}

// AuditResult reports an audit. Value is absent when the model had already
// been audited on the dataset with the measure.
type AuditResult struct {
	AlreadyAudited bool     `json:"already_audited"`
	DatasetHash    string   `json:"dataset_hash"`
	DatasetExisted bool     `json:"dataset_existed"`
	AliasAdded     bool     `json:"alias_added"`
	Value          *float64 `json:"value,omitempty"`
}

// Info is a model with its training data and audit history.
type Info struct {
	Model    Model              `json:"model"`
	Dataset  *datasets.Dataset  `json:"dataset"`
	Features []datasets.Feature `json:"features"`
	Aliases  []datasets.Alias   `json:"aliases"`
	Audits   []audits.Audit     `json:"audits"`
}

func (m *Model) language() (manifest.Language, error) {
	return manifest.ParseLanguage(m.Language)
}
