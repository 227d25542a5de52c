// Package datasets stores content-addressed training and evaluation data.
// A dataset is keyed by the sha256 of its canonical CSV bytes; aliases attach
// human names to a hash.
package datasets

import "time"

// Dataset is the metadata row of a stored dataset.
type Dataset struct {
	ID        string    `json:"dataset_id"`
	Rows      int       `json:"number_of_rows"`
	Columns   int       `json:"number_of_columns"`
	Missing   int       `json:"missing"`
	Owner     string    `json:"owner"`
	Timestamp time.Time `json:"timestamp"`
}

// Feature describes one column of a dataset.
type Feature struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Unique  int    `json:"unique_val"`
	Missing int    `json:"missing"`
}

// Alias names a dataset. A hash may carry many aliases, one per name.
type Alias struct {
	DatasetID   string    `json:"dataset_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Owner       string    `json:"owner"`
	Timestamp   time.Time `json:"timestamp"`
}

// AliasInput is the optional name and description sent with data.
type AliasInput struct {
	Name        string
	Description string
}

// Input is data submitted by a caller: either CSV content or, when IsHash
// is set, the hash of a dataset already stored.
type Input struct {
	Content []byte
	Hash    string
	IsHash  bool
	Owner   string
	Alias   *AliasInput
}

// Pending is a prepared dataset whose metadata has not been committed.
type Pending struct {
	Hash    string
	Existed bool
	Stats   Stats
	Owner   string
	Alias   *AliasInput
	At      time.Time

	stored bool
	path   string
}

// SaveResult reports the outcome of storing a dataset.
type SaveResult struct {
	Hash       string `json:"dataset_hash"`
	Existed    bool   `json:"dataset_existed"`
	AliasAdded bool   `json:"alias_added"`
}

// Info is a dataset with its columns and aliases.
type Info struct {
	Dataset  Dataset   `json:"dataset"`
	Features []Feature `json:"features"`
	Aliases  []Alias   `json:"aliases"`
}
