package audits

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/weles/pkg/repository"
)

// System stores and queries audit records.
type System interface {
	Exists(ctx context.Context, model, dataset string, measure Measure) (bool, error)
	Create(ctx context.Context, a Audit) error
	ListByModel(ctx context.Context, model string) ([]Audit, error)
}

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "audits"),
	}
}

func (r *repo) Exists(ctx context.Context, model, dataset string, measure Measure) (bool, error) {
	ok, err := repository.Exists(
		ctx, r.db,
		`SELECT EXISTS(
			SELECT 1 FROM audits WHERE model_name = $1 AND dataset_id = $2 AND measure = $3
		)`,
		model, dataset, string(measure),
	)
	if err != nil {
		return false, fmt.Errorf("check audit: %w", err)
	}
	return ok, nil
}

// Create inserts a. A concurrent insert of the same model, dataset and
// measure yields ErrDuplicate.
func (r *repo) Create(ctx context.Context, a Audit) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(
			ctx, tx,
			`INSERT INTO audits(model_name, dataset_id, measure, value, user_name, timestamp)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			a.Model, a.DatasetID, string(a.Measure), a.Value, a.User, a.Timestamp,
		)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info(
		"audit recorded",
		"model", a.Model,
		"dataset", a.DatasetID,
		"measure", a.Measure,
		"value", a.Value,
	)
	return nil
}

func (r *repo) ListByModel(ctx context.Context, model string) ([]Audit, error) {
	items, err := repository.QueryMany(
		ctx, r.db,
		`SELECT model_name, dataset_id, measure, value, user_name, timestamp
		FROM audits WHERE model_name = $1 ORDER BY timestamp`,
		[]any{model},
		scanAudit,
	)
	if err != nil {
		return nil, fmt.Errorf("query audits: %w", err)
	}
	return items, nil
}

func scanAudit(s repository.Scanner) (Audit, error) {
	var a Audit
	err := s.Scan(&a.Model, &a.DatasetID, &a.Measure, &a.Value, &a.User, &a.Timestamp)
	return a, err
}
