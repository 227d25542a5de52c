package models

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/JaimeStill/weles/internal/datasets"
	"github.com/JaimeStill/weles/pkg/query"
	"github.com/JaimeStill/weles/pkg/repository"
)

// store is the metadata the registry needs outside of listings.
type store interface {
	find(ctx context.Context, name string) (*Model, error)
	exists(ctx context.Context, name string) (bool, error)
	// commit records an uploaded model, its tags and its training data in
	// one transaction. It reports whether a dataset alias was added.
	commit(ctx context.Context, m Model, train *datasets.Pending) (bool, error)
}

type pgStore struct {
	db       *sql.DB
	datasets datasets.System
}

func (s *pgStore) find(ctx context.Context, name string) (*Model, error) {
	q, args := query.NewBuilder(projection).BuildSingle("Name", name)

	m, err := repository.QueryOne(ctx, s.db, q, args, scanModel)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	tags, err := repository.QueryMany(
		ctx, s.db,
		"SELECT tag FROM tags WHERE model_name = $1 ORDER BY tag",
		[]any{name},
		scanTag,
	)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	m.Tags = tags
	return &m, nil
}

func (s *pgStore) exists(ctx context.Context, name string) (bool, error) {
	return repository.Exists(
		ctx, s.db,
		"SELECT EXISTS(SELECT 1 FROM models WHERE model_name = $1)",
		name,
	)
}

func (s *pgStore) commit(ctx context.Context, m Model, train *datasets.Pending) (bool, error) {
	return repository.WithTx(ctx, s.db, func(tx *sql.Tx) (bool, error) {
		added, err := s.datasets.Commit(ctx, tx, train)
		if err != nil {
			return false, err
		}

		if err := repository.ExecExpectOne(
			ctx, tx,
			`INSERT INTO models(
				model_name, hash, target, train_data_id, timestamp,
				system, system_release, distribution, distribution_version,
				language, language_version, architecture, processor,
				description, owner)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			m.Name, m.Hash, m.Target, m.TrainDataID, m.Timestamp,
			m.System, m.SystemRelease, m.Distribution, m.DistributionVersion,
			m.Language, m.LanguageVersion, m.Architecture, m.Processor,
			m.Description, m.Owner,
		); err != nil {
			return false, fmt.Errorf("insert model: %w", err)
		}

		for _, tag := range m.Tags {
			if _, err := repository.ExecAffected(
				ctx, tx,
				"INSERT INTO tags(model_name, tag) VALUES ($1, $2) ON CONFLICT DO NOTHING",
				m.Name, tag,
			); err != nil {
				return false, fmt.Errorf("insert tag %s: %w", tag, err)
			}
		}

		return added, nil
	})
}

func scanTag(s repository.Scanner) (string, error) {
	var tag string
	err := s.Scan(&tag)
	return tag, err
}
