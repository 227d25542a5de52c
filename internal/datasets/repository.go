package datasets

import (
	"context"
	_ "crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/JaimeStill/weles/internal/users"
	"github.com/JaimeStill/weles/internal/workspace"
	"github.com/JaimeStill/weles/pkg/pagination"
	"github.com/JaimeStill/weles/pkg/query"
	"github.com/JaimeStill/weles/pkg/repository"
)

type repo struct {
	db         *sql.DB
	layout     workspace.Layout
	archive    workspace.Archive
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates the dataset repository. Files live under layout's datasets
// directory and are mirrored to archive after commit.
func New(
	db *sql.DB,
	layout workspace.Layout,
	archive workspace.Archive,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		layout:     layout,
		archive:    archive,
		logger:     logger.With("system", "datasets"),
		pagination: pagination,
	}
}

func (r *repo) Handler(auth users.Authenticator, maxUploadSize int64) *Handler {
	return NewHandler(r, auth, r.logger, r.pagination, maxUploadSize)
}

// HashOf returns the dataset identifier of canonical content.
func HashOf(canonical []byte) string {
	return digest.FromBytes(canonical).Encoded()
}

// ValidHash reports whether hash is a well-formed dataset identifier.
func ValidHash(hash string) bool {
	return digest.NewDigestFromEncoded(digest.SHA256, hash).Validate() == nil
}

func (r *repo) Prepare(ctx context.Context, in Input) (*Pending, error) {
	p := &Pending{
		Owner: in.Owner,
		Alias: in.Alias,
		At:    time.Now().UTC(),
	}

	if in.IsHash {
		content, err := r.Content(ctx, in.Hash)
		if err != nil {
			return nil, err
		}
		_, stats, err := Canonicalize(content)
		if err != nil {
			return nil, err
		}
		p.Hash = in.Hash
		p.Existed = true
		p.Stats = stats
		return p, nil
	}

	canonical, stats, err := Canonicalize(in.Content)
	if err != nil {
		return nil, err
	}

	p.Hash = HashOf(canonical)
	p.Stats = stats
	p.path = r.layout.DatasetPath(p.Hash)

	r.restore(ctx, p.Hash)

	exists, err := workspace.Exists(p.path)
	if err != nil {
		return nil, err
	}
	if exists {
		p.Existed = true
		return p, nil
	}

	if err := workspace.WriteFileAtomic(p.path, canonical, 0o644); err != nil {
		return nil, fmt.Errorf("store dataset: %w", err)
	}
	p.stored = true
	return p, nil
}

func (r *repo) Commit(ctx context.Context, tx repository.Executor, p *Pending) (bool, error) {
	inserted, err := repository.ExecAffected(
		ctx, tx,
		`INSERT INTO datasets(dataset_id, number_of_rows, number_of_columns, missing, timestamp, owner)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (dataset_id) DO NOTHING`,
		p.Hash, p.Stats.Rows, p.Stats.Columns, p.Stats.Missing, p.At, p.Owner,
	)
	if err != nil {
		return false, fmt.Errorf("insert dataset: %w", err)
	}

	if inserted == 1 {
		for _, f := range p.Stats.Features {
			if err := repository.ExecExpectOne(
				ctx, tx,
				"INSERT INTO features(dataset_id, id, name, unique_val, missing) VALUES ($1, $2, $3, $4, $5)",
				p.Hash, f.ID, f.Name, f.Unique, f.Missing,
			); err != nil {
				return false, fmt.Errorf("insert feature %s: %w", f.Name, err)
			}
		}
	}

	if p.Alias == nil || p.Alias.Name == "" {
		return false, nil
	}

	added, err := repository.ExecAffected(
		ctx, tx,
		`INSERT INTO datasets_aliases(dataset_id, name, description, timestamp, owner)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (dataset_id, name) DO NOTHING`,
		p.Hash, p.Alias.Name, p.Alias.Description, p.At, p.Owner,
	)
	if err != nil {
		return false, fmt.Errorf("insert alias: %w", err)
	}
	return added == 1, nil
}

func (r *repo) Discard(p *Pending) {
	if p == nil || !p.stored {
		return
	}
	if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		r.logger.Warn("compensating dataset delete failed", "hash", p.Hash, "error", err)
	}
}

func (r *repo) Publish(ctx context.Context, p *Pending) {
	if p == nil || !p.stored {
		return
	}
	if err := r.archive.Store(ctx, workspace.DatasetKey(p.Hash), p.path); err != nil {
		r.logger.Warn("dataset archive failed", "hash", p.Hash, "error", err)
	}
}

func (r *repo) Save(ctx context.Context, in Input) (*SaveResult, error) {
	p, err := r.Prepare(ctx, in)
	if err != nil {
		return nil, err
	}

	added, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (bool, error) {
		return r.Commit(ctx, tx, p)
	})
	if err != nil {
		r.Discard(p)
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.Publish(ctx, p)

	r.logger.Info(
		"dataset saved",
		"hash", p.Hash,
		"existed", p.Existed,
		"alias_added", added,
	)

	return &SaveResult{
		Hash:       p.Hash,
		Existed:    p.Existed,
		AliasAdded: added,
	}, nil
}

func (r *repo) Exists(ctx context.Context, hash string) (bool, error) {
	if !ValidHash(hash) {
		return false, nil
	}
	r.restore(ctx, hash)
	return workspace.Exists(r.layout.DatasetPath(hash))
}

func (r *repo) Find(ctx context.Context, hash string) (*Dataset, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", hash)

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDataset)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &d, nil
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Dataset], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "ID", "Owner")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count datasets: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanDataset)
	if err != nil {
		return nil, fmt.Errorf("query datasets: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Info(ctx context.Context, hash string) (*Info, error) {
	d, err := r.Find(ctx, hash)
	if err != nil {
		return nil, err
	}

	features, err := repository.QueryMany(
		ctx, r.db,
		"SELECT id, name, unique_val, missing FROM features WHERE dataset_id = $1 ORDER BY id",
		[]any{hash},
		scanFeature,
	)
	if err != nil {
		return nil, fmt.Errorf("query features: %w", err)
	}

	aliases, err := repository.QueryMany(
		ctx, r.db,
		`SELECT dataset_id, name, COALESCE(description, ''), owner, timestamp
		FROM datasets_aliases WHERE dataset_id = $1 ORDER BY timestamp`,
		[]any{hash},
		scanAlias,
	)
	if err != nil {
		return nil, fmt.Errorf("query aliases: %w", err)
	}

	return &Info{Dataset: *d, Features: features, Aliases: aliases}, nil
}

func (r *repo) Content(ctx context.Context, hash string) ([]byte, error) {
	if !ValidHash(hash) {
		return nil, ErrNotFound
	}

	r.restore(ctx, hash)

	data, err := os.ReadFile(r.layout.DatasetPath(hash))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return data, nil
}

func (r *repo) Head(ctx context.Context, hash string, n int) ([]byte, error) {
	content, err := r.Content(ctx, hash)
	if err != nil {
		return nil, err
	}

	t, err := Parse(content)
	if err != nil {
		return nil, err
	}
	return t.Head(n), nil
}

// restore pulls an archived copy of a dataset missing from disk. Failures
// are left for the subsequent read to report.
func (r *repo) restore(ctx context.Context, hash string) {
	err := r.archive.Restore(ctx, workspace.DatasetKey(hash), r.layout.DatasetPath(hash))
	if err != nil {
		r.logger.Debug("dataset restore skipped", "hash", hash, "error", err)
	}
}
