package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"

	"github.com/JaimeStill/weles/internal/audits"
	"github.com/JaimeStill/weles/internal/datasets"
	"github.com/JaimeStill/weles/internal/environments"
	"github.com/JaimeStill/weles/internal/manifest"
	"github.com/JaimeStill/weles/internal/runtimes"
	"github.com/JaimeStill/weles/internal/tasks"
	"github.com/JaimeStill/weles/internal/users"
	"github.com/JaimeStill/weles/internal/workspace"
	"github.com/JaimeStill/weles/pkg/pagination"
	"github.com/JaimeStill/weles/pkg/query"
	"github.com/JaimeStill/weles/pkg/repository"
)

// Submitter queues background work.
type Submitter interface {
	Submit(language string, total int, fn tasks.Func) (uuid.UUID, error)
}

// Dependencies are the collaborators the registry drives.
type Dependencies struct {
	Layout       workspace.Layout
	Archive      workspace.Archive
	Environments environments.System
	Runtimes     *runtimes.Dispatcher
	Datasets     datasets.System
	Audits       audits.System
	Tasks        Submitter
}

type repo struct {
	db         *sql.DB
	store      store
	layout     workspace.Layout
	datasets   datasets.System
	audits     audits.System
	tasks      Submitter
	exec       *executor
	prov       *provisioner
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates the model registry.
func New(
	db *sql.DB,
	deps Dependencies,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return newRepo(db, &pgStore{db: db, datasets: deps.Datasets}, deps, logger, pagination)
}

func newRepo(
	db *sql.DB,
	st store,
	deps Dependencies,
	logger *slog.Logger,
	pagination pagination.Config,
) *repo {
	logger = logger.With("system", "models")

	exec := &executor{
		layout:   deps.Layout,
		envs:     deps.Environments,
		runtimes: deps.Runtimes,
		archive:  deps.Archive,
		logger:   logger,
	}

	return &repo{
		db:       db,
		store:    st,
		layout:   deps.Layout,
		datasets: deps.Datasets,
		audits:   deps.Audits,
		tasks:    deps.Tasks,
		exec:     exec,
		prov: &provisioner{
			exec:     exec,
			datasets: deps.Datasets,
			store:    st,
			logger:   logger,
		},
		logger:     logger,
		pagination: pagination,
	}
}

func (r *repo) Handler(auth users.Authenticator, maxUploadSize int64) *Handler {
	return NewHandler(r, auth, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) Upload(ctx context.Context, cmd UploadCommand) (*Submission, error) {
	lang, normalized, err := validateUpload(cmd)
	if err != nil {
		return nil, err
	}

	existed, err := r.claim(ctx, cmd.Name)
	if err != nil {
		return nil, err
	}

	if !existed {
		if err := r.write(cmd, lang, normalized); err != nil {
			os.RemoveAll(r.layout.ModelDir(cmd.Name))
			return nil, err
		}
	}

	job := uploadJob{
		model: Model{
			Name:            cmd.Name,
			Target:          cmd.Target,
			Timestamp:       time.Now().UTC(),
			Language:        string(lang),
			LanguageVersion: cmd.LanguageVersion,
			Description:     cmd.Description,
			Owner:           cmd.Owner,
			Tags:            cmd.Tags,
			Platform:        cmd.Platform,
		},
		lang:    lang,
		existed: existed,
		train:   cmd.TrainData,
	}
	if lang == manifest.R {
		job.packages = normalized.Len()
	}

	id, err := r.tasks.Submit(string(lang), steps(job.packages), func(ctx context.Context, t *tasks.Task) (any, error) {
		return r.prov.run(ctx, t, job)
	})
	if err != nil {
		if !existed {
			os.RemoveAll(r.layout.ModelDir(cmd.Name))
		}
		return nil, err
	}

	r.logger.Info("upload submitted", "model", cmd.Name, "task", id, "existed", existed)
	return &Submission{TaskID: id}, nil
}

func validateUpload(cmd UploadCommand) (manifest.Language, manifest.Manifest, error) {
	if err := workspace.ValidateName(cmd.Name); err != nil {
		return "", manifest.Manifest{}, fmt.Errorf("%w: %w", ErrInvalidUpload, err)
	}

	lang, err := manifest.ParseLanguage(cmd.Language)
	if err != nil {
		return "", manifest.Manifest{}, fmt.Errorf("%w: %w", ErrInvalidLanguage, err)
	}

	if _, err := semver.NewVersion(cmd.LanguageVersion); err != nil {
		return "", manifest.Manifest{}, fmt.Errorf("%w: language_version %q: %w", ErrInvalidUpload, cmd.LanguageVersion, err)
	}

	switch {
	case len(cmd.Artifact) == 0:
		return "", manifest.Manifest{}, fmt.Errorf("%w: model artifact is empty", ErrInvalidUpload)
	case cmd.Target == "":
		return "", manifest.Manifest{}, fmt.Errorf("%w: target is required", ErrInvalidUpload)
	case !cmd.TrainData.IsHash && len(cmd.TrainData.Content) == 0:
		return "", manifest.Manifest{}, fmt.Errorf("%w: training data is required", ErrInvalidUpload)
	case cmd.TrainData.IsHash && !datasets.ValidHash(cmd.TrainData.Hash):
		return "", manifest.Manifest{}, fmt.Errorf("%w: training data hash %q", ErrInvalidUpload, cmd.TrainData.Hash)
	}

	normalized, err := manifest.Normalize(cmd.Manifest, lang)
	if err != nil {
		return "", manifest.Manifest{}, fmt.Errorf("%w: %w", ErrInvalidUpload, err)
	}
	return lang, normalized, nil
}

// claim reserves the model name. The first writer wins: a registered model
// or an existing directory reports existed.
func (r *repo) claim(ctx context.Context, name string) (bool, error) {
	registered, err := r.store.exists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("check model: %w", err)
	}
	if registered {
		return true, nil
	}

	err = os.Mkdir(r.layout.ModelDir(name), 0o755)
	if errors.Is(err, fs.ErrExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("create model dir: %w", err)
	}
	return false, nil
}

func (r *repo) write(cmd UploadCommand, lang manifest.Language, normalized manifest.Manifest) error {
	files := map[string][]byte{
		workspace.ModelFile:    cmd.Artifact,
		workspace.ManifestFile: normalized.Bytes(),
	}
	if lang == manifest.R && len(cmd.SessionInfo) > 0 {
		files[workspace.SessionInfoFile] = cmd.SessionInfo
	}

	for file, data := range files {
		if err := workspace.WriteFileAtomic(r.layout.ModelPath(cmd.Name, file), data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", file, err)
		}
	}
	return nil
}

func (r *repo) Predict(ctx context.Context, cmd PredictCommand) ([]byte, error) {
	typ, err := runtimes.ParsePredictionType(cmd.Type)
	if err != nil {
		return nil, err
	}

	m, err := r.store.find(ctx, cmd.Name)
	if err != nil {
		return nil, err
	}

	if cmd.DatasetHash != "" {
		ok, err := r.datasets.Exists(ctx, cmd.DatasetHash)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, datasets.ErrNotFound
		}
	} else if len(cmd.Data) == 0 {
		return nil, fmt.Errorf("%w: prediction input is empty", datasets.ErrInvalidCSV)
	}

	return r.exec.predict(ctx, m, typ, cmd.Data, cmd.DatasetHash)
}

func (r *repo) Audit(ctx context.Context, cmd AuditCommand) (*AuditResult, error) {
	measure, err := audits.ParseMeasure(cmd.Measure)
	if err != nil {
		return nil, err
	}

	m, err := r.store.find(ctx, cmd.Name)
	if err != nil {
		return nil, err
	}

	target := cmd.Target
	if target == "" {
		target = m.Target
	}

	data := cmd.Data
	data.Owner = cmd.User
	saved, err := r.datasets.Save(ctx, data)
	if err != nil {
		return nil, err
	}

	result := &AuditResult{
		DatasetHash:    saved.Hash,
		DatasetExisted: saved.Existed,
		AliasAdded:     saved.AliasAdded,
	}

	audited, err := r.audits.Exists(ctx, m.Name, saved.Hash, measure)
	if err != nil {
		return nil, err
	}
	if audited {
		result.AlreadyAudited = true
		return result, nil
	}

	value, err := r.exec.audit(ctx, m, saved.Hash, target, measure)
	if err != nil {
		return nil, err
	}

	err = r.audits.Create(ctx, audits.Audit{
		Model:     m.Name,
		DatasetID: saved.Hash,
		Measure:   measure,
		Value:     value,
		User:      cmd.User,
		Timestamp: time.Now().UTC(),
	})
	if errors.Is(err, audits.ErrDuplicate) {
		result.AlreadyAudited = true
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	result.Value = &value
	return result, nil
}

func (r *repo) PrintModel(ctx context.Context, name string) ([]byte, error) {
	m, err := r.store.find(ctx, name)
	if err != nil {
		return nil, err
	}
	return r.exec.print(ctx, m)
}

func (r *repo) Find(ctx context.Context, name string) (*Model, error) {
	return r.store.find(ctx, name)
}

func (r *repo) Info(ctx context.Context, name string) (*Info, error) {
	m, err := r.store.find(ctx, name)
	if err != nil {
		return nil, err
	}

	info := &Info{Model: *m}

	data, err := r.datasets.Info(ctx, m.TrainDataID)
	switch {
	case errors.Is(err, datasets.ErrNotFound):
		r.logger.Warn("training dataset missing", "model", name, "dataset", m.TrainDataID)
	case err != nil:
		return nil, err
	default:
		info.Dataset = &data.Dataset
		info.Features = data.Features
		info.Aliases = data.Aliases
	}

	if info.Audits, err = r.audits.ListByModel(ctx, name); err != nil {
		return nil, err
	}
	return info, nil
}

func (r *repo) Requirements(ctx context.Context, name string) (map[string]string, error) {
	m, err := r.store.find(ctx, name)
	if err != nil {
		return nil, err
	}

	lang, err := m.language()
	if err != nil {
		return nil, err
	}

	if err := r.exec.restore(ctx, name, lang); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.layout.ModelPath(name, workspace.ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArtifactMissing, err)
	}
	return manifest.Parse(data, lang), nil
}

func (r *repo) Search(ctx context.Context, filters SearchFilters) ([]string, error) {
	s, err := filters.compile()
	if err != nil {
		return nil, err
	}

	q, args := s.builder().Build()
	rows, err := repository.QueryMany(ctx, r.db, q, args, scanSearchRow)
	if err != nil {
		return nil, fmt.Errorf("search models: %w", err)
	}

	names := make([]string, 0, len(rows))
	for _, row := range rows {
		if s.keep(row.name, row.version) {
			names = append(names, row.name)
		}
	}
	return names, nil
}

type searchRow struct {
	name    string
	version string
}

func scanSearchRow(s repository.Scanner) (searchRow, error) {
	var (
		row                    searchRow
		language, owner        string
		rows, columns, missing int
	)
	err := s.Scan(&row.name, &language, &row.version, &owner, &rows, &columns, &missing)
	return row, err
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Model], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Name", "Description", "Owner")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count models: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanModel)
	if err != nil {
		return nil, fmt.Errorf("query models: %w", err)
	}

	if err := r.attachTags(ctx, items); err != nil {
		return nil, err
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) attachTags(ctx context.Context, items []Model) error {
	if len(items) == 0 {
		return nil
	}

	names := make([]string, len(items))
	index := make(map[string]int, len(items))
	for i, m := range items {
		names[i] = m.Name
		index[m.Name] = i
	}

	rows, err := r.db.QueryContext(
		ctx,
		"SELECT model_name, tag FROM tags WHERE model_name = ANY($1) ORDER BY tag",
		names,
	)
	if err != nil {
		return fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, tag string
		if err := rows.Scan(&name, &tag); err != nil {
			return err
		}
		i := index[name]
		items[i].Tags = append(items[i].Tags, tag)
	}
	return rows.Err()
}
