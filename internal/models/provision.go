package models

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/opencontainers/go-digest"
	slogcontext "github.com/veqryn/slog-context"

	"github.com/JaimeStill/weles/internal/datasets"
	"github.com/JaimeStill/weles/internal/manifest"
	"github.com/JaimeStill/weles/internal/tasks"
	"github.com/JaimeStill/weles/internal/workspace"
)

// Progress texts reported while an upload is provisioned.
const (
	StatusCreatingEnvironment = "creating environment"
	StatusSavingDataset       = "saving dataset"
	StatusHashingModel        = "hashing model"
	StatusSavingMetadata      = "saving metadata"
)

// uploadJob is the state handed from Upload to its provisioning task.
type uploadJob struct {
	model    Model
	lang     manifest.Language
	existed  bool
	packages int
	train    datasets.Input
}

// steps is the progress total for an upload with n relayed packages.
func steps(n int) int {
	return n + 5
}

// provisioner is the body of an upload task.
type provisioner struct {
	exec     *executor
	datasets datasets.System
	store    store
	logger   *slog.Logger
}

func (p *provisioner) run(ctx context.Context, t *tasks.Task, job uploadJob) (any, error) {
	logger := slogcontext.FromCtx(ctx).With("model", job.model.Name)
	n := job.packages
	name := job.model.Name

	t.Advance(tasks.Uploading, 0, StatusCreatingEnvironment)
	if job.existed {
		logger.Info("model already registered")
		return UploadInfo{ModelExisted: true}, nil
	}

	t.Advance(tasks.CreatingEnvironment, 1, StatusCreatingEnvironment)
	if err := p.environment(ctx, t, job); err != nil {
		p.cleanup(logger, name, nil)
		return nil, err
	}

	t.Advance(tasks.Uploading, n+2, StatusSavingDataset)
	train := job.train
	train.Owner = job.model.Owner
	pending, err := p.datasets.Prepare(ctx, train)
	if err != nil {
		p.cleanup(logger, name, nil)
		return nil, fmt.Errorf("save training data: %w", err)
	}

	t.Advance(tasks.Uploading, n+3, StatusHashingModel)
	hash, err := p.hash(name)
	if err != nil {
		p.cleanup(logger, name, pending)
		return nil, err
	}

	t.Advance(tasks.Uploading, n+4, StatusSavingMetadata)
	m := job.model
	m.Hash = hash
	m.TrainDataID = pending.Hash

	added, err := p.store.commit(ctx, m, pending)
	if err != nil {
		p.cleanup(logger, name, pending)
		return nil, fmt.Errorf("save metadata: %w", err)
	}

	p.publish(ctx, logger, name, pending)

	logger.Info(
		"model registered",
		"dataset", pending.Hash,
		"dataset_existed", pending.Existed,
		"alias_added", added,
	)

	return UploadInfo{
		TrainingDataHash:    pending.Hash,
		TrainingDataExisted: pending.Existed,
		AddedAliasForData:   added,
	}, nil
}

// environment builds the runtime, relaying build progress into t.
func (p *provisioner) environment(ctx context.Context, t *tasks.Task, job uploadJob) error {
	progress := p.exec.layout.TmpPath("status_" + t.Stamp() + ".txt")

	stop, err := tasks.RelayProgress(ctx, progress, t)
	if err != nil {
		return fmt.Errorf("watch build progress: %w", err)
	}
	defer stop()

	_, _, err = p.exec.ensure(ctx, job.model.Name, job.lang, job.model.LanguageVersion, progress)
	return err
}

func (p *provisioner) hash(name string) (string, error) {
	f, err := os.Open(p.exec.layout.ModelPath(name, workspace.ModelFile))
	if err != nil {
		return "", fmt.Errorf("open model: %w", err)
	}
	defer f.Close()

	d, err := digest.SHA256.FromReader(f)
	if err != nil {
		return "", fmt.Errorf("hash model: %w", err)
	}
	return d.Encoded(), nil
}

// cleanup removes what a failed upload wrote: the model directory and a
// newly stored training dataset.
func (p *provisioner) cleanup(logger *slog.Logger, name string, pending *datasets.Pending) {
	if err := os.RemoveAll(p.exec.layout.ModelDir(name)); err != nil {
		logger.Warn("compensating model delete failed", "error", err)
	}
	p.datasets.Discard(pending)
}

// publish mirrors the committed files to the archive. Failures are logged.
func (p *provisioner) publish(ctx context.Context, logger *slog.Logger, name string, pending *datasets.Pending) {
	files := make(map[string]string)
	for _, file := range []string{workspace.ModelFile, workspace.ManifestFile, workspace.SessionInfoFile} {
		path := p.exec.layout.ModelPath(name, file)
		if ok, _ := workspace.Exists(path); ok {
			files[workspace.ModelKey(name, file)] = path
		}
	}

	if err := p.exec.archive.StoreAll(ctx, files); err != nil {
		logger.Warn("model archive failed", "error", err)
	}
	p.datasets.Publish(ctx, pending)
}
