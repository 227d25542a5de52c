package models

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/JaimeStill/weles/internal/audits"
	"github.com/JaimeStill/weles/internal/environments"
	"github.com/JaimeStill/weles/internal/manifest"
	"github.com/JaimeStill/weles/internal/runtimes"
	"github.com/JaimeStill/weles/internal/workspace"
	"github.com/JaimeStill/weles/pkg/storage"
)

// executor runs model scripts: it restores model files, ensures the
// environment, and dispatches to the language runtime.
type executor struct {
	layout   workspace.Layout
	envs     environments.System
	runtimes *runtimes.Dispatcher
	archive  workspace.Archive
	logger   *slog.Logger
}

// restore brings back archived model files missing from the workspace.
func (e *executor) restore(ctx context.Context, name string, lang manifest.Language) error {
	for _, file := range []string{workspace.ModelFile, workspace.ManifestFile} {
		key := workspace.ModelKey(name, file)
		if err := e.archive.Restore(ctx, key, e.layout.ModelPath(name, file)); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrArtifactMissing, file, err)
		}
	}

	if lang == manifest.R {
		key := workspace.ModelKey(name, workspace.SessionInfoFile)
		err := e.archive.Restore(ctx, key, e.layout.ModelPath(name, workspace.SessionInfoFile))
		if err != nil && !errors.Is(err, storage.ErrNotFound) && !errors.Is(err, storage.ErrDisabled) {
			e.logger.Warn("session info restore failed", "model", name, "error", err)
		}
	}
	return nil
}

// ensure returns the runtime and built environment for a model's manifest.
// Build progress is written to progress when it is not empty.
func (e *executor) ensure(
	ctx context.Context,
	name string,
	lang manifest.Language,
	version string,
	progress string,
) (runtimes.Runtime, runtimes.Env, error) {
	rt, err := e.runtimes.For(lang)
	if err != nil {
		return nil, runtimes.Env{}, err
	}

	id, err := e.envs.Ensure(ctx, environments.Request{
		ManifestPath: e.layout.ModelPath(name, workspace.ManifestFile),
		Version:      version,
		ProgressPath: progress,
		Builder:      rt,
	})
	if err != nil {
		return nil, runtimes.Env{}, err
	}

	return rt, runtimes.Env{Dir: e.envs.Path(id, lang), Version: version}, nil
}

// prepare readies m for dispatch.
func (e *executor) prepare(ctx context.Context, m *Model) (runtimes.Runtime, runtimes.Env, error) {
	lang, err := m.language()
	if err != nil {
		return nil, runtimes.Env{}, err
	}

	if err := e.restore(ctx, m.Name, lang); err != nil {
		return nil, runtimes.Env{}, err
	}

	progress := e.layout.TmpPath("status_" + workspace.Stamp(time.Now()) + ".txt")
	defer os.Remove(progress)

	return e.ensure(ctx, m.Name, lang, m.LanguageVersion, progress)
}

func (e *executor) predict(ctx context.Context, m *Model, typ runtimes.PredictionType, data []byte, hash string) ([]byte, error) {
	rt, env, err := e.prepare(ctx, m)
	if err != nil {
		return nil, err
	}

	req := runtimes.PredictRequest{
		Model: m.Name,
		Type:  typ,
		Data:  data,
	}
	if hash != "" {
		req.DatasetHash = hash
		req.Target = m.Target
	}
	return rt.Predict(ctx, env, req)
}

// audit scores m on the stored dataset and parses the scalar the script
// writes.
func (e *executor) audit(ctx context.Context, m *Model, hash, target string, measure audits.Measure) (float64, error) {
	rt, env, err := e.prepare(ctx, m)
	if err != nil {
		return 0, err
	}

	out, err := rt.Audit(ctx, env, runtimes.AuditRequest{
		Model:       m.Name,
		DatasetHash: hash,
		Target:      target,
		Measure:     string(measure),
	})
	if err != nil {
		return 0, err
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: audit result %q: %w", runtimes.ErrDispatchFailed, out, err)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: audit result is %v", runtimes.ErrDispatchFailed, value)
	}
	return value, nil
}

func (e *executor) print(ctx context.Context, m *Model) ([]byte, error) {
	rt, env, err := e.prepare(ctx, m)
	if err != nil {
		return nil, err
	}
	return rt.PrintModel(ctx, env, m.Name)
}
