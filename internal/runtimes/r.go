package runtimes

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JaimeStill/weles/internal/environments"
	"github.com/JaimeStill/weles/internal/manifest"
	"github.com/JaimeStill/weles/pkg/process"
)

// rlang builds package libraries with an R helper script and runs scripts
// with the version-specific Rscript from inside the environment directory,
// which makes the environment's library the default.
type rlang struct {
	*base
}

func (r *rlang) Language() manifest.Language { return manifest.R }

func (r *rlang) rscript(version string) string {
	return filepath.Join(r.interpreters, "r", "R-"+version, "bin", "Rscript")
}

func (r *rlang) command(env Env, script string, args ...string) process.Command {
	return process.Command{
		Path: r.rscript(env.Version),
		Args: append([]string{r.script(script)}, args...),
		Dir:  env.Dir,
		Env:  r.env(),
	}
}

// CreateEnvironment installs the manifest's packages into b.Dir. The helper
// script reports per-package progress to b.ProgressPath.
func (r *rlang) CreateEnvironment(ctx context.Context, b environments.Build) error {
	if err := os.Mkdir(b.Dir, 0o755); err != nil {
		return fmt.Errorf("create environment dir: %w", err)
	}

	res, err := r.runner.Run(ctx, process.Command{
		Path: r.rscript(b.Version),
		Args: []string{r.script("CREATEENVIRONMENT.r"), b.Dir, b.ManifestPath, b.ProgressPath},
		Dir:  r.layout.Root,
		Env:  r.env(),
	})
	if err != nil {
		return err
	}
	if !res.Success() {
		return fmt.Errorf("install packages: exit %d: %s", res.ExitCode, process.Tail(res.Stderr, stderrTail))
	}
	return nil
}

func (r *rlang) Predict(ctx context.Context, env Env, req PredictRequest) ([]byte, error) {
	return r.predict(ctx, manifest.R, "r", r.command, env, req)
}

func (r *rlang) Audit(ctx context.Context, env Env, req AuditRequest) ([]byte, error) {
	return r.audit(ctx, manifest.R, "r", r.command, env, req)
}

func (r *rlang) PrintModel(ctx context.Context, env Env, model string) ([]byte, error) {
	return r.printModel(ctx, manifest.R, "r", r.command, env, model)
}
