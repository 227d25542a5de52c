package runtimes

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/JaimeStill/weles/internal/environments"
	"github.com/JaimeStill/weles/internal/manifest"
	"github.com/JaimeStill/weles/pkg/process"
)

// python builds virtualenvs from a version-specific interpreter and runs
// scripts with the environment's own python, from the workspace root.
type python struct {
	*base
	tool string
}

func (p *python) Language() manifest.Language { return manifest.Python }

func (p *python) interpreter(version string) string {
	return filepath.Join(p.interpreters, "python", "Python-"+version, "bin", "python3")
}

func (p *python) command(env Env, script string, args ...string) process.Command {
	return process.Command{
		Path: filepath.Join(env.Dir, "bin", "python"),
		Args: append([]string{p.script(script)}, args...),
		Dir:  p.layout.Root,
		Env:  p.env(),
	}
}

func (p *python) CreateEnvironment(ctx context.Context, b environments.Build) error {
	steps := []process.Command{
		{
			Path: p.tool,
			Args: []string{"--python=" + p.interpreter(b.Version), b.Dir},
			Dir:  p.layout.Root,
		},
		{
			Path: filepath.Join(b.Dir, "bin", "pip"),
			Args: []string{"install", "-r", b.ManifestPath},
			Dir:  p.layout.Root,
		},
	}

	for _, cmd := range steps {
		res, err := p.runner.Run(ctx, cmd)
		if err != nil {
			return err
		}
		if !res.Success() {
			return fmt.Errorf("%s exited %d: %s", filepath.Base(cmd.Path), res.ExitCode, process.Tail(res.Stderr, stderrTail))
		}
	}
	return nil
}

func (p *python) Predict(ctx context.Context, env Env, req PredictRequest) ([]byte, error) {
	return p.predict(ctx, manifest.Python, "py", p.command, env, req)
}

func (p *python) Audit(ctx context.Context, env Env, req AuditRequest) ([]byte, error) {
	return p.audit(ctx, manifest.Python, "py", p.command, env, req)
}

func (p *python) PrintModel(ctx context.Context, env Env, model string) ([]byte, error) {
	return p.printModel(ctx, manifest.Python, "py", p.command, env, model)
}
