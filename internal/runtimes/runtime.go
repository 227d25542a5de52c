// Package runtimes runs model scripts inside provisioned environments.
// Each supported language is a Runtime variant that knows how to build an
// environment and how to invoke its interpreter; callers select a variant
// through the Dispatcher and never branch on language themselves.
package runtimes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	slogcontext "github.com/veqryn/slog-context"

	"github.com/JaimeStill/weles/internal/config"
	"github.com/JaimeStill/weles/internal/environments"
	"github.com/JaimeStill/weles/internal/manifest"
	"github.com/JaimeStill/weles/internal/workspace"
	"github.com/JaimeStill/weles/pkg/metrics"
	"github.com/JaimeStill/weles/pkg/process"
)

// EnvWorkspace is exported to every script so it can locate models,
// datasets, and scratch files regardless of its working directory.
const EnvWorkspace = "WELES_WORKSPACE"

const stderrTail = 2048

// PredictionType selects between class labels and class probabilities.
type PredictionType string

const (
	Exact PredictionType = "exact"
	Prob  PredictionType = "prob"
)

// ParsePredictionType validates s as a PredictionType.
func ParsePredictionType(s string) (PredictionType, error) {
	switch t := PredictionType(strings.ToLower(s)); t {
	case Exact, Prob:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPredictionType, s)
}

// Env locates a provisioned environment.
type Env struct {
	Dir     string
	Version string
}

// PredictRequest names the model and its input. When DatasetHash is set the
// stored dataset is used with Target dropped; otherwise Data holds CSV.
type PredictRequest struct {
	Model       string
	Type        PredictionType
	Data        []byte
	DatasetHash string
	Target      string
}

// AuditRequest names the model and the stored dataset it is scored against.
type AuditRequest struct {
	Model       string
	DatasetHash string
	Target      string
	Measure     string
}

// Runtime is the capability set every language variant provides.
type Runtime interface {
	environments.Builder
	Predict(ctx context.Context, env Env, req PredictRequest) ([]byte, error)
	PrintModel(ctx context.Context, env Env, model string) ([]byte, error)
	Audit(ctx context.Context, env Env, req AuditRequest) ([]byte, error)
}

// Dispatcher selects the Runtime for a language.
type Dispatcher struct {
	runtimes map[manifest.Language]Runtime
}

// New creates a Dispatcher with the python and R variants.
func New(
	layout workspace.Layout,
	cfg *config.RuntimesConfig,
	runner process.Runner,
	reg prometheus.Registerer,
	logger *slog.Logger,
) *Dispatcher {
	b := &base{
		layout:       layout,
		scripts:      resolve(layout.Root, cfg.ScriptsDir),
		interpreters: resolve(layout.Root, cfg.InterpretersDir),
		timeout:      cfg.DispatchTimeoutDuration(),
		runner:       runner,
		logger:       logger.With("system", "runtimes"),
		seconds: metrics.MustRegisterHistogramVec(
			reg, "runtime", "dispatch_seconds",
			"Duration of model script invocations.",
			nil,
			"language", "operation", "result",
		),
	}

	return NewDispatcher(
		&python{base: b, tool: cfg.PythonTool},
		&rlang{base: b},
	)
}

// NewDispatcher registers the given variants by language.
func NewDispatcher(variants ...Runtime) *Dispatcher {
	d := &Dispatcher{runtimes: make(map[manifest.Language]Runtime, len(variants))}
	for _, v := range variants {
		d.runtimes[v.Language()] = v
	}
	return d
}

// For returns the runtime for lang.
func (d *Dispatcher) For(lang manifest.Language) (Runtime, error) {
	rt, ok := d.runtimes[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRuntime, lang)
	}
	return rt, nil
}

func resolve(root, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}

// base holds what the variants share: locations, the process runner, and
// the result-file protocol.
type base struct {
	layout       workspace.Layout
	scripts      string
	interpreters string
	timeout      time.Duration
	runner       process.Runner
	logger       *slog.Logger
	seconds      *prometheus.HistogramVec
}

func (b *base) script(name string) string {
	return filepath.Join(b.scripts, name)
}

func (b *base) env() []string {
	return []string{EnvWorkspace + "=" + b.layout.Root}
}

// run executes cmd under the dispatch timeout and fails on a non-zero exit.
func (b *base) run(ctx context.Context, lang manifest.Language, op string, cmd process.Command) (*process.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	logger := slogcontext.FromCtx(ctx).With("language", lang, "operation", op)
	logger.Debug("dispatching", "command", cmd.String())

	start := time.Now()
	res, err := b.runner.Run(ctx, cmd)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		b.seconds.WithLabelValues(string(lang), op, "error").Observe(elapsed)
		logger.Error("dispatch failed", "error", err)
		return nil, fmt.Errorf("%w: %s: %w", ErrDispatchFailed, op, err)
	}
	if !res.Success() {
		b.seconds.WithLabelValues(string(lang), op, "exit").Observe(elapsed)
		tail := process.Tail(res.Stderr, stderrTail)
		logger.Error("script exited non-zero", "exit_code", res.ExitCode, "stderr", tail)
		return nil, fmt.Errorf("%w: %s exited %d: %s", ErrDispatchFailed, op, res.ExitCode, tail)
	}

	b.seconds.WithLabelValues(string(lang), op, "success").Observe(elapsed)
	return res, nil
}

// withResult runs cmd and returns the contents of the result file keyed by
// stamp. The file is removed whether or not the run or the read succeeds.
func (b *base) withResult(ctx context.Context, lang manifest.Language, op, stamp string, cmd process.Command) ([]byte, error) {
	path := b.layout.TmpPath(stamp + ".txt")
	defer os.Remove(path)

	if _, err := b.run(ctx, lang, op, cmd); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrResultMissing, op)
		}
		return nil, fmt.Errorf("read %s result: %w", op, err)
	}
	return data, nil
}

// commander builds an interpreter invocation for a variant.
type commander func(env Env, script string, args ...string) process.Command

func (b *base) predict(ctx context.Context, lang manifest.Language, ext string, cmd commander, env Env, req PredictRequest) ([]byte, error) {
	if _, err := ParsePredictionType(string(req.Type)); err != nil {
		return nil, err
	}

	stamp := workspace.Stamp(time.Now())
	args := []string{req.Model, stamp, string(req.Type)}

	if req.DatasetHash != "" {
		args = append(args, "1", req.DatasetHash, req.Target)
	} else {
		input := b.layout.TmpPath(stamp + ".csv")
		if err := workspace.WriteFileAtomic(input, req.Data, 0o644); err != nil {
			return nil, fmt.Errorf("write prediction input: %w", err)
		}
		defer os.Remove(input)
		args = append(args, "0")
	}

	return b.withResult(ctx, lang, "predict", stamp, cmd(env, "PREDICT."+ext, args...))
}

func (b *base) audit(ctx context.Context, lang manifest.Language, ext string, cmd commander, env Env, req AuditRequest) ([]byte, error) {
	stamp := workspace.Stamp(time.Now())
	return b.withResult(ctx, lang, "audit", stamp, cmd(env, "AUDIT."+ext,
		req.Model, req.DatasetHash, req.Target, req.Measure, stamp,
	))
}

func (b *base) printModel(ctx context.Context, lang manifest.Language, ext string, cmd commander, env Env, model string) ([]byte, error) {
	res, err := b.run(ctx, lang, "print", cmd(env, "PRINTMODEL."+ext, model))
	if err != nil {
		return nil, err
	}
	return res.Stdout, nil
}
