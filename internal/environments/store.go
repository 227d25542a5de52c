// Package environments maintains the content-addressed cache of isolated
// language runtimes. Each runtime lives in a directory named after the
// identifier of the manifest it was built from and is built at most once.
package environments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	slogcontext "github.com/veqryn/slog-context"
	"golang.org/x/sync/singleflight"

	"github.com/JaimeStill/weles/internal/config"
	"github.com/JaimeStill/weles/internal/manifest"
	"github.com/JaimeStill/weles/pkg/metrics"
	"github.com/JaimeStill/weles/pkg/retry"
)

// Build describes one environment build.
type Build struct {
	// Dir is the environment directory to populate.
	Dir          string
	ManifestPath string
	Version      string
	// ProgressPath may be written by builders that report install progress
	// as a single "current,status" line.
	ProgressPath string
}

// Builder materializes a runtime for one language.
type Builder interface {
	Language() manifest.Language
	CreateEnvironment(ctx context.Context, b Build) error
}

// Request identifies the environment a caller needs.
type Request struct {
	ManifestPath string
	Version      string
	ProgressPath string
	Builder      Builder
}

// System resolves manifests to built environments.
type System interface {
	// Ensure returns the identifier of an environment matching the request,
	// building it first if it does not exist.
	Ensure(ctx context.Context, req Request) (manifest.Identifier, error)
	// Exists reports whether a completed environment exists.
	Exists(id manifest.Identifier, lang manifest.Language) (bool, error)
	// Path returns the directory of the environment.
	Path(id manifest.Identifier, lang manifest.Language) string
	// Remove deletes an environment and any claim on it.
	Remove(id manifest.Identifier, lang manifest.Language) error
}

type store struct {
	root   string
	cfg    *config.EnvironmentsConfig
	group  singleflight.Group
	logger *slog.Logger
	now    func() time.Time

	hits    *prometheus.CounterVec
	builds  *prometheus.CounterVec
	seconds *prometheus.HistogramVec
}

// New creates an environment store rooted at root, the parent of the
// per-language namespaces.
func New(root string, cfg *config.EnvironmentsConfig, reg prometheus.Registerer, logger *slog.Logger) System {
	return &store{
		root:   root,
		cfg:    cfg,
		logger: logger.With("system", "environments"),
		now:    time.Now,
		hits: metrics.MustRegisterCounterVec(
			reg, "environment", "cache_hits_total",
			"Environment lookups satisfied without a build.",
			"language",
		),
		builds: metrics.MustRegisterCounterVec(
			reg, "environment", "builds_total",
			"Environment builds by outcome.",
			"language", "result",
		),
		seconds: metrics.MustRegisterHistogramVec(
			reg, "environment", "build_seconds",
			"Duration of environment builds.",
			prometheus.ExponentialBuckets(5, 2, 10),
			"language",
		),
	}
}

func (s *store) Path(id manifest.Identifier, lang manifest.Language) string {
	return filepath.Join(s.root, string(lang), "ENV-"+string(id))
}

func (s *store) Exists(id manifest.Identifier, lang manifest.Language) (bool, error) {
	return complete(s.Path(id, lang))
}

func (s *store) Remove(id manifest.Identifier, lang manifest.Language) error {
	dir := s.Path(id, lang)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove environment: %w", err)
	}
	if err := os.RemoveAll(claimPath(dir)); err != nil {
		return fmt.Errorf("remove claim: %w", err)
	}
	s.logger.Info("environment removed", "id", id, "language", lang)
	return nil
}

func (s *store) Ensure(ctx context.Context, req Request) (manifest.Identifier, error) {
	lang := req.Builder.Language()

	data, err := os.ReadFile(req.ManifestPath)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrManifestMissing, err)
	}
	id := manifest.Identify(data, lang, req.Version)

	key := string(lang) + "/" + string(id)
	_, err, _ = s.group.Do(key, func() (any, error) {
		return nil, s.ensure(ctx, id, req)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *store) ensure(ctx context.Context, id manifest.Identifier, req Request) error {
	lang := req.Builder.Language()
	dir := s.Path(id, lang)
	logger := slogcontext.FromCtx(ctx).With("environment", id, "language", lang)

	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return fmt.Errorf("create environment namespace: %w", err)
	}

	backoff := retry.Exponential(s.cfg.ClaimPollDuration(), 1.5, 30*time.Second)
	first := true

	for {
		if first {
			first = false
		} else if err := backoff(ctx); err != nil {
			return err
		}

		ok, err := complete(dir)
		if err != nil {
			return err
		}
		if ok {
			s.hits.WithLabelValues(string(lang)).Inc()
			logger.Debug("environment cache hit")
			return nil
		}

		c, err := acquire(dir)
		if errors.Is(err, errClaimHeld) {
			if err := s.breakStale(dir, logger); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}

		// Another builder may have finished between the check and the claim.
		if _, err := os.Stat(dir); err == nil {
			if err := c.release(); err != nil {
				return fmt.Errorf("release claim: %w", err)
			}
			continue
		}

		return s.build(ctx, c, dir, req, logger)
	}
}

// breakStale removes a claim whose holder has outlived any possible build,
// along with the partial environment it left behind.
func (s *store) breakStale(dir string, logger *slog.Logger) error {
	age, ok, err := claimAge(dir, s.now())
	if err != nil || !ok {
		return err
	}
	if age <= s.cfg.BuildTimeoutDuration()+s.cfg.ClaimGraceDuration() {
		return nil
	}

	logger.Warn("breaking stale environment claim", "age", age)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove partial environment: %w", err)
	}
	if err := os.Remove(claimPath(dir)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale claim: %w", err)
	}
	return nil
}

func (s *store) build(ctx context.Context, c *claim, dir string, req Request, logger *slog.Logger) (err error) {
	lang := string(req.Builder.Language())
	start := s.now()

	defer func() {
		if rerr := c.release(); rerr != nil {
			logger.Error("release environment claim failed", "error", rerr)
		}
	}()

	logger.Info("building environment")

	bctx, cancel := context.WithTimeout(ctx, s.cfg.BuildTimeoutDuration())
	defer cancel()

	berr := req.Builder.CreateEnvironment(bctx, Build{
		Dir:          dir,
		ManifestPath: req.ManifestPath,
		Version:      req.Version,
		ProgressPath: req.ProgressPath,
	})
	elapsed := time.Since(start)

	if berr == nil {
		s.builds.WithLabelValues(lang, "success").Inc()
		s.seconds.WithLabelValues(lang).Observe(elapsed.Seconds())
		logger.Info("environment built", "duration", elapsed)
		return nil
	}

	if rerr := os.RemoveAll(dir); rerr != nil {
		logger.Error("remove failed environment", "error", rerr)
	}

	if errors.Is(bctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		s.builds.WithLabelValues(lang, "timeout").Inc()
		logger.Error("environment build timed out", "duration", elapsed)
		return fmt.Errorf("%w after %s: %w", ErrBuildTimeout, s.cfg.BuildTimeout, berr)
	}

	s.builds.WithLabelValues(lang, "failure").Inc()
	logger.Error("environment build failed", "error", berr, "duration", elapsed)
	return fmt.Errorf("%w: %w", ErrBuildFailed, berr)
}

// complete reports whether dir holds a finished environment: present and
// not claimed by a running build.
func complete(dir string) (bool, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if !info.IsDir() {
		return false, nil
	}

	_, err = os.Stat(claimPath(dir))
	if err == nil {
		return false, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	return false, err
}
