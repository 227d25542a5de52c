// Command migrate applies the embedded registry schema. The connection comes
// from -dsn or, when omitted, from the service configuration.
package main

import (
	"embed"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/JaimeStill/weles/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

func main() {
	var (
		dsn     = flag.String("dsn", "", "database URL (default: WELES_DB_* configuration)")
		up      = flag.Bool("up", false, "run all up migrations")
		down    = flag.Bool("down", false, "run all down migrations")
		steps   = flag.Int("steps", 0, "number of migrations (positive=up, negative=down)")
		version = flag.Bool("version", false, "print current migration version")
		force   = flag.Int("force", -1, "force set version (use with caution)")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	forceSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "force" {
			forceSet = true
		}
	})

	var op func(*migrate.Migrate) (string, error)
	switch {
	case *version:
		op = func(m *migrate.Migrate) (string, error) {
			v, dirty, err := m.Version()
			if errors.Is(err, migrate.ErrNilVersion) {
				return "no migrations applied", nil
			}
			return fmt.Sprintf("version %d, dirty %v", v, dirty), err
		}
	case forceSet:
		op = func(m *migrate.Migrate) (string, error) {
			return fmt.Sprintf("forced to version %d", *force), m.Force(*force)
		}
	case *up:
		op = func(m *migrate.Migrate) (string, error) {
			return "migrations applied", ignoreNoChange(m.Up())
		}
	case *down:
		op = func(m *migrate.Migrate) (string, error) {
			return "migrations reverted", ignoreNoChange(m.Down())
		}
	case *steps != 0:
		op = func(m *migrate.Migrate) (string, error) {
			return fmt.Sprintf("applied %d migration steps", *steps), ignoreNoChange(m.Steps(*steps))
		}
	default:
		fmt.Fprintln(os.Stderr, "usage: migrate [-dsn <url>] -up|-down|-steps N|-version|-force N")
		flag.PrintDefaults()
		os.Exit(2)
	}

	url, err := resolveDSN(*dsn)
	if err != nil {
		logger.Error("resolve connection", "error", err)
		os.Exit(1)
	}

	msg, err := run(url, op)
	if err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}
	logger.Info(msg)
}

func resolveDSN(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("load config (pass -dsn or set WELES_DB_URL): %w", err)
	}
	return cfg.Database.Dsn(), nil
}

func run(url string, op func(*migrate.Migrate) (string, error)) (string, error) {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return "", fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, url)
	if err != nil {
		return "", fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	return op(m)
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
