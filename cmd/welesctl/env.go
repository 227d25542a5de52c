package main

import (
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/weles/internal/config"
	"github.com/JaimeStill/weles/internal/environments"
	"github.com/JaimeStill/weles/internal/infrastructure"
	"github.com/JaimeStill/weles/internal/manifest"
	"github.com/JaimeStill/weles/internal/runtimes"
	"github.com/JaimeStill/weles/internal/workspace"
	"github.com/JaimeStill/weles/pkg/process"
)

func newEnvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "env",
		Aliases: []string{"environment", "environments"},
		Short:   "Manage provisioned language environments",
		RunE:    func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}
	cmd.AddCommand(newEnvEnsureCmd(), newEnvPathCmd(), newEnvRemoveCmd())
	return cmd
}

// provisioner is the subset of the service infrastructure the env commands need.
type provisioner struct {
	layout   workspace.Layout
	envs     environments.System
	runtimes *runtimes.Dispatcher
}

func newProvisioner() (*provisioner, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	layout, err := workspace.New(cfg.Workspace.Root)
	if err != nil {
		return nil, err
	}
	if err := layout.Init(); err != nil {
		return nil, err
	}

	logger := infrastructure.NewLogger()
	reg := prometheus.NewRegistry()

	return &provisioner{
		layout:   layout,
		envs:     environments.New(layout.EnvsRoot(), &cfg.Environments, reg, logger),
		runtimes: runtimes.New(layout, &cfg.Runtimes, process.Exec{}, reg, logger),
	}, nil
}

func newEnvEnsureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ensure {manifest}",
		Short: "Build the environment for a manifest unless it already exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := readManifest(cmd, args[0])
			if err != nil {
				return err
			}
			version, err := cmd.Flags().GetString(flagVersion)
			if err != nil {
				return err
			}

			p, err := newProvisioner()
			if err != nil {
				return err
			}
			rt, err := p.runtimes.For(m.Language)
			if err != nil {
				return err
			}

			stamp := workspace.Stamp(time.Now())
			path := p.layout.TmpPath(stamp + ".manifest")
			if err := workspace.WriteFileAtomic(path, m.Bytes(), 0o644); err != nil {
				return err
			}
			defer os.Remove(path)

			id, err := p.envs.Ensure(cmd.Context(), environments.Request{
				ManifestPath: path,
				Version:      version,
				Builder:      rt,
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), p.envs.Path(id, m.Language))
			return err
		},
	}
	cmd.Flags().String(flagLanguage, string(manifest.Python), "manifest language (python, r)")
	cmd.Flags().String(flagVersion, "", "language version the environment targets")
	_ = cmd.MarkFlagRequired(flagVersion)
	return cmd
}

func newEnvPathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path {manifest}",
		Short: "Print the environment directory for a manifest and whether it is built",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, id, lang, err := resolveEnv(cmd, args[0])
			if err != nil {
				return err
			}
			ok, err := p.envs.Exists(id, lang)
			if err != nil {
				return err
			}

			state := "missing"
			if ok {
				state = "ready"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.envs.Path(id, lang), state)
			return err
		},
	}
	cmd.Flags().String(flagLanguage, string(manifest.Python), "manifest language (python, r)")
	cmd.Flags().String(flagVersion, "", "language version the environment targets")
	_ = cmd.MarkFlagRequired(flagVersion)
	return cmd
}

func newEnvRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove {manifest}",
		Short: "Delete the environment built for a manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, id, lang, err := resolveEnv(cmd, args[0])
			if err != nil {
				return err
			}
			return p.envs.Remove(id, lang)
		},
	}
	cmd.Flags().String(flagLanguage, string(manifest.Python), "manifest language (python, r)")
	cmd.Flags().String(flagVersion, "", "language version the environment targets")
	_ = cmd.MarkFlagRequired(flagVersion)
	return cmd
}

func resolveEnv(cmd *cobra.Command, path string) (*provisioner, manifest.Identifier, manifest.Language, error) {
	m, err := readManifest(cmd, path)
	if err != nil {
		return nil, "", "", err
	}
	version, err := cmd.Flags().GetString(flagVersion)
	if err != nil {
		return nil, "", "", err
	}
	p, err := newProvisioner()
	if err != nil {
		return nil, "", "", err
	}
	return p, manifest.Identify(m.Bytes(), m.Language, version), m.Language, nil
}
