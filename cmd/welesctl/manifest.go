package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/weles/internal/manifest"
)

const (
	flagLanguage = "language"
	flagVersion  = "version"
)

func newManifestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Inspect dependency manifests",
		RunE:  func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}
	cmd.AddCommand(newManifestNormalizeCmd(), newManifestHashCmd())
	return cmd
}

func newManifestNormalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize {file}",
		Short: "Print the normalized form of a manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := readManifest(cmd, args[0])
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(m.Bytes())
			return err
		},
	}
	cmd.Flags().String(flagLanguage, string(manifest.Python), "manifest language (python, r)")
	return cmd
}

func newManifestHashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash {file}",
		Short: "Print the environment identifier a manifest resolves to",
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
			id := manifest.Identify(m.Bytes(), m.Language, version)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
			return err
		},
	}
	cmd.Flags().String(flagLanguage, string(manifest.Python), "manifest language (python, r)")
	cmd.Flags().String(flagVersion, "", "language version the environment targets")
	_ = cmd.MarkFlagRequired(flagVersion)
	return cmd
}

func readManifest(cmd *cobra.Command, path string) (manifest.Manifest, error) {
	raw, err := cmd.Flags().GetString(flagLanguage)
	if err != nil {
		return manifest.Manifest{}, err
	}
	lang, err := manifest.ParseLanguage(raw)
	if err != nil {
		return manifest.Manifest{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return manifest.Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	return manifest.Normalize(data, lang)
}
