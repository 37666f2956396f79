// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chococar-site/versionfetch/internal/config"
	"github.com/chococar-site/versionfetch/internal/issue"
)

// newConfigCommand creates the `versionfetch config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage versionfetch configuration",
		Long: `Manage versionfetch configuration.

Configuration is stored in:
  - Linux: ~/.config/versionfetch/config.cue
  - macOS: ~/Library/Application Support/versionfetch/config.cue
  - Windows: %APPDATA%\versionfetch\config.cue

A config.cue in the current directory is used when none exists there.
Keys can also be overridden with VERSIONFETCH_* environment variables,
e.g. VERSIONFETCH_HTTP_TIMEOUT=30s.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				app.renderIssue(issue.ConfigLoadFailedId)
				return usageError(err)
			}
			showConfig(app, cfg)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.FilePath(app.loadOptions())
			if err != nil {
				return usageError(err)
			}
			fmt.Fprintln(app.stdout, path)
			if _, statErr := os.Stat(path); statErr != nil {
				fmt.Fprintln(app.stderr, SubtitleStyle.Render("(file does not exist, defaults apply)"))
			}
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, created, err := config.CreateDefaultConfig(app.loadOptions())
			if err != nil {
				return ioError(writeError(path, err))
			}
			if !created {
				fmt.Fprintf(app.stdout, "%s %s\n", WarningStyle.Render("Configuration already exists:"), KeyStyle.Render(path))
				return nil
			}
			fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("Created configuration:"), KeyStyle.Render(path))
			return nil
		},
	})

	var dumpFormat string
	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE, TOML or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				app.renderIssue(issue.ConfigLoadFailedId)
				return usageError(err)
			}
			out, err := config.Dump(cfg, config.DumpFormat(dumpFormat))
			if err != nil {
				return usageError(err)
			}
			fmt.Fprint(app.stdout, out)
			return nil
		},
	}
	dumpCmd.Flags().StringVar(&dumpFormat, "format", string(config.DumpCUE), "dump format (cue, toml, json)")
	cfgCmd.AddCommand(dumpCmd)

	return cfgCmd
}

func showConfig(app *App, cfg *config.Config) {
	w := app.stdout
	kv := func(indent, key string, value any) {
		fmt.Fprintf(w, "%s%s: %s\n", indent, KeyStyle.Render(key), SuccessStyle.Render(fmt.Sprint(value)))
	}

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if cfg.Source != "" {
		fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render("Config file"), cfg.Source)
	} else {
		fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	kv("", "family", cfg.Family)
	kv("", "loader_project", cfg.LoaderProject)
	kv("", "server_suffix", cfg.ServerSuffix)
	kv("", "user_agent", cfg.UserAgent)
	kv("", "catalog_ttl", cfg.CatalogTTL)
	kv("", "http.timeout", cfg.HTTP.Timeout)

	fmt.Fprintf(w, "\n%s:\n", KeyStyle.Render("discovery"))
	kv("  ", "include_all_matching", cfg.Discovery.IncludeAllMatching)
	kv("  ", "max_results", cfg.Discovery.MaxResults)
	kv("  ", "floor", cfg.Discovery.Floor)

	fmt.Fprintf(w, "\n%s:\n", KeyStyle.Render("endpoints"))
	kv("  ", "catalog", cfg.Endpoints.Catalog)
	kv("  ", "modrinth", cfg.Endpoints.Modrinth)
	kv("  ", "fabric_meta", cfg.Endpoints.FabricMeta)
	kv("  ", "paper", cfg.Endpoints.Paper)

	fmt.Fprintf(w, "\n%s:\n", KeyStyle.Render("fallbacks.loader_api"))
	for _, f := range cfg.Fallbacks.LoaderAPI {
		kv("  ", f.Minecraft, f.Version)
	}
	fmt.Fprintf(w, "\n%s:\n", KeyStyle.Render("fallbacks.data_version"))
	for _, f := range cfg.Fallbacks.DataVersion {
		kv("  ", f.Minecraft, f.DataVersion)
	}

	fmt.Fprintf(w, "\n%s:\n", KeyStyle.Render("gradle"))
	kv("  ", "loader_version", cfg.Gradle.LoaderVersion)
	kv("  ", "mod_version", cfg.Gradle.ModVersion)
	kv("  ", "maven_group", cfg.Gradle.MavenGroup)
	kv("  ", "archives_base_name", cfg.Gradle.ArchivesBaseName)
	kv("  ", "jvm_args", cfg.Gradle.JVMArgs)

	fmt.Fprintf(w, "\n%s:\n", KeyStyle.Render("ui"))
	kv("  ", "verbose", cfg.UI.Verbose)
}
