// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/chococar-site/versionfetch/pkg/types"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// newRootCommand builds the command tree around app.
func newRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "versionfetch",
		Short: "Resolve Minecraft sub-versions and render build files",
		Long: TitleStyle.Render("versionfetch") + SubtitleStyle.Render(" - Resolve Minecraft sub-versions and render build files") + `

versionfetch discovers the current releases of a Minecraft family and looks up,
for each one, the matching yarn mappings, Fabric API, Paper API and data version.
The result is rendered as JSON, a CI matrix, gradle.properties or a shell script.

` + SubtitleStyle.Render("Examples:") + `
  versionfetch fetch                         Resolve every discovered release as JSON
  versionfetch fetch 1.21.4 -o gradle        Render gradle.properties for 1.21.4
  versionfetch fetch -o script --save v.sh   Write the version switch script
  versionfetch config init                   Create a default configuration file`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/versionfetch/config.cue)")

	rootCmd.AddCommand(newFetchCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute builds the command tree and runs it. It is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})

	if err := fang.Execute(
		context.Background(),
		newRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(app.handleError),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(int(types.ExitUsage))
	}
}
