// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"

	"github.com/chococar-site/versionfetch/internal/config"
	"github.com/chococar-site/versionfetch/internal/issue"
	"github.com/chococar-site/versionfetch/internal/resolver"
	"github.com/chococar-site/versionfetch/internal/upstream"
)

type (
	// App wires CLI services and shared dependencies. All Cobra handlers
	// receive an App and read configuration and streams through it.
	App struct {
		Config     config.Provider
		HTTPClient *http.Client
		stdout     io.Writer
		stderr     io.Writer
		stdoutTTY  bool
		stderrTTY  bool
		now        func() time.Time

		// Global flag values.
		verbose    bool
		configPath string
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config     config.Provider
		HTTPClient *http.Client
		Stdout     io.Writer
		Stderr     io.Writer
		Now        func() time.Time
	}
)

// NewApp builds an App from deps. Terminal detection only applies to the
// process streams; injected writers are never treated as terminals.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:     deps.Config,
		HTTPClient: deps.HTTPClient,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
		now:        deps.Now,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
		app.stdoutTTY = isTerminal(os.Stdout)
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
		app.stderrTTY = isTerminal(os.Stderr)
	}
	if app.now == nil {
		app.now = time.Now
	}
	return app
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// loadConfig loads configuration honoring --config, and lets ui.verbose
// enable verbose output when the flag was not given.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, a.loadOptions())
	if err != nil {
		return nil, err
	}
	if cfg.UI.Verbose {
		a.verbose = true
	}
	return cfg, nil
}

func (a *App) loadOptions() config.LoadOptions {
	return config.LoadOptions{ConfigFilePath: a.configPath}
}

// newLogger returns the run logger. Nothing is ever logged to stdout.
func (a *App) newLogger() *log.Logger {
	logger := log.NewWithOptions(a.stderr, log.Options{
		Prefix: config.AppName,
		Level:  log.InfoLevel,
	})
	if a.verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// sources builds the four upstream clients from cfg.
func (a *App) sources(cfg *config.Config, logger *log.Logger) resolver.Sources {
	common := func(base, source string) []upstream.Option {
		opts := []upstream.Option{
			upstream.WithBaseURL(base),
			upstream.WithUserAgent(cfg.UserAgent),
			upstream.WithTimeout(cfg.Timeout()),
			upstream.WithLogger(logger.With("source", source)),
		}
		if a.HTTPClient != nil {
			opts = append(opts, upstream.WithHTTPClient(a.HTTPClient))
		}
		return opts
	}

	return resolver.Sources{
		Catalog:  upstream.NewCatalogClient(cfg.ManifestTTL(), common(cfg.Endpoints.Catalog, "catalog")...),
		Loader:   upstream.NewModrinthClient(common(cfg.Endpoints.Modrinth, "modrinth")...),
		Mappings: upstream.NewFabricMetaClient(common(cfg.Endpoints.FabricMeta, "fabric-meta")...),
		Server:   upstream.NewPaperClient(common(cfg.Endpoints.Paper, "paper")...),
	}
}

// glamourStyle picks a glamour style suited to stderr.
func (a *App) glamourStyle() string {
	if a.stderrTTY {
		return "dark"
	}
	return "notty"
}

// renderGuide writes the Markdown guide linked from err, if any, to stderr.
func (a *App) renderGuide(err error) {
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.Issue != 0 {
		a.renderIssue(ae.Issue)
	}
}

// renderIssue writes a registered guide to stderr.
func (a *App) renderIssue(id issue.Id) {
	guide := issue.Get(id)
	if guide == nil {
		return
	}
	rendered, err := guide.Render(a.glamourStyle())
	if err != nil {
		return
	}
	fmt.Fprint(a.stderr, rendered)
}

// renderMarkdown renders md for stderr.
func (a *App) renderMarkdown(md string) (string, error) {
	return glamour.Render(md, a.glamourStyle())
}

// handleError is the fang error handler. Errors already reported by a
// command arrive as an ExitError without a cause and print nothing.
func (a *App) handleError(w io.Writer, _ fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}
	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, a.verbose))
}

// formatErrorForDisplay formats an error for user display.
// ActionableErrors include their suggestions, and the error chain in verbose mode.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
