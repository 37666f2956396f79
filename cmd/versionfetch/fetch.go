// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/chococar-site/versionfetch/internal/issue"
	"github.com/chococar-site/versionfetch/internal/render"
	"github.com/chococar-site/versionfetch/internal/resolver"
	"github.com/chococar-site/versionfetch/pkg/types"
)

// fetchParams bundles the dependencies and flags for the fetch command so
// that runFetch can be tested without Cobra or live upstreams.
type fetchParams struct {
	stdout         io.Writer
	stderr         io.Writer
	logger         *log.Logger
	sources        resolver.Sources
	options        resolver.Options
	gradle         render.GradleProperties
	format         render.Format
	identifiers    []string
	savePath       string
	defaultVersion string
	summary        bool
	banner         bool // stdout is a terminal
	now            time.Time
	renderMarkdown func(string) (string, error)
}

// newFetchCommand creates the `versionfetch fetch` command.
func newFetchCommand(app *App) *cobra.Command {
	var (
		output         string
		savePath       string
		defaultVersion string
		versions       []string
		allMatching    bool
		maxResults     int
		summary        bool
	)

	cmd := &cobra.Command{
		Use:   "fetch [version...]",
		Short: "Resolve sub-versions and render an artifact",
		Long: `Resolve sub-versions and render an artifact.

Without arguments every release of the configured family above the discovery
floor is resolved. Versions named on the command line (or with --versions) are
resolved instead, provided the release catalog lists them.

Output formats:
  json      every record keyed by version (default)
  yaml      the records as a YAML list
  workflow  CI matrix entries plus the matching case block
  gradle    gradle.properties for --default-version (first record if unset)
  script    a bash script exporting the sub-versions of its first argument
  summary   a Markdown table of every record`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := render.ParseFormat(output)
			if err != nil {
				err = issue.NewErrorContext().
					WithOperation("select output format").
					WithIssue(issue.UnknownFormatId).
					Wrap(err).
					BuildError()
				app.renderGuide(err)
				return usageError(err)
			}

			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				app.renderIssue(issue.ConfigLoadFailedId)
				return usageError(err)
			}
			if allMatching {
				cfg.Discovery.IncludeAllMatching = true
			}
			if cmd.Flags().Changed("max-results") {
				cfg.Discovery.MaxResults = maxResults
			}

			logger := app.newLogger()
			if cfg.Source != "" {
				logger.Debug("loaded configuration", "path", cfg.Source)
			}

			p := fetchParams{
				stdout:         app.stdout,
				stderr:         app.stderr,
				logger:         logger,
				sources:        app.sources(cfg, logger),
				options:        cfg.ResolverOptions(),
				gradle:         cfg.GradleProperties(),
				format:         format,
				identifiers:    slices.Concat(args, versions),
				savePath:       savePath,
				defaultVersion: defaultVersion,
				summary:        summary,
				banner:         app.stdoutTTY,
				now:            app.now(),
				renderMarkdown: app.renderMarkdown,
			}

			if err := runFetch(cmd.Context(), p); err != nil {
				app.renderGuide(err)
				return &ExitError{Code: classifyFetchExitCode(err), Err: err}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", string(render.FormatJSON), "output format (json, yaml, workflow, gradle, script, summary)")
	cmd.Flags().StringVar(&savePath, "save", "", "write the output to this file instead of stdout")
	cmd.Flags().StringVar(&defaultVersion, "default-version", "", "version rendered by the gradle format")
	cmd.Flags().StringSliceVar(&versions, "versions", nil, "versions to resolve instead of discovering them")
	cmd.Flags().BoolVar(&allMatching, "all-matching", false, "discover every release of the family, ignoring the floor")
	cmd.Flags().IntVar(&maxResults, "max-results", 0, "limit discovery to the newest N releases (0 = no limit)")
	cmd.Flags().BoolVar(&summary, "summary", false, "also print a summary table to stderr")

	return cmd
}

// runFetch is the core fetch logic, separated from Cobra for testability.
//
// Flow:
//  1. Resolve the requested (or discovered) versions.
//  2. Render the selected format.
//  3. Write it to --save or stdout, with a banner for terminal output.
//  4. With --summary, render the summary table to stderr.
func runFetch(ctx context.Context, p fetchParams) error {
	r, err := resolver.New(p.sources, p.options, resolver.WithLogger(p.logger))
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("configure resolver").
			WithSuggestion("Check family, loader_project and discovery in the configuration file").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}

	res := r.ResolveAll(ctx, resolver.Request{Identifiers: p.identifiers})
	if res.Len() == 0 {
		p.logger.Warn("no versions resolved")
	}

	opts := render.Options{
		DefaultVersion: p.defaultVersion,
		GeneratedAt:    p.now,
		Gradle:         p.gradle,
	}
	out, err := render.Render(p.format, res, opts)
	if err != nil {
		return renderError(p.format, res, err)
	}

	if err := writeOutput(p, out, res); err != nil {
		return err
	}

	if p.summary {
		md, err := render.Render(render.FormatSummary, res, opts)
		if err != nil {
			return renderError(render.FormatSummary, res, err)
		}
		rendered, err := p.renderMarkdown(md)
		if err != nil {
			// Fall back to the raw Markdown.
			rendered = md + "\n"
		}
		fmt.Fprint(p.stderr, rendered)
	}

	return nil
}

func writeOutput(p fetchParams, out string, res resolver.Resolution) error {
	if p.savePath != "" {
		if err := os.WriteFile(p.savePath, []byte(out+"\n"), 0o644); err != nil {
			return writeError(p.savePath, err)
		}
		p.logger.Info("saved output", "format", p.format, "path", p.savePath)
		return nil
	}

	if p.banner && !p.format.IsRaw() {
		title := TitleStyle.Render(fmt.Sprintf("%s output", p.format))
		detail := SubtitleStyle.Render(fmt.Sprintf("%d/%d versions complete, generated %s",
			len(res.Complete()), res.Len(), p.now.Format(time.DateTime)))
		if _, err := fmt.Fprintln(p.stdout, bannerStyle.Render(title+"\n"+detail)); err != nil {
			return writeError("stdout", err)
		}
	}
	if _, err := fmt.Fprintln(p.stdout, out); err != nil {
		return writeError("stdout", err)
	}
	return nil
}

func writeError(resource string, err error) error {
	return issue.NewErrorContext().
		WithOperation("write output").
		WithResource(resource).
		WithIssue(issue.WriteFailedId).
		Wrap(err).
		BuildError()
}

// renderError attaches guidance to a render failure.
func renderError(format render.Format, res resolver.Resolution, err error) error {
	ctx := issue.NewErrorContext().
		WithOperation("render " + format.String()).
		Wrap(err)

	switch {
	case errors.Is(err, render.ErrIdentifierNotFound), errors.Is(err, render.ErrNoRecords):
		ctx.WithIssue(issue.VersionNotResolvedId)
		if ids := res.Identifiers(); len(ids) > 0 {
			ctx.WithSuggestion("Pick one of the resolved versions with --default-version")
		} else {
			ctx.WithIssue(issue.UpstreamUnavailableId)
		}
	case errors.Is(err, render.ErrIncompleteRecord):
		ctx.WithIssue(issue.IncompleteVersionId)
		if complete := res.Complete(); len(complete) > 0 {
			ctx.WithSuggestion("Try --default-version " + complete[0].Identifier + ", which is fully resolved")
		}
	case errors.Is(err, render.ErrNoCompleteRecords):
		ctx.WithIssue(issue.NoCompleteVersionsId)
	}
	return ctx.BuildError()
}

// classifyFetchExitCode maps a fetch error to the process exit code.
// Output that could not be written uses exit code 2; everything else is
// user-correctable and uses exit code 1.
func classifyFetchExitCode(err error) types.ExitCode {
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.Issue == issue.WriteFailedId {
		return types.ExitIO
	}
	return types.ExitUsage
}
