// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chococar-site/versionfetch/internal/config"
	"github.com/chococar-site/versionfetch/internal/issue"
	"github.com/chococar-site/versionfetch/internal/render"
	"github.com/chococar-site/versionfetch/internal/upstream/upstreamtest"
	"github.com/chococar-site/versionfetch/pkg/types"
)

var fixedNow = time.Date(2025, 8, 1, 9, 30, 0, 0, time.UTC)

// fetchFixture returns upstream data under which 1.21.4 and 1.21.5 resolve fully.
func fetchFixture() upstreamtest.Fixture {
	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)

	return upstreamtest.Fixture{
		Catalog: []upstreamtest.CatalogVersion{
			{ID: "1.21.5", DataVersion: upstreamtest.IntPtr(4325)},
			{ID: "1.21.4", WorldVersion: upstreamtest.IntPtr(4189)},
			{ID: "25w14a", Type: "snapshot"},
		},
		LoaderVersions: map[string][]upstreamtest.LoaderVersion{
			"1.21.5": {{VersionNumber: "0.119.2+1.21.5", DatePublished: t2}},
			"1.21.4": {{VersionNumber: "0.119.0+1.21.4", DatePublished: t1}},
		},
		Yarn: map[string][]string{
			"1.21.5": {"1.21.5+build.1"},
			"1.21.4": {"1.21.4+build.8"},
		},
		PaperVersions: []string{"1.21.4", "1.21.5"},
		PaperBuilds: map[string][]int{
			"1.21.4": {232},
			"1.21.5": {114},
		},
	}
}

// testConfig points every endpoint at srv.
func testConfig(srv *upstreamtest.Server) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Endpoints = config.EndpointsConfig{
		Catalog:    srv.URL,
		Modrinth:   srv.URL,
		FabricMeta: srv.URL,
		Paper:      srv.URL,
	}
	return cfg
}

// newTestFetchParams builds fetchParams against a fake upstream.
func newTestFetchParams(t *testing.T, format render.Format) (fetchParams, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	srv := upstreamtest.New(t, fetchFixture())
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	app := NewApp(Dependencies{Stdout: stdout, Stderr: stderr, Now: func() time.Time { return fixedNow }})
	cfg := testConfig(srv)
	logger := app.newLogger()

	return fetchParams{
		stdout:         stdout,
		stderr:         stderr,
		logger:         logger,
		sources:        app.sources(cfg, logger),
		options:        cfg.ResolverOptions(),
		gradle:         cfg.GradleProperties(),
		format:         format,
		now:            fixedNow,
		renderMarkdown: app.renderMarkdown,
	}, stdout, stderr
}

func TestRunFetch_JSONToStdout(t *testing.T) {
	t.Parallel()

	p, stdout, _ := newTestFetchParams(t, render.FormatJSON)
	p.banner = true

	if err := runFetch(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got map[string]map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("stdout is not a JSON object (raw output must have no banner): %v\n%s", err, stdout)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 records, got %d", len(got))
	}
	if got["1.21.4"]["paper"] != "1.21.4-R0.1-SNAPSHOT" || got["1.21.4"]["status"] != "complete" {
		t.Errorf("unexpected 1.21.4 record: %v", got["1.21.4"])
	}
	if strings.Index(stdout.String(), `"1.21.5"`) > strings.Index(stdout.String(), `"1.21.4"`) {
		t.Errorf("records are not newest first:\n%s", stdout)
	}
}

func TestRunFetch_BannerOnlyOnTerminal(t *testing.T) {
	t.Parallel()

	for _, banner := range []bool{false, true} {
		p, stdout, _ := newTestFetchParams(t, render.FormatGradle)
		p.banner = banner

		if err := runFetch(context.Background(), p); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		hasBanner := strings.Contains(stdout.String(), "gradle output")
		if hasBanner != banner {
			t.Errorf("banner=%v: banner printed=%v\n%s", banner, hasBanner, stdout)
		}
		if !strings.Contains(stdout.String(), "minecraft_version=1.21.5\n") {
			t.Errorf("expected the newest version by default:\n%s", stdout)
		}
	}
}

func TestRunFetch_RequestedIdentifiers(t *testing.T) {
	t.Parallel()

	p, stdout, _ := newTestFetchParams(t, render.FormatScript)
	p.identifiers = []string{"1.21.4"}

	if err := runFetch(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout.String(), `  "1.21.4")`) || strings.Contains(stdout.String(), `"1.21.5")`) {
		t.Errorf("unexpected script:\n%s", stdout)
	}
}

func TestRunFetch_Save(t *testing.T) {
	t.Parallel()

	p, stdout, stderr := newTestFetchParams(t, render.FormatWorkflow)
	p.savePath = filepath.Join(t.TempDir(), "matrix.txt")
	p.banner = true

	if err := runFetch(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(p.savePath)
	if err != nil {
		t.Fatalf("output not saved: %v", err)
	}
	if !strings.HasSuffix(string(data), "esac\n") {
		t.Errorf("unexpected saved content:\n%s", data)
	}
	if stdout.Len() != 0 {
		t.Errorf("nothing should be printed to stdout when saving, got:\n%s", stdout)
	}
	if !strings.Contains(stderr.String(), "saved output") {
		t.Errorf("expected a log line for the saved file, got:\n%s", stderr)
	}
}

func TestRunFetch_Summary(t *testing.T) {
	t.Parallel()

	p, _, stderr := newTestFetchParams(t, render.FormatJSON)
	p.summary = true

	if err := runFetch(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stderr.String(), "versions fully supported") {
		t.Errorf("expected the summary on stderr, got:\n%s", stderr)
	}
}

func TestRunFetch_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(*fetchParams)
		wantIssue issue.Id
		wantCode  types.ExitCode
		wantErr   error
	}{
		{
			name: "unknown default version",
			mutate: func(p *fetchParams) {
				p.format = render.FormatGradle
				p.defaultVersion = "1.21.9"
			},
			wantIssue: issue.VersionNotResolvedId,
			wantCode:  types.ExitUsage,
			wantErr:   render.ErrIdentifierNotFound,
		},
		{
			name: "nothing resolved",
			mutate: func(p *fetchParams) {
				p.format = render.FormatGradle
				p.identifiers = []string{"1.21.99"}
			},
			wantIssue: issue.UpstreamUnavailableId,
			wantCode:  types.ExitUsage,
			wantErr:   render.ErrNoRecords,
		},
		{
			name: "unwritable save path",
			mutate: func(p *fetchParams) {
				p.savePath = filepath.Join(os.DevNull, "nested", "out.json")
			},
			wantIssue: issue.WriteFailedId,
			wantCode:  types.ExitIO,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, _, _ := newTestFetchParams(t, render.FormatJSON)
			tt.mutate(&p)

			err := runFetch(context.Background(), p)
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("expected *issue.ActionableError, got %T: %v", err, err)
			}
			if ae.Issue != tt.wantIssue {
				t.Errorf("issue = %d, want %d", ae.Issue, tt.wantIssue)
			}
			if got := classifyFetchExitCode(err); got != tt.wantCode {
				t.Errorf("exit code = %d, want %d", got, tt.wantCode)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v in chain, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRunFetch_InvalidOptions(t *testing.T) {
	t.Parallel()

	p, _, _ := newTestFetchParams(t, render.FormatJSON)
	p.options.Family = ""

	err := runFetch(context.Background(), p)
	if classifyFetchExitCode(err) != types.ExitUsage {
		t.Errorf("expected usage exit code for %v", err)
	}
}
