// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chococar-site/versionfetch/internal/config"
	"github.com/chococar-site/versionfetch/internal/upstream/upstreamtest"
	"github.com/chococar-site/versionfetch/pkg/types"
)

// runCLI executes the command tree with args and returns stdout, stderr and the error.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	app := NewApp(Dependencies{Stdout: stdout, Stderr: stderr, Now: func() time.Time { return fixedNow }})
	root := newRootCommand(app)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// writeTestConfig writes a config file whose endpoints point at srv.
func writeTestConfig(t *testing.T, srv *upstreamtest.Server, extra string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.cue")
	content := `endpoints: {
	catalog:     "` + srv.URL + `"
	modrinth:    "` + srv.URL + `"
	fabric_meta: "` + srv.URL + `"
	paper:       "` + srv.URL + `"
}
` + extra
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func exitCode(t *testing.T, err error) types.ExitCode {
	t.Helper()

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitError, got %T: %v", err, err)
	}
	return exitErr.Code
}

func TestGetVersionString(t *testing.T) {
	// Not parallel: mutates package-level Version/Commit/BuildDate vars.
	origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
	t.Cleanup(func() {
		Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
	})

	Version, Commit, BuildDate = "dev", "unknown", "unknown"
	if got := getVersionString(); got != "dev (built from source)" {
		t.Errorf("getVersionString() = %q", got)
	}

	Version, Commit, BuildDate = "v1.2.3", "abc1234", "2025-06-15T10:00:00Z"
	want := "v1.2.3 (commit: abc1234, built: 2025-06-15T10:00:00Z)"
	if got := getVersionString(); got != want {
		t.Errorf("getVersionString() = %q, want %q", got, want)
	}
}

func TestCLI_FetchScript(t *testing.T) {
	t.Parallel()

	srv := upstreamtest.New(t, fetchFixture())
	cfgPath := writeTestConfig(t, srv, "")

	stdout, _, err := runCLI(t, "--config", cfgPath, "fetch", "-o", "script", "--versions", "1.21.4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(stdout, "#!/bin/bash\n") || !strings.Contains(stdout, `"1.21.4")`) {
		t.Errorf("unexpected script:\n%s", stdout)
	}
}

func TestCLI_FetchMaxResultsFlag(t *testing.T) {
	t.Parallel()

	srv := upstreamtest.New(t, fetchFixture())
	cfgPath := writeTestConfig(t, srv, "")

	stdout, _, err := runCLI(t, "--config", cfgPath, "fetch", "--max-results", "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, `"1.21.5"`) || strings.Contains(stdout, `"1.21.4"`) {
		t.Errorf("expected only the newest version:\n%s", stdout)
	}
}

func TestCLI_VerboseFromConfig(t *testing.T) {
	t.Parallel()

	srv := upstreamtest.New(t, fetchFixture())
	cfgPath := writeTestConfig(t, srv, "ui: verbose: true\n")

	_, stderr, err := runCLI(t, "--config", cfgPath, "fetch", "1.21.4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stderr, "DEBU") {
		t.Errorf("expected debug logging on stderr, got:\n%s", stderr)
	}
}

func TestCLI_FetchUnknownFormat(t *testing.T) {
	t.Parallel()

	_, stderr, err := runCLI(t, "fetch", "-o", "toml")
	if code := exitCode(t, err); code != types.ExitUsage {
		t.Errorf("exit code = %d, want %d", code, types.ExitUsage)
	}
	if !strings.Contains(stderr, "Unknown output format") {
		t.Errorf("expected the format guide on stderr, got:\n%s", stderr)
	}
}

func TestCLI_FetchIncompleteVersion(t *testing.T) {
	t.Parallel()

	fixture := fetchFixture()
	delete(fixture.Yarn, "1.21.5")
	srv := upstreamtest.New(t, fixture)
	cfgPath := writeTestConfig(t, srv, "")

	stdout, stderr, err := runCLI(t, "--config", cfgPath, "fetch", "-o", "gradle")
	if code := exitCode(t, err); code != types.ExitUsage {
		t.Errorf("exit code = %d, want %d", code, types.ExitUsage)
	}
	if stdout != "" {
		t.Errorf("nothing should reach stdout on failure, got:\n%s", stdout)
	}
	if !strings.Contains(err.Error(), "1.21.5") {
		t.Errorf("error should name the version: %v", err)
	}
	if !strings.Contains(stderr, "not fully supported") {
		t.Errorf("expected the incomplete version guide, got:\n%s", stderr)
	}
}

func TestCLI_BadConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.cue")
	if err := os.WriteFile(path, []byte(`family: 121`), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	_, stderr, err := runCLI(t, "--config", path, "fetch")
	if code := exitCode(t, err); code != types.ExitUsage {
		t.Errorf("exit code = %d, want %d", code, types.ExitUsage)
	}
	if !strings.Contains(stderr, "Failed to load configuration") {
		t.Errorf("expected the configuration guide, got:\n%s", stderr)
	}
}

func TestCLI_ConfigDump(t *testing.T) {
	t.Parallel()

	srv := upstreamtest.New(t, fetchFixture())
	cfgPath := writeTestConfig(t, srv, "")

	stdout, _, err := runCLI(t, "--config", cfgPath, "config", "dump", "--format", "toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "[endpoints]") || !strings.Contains(stdout, srv.URL) {
		t.Errorf("unexpected toml dump:\n%s", stdout)
	}

	_, _, err = runCLI(t, "--config", cfgPath, "config", "dump", "--format", "ini")
	if !errors.Is(err, config.ErrUnknownDumpFormat) {
		t.Errorf("expected ErrUnknownDumpFormat, got %v", err)
	}
}

func TestCLI_ConfigShow(t *testing.T) {
	t.Parallel()

	srv := upstreamtest.New(t, fetchFixture())
	cfgPath := writeTestConfig(t, srv, "")

	stdout, _, err := runCLI(t, "--config", cfgPath, "config", "show")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{cfgPath, "loader_project", "1.21.10"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("config show missing %q:\n%s", want, stdout)
		}
	}
}

func TestCLI_ConfigInitAndPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sub", "config.cue")

	stdout, _, err := runCLI(t, "--config", path, "config", "path")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(stdout) != path {
		t.Errorf("config path = %q, want %q", stdout, path)
	}

	stdout, _, err = runCLI(t, "--config", path, "config", "init")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "Created configuration") {
		t.Errorf("unexpected init output:\n%s", stdout)
	}

	// The generated file must load.
	if _, _, err := runCLI(t, "--config", path, "config", "show"); err != nil {
		t.Errorf("generated config does not load: %v", err)
	}

	stdout, _, err = runCLI(t, "--config", path, "config", "init")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "already exists") {
		t.Errorf("unexpected second init output:\n%s", stdout)
	}
}

func TestCLI_InjectedProvider(t *testing.T) {
	t.Parallel()

	srv := upstreamtest.New(t, fetchFixture())
	var gotOpts config.LoadOptions
	provider := config.ProviderFunc(func(_ context.Context, opts config.LoadOptions) (*config.Config, error) {
		gotOpts = opts
		cfg := testConfig(srv)
		cfg.Discovery.MaxResults = 1
		return cfg, nil
	})

	stdout := &bytes.Buffer{}
	app := NewApp(Dependencies{Config: provider, Stdout: stdout, Stderr: &bytes.Buffer{}})
	root := newRootCommand(app)
	root.SetArgs([]string{"--config", "elsewhere.cue", "fetch", "-o", "workflow"})

	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotOpts.ConfigFilePath != "elsewhere.cue" {
		t.Errorf("provider got %+v, want the --config path", gotOpts)
	}
	if !strings.Contains(stdout.String(), `- "1.21.5"`) || strings.Contains(stdout.String(), `- "1.21.4"`) {
		t.Errorf("max_results from the provider was not applied:\n%s", stdout)
	}
}
