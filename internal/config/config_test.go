// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/chococar-site/versionfetch/internal/issue"
	"github.com/chococar-site/versionfetch/internal/resolver"
	"github.com/chococar-site/versionfetch/internal/upstream"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()

	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.Family != resolver.DefaultFamily {
		t.Errorf("expected family %s, got %s", resolver.DefaultFamily, cfg.Family)
	}
	if cfg.Discovery.Floor != resolver.DefaultFloor {
		t.Errorf("expected floor %q, got %q", resolver.DefaultFloor, cfg.Discovery.Floor)
	}
	if cfg.Endpoints.Modrinth != upstream.DefaultModrinthURL {
		t.Errorf("expected modrinth endpoint %s, got %s", upstream.DefaultModrinthURL, cfg.Endpoints.Modrinth)
	}
	if cfg.Timeout() != 10*time.Second {
		t.Errorf("expected 10s timeout, got %s", cfg.Timeout())
	}
	if cfg.UI.Verbose {
		t.Error("expected default verbose to be false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid, got: %v", err)
	}

	// Fallback lists are ordered by release, not by string.
	last := cfg.Fallbacks.DataVersion[len(cfg.Fallbacks.DataVersion)-1]
	if last.Minecraft != "1.21.10" {
		t.Errorf("expected 1.21.10 last, got %s", last.Minecraft)
	}
}

func TestDefaultConfig_ResolverOptionsMatchResolverDefaults(t *testing.T) {
	t.Parallel()

	got := DefaultConfig().ResolverOptions()
	want := resolver.DefaultOptions()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ResolverOptions() = %+v, want %+v", got, want)
	}
}

func TestConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux")
	}

	t.Setenv("XDG_CONFIG_HOME", "/tmp/test-xdg-config")

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	if want := filepath.Join("/tmp/test-xdg-config", AppName); dir != want {
		t.Errorf("ConfigDir() = %s, want %s", dir, want)
	}
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	t.Parallel()

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Source != "" {
		t.Errorf("expected no source, got %q", cfg.Source)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("loaded config differs from defaults:\n got %+v\nwant %+v", cfg, DefaultConfig())
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, `
http: timeout: "3s"
discovery: {
	max_results: 5
	floor: ">= 1.21.6"
}
endpoints: paper: "http://localhost:8080"
fallbacks: data_version: [
	{minecraft: "1.21.6", data_version: 4400},
]
gradle: mod_version: "2.0.0"
ui: verbose: true
`)

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Source != path {
		t.Errorf("expected source %s, got %s", path, cfg.Source)
	}
	if cfg.Timeout() != 3*time.Second {
		t.Errorf("expected 3s timeout, got %s", cfg.Timeout())
	}
	if cfg.Discovery.MaxResults != 5 || cfg.Discovery.Floor != ">= 1.21.6" {
		t.Errorf("unexpected discovery: %+v", cfg.Discovery)
	}
	if cfg.Endpoints.Paper != "http://localhost:8080" {
		t.Errorf("unexpected paper endpoint: %s", cfg.Endpoints.Paper)
	}
	if cfg.Endpoints.Catalog != upstream.DefaultCatalogURL {
		t.Errorf("catalog endpoint should keep its default, got %s", cfg.Endpoints.Catalog)
	}
	if !cfg.UI.Verbose {
		t.Error("expected verbose to be true")
	}
	if cfg.GradleProperties().ModVersion != "2.0.0" {
		t.Errorf("unexpected mod version: %s", cfg.GradleProperties().ModVersion)
	}

	opts := cfg.ResolverOptions()
	if !reflect.DeepEqual(opts.DataVersionFallback, map[string]int{"1.21.6": 4400}) {
		t.Errorf("data version fallback should be replaced, got %v", opts.DataVersionFallback)
	}
	if len(opts.LoaderAPIFallback) == 0 {
		t.Error("loader API fallback should keep its default")
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), `family: "1.20"`)

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Family != "1.20" {
		t.Errorf("expected family 1.20, got %s", cfg.Family)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{name: "syntax error", content: `http: {`, wantMsg: "config.cue"},
		{name: "unknown field", content: `colour: "red"`, wantMsg: "colour"},
		{name: "wrong type", content: `discovery: max_results: "five"`, wantMsg: "max_results"},
		{name: "negative cap", content: `discovery: max_results: -1`, wantMsg: "max_results"},
		{name: "bad endpoint", content: `endpoints: catalog: "ftp://example.com"`, wantMsg: "catalog"},
		{name: "bad floor", content: `discovery: floor: "not a constraint"`, wantMsg: "discovery.floor"},
		{name: "duplicate fallback", content: `fallbacks: loader_api: [
	{minecraft: "1.21.4", version: "a"},
	{minecraft: "1.21.4", version: "b"},
]`, wantMsg: "duplicate entry for 1.21.4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeConfig(t, dir, tt.content)

			_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("expected *issue.ActionableError, got %T: %v", err, err)
			}
			if !ae.HasSuggestions() {
				t.Error("expected suggestions on config errors")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := NewProvider().Load(context.Background(), LoadOptions{
		ConfigFilePath: filepath.Join(t.TempDir(), "missing.cue"),
	})
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *issue.ActionableError, got %T: %v", err, err)
	}
	if ae.Operation != "load configuration" {
		t.Errorf("unexpected operation %q", ae.Operation)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProvider().Load(ctx, LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	t.Setenv("VERSIONFETCH_LOADER_PROJECT", "fabric-api-test")

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LoaderProject != "fabric-api-test" {
		t.Errorf("expected env override, got %s", cfg.LoaderProject)
	}
}

func TestValidate_CollectsFieldErrors(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.HTTP.Timeout = "soon"
	cfg.CatalogTTL = "-1m"
	cfg.Family = ""

	err := cfg.Validate()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	var cfgErr *InvalidConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *InvalidConfigError, got %T", err)
	}
	if len(cfgErr.FieldErrors) != 3 {
		t.Errorf("expected 3 field errors, got %d: %v", len(cfgErr.FieldErrors), cfgErr.FieldErrors)
	}
	// Field errors are sorted by message.
	if !errors.Is(cfgErr.FieldErrors[2], resolver.ErrInvalidOptions) {
		t.Errorf("expected the resolver options error last, got %v", cfgErr.FieldErrors)
	}
}

func TestManifestTTL(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.ManifestTTL() != 5*time.Minute {
		t.Errorf("expected 5m, got %s", cfg.ManifestTTL())
	}
	cfg.CatalogTTL = "0s"
	if cfg.ManifestTTL() != 0 {
		t.Errorf("expected 0, got %s", cfg.ManifestTTL())
	}
}

func TestGenerateCUE_LoadsBackToDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, GenerateCUE(DefaultConfig()))

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	cfg.Source = ""
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("round trip changed config:\n got %+v\nwant %+v", cfg, DefaultConfig())
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", AppName)
	opts := LoadOptions{ConfigDirPath: dir}

	path, created, err := CreateDefaultConfig(opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Error("expected file to be created")
	}
	if path != filepath.Join(dir, "config.cue") {
		t.Errorf("unexpected path %s", path)
	}

	if err := os.WriteFile(path, []byte(`family: "1.20"`), 0o644); err != nil {
		t.Fatalf("failed to overwrite config: %v", err)
	}
	_, created, err = CreateDefaultConfig(opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("existing config must not be replaced")
	}
	data, _ := os.ReadFile(path)
	if string(data) != `family: "1.20"` {
		t.Errorf("existing config was modified: %q", data)
	}
}

func TestDump(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	out, err := Dump(cfg, DumpTOML)
	if err != nil {
		t.Fatalf("toml: unexpected error: %v", err)
	}
	var decoded Config
	if err := toml.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("toml output does not parse: %v\n%s", err, out)
	}
	if decoded.Endpoints.Catalog != cfg.Endpoints.Catalog || len(decoded.Fallbacks.LoaderAPI) != len(cfg.Fallbacks.LoaderAPI) {
		t.Errorf("toml dump lost data:\n%s", out)
	}

	out, err = Dump(cfg, DumpJSON)
	if err != nil {
		t.Fatalf("json: unexpected error: %v", err)
	}
	if !strings.Contains(out, `"loader_project": "fabric-api"`) {
		t.Errorf("unexpected json dump:\n%s", out)
	}
	if strings.Contains(out, "Source") {
		t.Errorf("json dump leaked Source:\n%s", out)
	}

	if out, _ := Dump(cfg, DumpCUE); out != GenerateCUE(cfg) {
		t.Error("cue dump should match GenerateCUE")
	}

	if _, err := Dump(cfg, "xml"); !errors.Is(err, ErrUnknownDumpFormat) {
		t.Errorf("expected ErrUnknownDumpFormat, got %v", err)
	}
}
