// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/chococar-site/versionfetch/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "versionfetch"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment variable overrides, e.g. VERSIONFETCH_HTTP_TIMEOUT.
	EnvPrefix = "VERSIONFETCH"

	// maxConfigFileSize bounds config files read from disk.
	maxConfigFileSize = 1 << 20
)

const (
	// DumpCUE renders the configuration as a CUE file.
	DumpCUE DumpFormat = "cue"
	// DumpTOML renders the configuration as TOML.
	DumpTOML DumpFormat = "toml"
	// DumpJSON renders the configuration as indented JSON.
	DumpJSON DumpFormat = "json"
)

// ErrUnknownDumpFormat is returned by Dump for unsupported formats.
var ErrUnknownDumpFormat = errors.New("unknown dump format")

//go:embed config_schema.cue
var configSchema string

// DumpFormat selects the encoding used by Dump.
type DumpFormat string

// ConfigDir returns the versionfetch configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// FilePath returns the config file path inside the config directory,
// honoring opts.ConfigFilePath and opts.ConfigDirPath.
func FilePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		return opts.ConfigFilePath, nil
	}
	dir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// loadWithOptions performs option-driven config loading and returns the path
// that was read, or "" when only defaults and environment overrides apply.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath, err := locateConfigFile(opts)
	if err != nil {
		return nil, "", err
	}

	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Run 'versionfetch config show' to see the effective configuration").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Durations use Go syntax, e.g. \"10s\" or \"5m\"").
			WithSuggestion("discovery.floor is a semver constraint such as \">= 1.21.4\"").
			Wrap(err).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// locateConfigFile returns the config file to read, or "" when none exists.
// An explicit ConfigFilePath must exist.
func locateConfigFile(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Run 'versionfetch config init' to create a default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	cuePath, err := FilePath(opts)
	if err != nil {
		return "", err
	}
	if fileExists(cuePath) {
		return cuePath, nil
	}

	localCuePath := ConfigFileName + "." + ConfigFileExt
	if fileExists(localCuePath) {
		return localCuePath, nil
	}
	return "", nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("user_agent", d.UserAgent)
	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("catalog_ttl", d.CatalogTTL)
	v.SetDefault("family", d.Family)
	v.SetDefault("discovery.include_all_matching", d.Discovery.IncludeAllMatching)
	v.SetDefault("discovery.max_results", d.Discovery.MaxResults)
	v.SetDefault("discovery.floor", d.Discovery.Floor)
	v.SetDefault("endpoints.catalog", d.Endpoints.Catalog)
	v.SetDefault("endpoints.modrinth", d.Endpoints.Modrinth)
	v.SetDefault("endpoints.fabric_meta", d.Endpoints.FabricMeta)
	v.SetDefault("endpoints.paper", d.Endpoints.Paper)
	v.SetDefault("loader_project", d.LoaderProject)
	v.SetDefault("server_suffix", d.ServerSuffix)
	v.SetDefault("fallbacks.loader_api", d.Fallbacks.LoaderAPI)
	v.SetDefault("fallbacks.data_version", d.Fallbacks.DataVersion)
	v.SetDefault("gradle.loader_version", d.Gradle.LoaderVersion)
	v.SetDefault("gradle.mod_version", d.Gradle.ModVersion)
	v.SetDefault("gradle.maven_group", d.Gradle.MavenGroup)
	v.SetDefault("gradle.archives_base_name", d.Gradle.ArchivesBaseName)
	v.SetDefault("gradle.jvm_args", d.Gradle.JVMArgs)
	v.SetDefault("ui.verbose", d.UI.Verbose)
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > maxConfigFileSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", path, len(data), maxConfigFileSize)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	// Optional fields stay abstract, so only concrete user values are checked.
	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// formatCUEError flattens CUE errors into "<file>: <path>: <message>" lines.
func formatCUEError(err error, filePath string) error {
	all := cueerrors.Errors(err)
	if len(all) == 0 {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	lines := make([]string, 0, len(all))
	for _, e := range all {
		path := strings.Join(cueerrors.Path(e), ".")
		msg := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(e.Error(), path), ":"))
		if path == "" {
			lines = append(lines, msg)
			continue
		}
		lines = append(lines, path+": "+msg)
	}

	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", filePath, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", filePath, strings.Join(lines, "\n  "))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default configuration to the config file
// selected by opts. It reports false without touching the file when one exists.
func CreateDefaultConfig(opts LoadOptions) (string, bool, error) {
	cfgPath, err := FilePath(opts)
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, false, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write config file: %w", err)
	}
	return cfgPath, true, nil
}

// Dump encodes cfg in the requested format.
func Dump(cfg *Config, format DumpFormat) (string, error) {
	switch format {
	case DumpCUE:
		return GenerateCUE(cfg), nil
	case DumpTOML:
		out, err := toml.Marshal(cfg)
		if err != nil {
			return "", fmt.Errorf("encoding toml: %w", err)
		}
		return string(out), nil
	case DumpJSON:
		out, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encoding json: %w", err)
		}
		return string(out) + "\n", nil
	default:
		return "", fmt.Errorf("%w %q (valid: cue, toml, json)", ErrUnknownDumpFormat, format)
	}
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// versionfetch configuration file\n")
	sb.WriteString("// Every field is optional; removed fields fall back to their defaults.\n\n")

	fmt.Fprintf(&sb, "user_agent: %q\n", cfg.UserAgent)
	fmt.Fprintf(&sb, "catalog_ttl: %q\n", cfg.CatalogTTL)
	fmt.Fprintf(&sb, "family: %q\n", cfg.Family)
	fmt.Fprintf(&sb, "loader_project: %q\n", cfg.LoaderProject)
	fmt.Fprintf(&sb, "server_suffix: %q\n", cfg.ServerSuffix)

	sb.WriteString("\nhttp: {\n")
	fmt.Fprintf(&sb, "\ttimeout: %q\n", cfg.HTTP.Timeout)
	sb.WriteString("}\n")

	sb.WriteString("\ndiscovery: {\n")
	fmt.Fprintf(&sb, "\tinclude_all_matching: %v\n", cfg.Discovery.IncludeAllMatching)
	fmt.Fprintf(&sb, "\tmax_results: %d\n", cfg.Discovery.MaxResults)
	fmt.Fprintf(&sb, "\tfloor: %q\n", cfg.Discovery.Floor)
	sb.WriteString("}\n")

	sb.WriteString("\nendpoints: {\n")
	fmt.Fprintf(&sb, "\tcatalog: %q\n", cfg.Endpoints.Catalog)
	fmt.Fprintf(&sb, "\tmodrinth: %q\n", cfg.Endpoints.Modrinth)
	fmt.Fprintf(&sb, "\tfabric_meta: %q\n", cfg.Endpoints.FabricMeta)
	fmt.Fprintf(&sb, "\tpaper: %q\n", cfg.Endpoints.Paper)
	sb.WriteString("}\n")

	sb.WriteString("\nfallbacks: {\n")
	sb.WriteString("\tloader_api: [\n")
	for _, f := range cfg.Fallbacks.LoaderAPI {
		fmt.Fprintf(&sb, "\t\t{minecraft: %q, version: %q},\n", f.Minecraft, f.Version)
	}
	sb.WriteString("\t]\n")
	sb.WriteString("\tdata_version: [\n")
	for _, f := range cfg.Fallbacks.DataVersion {
		fmt.Fprintf(&sb, "\t\t{minecraft: %q, data_version: %d},\n", f.Minecraft, f.DataVersion)
	}
	sb.WriteString("\t]\n")
	sb.WriteString("}\n")

	sb.WriteString("\ngradle: {\n")
	fmt.Fprintf(&sb, "\tloader_version: %q\n", cfg.Gradle.LoaderVersion)
	fmt.Fprintf(&sb, "\tmod_version: %q\n", cfg.Gradle.ModVersion)
	fmt.Fprintf(&sb, "\tmaven_group: %q\n", cfg.Gradle.MavenGroup)
	fmt.Fprintf(&sb, "\tarchives_base_name: %q\n", cfg.Gradle.ArchivesBaseName)
	fmt.Fprintf(&sb, "\tjvm_args: %q\n", cfg.Gradle.JVMArgs)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}
