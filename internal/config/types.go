// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/chococar-site/versionfetch/internal/render"
	"github.com/chococar-site/versionfetch/internal/resolver"
	"github.com/chococar-site/versionfetch/internal/upstream"
)

const (
	// DefaultTimeout is the default per-request upstream timeout.
	DefaultTimeout = "10s"
	// DefaultCatalogTTL is the default lifetime of the release manifest memo.
	DefaultCatalogTTL = "5m"
)

// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
var ErrInvalidConfig = errors.New("invalid config")

type (
	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// UserAgent is sent with every upstream request.
		UserAgent string `json:"user_agent" toml:"user_agent" mapstructure:"user_agent"`
		// HTTP configures the upstream HTTP client.
		HTTP HTTPConfig `json:"http" toml:"http" mapstructure:"http"`
		// CatalogTTL is the lifetime of the in-process manifest memo.
		CatalogTTL string `json:"catalog_ttl" toml:"catalog_ttl" mapstructure:"catalog_ttl"`
		// Family is the tracked release family, e.g. "1.21".
		Family string `json:"family" toml:"family" mapstructure:"family"`
		// Discovery controls which identifiers are resolved by default.
		Discovery DiscoveryConfig `json:"discovery" toml:"discovery" mapstructure:"discovery"`
		// Endpoints overrides the upstream base URLs.
		Endpoints EndpointsConfig `json:"endpoints" toml:"endpoints" mapstructure:"endpoints"`
		// LoaderProject is the Modrinth project slug of the loader API.
		LoaderProject string `json:"loader_project" toml:"loader_project" mapstructure:"loader_project"`
		// ServerSuffix is appended to identifiers to form the server distribution version.
		ServerSuffix string `json:"server_suffix" toml:"server_suffix" mapstructure:"server_suffix"`
		// Fallbacks are consulted when upstreams have no answer.
		Fallbacks FallbacksConfig `json:"fallbacks" toml:"fallbacks" mapstructure:"fallbacks"`
		// Gradle holds the static gradle.properties values.
		Gradle GradleConfig `json:"gradle" toml:"gradle" mapstructure:"gradle"`
		// UI configures terminal output.
		UI UIConfig `json:"ui" toml:"ui" mapstructure:"ui"`

		// Source is the file the configuration was read from; empty for defaults.
		Source string `json:"-" toml:"-" mapstructure:"-"`
	}

	// HTTPConfig configures the upstream HTTP client.
	HTTPConfig struct {
		// Timeout bounds each request, as a Go duration string.
		Timeout string `json:"timeout" toml:"timeout" mapstructure:"timeout"`
	}

	// DiscoveryConfig mirrors resolver.Discovery.
	DiscoveryConfig struct {
		IncludeAllMatching bool   `json:"include_all_matching" toml:"include_all_matching" mapstructure:"include_all_matching"`
		MaxResults         int    `json:"max_results" toml:"max_results" mapstructure:"max_results"`
		Floor              string `json:"floor" toml:"floor" mapstructure:"floor"`
	}

	// EndpointsConfig holds the upstream base URLs.
	EndpointsConfig struct {
		Catalog    string `json:"catalog" toml:"catalog" mapstructure:"catalog"`
		Modrinth   string `json:"modrinth" toml:"modrinth" mapstructure:"modrinth"`
		FabricMeta string `json:"fabric_meta" toml:"fabric_meta" mapstructure:"fabric_meta"`
		Paper      string `json:"paper" toml:"paper" mapstructure:"paper"`
	}

	// FallbacksConfig holds the fallback tables as ordered lists.
	FallbacksConfig struct {
		LoaderAPI   []LoaderAPIFallback   `json:"loader_api" toml:"loader_api" mapstructure:"loader_api"`
		DataVersion []DataVersionFallback `json:"data_version" toml:"data_version" mapstructure:"data_version"`
	}

	// LoaderAPIFallback maps a release identifier to a loader API version.
	LoaderAPIFallback struct {
		Minecraft string `json:"minecraft" toml:"minecraft" mapstructure:"minecraft"`
		Version   string `json:"version" toml:"version" mapstructure:"version"`
	}

	// DataVersionFallback maps a release identifier to a data version.
	DataVersionFallback struct {
		Minecraft   string `json:"minecraft" toml:"minecraft" mapstructure:"minecraft"`
		DataVersion int    `json:"data_version" toml:"data_version" mapstructure:"data_version"`
	}

	// GradleConfig mirrors render.GradleProperties.
	GradleConfig struct {
		LoaderVersion    string `json:"loader_version" toml:"loader_version" mapstructure:"loader_version"`
		ModVersion       string `json:"mod_version" toml:"mod_version" mapstructure:"mod_version"`
		MavenGroup       string `json:"maven_group" toml:"maven_group" mapstructure:"maven_group"`
		ArchivesBaseName string `json:"archives_base_name" toml:"archives_base_name" mapstructure:"archives_base_name"`
		JVMArgs          string `json:"jvm_args" toml:"jvm_args" mapstructure:"jvm_args"`
	}

	// UIConfig configures terminal output.
	UIConfig struct {
		// Verbose enables debug logging.
		Verbose bool `json:"verbose" toml:"verbose" mapstructure:"verbose"`
	}
)

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	ro := resolver.DefaultOptions()
	gp := render.DefaultGradleProperties()

	return &Config{
		UserAgent:  upstream.DefaultUserAgent,
		HTTP:       HTTPConfig{Timeout: DefaultTimeout},
		CatalogTTL: DefaultCatalogTTL,
		Family:     ro.Family,
		Discovery: DiscoveryConfig{
			IncludeAllMatching: ro.Discovery.IncludeAllMatching,
			MaxResults:         ro.Discovery.MaxResults,
			Floor:              ro.Discovery.Floor,
		},
		Endpoints: EndpointsConfig{
			Catalog:    upstream.DefaultCatalogURL,
			Modrinth:   upstream.DefaultModrinthURL,
			FabricMeta: upstream.DefaultFabricMetaURL,
			Paper:      upstream.DefaultPaperURL,
		},
		LoaderProject: ro.LoaderProject,
		ServerSuffix:  ro.ServerSuffix,
		Fallbacks: FallbacksConfig{
			LoaderAPI:   loaderFallbackList(ro.LoaderAPIFallback),
			DataVersion: dataFallbackList(ro.DataVersionFallback),
		},
		Gradle: GradleConfig{
			LoaderVersion:    gp.LoaderVersion,
			ModVersion:       gp.ModVersion,
			MavenGroup:       gp.MavenGroup,
			ArchivesBaseName: gp.ArchivesBaseName,
			JVMArgs:          gp.JVMArgs,
		},
	}
}

// Validate checks the values the CUE schema cannot express. All problems are
// collected into a single InvalidConfigError.
func (c *Config) Validate() error {
	var errs []error

	if d, err := time.ParseDuration(c.HTTP.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("http.timeout: %w", err))
	} else if d <= 0 {
		errs = append(errs, fmt.Errorf("http.timeout: must be positive, got %s", c.HTTP.Timeout))
	}
	if d, err := time.ParseDuration(c.CatalogTTL); err != nil {
		errs = append(errs, fmt.Errorf("catalog_ttl: %w", err))
	} else if d < 0 {
		errs = append(errs, fmt.Errorf("catalog_ttl: must not be negative, got %s", c.CatalogTTL))
	}

	if c.Discovery.Floor != "" {
		if _, err := semver.NewConstraint(c.Discovery.Floor); err != nil {
			errs = append(errs, fmt.Errorf("discovery.floor: %w", err))
		}
	}

	for name, raw := range map[string]string{
		"endpoints.catalog":     c.Endpoints.Catalog,
		"endpoints.modrinth":    c.Endpoints.Modrinth,
		"endpoints.fabric_meta": c.Endpoints.FabricMeta,
		"endpoints.paper":       c.Endpoints.Paper,
	} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s: not an http(s) URL: %q", name, raw))
		}
	}

	if dup := firstDuplicate(c.Fallbacks.LoaderAPI, func(f LoaderAPIFallback) string { return f.Minecraft }); dup != "" {
		errs = append(errs, fmt.Errorf("fallbacks.loader_api: duplicate entry for %s", dup))
	}
	if dup := firstDuplicate(c.Fallbacks.DataVersion, func(f DataVersionFallback) string { return f.Minecraft }); dup != "" {
		errs = append(errs, fmt.Errorf("fallbacks.data_version: duplicate entry for %s", dup))
	}

	if err := c.ResolverOptions().Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return nil
	}
	// Map iteration above is unordered.
	slices.SortFunc(errs, func(a, b error) int { return strings.Compare(a.Error(), b.Error()) })
	return &InvalidConfigError{FieldErrors: errs}
}

// Timeout returns the parsed HTTP timeout, or the default when unparsable.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.HTTP.Timeout)
	if err != nil || d <= 0 {
		return upstream.DefaultTimeout
	}
	return d
}

// ManifestTTL returns the parsed manifest memo lifetime; zero disables the memo.
func (c *Config) ManifestTTL() time.Duration {
	d, err := time.ParseDuration(c.CatalogTTL)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// ResolverOptions converts the configuration into resolver options.
func (c *Config) ResolverOptions() resolver.Options {
	loader := make(map[string]string, len(c.Fallbacks.LoaderAPI))
	for _, f := range c.Fallbacks.LoaderAPI {
		loader[f.Minecraft] = f.Version
	}
	data := make(map[string]int, len(c.Fallbacks.DataVersion))
	for _, f := range c.Fallbacks.DataVersion {
		data[f.Minecraft] = f.DataVersion
	}

	return resolver.Options{
		Family: c.Family,
		Discovery: resolver.Discovery{
			IncludeAllMatching: c.Discovery.IncludeAllMatching,
			MaxResults:         c.Discovery.MaxResults,
			Floor:              c.Discovery.Floor,
		},
		LoaderProject:       c.LoaderProject,
		ServerSuffix:        c.ServerSuffix,
		LoaderAPIFallback:   loader,
		DataVersionFallback: data,
	}
}

// GradleProperties converts the gradle section into render properties.
func (c *Config) GradleProperties() render.GradleProperties {
	return render.GradleProperties{
		JVMArgs:          c.Gradle.JVMArgs,
		LoaderVersion:    c.Gradle.LoaderVersion,
		ModVersion:       c.Gradle.ModVersion,
		MavenGroup:       c.Gradle.MavenGroup,
		ArchivesBaseName: c.Gradle.ArchivesBaseName,
	}
}

func loaderFallbackList(m map[string]string) []LoaderAPIFallback {
	out := make([]LoaderAPIFallback, 0, len(m))
	for _, id := range sortedIdentifiers(m) {
		out = append(out, LoaderAPIFallback{Minecraft: id, Version: m[id]})
	}
	return out
}

func dataFallbackList(m map[string]int) []DataVersionFallback {
	out := make([]DataVersionFallback, 0, len(m))
	for _, id := range sortedIdentifiers(m) {
		out = append(out, DataVersionFallback{Minecraft: id, DataVersion: m[id]})
	}
	return out
}

// sortedIdentifiers returns the keys of m in ascending release order.
// Keys that are not versions sort after versions, by name.
func sortedIdentifiers[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int {
		va, errA := semver.NewVersion(a)
		vb, errB := semver.NewVersion(b)
		switch {
		case errA == nil && errB == nil:
			if c := va.Compare(vb); c != 0 {
				return c
			}
		case errA == nil:
			return -1
		case errB == nil:
			return 1
		}
		return strings.Compare(a, b)
	})
	return ids
}

func firstDuplicate[T any](items []T, key func(T) string) string {
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		k := key(it)
		if _, ok := seen[k]; ok {
			return k
		}
		seen[k] = struct{}{}
	}
	return ""
}
