// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/chococar-site/versionfetch/internal/upstream"
)

const (
	// DefaultFamily is the tracked release family.
	DefaultFamily = "1.21"
	// DefaultFloor is the lowest release discovered unless IncludeAllMatching is set.
	DefaultFloor = ">= 1.21.4"
	// DefaultLoaderProject is the Modrinth project slug of the Fabric API.
	DefaultLoaderProject = "fabric-api"
	// DefaultServerSuffix is appended to the identifier to form the Paper API version.
	DefaultServerSuffix = "-R0.1-SNAPSHOT"
)

// ErrInvalidOptions is the sentinel error wrapped by InvalidOptionsError.
var ErrInvalidOptions = errors.New("invalid resolver options")

type (
	// Catalog is the primary source of release identifiers and detail documents.
	Catalog interface {
		Manifest(ctx context.Context) ([]upstream.CatalogEntry, error)
		Lookup(ctx context.Context, id string) (upstream.CatalogEntry, error)
		Detail(ctx context.Context, detailURL string) (upstream.VersionDetail, error)
	}

	// LoaderRegistry lists mod-loader API versions per game version.
	LoaderRegistry interface {
		ProjectVersions(ctx context.Context, project, gameVersions string) ([]upstream.ProjectVersion, error)
	}

	// MappingsRegistry lists mappings builds per game version.
	MappingsRegistry interface {
		YarnVersions(ctx context.Context, id string) ([]upstream.YarnVersion, error)
	}

	// ServerRegistry lists supported game versions and their builds.
	ServerRegistry interface {
		ProjectVersions(ctx context.Context) ([]string, error)
		Builds(ctx context.Context, id string) ([]int, error)
	}

	// Sources bundles the four upstreams the resolver queries.
	Sources struct {
		Catalog  Catalog
		Loader   LoaderRegistry
		Mappings MappingsRegistry
		Server   ServerRegistry
	}

	// Discovery controls which catalog identifiers are considered when no
	// identifiers are requested explicitly.
	Discovery struct {
		// IncludeAllMatching keeps every identifier of the family and ignores Floor.
		IncludeAllMatching bool
		// MaxResults caps discovery to the newest N identifiers; 0 means unbounded.
		MaxResults int
		// Floor is a semver constraint every discovered identifier must satisfy.
		Floor string
	}

	// Options is the explicit resolver configuration.
	Options struct {
		// Family is the release family, e.g. "1.21"; identifiers must match <Family>.<N>.
		Family    string
		Discovery Discovery
		// LoaderProject is the Modrinth project slug queried for the loader API.
		LoaderProject string
		// ServerSuffix is appended to the identifier for the server distribution version.
		ServerSuffix string
		// LoaderAPIFallback is consulted when Modrinth yields nothing.
		LoaderAPIFallback map[string]string
		// DataVersionFallback is consulted when the detail document has no numeric version.
		DataVersionFallback map[string]int
	}

	// InvalidOptionsError is returned by New when Options cannot be used.
	// It wraps ErrInvalidOptions for errors.Is() compatibility.
	InvalidOptionsError struct {
		Field string
		Err   error
	}
)

// Error implements the error interface.
func (e *InvalidOptionsError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid resolver option %s", e.Field)
	}
	return fmt.Sprintf("invalid resolver option %s: %v", e.Field, e.Err)
}

// Unwrap returns ErrInvalidOptions for errors.Is() compatibility.
func (e *InvalidOptionsError) Unwrap() error { return ErrInvalidOptions }

// DefaultOptions returns the options used when nothing is configured.
// The fallback tables reflect the last values known to be published.
func DefaultOptions() Options {
	return Options{
		Family: DefaultFamily,
		Discovery: Discovery{
			Floor: DefaultFloor,
		},
		LoaderProject:       DefaultLoaderProject,
		ServerSuffix:        DefaultServerSuffix,
		LoaderAPIFallback:   DefaultLoaderAPIFallback(),
		DataVersionFallback: DefaultDataVersionFallback(),
	}
}

// DefaultLoaderAPIFallback returns the built-in Fabric API table.
func DefaultLoaderAPIFallback() map[string]string {
	return map[string]string{
		"1.21.4": "0.119.0+1.21.4",
		"1.21.5": "0.119.2+1.21.5",
		"1.21.6": "0.109.5+1.21.6",
		"1.21.7": "0.110.0+1.21.7",
		"1.21.8": "0.110.5+1.21.8",
	}
}

// DefaultDataVersionFallback returns the built-in data version table.
// Values for 1.21.9 and 1.21.10 are estimates.
func DefaultDataVersionFallback() map[string]int {
	return map[string]int{
		"1.21.4":  4082,
		"1.21.5":  4083,
		"1.21.6":  4083,
		"1.21.7":  4084,
		"1.21.8":  4085,
		"1.21.9":  4086,
		"1.21.10": 4087,
	}
}

// Validate checks the options that New cannot default.
func (o Options) Validate() error {
	if o.Family == "" {
		return &InvalidOptionsError{Field: "family", Err: errors.New("must not be empty")}
	}
	if o.Discovery.MaxResults < 0 {
		return &InvalidOptionsError{Field: "discovery.max_results", Err: fmt.Errorf("must be >= 0, got %d", o.Discovery.MaxResults)}
	}
	if o.LoaderProject == "" {
		return &InvalidOptionsError{Field: "loader_project", Err: errors.New("must not be empty")}
	}
	return nil
}

// clone copies the fallback tables so callers cannot mutate resolver state.
func (o Options) clone() Options {
	o.LoaderAPIFallback = maps.Clone(o.LoaderAPIFallback)
	o.DataVersionFallback = maps.Clone(o.DataVersionFallback)
	return o
}
