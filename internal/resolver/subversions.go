// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"context"
	"errors"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/chococar-site/versionfetch/internal/upstream"
)

// ResolveLoaderAPI returns the most recently published loader API version for
// id. Modrinth is queried with the JSON-array filter first and, when that
// yields nothing, with the bare identifier. When Modrinth yields nothing or
// fails, the fallback table is consulted.
func (r *Resolver) ResolveLoaderAPI(ctx context.Context, id string) *string {
	logger := r.logger.With("source", "modrinth", "version", id)

	versions, err := r.sources.Loader.ProjectVersions(ctx, r.opts.LoaderProject, upstream.GameVersionsParam(id))
	if err != nil {
		logger.Error("fetching loader API versions failed", "err", err)
		return r.loaderFallback(logger, id)
	}
	logger.Debug("loader API versions found", "count", len(versions))

	if len(versions) == 0 {
		logger.Debug("retrying without array filter")
		retry, retryErr := r.sources.Loader.ProjectVersions(ctx, r.opts.LoaderProject, id)
		if retryErr != nil {
			logger.Warn("retry failed", "err", retryErr)
		} else {
			versions = retry
		}
	}

	if latest, ok := latestPublished(versions); ok {
		logger.Debug("latest loader API", "fabric_api", latest.VersionNumber)
		v := latest.VersionNumber
		return &v
	}

	logger.Warn("no loader API version published, using fallback table")
	return r.loaderFallback(logger, id)
}

// ResolveMappings returns the first yarn build Fabric meta lists for id.
// An unknown id (404) or an empty listing yields nil.
func (r *Resolver) ResolveMappings(ctx context.Context, id string) *string {
	logger := r.logger.With("source", "fabric-meta", "version", id)

	versions, err := r.sources.Mappings.YarnVersions(ctx, id)
	switch {
	case errors.Is(err, upstream.ErrNotFound):
		logger.Warn("no yarn mappings for version")
		return nil
	case err != nil:
		logger.Error("fetching yarn mappings failed", "err", err)
		return nil
	}
	logger.Debug("yarn versions found", "count", len(versions))

	if len(versions) == 0 {
		return nil
	}
	v := versions[0].Version
	return &v
}

// ResolveServerDistribution returns "<id><ServerSuffix>" when Paper supports
// id and has published at least one build for it. Builds are only requested
// for supported identifiers. The build number itself is logged but is not
// part of the returned version, which is the Maven API coordinate.
func (r *Resolver) ResolveServerDistribution(ctx context.Context, id string) *string {
	logger := r.logger.With("source", "paper", "version", id)

	supported, err := r.sources.Server.ProjectVersions(ctx)
	if err != nil {
		logger.Error("fetching supported versions failed", "err", err)
		return nil
	}
	if !slices.Contains(supported, id) {
		logger.Warn("paper does not support version yet")
		return nil
	}

	builds, err := r.sources.Server.Builds(ctx, id)
	if err != nil {
		logger.Error("fetching builds failed", "err", err)
		return nil
	}
	if len(builds) == 0 {
		logger.Warn("paper has no builds for version")
		return nil
	}

	v := id + r.opts.ServerSuffix
	logger.Debug("paper version", "paper", v, "build", builds[len(builds)-1])
	return &v
}

// ResolveDataVersion returns the numeric data version of id, read from the
// first populated of worldVersion, dataVersion and protocolVersion in its
// detail document, else from the fallback table. An identifier missing from
// the catalog yields nil.
func (r *Resolver) ResolveDataVersion(ctx context.Context, id string) *int {
	logger := r.logger.With("source", "catalog", "version", id)

	entry, err := r.sources.Catalog.Lookup(ctx, id)
	switch {
	case errors.Is(err, upstream.ErrNotFound):
		logger.Warn("version not in catalog")
		return nil
	case err != nil:
		logger.Error("fetching data version failed", "err", err)
		return nil
	}

	detail, err := r.sources.Catalog.Detail(ctx, entry.URL)
	if err != nil {
		logger.Error("fetching data version failed", "err", err)
		return nil
	}

	if v := firstPopulated(detail.WorldVersion, detail.DataVersion, detail.ProtocolVersion); v != nil {
		return v
	}

	if fb, ok := r.opts.DataVersionFallback[id]; ok {
		logger.Info("using fallback data version", "data_version", fb)
		return &fb
	}
	return nil
}

func (r *Resolver) loaderFallback(logger *log.Logger, id string) *string {
	fb, ok := r.opts.LoaderAPIFallback[id]
	if !ok {
		logger.Error("no loader API version known for version")
		return nil
	}
	logger.Info("using fallback loader API version", "fabric_api", fb)
	return &fb
}

// latestPublished picks the entry with the most recent publish timestamp.
// Ties keep the earlier entry in upstream order.
func latestPublished(versions []upstream.ProjectVersion) (upstream.ProjectVersion, bool) {
	if len(versions) == 0 {
		return upstream.ProjectVersion{}, false
	}
	best := versions[0]
	for _, v := range versions[1:] {
		if v.DatePublished.After(best.DatePublished) {
			best = v
		}
	}
	return best, true
}

// firstPopulated returns a copy of the first non-nil, non-zero value.
func firstPopulated(candidates ...*int) *int {
	for _, c := range candidates {
		if c != nil && *c != 0 {
			v := *c
			return &v
		}
	}
	return nil
}
