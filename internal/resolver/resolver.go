// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"
)

type (
	// Request lists the identifiers to resolve. An empty list means discover
	// them from the catalog.
	Request struct {
		Identifiers []string
	}

	// Resolver resolves sub-versions for release identifiers.
	Resolver struct {
		sources Sources
		opts    Options
		family  *regexp.Regexp
		floor   *semver.Constraints // nil when IncludeAllMatching or no floor
		logger  *log.Logger
	}

	// Option configures a Resolver during construction.
	Option func(*Resolver)
)

// WithLogger sets the logger for progress and diagnostic output.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Resolver over sources. Every source must be set.
func New(sources Sources, opts Options, options ...Option) (*Resolver, error) {
	if sources.Catalog == nil || sources.Loader == nil || sources.Mappings == nil || sources.Server == nil {
		return nil, &InvalidOptionsError{Field: "sources", Err: errors.New("all four sources are required")}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	r := &Resolver{
		sources: sources,
		opts:    opts.clone(),
		family:  regexp.MustCompile(`^` + regexp.QuoteMeta(opts.Family) + `\.\d+$`),
		logger:  log.New(io.Discard),
	}

	if floor := strings.TrimSpace(opts.Discovery.Floor); floor != "" && !opts.Discovery.IncludeAllMatching {
		c, err := semver.NewConstraint(floor)
		if err != nil {
			return nil, &InvalidOptionsError{Field: "discovery.floor", Err: err}
		}
		r.floor = c
	}

	for _, o := range options {
		o(r)
	}
	return r, nil
}

// ResolveAll resolves every effective identifier of req, in catalog order.
// It never fails: unresolvable values are absent and the record is partial.
func (r *Resolver) ResolveAll(ctx context.Context, req Request) Resolution {
	r.logger.Info("fetching latest version information")

	ids := r.effectiveIdentifiers(ctx, req.Identifiers)
	r.logger.Info("versions to resolve", "versions", strings.Join(ids, ", "))

	records := make([]VersionRecord, 0, len(ids))
	for _, id := range ids {
		r.logger.Info("processing", "version", id)

		sub := SubVersions{
			FabricAPI:    r.ResolveLoaderAPI(ctx, id),
			YarnMappings: r.ResolveMappings(ctx, id),
			Paper:        r.ResolveServerDistribution(ctx, id),
			DataVersion:  r.ResolveDataVersion(ctx, id),
		}
		rec := NewVersionRecord(id, sub)

		r.logger.Info("resolved",
			"version", id,
			"yarn", display(rec.YarnMappings),
			"fabric_api", display(rec.FabricAPI),
			"paper", display(rec.Paper),
			"data_version", displayInt(rec.DataVersion),
			"status", rec.Status,
		)
		records = append(records, rec)
	}

	return NewResolution(records)
}

// effectiveIdentifiers filters the discovered identifiers down to the
// requested ones, or caps discovery when nothing was requested.
func (r *Resolver) effectiveIdentifiers(ctx context.Context, requested []string) []string {
	discovered := r.ListCandidateIdentifiers(ctx)

	if len(requested) == 0 {
		if limit := r.opts.Discovery.MaxResults; limit > 0 && len(discovered) > limit {
			discovered = discovered[:limit]
		}
		return discovered
	}

	wanted := make(map[string]bool, len(requested))
	for _, id := range requested {
		wanted[id] = true
	}

	out := make([]string, 0, len(requested))
	for _, id := range discovered {
		if wanted[id] {
			out = append(out, id)
			delete(wanted, id)
		}
	}

	for _, id := range requested {
		if wanted[id] {
			r.logger.Warn("requested version is not a candidate release; skipping", "version", id)
			delete(wanted, id)
		}
	}
	return out
}

func display(s *string) string {
	if s == nil {
		return "not found"
	}
	return *s
}

func displayInt(n *int) any {
	if n == nil {
		return "unknown"
	}
	return *n
}
