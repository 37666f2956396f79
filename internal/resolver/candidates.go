// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"context"
	"slices"

	"github.com/Masterminds/semver/v3"
)

// releaseType is the catalog type of stable releases.
const releaseType = "release"

type candidate struct {
	id      string
	version *semver.Version
}

// ListCandidateIdentifiers returns the release identifiers of the configured
// family, newest first by numeric components ("1.21.10" before "1.21.9").
// On any catalog failure it logs and returns an empty list.
func (r *Resolver) ListCandidateIdentifiers(ctx context.Context) []string {
	entries, err := r.sources.Catalog.Manifest(ctx)
	if err != nil {
		r.logger.Error("fetching release versions failed", "err", err)
		return []string{}
	}

	seen := make(map[string]bool)
	var candidates []candidate
	for _, e := range entries {
		if e.Type != releaseType || !r.family.MatchString(e.ID) || seen[e.ID] {
			continue
		}
		v, parseErr := semver.NewVersion(e.ID)
		if parseErr != nil {
			r.logger.Debug("skipping unparsable version", "version", e.ID, "err", parseErr)
			continue
		}
		if r.floor != nil && !r.floor.Check(v) {
			continue
		}
		seen[e.ID] = true
		candidates = append(candidates, candidate{id: e.ID, version: v})
	}

	slices.SortStableFunc(candidates, func(a, b candidate) int {
		return b.version.Compare(a.version)
	})

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.id)
	}
	return ids
}
