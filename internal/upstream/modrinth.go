// SPDX-License-Identifier: MPL-2.0

package upstream

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// DefaultModrinthURL is the Modrinth API host.
const DefaultModrinthURL = "https://api.modrinth.com"

type (
	// ProjectVersion is one published version of a Modrinth project.
	ProjectVersion struct {
		VersionNumber string    // e.g., "0.119.2+1.21.5"
		VersionType   string    // "release", "beta" or "alpha"
		DatePublished time.Time // Publication timestamp
		GameVersions  []string  // Supported game versions
		Loaders       []string  // Supported mod loaders
	}

	// ModrinthClient lists Modrinth project versions.
	ModrinthClient struct {
		client
	}

	// modrinthVersion is the JSON wire format for a Modrinth project version.
	modrinthVersion struct {
		VersionNumber string    `json:"version_number"`
		VersionType   string    `json:"version_type"`
		DatePublished time.Time `json:"date_published"`
		GameVersions  []string  `json:"game_versions"`
		Loaders       []string  `json:"loaders"`
	}
)

// NewModrinthClient creates a ModrinthClient.
func NewModrinthClient(opts ...Option) *ModrinthClient {
	return &ModrinthClient{client: newClient(DefaultModrinthURL, opts)}
}

// ProjectVersions lists the versions of project filtered by the raw value of
// the game_versions query parameter. Modrinth documents the parameter as a
// JSON array (`["1.21.4"]`) but callers may pass a bare identifier too.
// The result keeps upstream order.
func (c *ModrinthClient) ProjectVersions(ctx context.Context, project, gameVersions string) ([]ProjectVersion, error) {
	query := url.Values{}
	if gameVersions != "" {
		query.Set("game_versions", gameVersions)
	}
	reqURL := c.endpoint("/v2/project/"+url.PathEscape(project)+"/version", query)

	var raw []modrinthVersion
	if err := c.getJSON(ctx, reqURL, &raw); err != nil {
		return nil, fmt.Errorf("listing %s versions: %w", project, err)
	}

	versions := make([]ProjectVersion, 0, len(raw))
	for _, v := range raw {
		versions = append(versions, ProjectVersion(v))
	}
	return versions, nil
}

// GameVersionsParam encodes a single identifier as Modrinth's JSON array form.
func GameVersionsParam(id string) string {
	return fmt.Sprintf("[%q]", id)
}
