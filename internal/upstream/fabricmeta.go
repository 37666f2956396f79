// SPDX-License-Identifier: MPL-2.0

package upstream

import (
	"context"
	"fmt"
	"net/url"
)

// DefaultFabricMetaURL is the Fabric meta host.
const DefaultFabricMetaURL = "https://meta.fabricmc.net"

type (
	// YarnVersion is one yarn mappings build for a game version.
	YarnVersion struct {
		GameVersion string // e.g., "1.21.4"
		Separator   string // "+build."
		Build       int    // Build counter
		Maven       string // Maven coordinate
		Version     string // e.g., "1.21.4+build.8"
		Stable      bool
	}

	// FabricMetaClient lists yarn mappings from Fabric meta.
	FabricMetaClient struct {
		client
	}

	// yarnVersion is the JSON wire format for a Fabric meta yarn entry.
	yarnVersion struct {
		GameVersion string `json:"gameVersion"`
		Separator   string `json:"separator"`
		Build       int    `json:"build"`
		Maven       string `json:"maven"`
		Version     string `json:"version"`
		Stable      bool   `json:"stable"`
	}
)

// NewFabricMetaClient creates a FabricMetaClient.
func NewFabricMetaClient(opts ...Option) *FabricMetaClient {
	return &FabricMetaClient{client: newClient(DefaultFabricMetaURL, opts)}
}

// YarnVersions lists yarn builds for the game version id, newest first as
// served by Fabric meta. An unknown game version yields ErrNotFound.
func (c *FabricMetaClient) YarnVersions(ctx context.Context, id string) ([]YarnVersion, error) {
	reqURL := c.endpoint("/v2/versions/yarn/"+url.PathEscape(id), nil)

	var raw []yarnVersion
	if err := c.getJSON(ctx, reqURL, &raw); err != nil {
		return nil, fmt.Errorf("listing yarn versions for %s: %w", id, err)
	}

	versions := make([]YarnVersion, 0, len(raw))
	for _, v := range raw {
		versions = append(versions, YarnVersion(v))
	}
	return versions, nil
}
