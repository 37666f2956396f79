// SPDX-License-Identifier: MPL-2.0

package upstream

import (
	"context"
	"fmt"
	"net/url"
)

// DefaultPaperURL is the PaperMC API host.
const DefaultPaperURL = "https://api.papermc.io"

const paperProjectPath = "/v2/projects/paper"

type (
	// PaperClient reads the PaperMC v2 project registry.
	PaperClient struct {
		client
	}

	// paperProject is the JSON wire format for /v2/projects/paper.
	paperProject struct {
		ProjectID     string   `json:"project_id"`
		ProjectName   string   `json:"project_name"`
		VersionGroups []string `json:"version_groups"`
		Versions      []string `json:"versions"`
	}

	// paperVersion is the JSON wire format for /v2/projects/paper/versions/{id}.
	paperVersion struct {
		ProjectID string `json:"project_id"`
		Version   string `json:"version"`
		Builds    []int  `json:"builds"`
	}
)

// NewPaperClient creates a PaperClient.
func NewPaperClient(opts ...Option) *PaperClient {
	return &PaperClient{client: newClient(DefaultPaperURL, opts)}
}

// ProjectVersions returns the game versions Paper supports, oldest first.
func (c *PaperClient) ProjectVersions(ctx context.Context) ([]string, error) {
	var raw paperProject
	if err := c.getJSON(ctx, c.endpoint(paperProjectPath, nil), &raw); err != nil {
		return nil, fmt.Errorf("listing paper versions: %w", err)
	}
	return raw.Versions, nil
}

// Builds returns the build numbers published for the game version id, oldest first.
func (c *PaperClient) Builds(ctx context.Context, id string) ([]int, error) {
	reqURL := c.endpoint(paperProjectPath+"/versions/"+url.PathEscape(id), nil)

	var raw paperVersion
	if err := c.getJSON(ctx, reqURL, &raw); err != nil {
		return nil, fmt.Errorf("listing paper builds for %s: %w", id, err)
	}
	return raw.Builds, nil
}
