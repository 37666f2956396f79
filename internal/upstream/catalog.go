// SPDX-License-Identifier: MPL-2.0

package upstream

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// DefaultCatalogURL is the Mojang piston-meta host.
	DefaultCatalogURL = "https://piston-meta.mojang.com"

	manifestPath = "/mc/game/version_manifest.json"

	// manifestCacheSize is small on purpose: one manifest per base URL.
	manifestCacheSize = 4
)

type (
	// CatalogEntry is one version listed in the Mojang version manifest.
	CatalogEntry struct {
		ID          string    // Version identifier, e.g., "1.21.4"
		Type        string    // "release", "snapshot", "old_beta", ...
		URL         string    // Absolute URL of the per-version detail document
		ReleaseTime time.Time // Zero when absent or malformed
	}

	// VersionDetail holds the numeric version fields of a per-version document.
	// Each field is nil when the document does not carry it.
	VersionDetail struct {
		ID              string
		WorldVersion    *int
		DataVersion     *int
		ProtocolVersion *int
	}

	// CatalogClient reads the Mojang version manifest and detail documents.
	// The manifest is memoized in memory for the configured TTL so that a
	// single run fetches it once.
	CatalogClient struct {
		client
		manifests *expirable.LRU[string, []CatalogEntry]
	}

	// catalogManifest is the JSON wire format for version_manifest.json.
	catalogManifest struct {
		Latest struct {
			Release  string `json:"release"`
			Snapshot string `json:"snapshot"`
		} `json:"latest"`
		Versions []catalogEntry `json:"versions"`
	}

	// catalogEntry is the JSON wire format for one manifest version.
	catalogEntry struct {
		ID          string `json:"id"`
		Type        string `json:"type"`
		URL         string `json:"url"`
		ReleaseTime string `json:"releaseTime"`
	}

	// versionDetail is the JSON wire format for the fields read from a detail document.
	versionDetail struct {
		ID              string `json:"id"`
		WorldVersion    *int   `json:"worldVersion"`
		DataVersion     *int   `json:"dataVersion"`
		ProtocolVersion *int   `json:"protocolVersion"`
	}
)

// NewCatalogClient creates a CatalogClient. A manifestTTL of zero disables the memo.
func NewCatalogClient(manifestTTL time.Duration, opts ...Option) *CatalogClient {
	c := &CatalogClient{client: newClient(DefaultCatalogURL, opts)}
	if manifestTTL > 0 {
		c.manifests = expirable.NewLRU[string, []CatalogEntry](manifestCacheSize, nil, manifestTTL)
	}
	return c
}

// Manifest returns every version listed in the manifest, in upstream order.
func (c *CatalogClient) Manifest(ctx context.Context) ([]CatalogEntry, error) {
	reqURL := c.endpoint(manifestPath, nil)
	if c.manifests != nil {
		if entries, ok := c.manifests.Get(reqURL); ok {
			c.logger.Debug("manifest memo hit", "url", reqURL)
			return entries, nil
		}
	}

	var raw catalogManifest
	if err := c.getJSON(ctx, reqURL, &raw); err != nil {
		return nil, fmt.Errorf("fetching version manifest: %w", err)
	}

	entries := make([]CatalogEntry, 0, len(raw.Versions))
	for _, e := range raw.Versions {
		entries = append(entries, toCatalogEntry(e))
	}

	if c.manifests != nil {
		c.manifests.Add(reqURL, entries)
	}
	return entries, nil
}

// Lookup returns the manifest entry with the given identifier.
// Returns ErrNotFound when the manifest does not list it.
func (c *CatalogClient) Lookup(ctx context.Context, id string) (CatalogEntry, error) {
	entries, err := c.Manifest(ctx)
	if err != nil {
		return CatalogEntry{}, err
	}
	for _, e := range entries {
		if e.ID == id {
			return e, nil
		}
	}
	return CatalogEntry{}, fmt.Errorf("version %s: %w", id, ErrNotFound)
}

// Detail fetches the per-version document at detailURL, as listed in the manifest.
func (c *CatalogClient) Detail(ctx context.Context, detailURL string) (VersionDetail, error) {
	var raw versionDetail
	if err := c.getJSON(ctx, detailURL, &raw); err != nil {
		return VersionDetail{}, fmt.Errorf("fetching version detail: %w", err)
	}
	return VersionDetail(raw), nil
}

func toCatalogEntry(e catalogEntry) CatalogEntry {
	// Malformed timestamps are tolerated; nothing orders by them.
	released, _ := time.Parse(time.RFC3339, e.ReleaseTime) //nolint:errcheck // Zero time on failure.
	return CatalogEntry{
		ID:          e.ID,
		Type:        e.Type,
		URL:         e.URL,
		ReleaseTime: released,
	}
}
