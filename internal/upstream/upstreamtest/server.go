// SPDX-License-Identifier: MPL-2.0

// Package upstreamtest serves canned upstream responses from a single
// httptest server so that clients and the resolver can be tested offline.
package upstreamtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type (
	// CatalogVersion is one manifest entry plus the fields of its detail document.
	CatalogVersion struct {
		ID              string
		Type            string // defaults to "release"
		WorldVersion    *int
		DataVersion     *int
		ProtocolVersion *int
	}

	// LoaderVersion is one Modrinth project version.
	LoaderVersion struct {
		VersionNumber string
		DatePublished time.Time
	}

	// Fixture describes every canned upstream response.
	Fixture struct {
		Catalog []CatalogVersion
		// LoaderVersions answers game_versions=["id"].
		LoaderVersions map[string][]LoaderVersion
		// LoaderVersionsBare answers game_versions=id.
		LoaderVersionsBare map[string][]LoaderVersion
		// Yarn maps a game version to its yarn builds; a missing key answers 404.
		Yarn map[string][]string
		// PaperVersions is the supported-versions list of the Paper project.
		PaperVersions []string
		// PaperBuilds maps a game version to its build numbers.
		PaperBuilds map[string][]int
		// Status forces a response status for an exact request path.
		Status map[string]int
	}

	// Server is a fake of all four upstreams on one address.
	Server struct {
		*httptest.Server

		fixture  Fixture
		mu       sync.Mutex
		requests []string
	}
)

// New starts a Server for fixture. The server is closed through t.Cleanup.
func New(t testing.TB, fixture Fixture) *Server {
	t.Helper()

	s := &Server{fixture: fixture}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// IntPtr returns a pointer to v, for fixture literals.
func IntPtr(v int) *int {
	return &v
}

// Requests returns the request URIs served so far, in arrival order.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// CountPrefix returns how many served request paths start with prefix.
func (s *Server) CountPrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r.URL.RequestURI())
	s.mu.Unlock()

	if code, ok := s.fixture.Status[r.URL.Path]; ok {
		w.WriteHeader(code)
		_, _ = w.Write([]byte(`{"error":"forced"}`))
		return
	}

	path := r.URL.Path
	switch {
	case path == "/mc/game/version_manifest.json":
		s.serveManifest(w)
	case strings.HasPrefix(path, "/v1/packages/"):
		s.serveDetail(w, strings.TrimSuffix(strings.TrimPrefix(path, "/v1/packages/"), ".json"))
	case strings.HasPrefix(path, "/v2/project/") && strings.HasSuffix(path, "/version"):
		s.serveLoader(w, r.URL.Query().Get("game_versions"))
	case strings.HasPrefix(path, "/v2/versions/yarn/"):
		s.serveYarn(w, strings.TrimPrefix(path, "/v2/versions/yarn/"))
	case path == "/v2/projects/paper":
		writeJSON(w, map[string]any{
			"project_id":   "paper",
			"project_name": "Paper",
			"versions":     nonNil(s.fixture.PaperVersions),
		})
	case strings.HasPrefix(path, "/v2/projects/paper/versions/"):
		id := strings.TrimPrefix(path, "/v2/projects/paper/versions/")
		builds, ok := s.fixture.PaperBuilds[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, map[string]any{"project_id": "paper", "version": id, "builds": nonNil(builds)})
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) serveManifest(w http.ResponseWriter) {
	versions := make([]map[string]string, 0, len(s.fixture.Catalog))
	for _, v := range s.fixture.Catalog {
		typ := v.Type
		if typ == "" {
			typ = "release"
		}
		versions = append(versions, map[string]string{
			"id":          v.ID,
			"type":        typ,
			"url":         s.URL + "/v1/packages/" + v.ID + ".json",
			"releaseTime": "2025-01-01T00:00:00+00:00",
		})
	}
	writeJSON(w, map[string]any{"latest": map[string]string{}, "versions": versions})
}

func (s *Server) serveDetail(w http.ResponseWriter, id string) {
	for _, v := range s.fixture.Catalog {
		if v.ID != id {
			continue
		}
		doc := map[string]any{"id": v.ID}
		if v.WorldVersion != nil {
			doc["worldVersion"] = *v.WorldVersion
		}
		if v.DataVersion != nil {
			doc["dataVersion"] = *v.DataVersion
		}
		if v.ProtocolVersion != nil {
			doc["protocolVersion"] = *v.ProtocolVersion
		}
		writeJSON(w, doc)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (s *Server) serveLoader(w http.ResponseWriter, param string) {
	table := s.fixture.LoaderVersionsBare
	id := param
	var bracketed []string
	if strings.HasPrefix(param, "[") && json.Unmarshal([]byte(param), &bracketed) == nil {
		table = s.fixture.LoaderVersions
		id = ""
		if len(bracketed) > 0 {
			id = bracketed[0]
		}
	}

	out := make([]map[string]any, 0, len(table[id]))
	for _, v := range table[id] {
		out = append(out, map[string]any{
			"version_number": v.VersionNumber,
			"version_type":   "release",
			"date_published": v.DatePublished.UTC().Format(time.RFC3339Nano),
			"game_versions":  []string{id},
			"loaders":        []string{"fabric"},
		})
	}
	writeJSON(w, out)
}

func (s *Server) serveYarn(w http.ResponseWriter, id string) {
	builds, ok := s.fixture.Yarn[id]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	out := make([]map[string]any, 0, len(builds))
	for i, b := range builds {
		out = append(out, map[string]any{
			"gameVersion": id,
			"separator":   "+build.",
			"build":       len(builds) - i,
			"maven":       "net.fabricmc:yarn:" + b,
			"version":     b,
			"stable":      true,
		})
	}
	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
