// SPDX-License-Identifier: MPL-2.0

package render

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"mvdan.cc/sh/v3/syntax"
	"sigs.k8s.io/yaml"

	"github.com/chococar-site/versionfetch/internal/resolver"
)

// timestampLayout is used for the "generated on" lines.
const timestampLayout = "2006-01-02 15:04:05"

type (
	// GradleProperties are the static gradle.properties values that are not
	// resolved from upstream.
	GradleProperties struct {
		JVMArgs          string
		LoaderVersion    string
		ModVersion       string
		MavenGroup       string
		ArchivesBaseName string
	}

	// Options configures rendering.
	Options struct {
		// DefaultVersion selects the record for gradle output; empty selects the first.
		DefaultVersion string
		// GeneratedAt is stamped into generated files; zero means now.
		GeneratedAt time.Time
		Gradle      GradleProperties
	}

	// row is the template view of one complete record.
	row struct {
		ID          string
		Yarn        string
		FabricAPI   string
		Paper       string
		DataVersion string
	}

	// summaryRow is the template view of any record.
	summaryRow struct {
		row
		Status resolver.Status
	}
)

// GradleKeys lists the keys of a rendered gradle.properties, in file order.
var GradleKeys = []string{
	"org.gradle.jvmargs",
	"minecraft_version",
	"yarn_mappings",
	"loader_version",
	"mod_version",
	"maven_group",
	"archives_base_name",
	"fabric_version",
	"paper_version",
	"data_version",
	"ci_build",
}

var templates = template.Must(template.New("render").Funcs(template.FuncMap{
	"shq": shellQuote,
}).Parse(workflowTemplate + gradleTemplate + scriptTemplate + summaryTemplate))

// DefaultGradleProperties returns the static gradle.properties values of the project.
func DefaultGradleProperties() GradleProperties {
	return GradleProperties{
		JVMArgs:          "-Xmx4G",
		LoaderVersion:    "0.16.9",
		ModVersion:       "1.0.0-SNAPSHOT",
		MavenGroup:       "site.chococar",
		ArchivesBaseName: "chococars-inventory-bridge",
	}
}

// withDefaults fills every empty field from DefaultGradleProperties.
func (g GradleProperties) withDefaults() GradleProperties {
	d := DefaultGradleProperties()
	if g.JVMArgs == "" {
		g.JVMArgs = d.JVMArgs
	}
	if g.LoaderVersion == "" {
		g.LoaderVersion = d.LoaderVersion
	}
	if g.ModVersion == "" {
		g.ModVersion = d.ModVersion
	}
	if g.MavenGroup == "" {
		g.MavenGroup = d.MavenGroup
	}
	if g.ArchivesBaseName == "" {
		g.ArchivesBaseName = d.ArchivesBaseName
	}
	return g
}

// Render produces the text artifact for format. The result has no trailing newline.
func Render(format Format, res resolver.Resolution, opts Options) (string, error) {
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now()
	}

	switch format {
	case FormatJSON:
		return renderJSON(res)
	case FormatYAML:
		return renderYAML(res)
	case FormatWorkflow:
		return renderWorkflow(res)
	case FormatGradle:
		return renderGradle(res, opts)
	case FormatScript:
		return renderScript(res, opts)
	case FormatSummary:
		return renderSummary(res)
	default:
		return "", &UnknownFormatError{Value: string(format)}
	}
}

func renderJSON(res resolver.Resolution) (string, error) {
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding json: %w", err)
	}
	return string(out), nil
}

func renderYAML(res resolver.Resolution) (string, error) {
	doc := struct {
		Versions []resolver.VersionRecord `json:"versions"`
	}{Versions: res.Records()}
	if doc.Versions == nil {
		doc.Versions = []resolver.VersionRecord{}
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encoding yaml: %w", err)
	}
	return strings.TrimRight(string(out), "\n"), nil
}

func renderWorkflow(res resolver.Resolution) (string, error) {
	return execute("workflow", struct{ Rows []row }{Rows: completeRows(res)})
}

func renderGradle(res resolver.Resolution, opts Options) (string, error) {
	if res.Len() == 0 {
		return "", ErrNoRecords
	}

	id := opts.DefaultVersion
	if id == "" {
		id = res.Identifiers()[0]
	}
	rec, ok := res.Get(id)
	if !ok {
		return "", &IdentifierNotFoundError{Identifier: id, Available: res.Identifiers()}
	}
	if !rec.IsComplete() {
		return "", &IncompleteRecordError{Identifier: id}
	}

	return execute("gradle", struct {
		Row         row
		Props       GradleProperties
		GeneratedAt string
	}{
		Row:         toRow(rec),
		Props:       opts.Gradle.withDefaults(),
		GeneratedAt: opts.GeneratedAt.Format(timestampLayout),
	})
}

func renderScript(res resolver.Resolution, opts Options) (string, error) {
	rows := completeRows(res)
	if len(rows) == 0 {
		return "", ErrNoCompleteRecords
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}

	out, err := execute("script", struct {
		Rows        []row
		Default     string
		Supported   string
		GeneratedAt string
	}{
		Rows:        rows,
		Default:     rows[0].ID,
		Supported:   strings.Join(ids, ", "),
		GeneratedAt: opts.GeneratedAt.Format(timestampLayout),
	})
	if err != nil {
		return "", err
	}

	if _, err := syntax.NewParser().Parse(strings.NewReader(out), "versions.sh"); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}
	return out, nil
}

func renderSummary(res resolver.Resolution) (string, error) {
	records := res.Records()
	rows := make([]summaryRow, 0, len(records))
	var complete []string
	for _, rec := range records {
		rows = append(rows, summaryRow{row: toRow(rec), Status: rec.Status})
		if rec.IsComplete() {
			complete = append(complete, rec.Identifier)
		}
	}

	return execute("summary", struct {
		Rows     []summaryRow
		Complete int
		Total    int
		List     string
	}{
		Rows:     rows,
		Complete: len(complete),
		Total:    len(records),
		List:     strings.Join(complete, ", "),
	})
}

func execute(name string, data any) (string, error) {
	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func completeRows(res resolver.Resolution) []row {
	complete := res.Complete()
	rows := make([]row, 0, len(complete))
	for _, rec := range complete {
		rows = append(rows, toRow(rec))
	}
	return rows
}

func toRow(rec resolver.VersionRecord) row {
	r := row{
		ID:          rec.Identifier,
		Yarn:        valueOr(rec.YarnMappings),
		FabricAPI:   valueOr(rec.FabricAPI),
		Paper:       valueOr(rec.Paper),
		DataVersion: "n/a",
	}
	if rec.DataVersion != nil {
		r.DataVersion = strconv.Itoa(*rec.DataVersion)
	}
	return r
}

func valueOr(s *string) string {
	if s == nil {
		return "n/a"
	}
	return *s
}

// shellQuote quotes s for bash. Words that need no quoting are wrapped in
// double quotes anyway so generated files read uniformly.
func shellQuote(s string) (string, error) {
	q, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		return "", err
	}
	if q == s {
		return `"` + s + `"`, nil
	}
	return q, nil
}
