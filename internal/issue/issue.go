// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ConfigLoadFailedId Id = iota + 1
	UnknownFormatId
	VersionNotResolvedId
	IncompleteVersionId
	NoCompleteVersionsId
	UpstreamUnavailableId
	WriteFailedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // upstream documentation for the failing source
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Markdown returns the guide with its "See also" section appended.
func (i *Issue) Markdown() string {
	if len(i.docLinks) == 0 {
		return string(i.mdMsg)
	}

	var sb strings.Builder
	sb.WriteString(string(i.mdMsg))
	sb.WriteString("\n\n## See also\n")
	for _, link := range i.docLinks {
		sb.WriteString("- <" + string(link) + ">\n")
	}
	return sb.String()
}

// Render renders the guide for a terminal using the given glamour style.
func (i *Issue) Render(stylePath string) (string, error) {
	return render(i.Markdown(), stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be read or does not match the schema.

## Things you can try:
- Print the effective configuration:
~~~
$ versionfetch config show
~~~
- Write a fresh default file and edit it:
~~~
$ versionfetch config init
~~~
- Remember that durations use Go syntax ("10s", "5m") and that
  fallback tables are lists of {minecraft: ..., ...} entries.`,
	}

	unknownFormatIssue = &Issue{
		id: UnknownFormatId,
		mdMsg: `
# Unknown output format!

## Supported formats:
- **json**: every resolved version, keyed by identifier
- **yaml**: the same records as a YAML list
- **workflow**: CI matrix entries and the matching case block
- **gradle**: gradle.properties for one version
- **script**: a bash script that exports the sub-versions
- **summary**: a Markdown table of every version`,
	}

	versionNotResolvedIssue = &Issue{
		id: VersionNotResolvedId,
		mdMsg: `
# Version was not resolved!

The selected version is not in the result. Requested versions are only
resolved when the release catalog lists them as releases of the tracked family.

## Things you can try:
- Run without arguments to see what is currently discovered:
~~~
$ versionfetch fetch -o summary
~~~
- Lower the discovery floor or pass --all-matching.`,
	}

	incompleteVersionIssue = &Issue{
		id: IncompleteVersionId,
		mdMsg: `
# Version is not fully supported yet!

At least one of yarn mappings, Fabric API, Paper API or the data version is
missing. New releases usually need a few days before every project publishes.

## Things you can try:
- Pick another version with --default-version
- Add a fallback entry to the configuration file`,
		docLinks: []HttpLink{
			"https://meta.fabricmc.net/v2/versions/yarn",
			"https://modrinth.com/mod/fabric-api/versions",
		},
	}

	noCompleteVersionsIssue = &Issue{
		id: NoCompleteVersionsId,
		mdMsg: `
# No version is fully supported!

The script output needs at least one version for which every sub-version resolved.

## Things you can try:
- Inspect what is missing:
~~~
$ versionfetch fetch -o summary
~~~
- Check that the upstream endpoints in your configuration are reachable`,
	}

	upstreamUnavailableIssue = &Issue{
		id: UpstreamUnavailableId,
		mdMsg: `
# The release catalog returned nothing!

No candidate version was found. This usually means the catalog could not be
reached, or that the family and floor in your configuration match no release.

## Things you can try:
- Re-run with --verbose to see every request
- Check endpoints.catalog and http.timeout in your configuration`,
		docLinks: []HttpLink{
			"https://piston-meta.mojang.com/mc/game/version_manifest.json",
		},
	}

	writeFailedIssue = &Issue{
		id: WriteFailedId,
		mdMsg: `
# Failed to write output!

## Things you can try:
- Check that the target directory exists and is writable
- Omit --save to print to standard output instead`,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		unknownFormatIssue.Id():       unknownFormatIssue,
		versionNotResolvedIssue.Id():  versionNotResolvedIssue,
		incompleteVersionIssue.Id():   incompleteVersionIssue,
		noCompleteVersionsIssue.Id():  noCompleteVersionsIssue,
		upstreamUnavailableIssue.Id(): upstreamUnavailableIssue,
		writeFailedIssue.Id():         writeFailedIssue,
	}
)

// Values returns every registered issue ordered by Id.
func Values() []*Issue {
	out := maps.Values(issues)
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
