// SPDX-License-Identifier: MPL-2.0

package render

// workflowTemplate renders the matrix list and case block pasted into the CI workflow.
const workflowTemplate = `{{define "workflow"}}        minecraft_version:
{{- range .Rows}}
          - {{shq .ID}}
{{- end}}

# case block for build.yml:
        case "$MC_VERSION" in
{{- range .Rows}}
          {{shq .ID}})
            echo {{shq (printf "YARN_VERSION=%s" .Yarn)}} >> "$GITHUB_ENV"
            echo {{shq (printf "FABRIC_API_VERSION=%s" .FabricAPI)}} >> "$GITHUB_ENV"
            echo {{shq (printf "PAPER_VERSION=%s" .Paper)}} >> "$GITHUB_ENV"
            echo {{shq (printf "DATA_VERSION=%s" .DataVersion)}} >> "$GITHUB_ENV"
            ;;
{{- end}}
        esac
{{end}}`

const gradleTemplate = `{{define "gradle"}}# Done to increase the memory available to gradle.
org.gradle.jvmargs={{.Props.JVMArgs}}

# Fabric Properties (auto-generated on {{.GeneratedAt}})
minecraft_version={{.Row.ID}}
yarn_mappings={{.Row.Yarn}}
loader_version={{.Props.LoaderVersion}}

# Mod Properties
mod_version={{.Props.ModVersion}}
maven_group={{.Props.MavenGroup}}
archives_base_name={{.Props.ArchivesBaseName}}

# Dependencies
fabric_version={{.Row.FabricAPI}}
paper_version={{.Row.Paper}}
data_version={{.Row.DataVersion}}

# CI/CD Properties
ci_build=false
{{end}}`

const scriptTemplate = `{{define "script"}}#!/bin/bash

# Generated version switch script - {{.GeneratedAt}}
# Supported versions: {{.Supported}}

set -e

MC_VERSION=${1:-{{shq .Default}}}

case "$MC_VERSION" in
{{- range .Rows}}
  {{shq .ID}})
    YARN_VERSION={{shq .Yarn}}
    FABRIC_API_VERSION={{shq .FabricAPI}}
    PAPER_VERSION={{shq .Paper}}
    DATA_VERSION={{shq .DataVersion}}
    ;;
{{- end}}
  *)
    echo "Unsupported version: $MC_VERSION"
    echo {{shq (printf "Supported versions: %s" .Supported)}}
    exit 1
    ;;
esac

export MC_VERSION YARN_VERSION FABRIC_API_VERSION PAPER_VERSION DATA_VERSION

echo "Updating to Minecraft $MC_VERSION..."
{{end}}`

const summaryTemplate = `{{define "summary"}}# Version summary

| Minecraft | Yarn mappings | Fabric API | Paper API | Data version | Status |
|---|---|---|---|---|---|
{{- range .Rows}}
| {{.ID}} | {{.Yarn}} | {{.FabricAPI}} | {{.Paper}} | {{.DataVersion}} | {{.Status}} |
{{- end}}

**{{.Complete}}/{{.Total}}** versions fully supported{{if .List}}: {{.List}}{{end}}
{{end}}`
