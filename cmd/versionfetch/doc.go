// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the CLI commands for versionfetch.
//
// This package implements the Cobra command hierarchy: the root command,
// `fetch` which resolves versions and renders an artifact, and `config`
// which inspects and initializes the configuration file.
package cmd
