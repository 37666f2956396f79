// SPDX-License-Identifier: MPL-2.0

// Package upstream implements read-only HTTP clients for the public services
// that publish Minecraft ecosystem version metadata.
//
// The package is organized by upstream:
//   - client.go: shared request plumbing, options and status errors
//   - catalog.go: Mojang version manifest and per-version detail documents
//   - modrinth.go: Modrinth project version listings (Fabric API)
//   - fabricmeta.go: Fabric meta yarn mappings listings
//   - paper.go: PaperMC project versions and build numbers
//
// Every response is decoded into an explicit wire struct at the boundary and
// converted to the exported type; callers never touch raw JSON.
package upstream
