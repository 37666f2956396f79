// SPDX-License-Identifier: MPL-2.0

// Package resolver implements the version-resolution pipeline: it discovers
// release identifiers of one version family from the game catalog and, for
// each identifier in catalog order, resolves the dependent ecosystem versions
// (Fabric API, yarn mappings, Paper API and the numeric data version).
//
// Resolution is a single sequential pass. Every sub-resolver handles its own
// failures: it logs a diagnostic and degrades to an absent value (or to the
// configured fallback table where one exists), so ResolveAll never fails.
package resolver
