// SPDX-License-Identifier: MPL-2.0

// Package issue holds the Markdown guides shown when a fetch fails and the
// ActionableError type that links a failure to one of them.
//
// Guides are rendered with glamour on stderr; the error itself carries the
// operation, the version or file involved and concrete suggestions.
package issue
