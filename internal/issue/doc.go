// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and
// suggestions. The Markdown catalog (Get, Values) holds longer guidance that
// the CLI renders with glamour when an error is tagged with an Id.
package issue
