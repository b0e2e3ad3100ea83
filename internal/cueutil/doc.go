// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides the CUE parsing flow used by .cue command modules:
//
//  1. Compile the embedded schema
//  2. Compile user data and unify with schema
//  3. Validate and decode to Go struct
//
// Errors keep the file name and the JSON path of the offending field, and
// ErrorLine recovers the source line of the first reported problem.
package cueutil
