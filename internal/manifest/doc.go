// SPDX-License-Identifier: MPL-2.0

// Package manifest locates and reads project manifests (.alfred.toml).
//
// Manifests are parsed with Viper and cached per directory in a Store. Values are
// read through typed Parameter definitions: the canonical key is tried first, then
// each legacy alias, then the default. Resolution never fails because of a bad
// value; type mismatches, checker failures and alias use are logged as warnings
// once per store, project and parameter.
package manifest
