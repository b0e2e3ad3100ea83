// SPDX-License-Identifier: MPL-2.0

package command

import (
	_ "embed"
	"path/filepath"

	"alfred-cli/internal/cueutil"
)

//go:embed schema.cue
var moduleSchema []byte

func loadCUE(data []byte, path string, reg *Registrar) error {
	spec, err := cueutil.ParseAndDecode[moduleSpec](moduleSchema, data, "#Module",
		cueutil.WithFilename(filepath.Base(path)))
	if err != nil {
		return withLine(cueutil.ErrorLine(err), err)
	}
	return register(reg, *spec)
}
