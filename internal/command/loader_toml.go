// SPDX-License-Identifier: MPL-2.0

package command

import (
	"bytes"
	"errors"

	"github.com/pelletier/go-toml/v2"
)

func loadTOML(data []byte, _ string, reg *Registrar) error {
	var spec moduleSpec
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&spec); err != nil {
		return withLine(tomlLine(err), err)
	}
	return register(reg, spec)
}

func tomlLine(err error) int {
	var decErr *toml.DecodeError
	if errors.As(err, &decErr) {
		row, _ := decErr.Position()
		return row
	}
	var strictErr *toml.StrictMissingError
	if errors.As(err, &strictErr) && len(strictErr.Errors) > 0 {
		row, _ := strictErr.Errors[0].Position()
		return row
	}
	return 0
}
