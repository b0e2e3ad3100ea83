// SPDX-License-Identifier: MPL-2.0

package command

import (
	"bytes"
	"errors"
	"io"

	"gopkg.in/yaml.v3"
)

func loadYAML(data []byte, _ string, reg *Registrar) error {
	var spec moduleSpec
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
		return withLine(lineFromText(err.Error()), err)
	}
	return register(reg, spec)
}
