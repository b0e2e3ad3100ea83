// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

const testSchema = `
#Module: {
	commands: [...{
		name:         string & =~"^[^\\s]+$"
		description?: string
	}]
}
`

type testModule struct {
	Commands []struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
	} `json:"commands"`
}

func TestParseAndDecode(t *testing.T) {
	t.Parallel()

	data := []byte(`
commands: [
	{name: "build", description: "Build it"},
	{name: "test"},
]
`)
	mod, err := ParseAndDecode[testModule]([]byte(testSchema), data, "#Module", WithFilename("cmd.cue"))
	if err != nil {
		t.Fatalf("ParseAndDecode() error = %v", err)
	}
	if len(mod.Commands) != 2 || mod.Commands[0].Name != "build" || mod.Commands[0].Description != "Build it" {
		t.Errorf("decoded module = %+v", mod)
	}
}

func TestParseAndDecodeSyntaxErrorLine(t *testing.T) {
	t.Parallel()

	data := []byte("commands: [\n\t{name: \"ok\"},\n\t{name: }\n]\n")
	_, err := ParseAndDecode[testModule]([]byte(testSchema), data, "#Module", WithFilename("cmd.cue"))
	if err == nil {
		t.Fatal("ParseAndDecode() expected a syntax error")
	}
	if !strings.HasPrefix(err.Error(), "cmd.cue: ") {
		t.Errorf("error = %q, want the file name prefix", err)
	}
	if line := ErrorLine(err); line != 3 {
		t.Errorf("ErrorLine() = %d, want 3", line)
	}
}

func TestParseAndDecodeValidationError(t *testing.T) {
	t.Parallel()

	data := []byte("commands: [\n\t{name: \"has space\"},\n]\n")
	_, err := ParseAndDecode[testModule]([]byte(testSchema), data, "#Module", WithFilename("cmd.cue"))
	if err == nil {
		t.Fatal("ParseAndDecode() expected a validation error")
	}
	if !strings.Contains(err.Error(), "commands[0].name") {
		t.Errorf("error = %q, want the JSON path of the field", err)
	}
	var cueErr *Error
	if !errors.As(err, &cueErr) {
		t.Errorf("error = %T, want *Error", err)
	}
}

func TestParseAndDecodeFileSizeLimit(t *testing.T) {
	t.Parallel()

	data := []byte(`commands: []`)
	_, err := ParseAndDecode[testModule]([]byte(testSchema), data, "#Module", WithMaxFileSize(4))
	if err == nil || !strings.Contains(err.Error(), "exceeds maximum") {
		t.Errorf("ParseAndDecode() error = %v, want a size error", err)
	}
}

func TestFormatErrorNonCUE(t *testing.T) {
	t.Parallel()

	if FormatError(nil, "x.cue") != nil {
		t.Error("FormatError(nil) should be nil")
	}
	err := FormatError(errors.New("boom"), "x.cue")
	if err == nil || err.Error() != "x.cue: boom" {
		t.Errorf("FormatError() = %v", err)
	}
	if ErrorLine(err) != 0 {
		t.Error("ErrorLine() of a plain error should be 0")
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path []string
		want string
	}{
		{nil, ""},
		{[]string{"commands"}, "commands"},
		{[]string{"commands", "0", "name"}, "commands[0].name"},
		{[]string{"commands", "12", "steps", "3"}, "commands[12].steps[3]"},
	}
	for _, tt := range tests {
		if got := formatPath(tt.path); got != tt.want {
			t.Errorf("formatPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
