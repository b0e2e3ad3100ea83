// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
)

const (
	// OutputAuto streams a delegated child when stdin is a terminal and
	// captures it otherwise.
	OutputAuto OutputMode = "auto"
	// OutputStream connects the delegated child to the terminal.
	OutputStream OutputMode = "stream"
	// OutputCapture collects the delegated child's output and replays it.
	OutputCapture OutputMode = "capture"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidOutputMode is returned when an OutputMode value is not recognized.
	ErrInvalidOutputMode = errors.New("invalid delegation output mode")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
)

type (
	// OutputMode selects how the output of a delegated child is handled.
	OutputMode string

	// ColorScheme selects the palette of rendered help and issues.
	ColorScheme string

	// Config is the user-level configuration of the alfred CLI.
	Config struct {
		// Debug lowers the log level to debug, same as --debug.
		Debug bool `json:"debug" mapstructure:"debug"`
		// Delegation configures re-execution inside a project virtualenv.
		Delegation DelegationConfig `json:"delegation" mapstructure:"delegation"`
		// UI configures terminal rendering.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// DelegationConfig configures re-execution inside a project virtualenv.
	DelegationConfig struct {
		Output OutputMode `json:"output" mapstructure:"output"`
	}

	// UIConfig configures terminal rendering.
	UIConfig struct {
		// Color disables all styling when false.
		Color bool `json:"color" mapstructure:"color"`
		// ColorScheme picks the glamour style of rendered issues.
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
	}
)

// DefaultConfig returns the configuration used when no file or environment
// override is present.
func DefaultConfig() *Config {
	return &Config{
		Debug:      false,
		Delegation: DelegationConfig{Output: OutputAuto},
		UI: UIConfig{
			Color:       true,
			ColorScheme: ColorSchemeAuto,
		},
	}
}

// Validate checks every enumerated value of the configuration.
func (c *Config) Validate() error {
	if err := c.Delegation.Output.Validate(); err != nil {
		return err
	}
	return c.UI.ColorScheme.Validate()
}

// Validate returns ErrInvalidOutputMode when m is not a known mode.
func (m OutputMode) Validate() error {
	switch m {
	case OutputAuto, OutputStream, OutputCapture:
		return nil
	default:
		return fmt.Errorf("%w: %q (expected auto, stream or capture)", ErrInvalidOutputMode, string(m))
	}
}

// Validate returns ErrInvalidColorScheme when s is not a known scheme.
func (s ColorScheme) Validate() error {
	switch s {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return nil
	default:
		return fmt.Errorf("%w: %q (expected auto, dark or light)", ErrInvalidColorScheme, string(s))
	}
}

// GlamourStyle maps the UI settings to a glamour style name.
func (u UIConfig) GlamourStyle() string {
	if !u.Color {
		return "notty"
	}
	switch u.ColorScheme {
	case ColorSchemeDark:
		return "dark"
	case ColorSchemeLight:
		return "light"
	default:
		return "auto"
	}
}
