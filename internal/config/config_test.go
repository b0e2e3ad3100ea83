// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"alfred-cli/internal/issue"
	"alfred-cli/internal/testutil"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Debug {
		t.Error("expected debug to be off by default")
	}
	if cfg.Delegation.Output != OutputAuto {
		t.Errorf("Delegation.Output = %q, want %q", cfg.Delegation.Output, OutputAuto)
	}
	if !cfg.UI.Color || cfg.UI.ColorScheme != ColorSchemeAuto {
		t.Errorf("UI = %+v", cfg.UI)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
}

func TestOutputMode_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mode    OutputMode
		wantErr bool
	}{
		{OutputAuto, false},
		{OutputStream, false},
		{OutputCapture, false},
		{"", true},
		{"pipe", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			t.Parallel()
			err := tt.mode.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidOutputMode) {
				t.Errorf("error should wrap ErrInvalidOutputMode, got %v", err)
			}
		})
	}
}

func TestUIConfig_GlamourStyle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ui   UIConfig
		want string
	}{
		{UIConfig{Color: false, ColorScheme: ColorSchemeDark}, "notty"},
		{UIConfig{Color: true, ColorScheme: ColorSchemeDark}, "dark"},
		{UIConfig{Color: true, ColorScheme: ColorSchemeLight}, "light"},
		{UIConfig{Color: true, ColorScheme: ColorSchemeAuto}, "auto"},
	}
	for _, tt := range tests {
		if got := tt.ui.GlamourStyle(); got != tt.want {
			t.Errorf("GlamourStyle(%+v) = %q, want %q", tt.ui, got, tt.want)
		}
	}
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	t.Parallel()

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("loadWithOptions() error = %v", err)
	}
	if path != "" {
		t.Errorf("resolved path = %q, want empty", path)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("config = %+v, want defaults", cfg)
	}
}

func TestLoad_FromConfigDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	want := filepath.Join(dir, "config.toml")
	testutil.MustWriteFile(t, want, `
debug = true

[delegation]
output = "capture"

[ui]
color = false
`)

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("loadWithOptions() error = %v", err)
	}
	if path != want {
		t.Errorf("resolved path = %q, want %q", path, want)
	}
	if !cfg.Debug || cfg.Delegation.Output != OutputCapture || cfg.UI.Color {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.UI.ColorScheme != ColorSchemeAuto {
		t.Errorf("unset key should keep its default, got %q", cfg.UI.ColorScheme)
	}
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	t.Parallel()

	_, _, err := loadWithOptions(context.Background(), LoadOptions{
		ConfigFilePath: filepath.Join(t.TempDir(), "nope.toml"),
	})
	if err == nil {
		t.Fatal("expected an error for a missing --config file")
	}
	if issue.IDOf(err) != issue.ConfigLoadFailedId {
		t.Errorf("error should carry the config issue, got %v", err)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "custom.toml")
	testutil.MustWriteFile(t, path, "debug = = true\n")

	_, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigFilePath: path})
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *issue.ActionableError, got %T: %v", err, err)
	}
	if ae.Resource != path {
		t.Errorf("Resource = %q, want %q", ae.Resource, path)
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "custom.toml")
	testutil.MustWriteFile(t, path, "[delegation]\noutput = \"pipe\"\n")

	_, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigFilePath: path})
	if !errors.Is(err, ErrInvalidOutputMode) {
		t.Fatalf("expected ErrInvalidOutputMode, got %v", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := loadWithOptions(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

//nolint:paralleltest // mutates the process environment
func TestLoad_EnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "config.toml"), "[delegation]\noutput = \"capture\"\n")
	t.Cleanup(testutil.MustSetenv(t, "ALFRED_DELEGATION_OUTPUT", "stream"))
	t.Cleanup(testutil.MustSetenv(t, "ALFRED_DEBUG", "true"))

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Delegation.Output != OutputStream {
		t.Errorf("Delegation.Output = %q, want environment value %q", cfg.Delegation.Output, OutputStream)
	}
	if !cfg.Debug {
		t.Error("ALFRED_DEBUG=true should enable debug")
	}
}

//nolint:paralleltest // mutates the environment
func TestConfigDir(t *testing.T) {
	t.Run("environment override", func(t *testing.T) {
		t.Setenv(EnvConfigDir, "/custom/alfred")

		got, err := ConfigDir()
		if err != nil {
			t.Fatal(err)
		}
		if got != "/custom/alfred" {
			t.Errorf("ConfigDir() = %q", got)
		}
	})

	t.Run("platform default", func(t *testing.T) {
		t.Setenv(EnvConfigDir, "")
		want := testutil.SetConfigHome(t, t.TempDir())

		got, err := ConfigDir()
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("ConfigDir() = %q, want %q", got, want)
		}

		file, err := FilePath()
		if err != nil {
			t.Fatal(err)
		}
		if file != filepath.Join(want, "config.toml") {
			t.Errorf("FilePath() = %q", file)
		}
	})
}
