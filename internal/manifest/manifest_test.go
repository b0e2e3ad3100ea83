// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"path/filepath"
	"testing"

	"alfred-cli/internal/testutil"
)

func TestLookupProjectDir(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteManifest(t, root, "[alfred]\n")
	nested := filepath.Join(root, "src", "pkg")
	testutil.MustMkdirAll(t, nested, 0o755)

	tests := []struct {
		name    string
		start   string
		search  bool
		want    string
		wantErr bool
	}{
		{"manifest in start", root, true, root, false},
		{"manifest in ancestor", nested, true, root, false},
		{"search disabled", nested, false, "", true},
		{"search disabled with manifest", root, false, root, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := LookupProjectDir(tt.start, tt.search)
			if tt.wantErr {
				if !errors.Is(err, ErrNotInitialized) {
					t.Fatalf("LookupProjectDir() error = %v, want ErrNotInitialized", err)
				}
				var notInit *NotInitializedError
				if !errors.As(err, &notInit) || notInit.Start != tt.start {
					t.Errorf("error = %#v, want NotInitializedError{Start: %q}", err, tt.start)
				}
				return
			}
			if err != nil {
				t.Fatalf("LookupProjectDir() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("LookupProjectDir() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if Exists(dir) {
		t.Error("Exists() = true for an empty directory")
	}
	testutil.MustMkdirAll(t, Path(dir), 0o755)
	if Exists(dir) {
		t.Error("Exists() = true when the manifest path is a directory")
	}
}

func TestCreate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	doc := NewDocument()
	doc.Alfred.Name = "demo"

	path, err := Create(dir, doc)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if path != Path(dir) {
		t.Errorf("Create() = %q, want %q", path, Path(dir))
	}

	store := NewStore()
	name, err := Get(store, Name, dir)
	if err != nil || name != "demo" {
		t.Errorf("Get(Name) = %q, %v; want demo", name, err)
	}
	globs, err := Get(store, Command, dir)
	if err != nil || len(globs) != 1 || globs[0] != DefaultCommandGlob {
		t.Errorf("Get(Command) = %q, %v", globs, err)
	}

	if _, err := Create(dir, doc); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("second Create() error = %v, want ErrAlreadyInitialized", err)
	}
}
