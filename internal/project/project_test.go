// SPDX-License-Identifier: MPL-2.0

package project

import (
	"path/filepath"
	"slices"
	"testing"

	"alfred-cli/internal/manifest"
	"alfred-cli/internal/testutil"
)

func names(projects []Project) []string {
	result := make([]string, 0, len(projects))
	for _, p := range projects {
		result = append(result, p.Name)
	}
	return result
}

func TestListBreadthFirst(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteManifest(t, root, "[alfred]\nname = \"root\"\nsubprojects = [\"products/*\", \"libs/**/lib*\"]\n")
	testutil.WriteManifest(t, filepath.Join(root, "products", "b"), "[alfred]\nname = \"product_b\"\nsubprojects = [\"plugin\"]\n")
	testutil.WriteManifest(t, filepath.Join(root, "products", "a"), "[alfred]\nname = \"product_a\"\n")
	testutil.WriteManifest(t, filepath.Join(root, "products", "b", "plugin"), "[alfred]\nname = \"plugin\"\n")
	testutil.WriteManifest(t, filepath.Join(root, "libs", "deep", "libcore"), "[alfred]\nname = \"libcore\"\n")
	testutil.MustMkdirAll(t, filepath.Join(root, "products", "no-manifest"), 0o755)
	testutil.MustWriteFile(t, filepath.Join(root, "products", "file.txt"), "not a dir")

	projects, diags, err := List(manifest.NewStore(), root)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(diags) != 0 {
		t.Errorf("List() diagnostics = %v", diags)
	}

	want := []string{"root", "libcore", "product_a", "product_b", "plugin"}
	if got := names(projects); !slices.Equal(got, want) {
		t.Errorf("List() = %q, want %q", got, want)
	}
	if projects[0].Dir != root {
		t.Errorf("root Dir = %q, want %q", projects[0].Dir, root)
	}
}

func TestListSkipsWhitespaceNames(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteManifest(t, root, "[alfred]\nsubprojects = [\"*\"]\n")
	testutil.WriteManifest(t, filepath.Join(root, "bad"), "[alfred]\nname = \"bad name\"\n")
	testutil.WriteManifest(t, filepath.Join(root, "good"), "[alfred]\n")

	projects, diags, err := List(manifest.NewStore(), root)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if got := names(projects); len(got) != 2 || got[1] != "good" {
		t.Errorf("List() = %q, want root and good", got)
	}
	if len(diags) != 1 || diags[0].Code != CodeInvalidName {
		t.Fatalf("diagnostics = %v, want one %s", diags, CodeInvalidName)
	}
	if diags[0].Severity != SeverityError {
		t.Errorf("severity = %s, want error", diags[0].Severity)
	}
}

func TestListDoesNotRevisitDirectories(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteManifest(t, root, "[alfred]\nsubprojects = [\"a\", \"./a\"]\n")
	testutil.WriteManifest(t, filepath.Join(root, "a"), "[alfred]\nsubprojects = [\"..\"]\n")

	projects, _, err := List(manifest.NewStore(), root)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(projects) != 2 {
		t.Errorf("List() returned %d projects, want 2: %v", len(projects), projects)
	}
}

func TestListReportsUnreadableSubproject(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteManifest(t, root, "[alfred]\nsubprojects = [\"*\"]\n")
	testutil.WriteManifest(t, filepath.Join(root, "broken"), "[alfred\n")

	projects, diags, err := List(manifest.NewStore(), root)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(projects) != 1 {
		t.Errorf("List() = %v, want only the root", projects)
	}
	if len(diags) != 1 || diags[0].Code != CodeUnreadableManifest {
		t.Errorf("diagnostics = %v", diags)
	}
}

func TestListRootWithoutManifest(t *testing.T) {
	t.Parallel()

	if _, _, err := List(manifest.NewStore(), t.TempDir()); err == nil {
		t.Error("List() expected an error without a root manifest")
	}
}

func TestGlob(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "alfred", "b.toml"), "")
	testutil.MustWriteFile(t, filepath.Join(dir, "alfred", "a.yaml"), "")
	testutil.MustWriteFile(t, filepath.Join(dir, "alfred", "sub", "c.cue"), "")

	got, err := Glob(dir, "alfred/*")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "alfred", "a.yaml"),
		filepath.Join(dir, "alfred", "b.toml"),
		filepath.Join(dir, "alfred", "sub"),
	}
	if !slices.Equal(got, want) {
		t.Errorf("Glob(alfred/*) = %q, want %q", got, want)
	}

	got, err = Glob(dir, "alfred/**/*.cue")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || filepath.Base(got[0]) != "c.cue" {
		t.Errorf("Glob(alfred/**/*.cue) = %q", got)
	}

	if _, err := Glob(dir, "alfred/[unclosed"); err == nil {
		t.Error("Glob() expected an error for a malformed pattern")
	}
}

func TestValidName(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]bool{"product1": true, "": false, "a b": false, "tab\tname": false} {
		if got := ValidName(name); got != want {
			t.Errorf("ValidName(%q) = %v, want %v", name, got, want)
		}
	}
}
