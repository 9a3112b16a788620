package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/afero"

	"github.com/phobologic/ctags-msbuild/internal/config"
)

// TestGenerateConfigRoundTrip verifies that the starter file loads back to
// the defaults.
func TestGenerateConfigRoundTrip(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/c.toml", []byte(generateConfig(config.Default())), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(fs, "/c.toml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(config.Default(), cfg, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRunInitCreates(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	var stdout, stderr bytes.Buffer
	if err := run([]string{"init", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run init: %v", err)
	}

	path := filepath.Join(dir, config.FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `output = "msb-tags"`) {
		t.Errorf("config missing output key:\n%s", data)
	}
	if !strings.Contains(stderr.String(), "wrote "+path) {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRunInitRefusesOverwrite(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, config.FileName, "sorted = true\n")

	var stdout, stderr bytes.Buffer
	err := run([]string{"init", dir}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected already exists error, got %v", err)
	}

	if err := run([]string{"init", "--force", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run init --force: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, config.FileName))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "sorted = false") {
		t.Errorf("--force did not overwrite:\n%s", data)
	}
}

func TestRunInitDryRun(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	if err := run([]string{"init", "--dry-run"}, &stdout, &stderr); err != nil {
		t.Fatalf("run init --dry-run: %v", err)
	}
	if !strings.HasPrefix(stdout.String(), "# ctags-msbuild settings") {
		t.Errorf("dry run output = %q", stdout.String())
	}
	if _, err := os.Stat(config.FileName); !os.IsNotExist(err) {
		t.Error("--dry-run should not write a file")
	}
}
