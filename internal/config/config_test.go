package config

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"github.com/phobologic/ctags-msbuild/internal/ctags"
)

func writeConfig(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeConfig(t, fs, "/repo/"+FileName, `
output = "tags"
sorted = true
recurse = true
patterns = ["*.csproj", "*.props"]
exclude = ["obj/**"]
sdks_path = "/opt/dotnet/sdk/8.0/Sdks"
cache_size = 32

[properties]
Configuration = "Release"

[program]
name = "ctags-msbuild"
version = "1.2"
`)

	path, ok := Find(fs, "/repo")
	if !ok {
		t.Fatal("Find did not locate config")
	}
	cfg, err := Load(fs, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := Config{
		Output:     "tags",
		Sorted:     true,
		Recurse:    true,
		Patterns:   []string{"*.csproj", "*.props"},
		Exclude:    []string{"obj/**"},
		SDKsPath:   "/opt/dotnet/sdk/8.0/Sdks",
		CacheSize:  32,
		Properties: map[string]string{"Configuration": "Release"},
		Program:    Program{Name: "ctags-msbuild", Version: "1.2"},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load mismatch (-want +got):\n%s", diff)
	}

	if cfg.Order() != ctags.Sorted {
		t.Errorf("Order() = %v, want sorted", cfg.Order())
	}
	h := cfg.Header()
	if h.Name != "ctags-msbuild" || h.Version != "1.2" {
		t.Errorf("Header() name/version = %q/%q", h.Name, h.Version)
	}
	if h.Author != ctags.DefaultHeader().Author {
		t.Errorf("Header().Author = %q, want default", h.Author)
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeConfig(t, fs, "/c.toml", "recurse = true\n")

	cfg, err := Load(fs, "/c.toml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	want.Recurse = true
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load mismatch (-want +got):\n%s", diff)
	}
	if cfg.Order() != ctags.Unsorted {
		t.Errorf("Order() = %v, want unsorted", cfg.Order())
	}
	if cfg.Header() != ctags.DefaultHeader() {
		t.Errorf("Header() = %+v, want default", cfg.Header())
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "ouptut = \"x\"\n", "unknown keys: ouptut"},
		{"unknown nested key", "[program]\nauthr = \"me\"\n", "program.authr"},
		{"syntax", "output = \n", "parsing"},
		{"wrong type", "sorted = \"yes\"\n", "parsing"},
		{"bad pattern", "patterns = [\"[\"]\n", "pattern"},
		{"negative cache", "cache_size = -1\n", "cache_size"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fs := afero.NewMemMapFs()
			writeConfig(t, fs, "/c.toml", tt.content)
			_, err := Load(fs, "/c.toml")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	t.Parallel()

	if _, err := Load(afero.NewMemMapFs(), "/nope.toml"); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, ok := Find(afero.NewMemMapFs(), "/repo"); ok {
		t.Error("Find reported a config in an empty fs")
	}
}
