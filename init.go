package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/phobologic/ctags-msbuild/internal/config"
)

// newInitCommand implements `ctags-msbuild init`, which writes a commented
// starter config file.
func newInitCommand(fsys afero.Fs, stdout, stderr io.Writer) *cobra.Command {
	var dryRun, force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a starter " + config.FileName,
		Long: `Write a starter config file listing every setting with its default value.
The file is created in the given directory, or the current one. An existing
file is left alone unless --force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content := generateConfig(config.Default())

			if dryRun {
				_, _ = fmt.Fprint(stdout, content)
				return nil
			}

			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			path := filepath.Join(dir, config.FileName)

			exists, err := afero.Exists(fsys, path)
			if err != nil {
				return fmt.Errorf("checking %s: %w", path, err)
			}
			if exists && !force {
				return errors.New(path + " already exists (use --force to overwrite)")
			}

			if err := afero.WriteFile(fsys, path, []byte(content), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			_, _ = fmt.Fprintf(stderr, "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the file instead of writing it")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

// generateConfig renders cfg as TOML with a comment above each key. Unset
// optional keys are written commented out.
func generateConfig(cfg config.Config) string {
	h := cfg.Header()
	var b strings.Builder

	b.WriteString("# ctags-msbuild settings. Command-line flags take precedence.\n\n")
	b.WriteString("# Tags file to write.\n")
	fmt.Fprintf(&b, "output = %q\n\n", cfg.Output)
	b.WriteString("# Sort the tags file body (header reports !_TAG_FILE_SORTED 1).\n")
	fmt.Fprintf(&b, "sorted = %t\n\n", cfg.Sorted)
	b.WriteString("# Search subdirectories when no filenames are given.\n")
	fmt.Fprintf(&b, "recurse = %t\n\n", cfg.Recurse)
	b.WriteString("# File name patterns, searched in this order.\n")
	fmt.Fprintf(&b, "patterns = [%s]\n\n", quoteList(cfg.Patterns))
	b.WriteString("# Paths to skip, relative to the search directory.\n")
	fmt.Fprintf(&b, "exclude = [%s]\n\n", quoteList(cfg.Exclude))
	b.WriteString("# Directory holding MSBuild SDKs, e.g. /usr/share/dotnet/sdk/8.0.100/Sdks.\n")
	fmt.Fprintf(&b, "# sdks_path = %q\n\n", "")
	b.WriteString("# Number of parsed files kept in memory.\n")
	fmt.Fprintf(&b, "cache_size = %d\n\n", cfg.CacheSize)
	b.WriteString("# Global properties passed to every project.\n")
	b.WriteString("[properties]\n")
	b.WriteString("# Configuration = \"Debug\"\n\n")
	b.WriteString("# Values reported in the !_TAG_PROGRAM_* header lines.\n")
	b.WriteString("[program]\n")
	fmt.Fprintf(&b, "# author = %q\n", h.Author)
	fmt.Fprintf(&b, "# contact = %q\n", h.Contact)
	fmt.Fprintf(&b, "# name = %q\n", h.Name)
	fmt.Fprintf(&b, "# url = %q\n", h.URL)
	fmt.Fprintf(&b, "# version = %q\n", h.Version)
	return b.String()
}

func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ", ")
}
