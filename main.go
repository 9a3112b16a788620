// ctags-msbuild writes a ctags index of the targets, items and properties
// declared in MSBuild project files.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/phobologic/ctags-msbuild/internal/config"
	"github.com/phobologic/ctags-msbuild/internal/discover"
	"github.com/phobologic/ctags-msbuild/internal/generate"
	"github.com/phobologic/ctags-msbuild/internal/msbuild"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type flags struct {
	recurse    bool
	sorted     bool
	verbose    bool
	out        string
	dir        string
	configPath string
	sdksPath   string
	properties []string
}

func run(args []string, stdout, stderr io.Writer) error {
	var f flags

	cmd := &cobra.Command{
		Use:           "ctags-msbuild [flags] [filenames...]",
		Short:         "Generate a ctags file for MSBuild targets, items and properties",
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, files []string) error {
			return generateTags(cmd, f, files, stderr)
		},
	}
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate("ctags-msbuild {{.Version}}\n")
	cmd.AddCommand(newInitCommand(afero.NewOsFs(), stdout, stderr))

	fl := cmd.Flags()
	fl.BoolVarP(&f.recurse, "recurse", "R", false, "search for build files recursively")
	fl.StringVarP(&f.out, "out", "o", config.DefaultOutput, "tags file to write")
	fl.BoolVarP(&f.sorted, "sort", "s", false, "sort the tags file")
	fl.StringVarP(&f.dir, "directory", "C", ".", "directory to search for build files")
	fl.StringVarP(&f.configPath, "config", "c", "", "config file (default: "+config.FileName+" in the search directory)")
	fl.StringArrayVarP(&f.properties, "property", "p", nil, "global property as NAME=VALUE (repeatable)")
	fl.StringVar(&f.sdksPath, "sdks-path", "", "directory holding MSBuild SDKs")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")

	return cmd.Execute()
}

func generateTags(cmd *cobra.Command, f flags, files []string, stderr io.Writer) error {
	if f.recurse && len(files) > 0 {
		return errors.New("use either -R or explicit filenames, but not both")
	}
	globals, err := parseProperties(f.properties)
	if err != nil {
		return err
	}

	fsys := afero.NewOsFs()

	dir, err := filepath.Abs(f.dir)
	if err != nil {
		return fmt.Errorf("resolving directory: %w", err)
	}

	cfg, err := loadConfig(fsys, dir, f.configPath)
	if err != nil {
		return err
	}
	changed := cmd.Flags().Changed
	if changed("recurse") {
		cfg.Recurse = f.recurse
	}
	if changed("sort") {
		cfg.Sorted = f.sorted
	}
	if changed("out") {
		if cfg.Output, err = homedir.Expand(f.out); err != nil {
			return fmt.Errorf("output: %w", err)
		}
	}
	if changed("sdks-path") {
		if cfg.SDKsPath, err = homedir.Expand(f.sdksPath); err != nil {
			return fmt.Errorf("sdks path: %w", err)
		}
	}
	if len(globals) > 0 {
		if cfg.Properties == nil {
			cfg.Properties = make(map[string]string, len(globals))
		}
		for k, v := range globals {
			cfg.Properties[k] = v
		}
	}

	level := hclog.Info
	if f.verbose {
		level = hclog.Debug
	}
	color := hclog.ColorOff
	if _, ok := stderr.(*os.File); ok {
		color = hclog.AutoColor
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "ctags-msbuild",
		Level:  level,
		Output: stderr,
		Color:  color,
	})

	paths, err := inputFiles(fsys, dir, files, cfg)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		logger.Warn("no build files found", "directory", dir)
	}

	loader, err := msbuild.NewLoader(fsys, msbuild.Options{
		GlobalProperties: cfg.Properties,
		Environ:          os.Environ(),
		SDKsPath:         cfg.SDKsPath,
		CacheSize:        cfg.CacheSize,
		Logger:           logger.Named("msbuild"),
	})
	if err != nil {
		return err
	}

	gen := generate.New(loader, logger.Named("generate"))
	gen.ProcessFiles(paths)

	out, err := filepath.Abs(cfg.Output)
	if err != nil {
		return fmt.Errorf("resolving output: %w", err)
	}
	if err := gen.WriteTags(fsys, out, cfg.Order(), cfg.Header()); err != nil {
		return err
	}

	var merr *multierror.Error
	if errors.As(gen.Failures(), &merr) {
		logger.Warn("some projects could not be loaded", "failed", len(merr.Errors), "total", len(paths))
	}
	return nil
}

func loadConfig(fsys afero.Fs, dir, explicit string) (config.Config, error) {
	if explicit != "" {
		path, err := homedir.Expand(explicit)
		if err != nil {
			return config.Config{}, fmt.Errorf("config path: %w", err)
		}
		return config.Load(fsys, path)
	}
	if path, ok := config.Find(fsys, dir); ok {
		return config.Load(fsys, path)
	}
	return config.Default(), nil
}

func inputFiles(fsys afero.Fs, dir string, files []string, cfg config.Config) ([]string, error) {
	if len(files) == 0 {
		paths, err := discover.Files(fsys, dir, discover.Options{
			Patterns:  cfg.Patterns,
			Recursive: cfg.Recurse,
			Exclude:   cfg.Exclude,
		})
		if err != nil {
			return nil, fmt.Errorf("discovering files: %w", err)
		}
		return paths, nil
	}

	paths := make([]string, 0, len(files))
	for _, name := range files {
		p, err := filepath.Abs(name)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", name, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func parseProperties(values []string) (map[string]string, error) {
	props := make(map[string]string, len(values))
	for _, v := range values {
		name, value, ok := strings.Cut(v, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid property %q: want NAME=VALUE", v)
		}
		props[name] = value
	}
	return props, nil
}
