package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	boxerrors "github.com/quellt/boxwood/pkg/errors"
	pkgio "github.com/quellt/boxwood/pkg/io"
	"github.com/quellt/boxwood/pkg/pipeline"
)

// compileFlags holds the pipeline flags shared by compile and export.
type compileFlags struct {
	output      string   // output file or directory
	nodeIDs     []string // restrict the fetch to these subtrees
	version     string   // pin a document version
	format      string   // asset render format
	scale       float64  // asset render scale factor
	chunkSize   int      // asset ids per render request
	concurrency int      // parallel render requests
	skipAssets  bool     // compile without asset resolution
	overlay     bool     // tag boxes with their source kind
	noCache     bool     // disable caching entirely
	refresh     bool     // bypass caches for this run
}

// register binds the shared pipeline flags onto cmd. Zero values defer to
// the config file, which defers to the pipeline defaults.
func (f *compileFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.nodeIDs, "node", nil, "fetch only this node's subtree (repeatable)")
	cmd.Flags().StringVar(&f.version, "file-version", "", "pin a document version (default: head)")
	cmd.Flags().StringVarP(&f.format, "asset-format", "f", "", "asset render format: png (default), jpg, svg, pdf")
	cmd.Flags().Float64Var(&f.scale, "asset-scale", 0, "asset render scale factor (0.01-4, default 1)")
	cmd.Flags().IntVar(&f.chunkSize, "chunk-size", 0, "asset ids per render request")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "parallel asset render requests")
	cmd.Flags().BoolVar(&f.skipAssets, "skip-assets", false, "compile without resolving image assets")
	cmd.Flags().BoolVar(&f.overlay, "overlay", false, "tag boxes with their source node for debugging")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "bypass caches for this run only")
}

// apply overlays the flag values onto config-seeded options. Flags win.
func (f *compileFlags) apply(opts *pipeline.Options) {
	if len(f.nodeIDs) > 0 {
		opts.NodeIDs = f.nodeIDs
	}
	if f.version != "" {
		opts.Version = f.version
	}
	if f.format != "" {
		opts.AssetFormat = f.format
	}
	if f.scale > 0 {
		opts.AssetScale = f.scale
	}
	if f.chunkSize > 0 {
		opts.ChunkSize = f.chunkSize
	}
	if f.concurrency > 0 {
		opts.Concurrency = f.concurrency
	}
	opts.SkipAssets = f.skipAssets
	opts.DebugOverlay = f.overlay
	opts.Refresh = f.refresh
}

// compileCommand creates the compile command.
func (c *CLI) compileCommand() *cobra.Command {
	flags := &compileFlags{}

	cmd := &cobra.Command{
		Use:   "compile <file-key|document.json>",
		Short: "Compile a design document into a styled scene tree",
		Long: `Compile a design document into a styled scene tree.

The command auto-detects whether you're providing a remote file key (or a
share URL) or a local document JSON file.

Examples:
  boxwood compile a1b2C3d4e5                       # Fetch by file key
  boxwood compile https://www.figma.com/file/a1b2C3d4e5/Landing
  boxwood compile exports/landing.json             # Local document export
  boxwood compile a1b2C3d4e5 --node 1:2 --node 1:9 # Selected subtrees only`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCompile(cmd.Context(), args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", `output file (default: <input>.scene.json, "-" for stdout)`)
	flags.register(cmd)

	return cmd
}

// runCompile executes the pipeline and writes the compiled scene.
func (c *CLI) runCompile(ctx context.Context, arg string, flags *compileFlags) error {
	opts := c.configOptions()
	flags.apply(&opts)
	if err := classifyInput(arg, &opts); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newResolveProgress(c.Logger)
	defer prog.Stop()
	opts.Progress = prog.Func()

	result, err := runner.Execute(ctx, opts)
	prog.Stop()
	if err != nil {
		return fmt.Errorf("compile %s: %w", arg, err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := sceneOutputPath(flags.output, arg, opts)
	out, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := pkgio.WriteScene(result.Scene, out); err != nil {
		return fmt.Errorf("write scene: %w", err)
	}

	// Writing to stdout: keep it clean JSON, no decorations.
	if outputPath == "" {
		return nil
	}

	printSuccess("Compile complete")
	printFile(outputPath)
	printStats(result.Stats.BoxCount, result.Stats.ResolvedCount, result.CacheInfo.SceneHit)
	printNewline()
	printNextStep("Inspect", appName+" inspect "+outputPath)

	return nil
}

// =============================================================================
// Input Classification
// =============================================================================

// classifyInput fills opts with either a local document or a remote file
// key, auto-detecting which one arg is.
func classifyInput(arg string, opts *pipeline.Options) error {
	if looksLikeDocument(arg) {
		doc, err := pkgio.ImportDocument(arg)
		if err != nil {
			return err
		}
		opts.Document = doc
		return nil
	}

	key, err := parseFileKey(arg)
	if err != nil {
		return err
	}
	opts.FileKey = key
	return nil
}

// looksLikeDocument returns true if arg appears to be a document file path
// rather than a file key. It checks if the file exists or has a .json
// extension.
func looksLikeDocument(arg string) bool {
	if _, err := os.Stat(arg); err == nil {
		return true
	}
	return strings.HasSuffix(strings.ToLower(arg), ".json")
}

// parseFileKey extracts the file key from a raw key or a share URL
// (https://www.figma.com/file/<key>/Title, /design/<key>, /proto/<key>).
func parseFileKey(arg string) (string, error) {
	if !strings.Contains(arg, "/") {
		return arg, nil
	}

	u, err := url.Parse(arg)
	if err != nil {
		return "", boxerrors.New(boxerrors.ErrCodeInvalidFileKey, "invalid file key or share URL: %s", arg)
	}
	parts := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	for i, part := range parts {
		switch part {
		case "file", "design", "proto", "board":
			if i+1 < len(parts) {
				return parts[i+1], nil
			}
		}
	}
	return "", boxerrors.New(boxerrors.ErrCodeInvalidFileKey, "no file key found in %q", arg)
}

// sceneOutputPath derives the scene output file. "-" selects stdout.
func sceneOutputPath(output, arg string, opts pipeline.Options) string {
	if output == "-" {
		return ""
	}
	if output != "" {
		return output
	}
	if opts.Document != nil {
		return strings.TrimSuffix(arg, filepath.Ext(arg)) + ".scene.json"
	}
	return opts.FileKey + ".scene.json"
}

// =============================================================================
// Output Helpers
// =============================================================================

// nopCloser wraps an io.Writer with a no-op Close method.
// It is used to make os.Stdout compatible with io.WriteCloser.
type nopCloser struct{ io.Writer }

// Close implements io.Closer with a no-op.
func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path.
// If path is empty, it returns os.Stdout wrapped in nopCloser.
// Otherwise, it creates the file at path, overwriting if it exists.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
