package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	flags := &compileFlags{}
	var title string

	cmd := &cobra.Command{
		Use:   "export <file-key|document.json>",
		Short: "Export a compiled scene as a standalone component bundle",
		Long: `Export a compiled scene as a standalone HTML/CSS bundle.

The bundle directory contains index.html, styles.css, and the downloaded
image assets. Assets that cannot be downloaded keep their remote URLs, so
a partially fetched bundle still renders.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd.Context(), args[0], flags, title)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output directory (default: <document-name>-export)")
	cmd.Flags().StringVar(&title, "title", "", "bundle title (default: the document name)")
	flags.register(cmd)

	return cmd
}

// runExport executes the pipeline with the export stage enabled and writes
// the bundle to disk.
func (c *CLI) runExport(ctx context.Context, arg string, flags *compileFlags, title string) error {
	opts := c.configOptions()
	flags.apply(&opts)
	opts.Export = true
	opts.Title = title
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
		return fmt.Errorf("export %s: %w", arg, err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	dir := flags.output
	if dir == "" {
		dir = exportDirName(result.Document.Name, opts.FileKey)
	}
	if err := result.Manifest.WriteDir(dir); err != nil {
		return fmt.Errorf("write bundle %s: %w", dir, err)
	}

	printSuccess("Export complete")
	for _, name := range sortedFileNames(result.Manifest.SourceFiles) {
		printFile(filepath.Join(dir, name))
	}
	if n := len(result.Manifest.AssetFiles); n > 0 {
		printDetail("%d assets downloaded", n)
	}
	printStats(result.Stats.BoxCount, result.Stats.ResolvedCount, result.CacheInfo.SceneHit)
	printNewline()
	printNextStep("Open", filepath.Join(dir, "index.html"))

	return nil
}

// exportDirName derives a directory name from the document name, falling
// back to the file key.
func exportDirName(name, fileKey string) string {
	stem := name
	if stem == "" {
		stem = fileKey
	}

	var b strings.Builder
	for _, r := range strings.ToLower(stem) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		out = "scene"
	}
	return out + "-export"
}

// sortedFileNames returns the manifest file names in stable order.
func sortedFileNames(files map[string]string) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
