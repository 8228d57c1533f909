package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	pkgio "github.com/quellt/boxwood/pkg/io"
	"github.com/quellt/boxwood/pkg/render/treeviz"
)

// inspectFormats is the set of supported diagram formats.
var inspectFormats = map[string]bool{"svg": true, "png": true, "pdf": true, "dot": true}

// inspectCommand creates the inspect command for debugging compiled scenes.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		output   string
		format   string
		detailed bool
		maxDepth int
	)

	cmd := &cobra.Command{
		Use:   "inspect <scene.json>",
		Short: "Render a compiled scene's box tree as a diagram",
		Long: `Render a compiled scene's box tree as a Graphviz diagram.

The diagram shows every box with its kind and name; flattened boxes are
drawn dashed since their source subtree is gone from the compiled output.
With --detailed, placement, asset, and text data are included.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !inspectFormats[format] {
				return fmt.Errorf("invalid format: %s (must be 'svg', 'png', 'pdf', or 'dot')", format)
			}
			return c.runInspect(cmd.Context(), args[0], output, format, detailed, maxDepth)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", `output file (default: <input>.<format>, "-" for stdout)`)
	cmd.Flags().StringVarP(&format, "format", "f", "svg", "output format: svg (default), png, pdf, dot")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include placement, asset, and text data")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "prune boxes deeper than this (0 = no limit)")

	return cmd
}

// runInspect loads the scene and renders the diagram.
func (c *CLI) runInspect(ctx context.Context, input, output, format string, detailed bool, maxDepth int) error {
	root, err := pkgio.ImportScene(input)
	if err != nil {
		return fmt.Errorf("load scene %s: %w", input, err)
	}

	dot := treeviz.ToDOT(root, treeviz.Options{Detailed: detailed, MaxDepth: maxDepth})

	var data []byte
	switch format {
	case "dot":
		data = []byte(dot)
	default:
		spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s diagram...", format))
		spinner.Start()
		data, err = renderDiagram(dot, format)
		if err != nil {
			spinner.StopWithError("Render failed")
			return fmt.Errorf("render %s: %w", format, err)
		}
		spinner.Stop()
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	switch outputPath {
	case "-":
		outputPath = "" // stdout
	case "":
		outputPath = strings.TrimSuffix(input, filepath.Ext(input)) + "." + format
	}

	out, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := out.Write(data); err != nil {
		return err
	}

	if outputPath != "" {
		printSuccess("Diagram complete")
		printFile(outputPath)
		printStats(root.Count(), 0, false)
	}
	return nil
}

// renderDiagram dispatches the DOT source to the matching renderer.
func renderDiagram(dot, format string) ([]byte, error) {
	switch format {
	case "svg":
		return treeviz.RenderSVG(dot)
	case "png":
		return treeviz.RenderPNG(dot, 2.0)
	case "pdf":
		return treeviz.RenderPDF(dot)
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}
