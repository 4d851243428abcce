package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/klumpen/pkg/bundle"
	"github.com/matzehuels/klumpen/pkg/report"
)

type treemapOpts struct {
	width   int
	height  int
	zoom    string
	format  string
	output  string
	noCache bool
}

func (c *CLI) treemapCommand() *cobra.Command {
	opts := treemapOpts{format: formatTable}

	cmd := &cobra.Command{
		Use:   "treemap <report>",
		Short: "Lay out a report as a treemap",
		Long: `Treemap lays out the packages of a report on a width×height canvas, each
package getting an area proportional to its size. With --zoom the files of
one package are laid out instead.

The table format draws the canvas in the terminal when it is small enough;
json and yaml emit the tiles for other renderers.`,
		Example: `  klumpen treemap web.json
  klumpen treemap --zoom react --width 120 --height 40 web.json
  klumpen treemap -o treemap.json web.json`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeReports(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(opts.format); err != nil {
				return err
			}
			return c.runTreemap(cmd.Context(), stdout(cmd), args[0], opts)
		},
	}

	cmd.Flags().IntVar(&opts.width, "width", 0, "canvas width in cells (default from config, else 80)")
	cmd.Flags().IntVar(&opts.height, "height", 0, "canvas height in cells (default from config, else 24)")
	cmd.Flags().StringVarP(&opts.zoom, "zoom", "z", "", "lay out the files of this package")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: table, json, yaml")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the tiles to a .json or .yaml file")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	registerFormatCompletion(cmd)
	_ = cmd.RegisterFlagCompletionFunc("zoom", c.completePackageFlag)

	return cmd
}

func (c *CLI) runTreemap(ctx context.Context, w io.Writer, path string, opts treemapOpts) error {
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Cache.Close()

	rep, err := report.ImportReport(path)
	if err != nil {
		return err
	}
	popts := c.baseOptions()
	if opts.width > 0 {
		popts.Width = opts.width
	}
	if opts.height > 0 {
		popts.Height = opts.height
	}
	popts.Zoom = opts.zoom

	a, err := runner.Analyze(ctx, rep, popts)
	if err != nil {
		return err
	}
	doc, cached, err := runner.TreemapWithCacheInfo(ctx, a, popts)
	if err != nil {
		return err
	}

	if opts.output != "" {
		if err := report.Export(doc, opts.output); err != nil {
			return err
		}
		printSuccess(w, "Wrote %d tiles", len(doc.Tiles))
		printDetail(w, "%s %s", iconArrow, opts.output)
		return nil
	}
	if opts.format != formatTable {
		return writeDoc(w, doc, opts.format)
	}

	title := a.Target
	if doc.Scope != "" {
		title += " › " + doc.Scope
	}
	status := iconFresh
	if cached {
		status = iconCached
	}
	fmt.Fprintln(w, StyleTitle.Render(title)+" "+StyleDim.Render(fmt.Sprintf("%dx%d · %s · %s", doc.Width, doc.Height, bundle.FormatBytes(doc.TotalBytes), status)))
	if len(doc.Tiles) == 0 {
		printWarning(w, "Nothing to lay out")
		return nil
	}
	if grid, ok := drawTreemap(doc.Tiles, doc.Width, doc.Height); ok {
		fmt.Fprint(w, grid)
	}
	fmt.Fprintln(w, tileTable(doc.Tiles))
	if doc.Omitted > 0 {
		printDetail(w, "%d more items too small for a %dx%d canvas", doc.Omitted, doc.Width, doc.Height)
	}
	return nil
}
