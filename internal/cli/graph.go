package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/klumpen/pkg/pipeline"
	"github.com/matzehuels/klumpen/pkg/report"
)

type graphOpts struct {
	chain  string
	entry  string
	short  bool
	layout bool
	output string
}

func (c *CLI) graphCommand() *cobra.Command {
	var opts graphOpts

	cmd := &cobra.Command{
		Use:   "graph <report>",
		Short: "Export the import graph as Graphviz DOT",
		Long: `Graph writes the report's import graph as DOT, edges pointing from importer
to imported module. With --chain only the chain from the entry to one module
or package is exported and highlighted. --layout runs Graphviz and emits DOT
annotated with positions.`,
		Example: `  klumpen graph web.json | dot -Tsvg > imports.svg
  klumpen graph --chain react --short -o react.dot web.json`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeReports(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd.Context(), stdout(cmd), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.chain, "chain", "", "only export the chain to this module or package")
	cmd.Flags().StringVar(&opts.entry, "entry", "", "entry module for --chain (default from the report)")
	cmd.Flags().BoolVar(&opts.short, "short", false, "label nodes with paths relative to node_modules")
	cmd.Flags().BoolVar(&opts.layout, "layout", false, "lay out the graph with Graphviz")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write to a file instead of stdout")

	_ = cmd.RegisterFlagCompletionFunc("chain", c.completePackageFlag)
	return cmd
}

func (c *CLI) runGraph(ctx context.Context, w io.Writer, path string, opts graphOpts) error {
	runner, err := c.newRunner(ctx, false)
	if err != nil {
		return err
	}
	defer runner.Cache.Close()

	rep, err := report.ImportReport(path)
	if err != nil {
		return err
	}
	popts := c.baseOptions()
	popts.Entry = opts.entry

	a, err := runner.Analyze(ctx, rep, popts)
	if err != nil {
		return err
	}
	out, err := runner.Graph(ctx, a, pipeline.GraphOptions{
		Target: opts.chain,
		Short:  opts.short,
		Layout: opts.layout,
	}, popts)
	if err != nil {
		return err
	}

	if opts.output == "" {
		_, err := w.Write(out)
		return err
	}
	if err := os.WriteFile(opts.output, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	printSuccess(w, "Wrote import graph (%d modules)", len(a.ImportGraph.Modules()))
	printDetail(w, "%s %s", iconArrow, opts.output)
	return nil
}
