package cli

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/klumpen/pkg/bundle"
	"github.com/matzehuels/klumpen/pkg/pipeline"
	"github.com/matzehuels/klumpen/pkg/report"
)

type analyzeOpts struct {
	files   bool
	top     int
	format  string
	store   bool
	noCache bool
	refresh bool
	dirs    []string
}

// analyzed is one report's result.
type analyzed struct {
	path     string
	analysis *report.Analysis
	cached   bool
}

func (c *CLI) analyzeCommand() *cobra.Command {
	opts := analyzeOpts{format: formatTable, top: 30}

	cmd := &cobra.Command{
		Use:   "analyze <report>...",
		Short: "Break a bundle report down by package",
		Long: `Analyze reads one or more bundle reports (JSON or YAML, "-" for stdin),
groups the bundled files into packages and prints where the bytes go.

Files under node_modules/ are grouped by npm package, files reached through
../ in a monorepo directory (packages/, apps/, ...) by workspace package, and
the rest by their top-level source folder.

Several reports are analyzed concurrently and printed in argument order.`,
		Example: `  klumpen analyze dist/stats.json
  klumpen analyze --top 10 --files web.json admin.json
  klumpen analyze --format yaml --store web.json`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeReports(-1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(opts.format); err != nil {
				return err
			}
			return c.runAnalyze(cmd.Context(), stdout(cmd), args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.files, "files", false, "list the files of each package")
	cmd.Flags().IntVar(&opts.top, "top", opts.top, "show only the N largest packages (0 for all)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: table, json, yaml")
	cmd.Flags().BoolVar(&opts.store, "store", false, "save the analysis to the history")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	registerFormatCompletion(cmd)
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even when a cached result exists")
	cmd.Flags().StringSliceVar(&opts.dirs, "monorepo-dirs", nil, "top-level directories holding workspace packages")

	return cmd
}

func (c *CLI) runAnalyze(ctx context.Context, w io.Writer, paths []string, opts analyzeOpts) error {
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Cache.Close()

	popts := c.baseOptions()
	if len(opts.dirs) > 0 {
		popts.MonorepoDirs = opts.dirs
	}
	popts.Refresh = opts.refresh

	results, err := analyzeAll(ctx, runner, paths, popts)
	if err != nil {
		return err
	}

	if opts.store {
		if err := c.storeAll(ctx, w, results, opts.format == formatTable); err != nil {
			return err
		}
	}

	if opts.format != formatTable {
		if len(results) == 1 {
			return writeDoc(w, results[0].analysis, opts.format)
		}
		docs := make([]*report.Analysis, len(results))
		for i, r := range results {
			docs[i] = r.analysis
		}
		return writeDoc(w, docs, opts.format)
	}

	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		printAnalysis(w, r.analysis, r.cached, opts.top, opts.files)
	}
	return nil
}

// analyzeAll reads and analyzes each report concurrently. Results keep the
// order of paths; the first failure cancels the rest.
func analyzeAll(ctx context.Context, runner *pipeline.Runner, paths []string, opts pipeline.Options) ([]analyzed, error) {
	results := make([]analyzed, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, path := range paths {
		g.Go(func() error {
			prog := newProgress(runner.Logger)
			rep, err := report.ImportReport(path)
			if err != nil {
				return err
			}
			a, hit, err := runner.AnalyzeWithCacheInfo(gctx, rep, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = analyzed{path: path, analysis: a, cached: hit}
			prog.done("Analyzed "+path, "packages", len(a.Packages))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *CLI) storeAll(ctx context.Context, w io.Writer, results []analyzed, verbose bool) error {
	store, err := c.newStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, r := range results {
		if err := store.Save(ctx, r.analysis); err != nil {
			return fmt.Errorf("store %s: %w", r.path, err)
		}
		c.Logger.Debug("stored analysis", "id", r.analysis.ID, "target", r.analysis.Target)
		if verbose {
			printSuccess(w, "Stored %s as %s", r.analysis.Target, r.analysis.ID)
		}
	}
	return nil
}

// printAnalysis prints the summary block and package table of a.
func printAnalysis(w io.Writer, a *report.Analysis, cached bool, top int, files bool) {
	title := a.Target
	if a.Bundler != "" {
		title += StyleDim.Render(" (" + a.Bundler + ")")
	}
	fmt.Fprintln(w, StyleTitle.Render(title))
	if a.OutputBytes > 0 {
		printKeyValue(w, "Output size", bundle.FormatBytes(a.OutputBytes))
	}
	printKeyValue(w, "Source size", bundle.FormatBytes(a.InputBytes))
	if a.Entry != "" {
		printKeyValue(w, "Entry", a.Entry)
	}
	printStats(w, a.Stats, cached)

	if len(a.Packages) == 0 {
		printWarning(w, "Report contains no modules")
		return
	}
	fmt.Fprintln(w, packageTable(a.Packages, a.InputBytes, top, files))
	if top > 0 && top < len(a.Packages) {
		printDetail(w, "%d more packages, use --top 0 to show all", len(a.Packages)-top)
	}
}
