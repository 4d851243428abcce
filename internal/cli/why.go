package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/klumpen/pkg/report"
)

type whyOpts struct {
	entry   string
	limit   int
	format  string
	noCache bool
}

func (c *CLI) whyCommand() *cobra.Command {
	opts := whyOpts{format: formatTable}

	cmd := &cobra.Command{
		Use:   "why <report> [module-or-package]",
		Short: "Show the import chain that pulls a module into the bundle",
		Long: `Why finds the shortest import chain from the report's entry module to a
module. The target is a module path or a package name; a package resolves to
its largest file.

Without a target, one chain is printed for each of the largest packages.`,
		Example: `  klumpen why web.json react
  klumpen why web.json node_modules/lodash/lodash.js
  klumpen why --entry src/admin.tsx web.json`,
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: c.completeWhy,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(opts.format); err != nil {
				return err
			}
			target := ""
			if len(args) == 2 {
				target = args[1]
			}
			return c.runWhy(cmd.Context(), stdout(cmd), args[0], target, opts)
		},
	}

	cmd.Flags().StringVar(&opts.entry, "entry", "", "entry module (default from the report)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "number of packages without a target (default 30)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: table, json, yaml")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	registerFormatCompletion(cmd)

	return cmd
}

func (c *CLI) runWhy(ctx context.Context, w io.Writer, path, target string, opts whyOpts) error {
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
	popts.Entry = opts.entry
	popts.ChainLimit = opts.limit

	a, err := runner.Analyze(ctx, rep, popts)
	if err != nil {
		return err
	}

	var docs []report.ChainDoc
	if target != "" {
		doc, err := runner.Why(ctx, a, target, popts)
		if err != nil {
			return err
		}
		if opts.format != formatTable {
			return writeDoc(w, doc, opts.format)
		}
		docs = []report.ChainDoc{doc}
	} else {
		docs, err = runner.Chains(ctx, a, popts)
		if err != nil {
			return err
		}
		if opts.format != formatTable {
			return writeDoc(w, docs, opts.format)
		}
	}

	for i, doc := range docs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		printChain(w, doc)
	}
	return nil
}
