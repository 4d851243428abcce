package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/klumpen/pkg/errors"
	"github.com/matzehuels/klumpen/pkg/storage"
)

func (c *CLI) historyCommand() *cobra.Command {
	var (
		limit  int
		format = formatTable
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored analyses",
		Long: `History lists the analyses saved with 'analyze --store' or uploaded to the
HTTP API, newest first. The history lives in a local directory by default
and in MongoDB when [storage] backend = "mongo".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(format); err != nil {
				return err
			}
			return c.runHistory(cmd.Context(), stdout(cmd), limit, format)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", storage.DefaultListLimit, "maximum number of entries")
	cmd.Flags().StringVarP(&format, "format", "f", format, "output format: table, json, yaml")
	registerFormatCompletion(cmd)

	cmd.AddCommand(c.historyShowCommand())
	cmd.AddCommand(c.historyRemoveCommand())

	return cmd
}

func (c *CLI) runHistory(ctx context.Context, w io.Writer, limit int, format string) error {
	store, err := c.newStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	list, err := store.List(ctx, limit)
	if err != nil {
		return err
	}
	if format != formatTable {
		if list == nil {
			list = []storage.Summary{}
		}
		return writeDoc(w, list, format)
	}
	if len(list) == 0 {
		printInfo(w, "No stored analyses")
		printDetail(w, "Save one with: klumpen analyze --store <report>")
		return nil
	}
	fmt.Fprintln(w, historyTable(list))
	return nil
}

func (c *CLI) historyShowCommand() *cobra.Command {
	var (
		top    = 30
		files  bool
		format = formatTable
	)

	cmd := &cobra.Command{
		Use:               "show <id>",
		Short:             "Print a stored analysis",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeAnalysisIDs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(format); err != nil {
				return err
			}
			if err := errors.ValidateAnalysisID(args[0]); err != nil {
				return err
			}
			ctx := cmd.Context()
			store, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			a, err := store.Get(ctx, args[0])
			if err != nil {
				return err
			}
			w := stdout(cmd)
			if format != formatTable {
				return writeDoc(w, a, format)
			}
			printAnalysis(w, a, false, top, files)
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", top, "show only the N largest packages (0 for all)")
	cmd.Flags().BoolVar(&files, "files", false, "list the files of each package")
	cmd.Flags().StringVarP(&format, "format", "f", format, "output format: table, json, yaml")
	registerFormatCompletion(cmd)
	return cmd
}

func (c *CLI) historyRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "rm <id>...",
		Aliases:           []string{"remove", "delete"},
		Short:             "Delete stored analyses",
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: c.completeAnalysisIDs(-1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			w := stdout(cmd)
			for _, id := range args {
				if err := errors.ValidateAnalysisID(id); err != nil {
					return err
				}
				if err := store.Delete(ctx, id); err != nil {
					return err
				}
				printSuccess(w, "Deleted %s", id)
			}
			return nil
		},
	}
}
