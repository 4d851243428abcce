package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/klumpen/pkg/bundle"
	"github.com/matzehuels/klumpen/pkg/pipeline"
	"github.com/matzehuels/klumpen/pkg/report"
)

// completionLimit caps the analyses offered when completing history IDs.
const completionLimit = 20

var reportExtensions = []string{"json", "yaml", "yml"}

func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for klumpen.

Besides commands and flags, the scripts complete report files (.json,
.yaml), package names for "why" and "treemap --zoom" once the report is
given, and stored analysis IDs for "history show" and "history rm".

  bash:        source <(klumpen completion bash)
  zsh:         klumpen completion zsh > "${fpath[1]}/_klumpen"
  fish:        klumpen completion fish > ~/.config/fish/completions/klumpen.fish
  powershell:  klumpen completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := stdout(cmd)
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
			return nil
		},
	}

	return cmd
}

// completeReports completes report files for the first n positional
// arguments; n < 0 completes every argument.
func completeReports(n int) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
		if n >= 0 && len(args) >= n {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return reportExtensions, cobra.ShellCompDirectiveFilterFileExt
	}
}

// registerFormatCompletion completes --format with the output formats.
func registerFormatCompletion(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("format",
		cobra.FixedCompletions([]string{formatTable, string(report.FormatJSON), string(report.FormatYAML)}, cobra.ShellCompDirectiveNoFileComp))
}

// completePackages lists the packages of the report at path, largest first,
// with their size as description.
func (c *CLI) completePackages(path string) ([]string, cobra.ShellCompDirective) {
	rep, err := report.ImportReport(path)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	a := pipeline.BuildAnalysis(rep, c.config().Classify.MonorepoDirs)
	out := make([]string, len(a.Packages))
	for i, g := range a.Packages {
		out[i] = g.Name + "\t" + bundle.FormatBytes(g.Bytes)
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completeWhy completes the report, then a package of that report.
func (c *CLI) completeWhy(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	switch len(args) {
	case 0:
		return completeReports(1)(cmd, args, toComplete)
	case 1:
		return c.completePackages(args[0])
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

// completePackageFlag completes a package-valued flag from the report given
// as first argument.
func (c *CLI) completePackageFlag(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return c.completePackages(args[0])
}

// completeAnalysisIDs offers the most recent stored analyses, skipping IDs
// already on the command line.
func (c *CLI) completeAnalysisIDs(n int) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
		if n >= 0 && len(args) >= n {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		store, err := c.newStore(ctx)
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		defer store.Close()

		list, err := store.List(ctx, completionLimit)
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		given := make(map[string]bool, len(args))
		for _, a := range args {
			given[a] = true
		}
		var out []string
		for _, s := range list {
			if !given[s.ID] {
				out = append(out, s.ID+"\t"+s.Target)
			}
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	}
}
