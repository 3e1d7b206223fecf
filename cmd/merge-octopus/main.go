// Package main is the merge-octopus CLI surface: an N-remote merge
// loop driven by OctopusDriver.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zeta-vcs/zeta-merge/internal/diff3merge"
	"github.com/zeta-vcs/zeta-merge/internal/mergecli"
	"github.com/zeta-vcs/zeta-merge/internal/mergeconf"
	"github.com/zeta-vcs/zeta-merge/modules/mergeindex"
	"github.com/zeta-vcs/zeta-merge/pkg/collab"
	"github.com/zeta-vcs/zeta-merge/pkg/extmerge"
	"github.com/zeta-vcs/zeta-merge/pkg/mergectx"
	"github.com/zeta-vcs/zeta-merge/pkg/octopus"
	"github.com/zeta-vcs/zeta-merge/pkg/pathmerge"
	"github.com/zeta-vcs/zeta-merge/pkg/report"
)

type cliOptions struct {
	indexPath   string
	configPath  string
	objectsRoot string
	worktree    string
	verbose     bool
	jsonOut     bool
}

func newRootCommand() *cobra.Command {
	var opts cliOptions

	cmd := &cobra.Command{
		Use:           "merge-octopus [<bases>...] -- <head> <remote1> <remote2> [<remotes>...]",
		Short:         "Merge several remote heads into one, stopping at the first unresolved remote",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOctopus(cmd.Context(), args, cmd.ArgsLenAtDash(), &opts)
		},
	}
	cmd.Flags().StringVar(&opts.indexPath, "index", ".zeta/index", "path to the index lock target")
	cmd.Flags().StringVar(&opts.configPath, "config", mergeconf.DefaultFileName, "path to the merge-driver attribute file")
	cmd.Flags().StringVar(&opts.objectsRoot, "objects", ".zeta/objects", "path to the on-disk object store root")
	cmd.Flags().StringVar(&opts.worktree, "worktree", ".", "path to the working tree merge-octopus checks out into")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose progress output")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "emit a machine-readable conflict report on stdout")
	return cmd
}

func runOctopus(ctx context.Context, args []string, dash int, opts *cliOptions) error {
	if dash < 0 {
		return report.NewExitError(2, "merge-octopus: missing '--' separator between bases and <head> <remotes>...")
	}
	bases, rest := args[:dash], args[dash:]
	if len(rest) < 3 {
		return report.NewExitError(2, "merge-octopus: fewer than two remotes; use merge-resolve instead")
	}

	store := collab.NewFileObjectStore(opts.objectsRoot)
	wt := collab.NewDiskWorktree(opts.worktree)
	reporter := report.New(report.Stdout(), report.Stderr(), opts.verbose)

	cfg, err := mergeconf.Load(opts.configPath)
	if err != nil {
		return report.NewExitError(2, "merge-octopus: %v", err)
	}
	reporter.Debugf("default diff algorithm: %s", cfg.AlgoFor("*"))

	baseRefs, err := mergecli.ResolveCommitArgs(ctx, store, bases)
	if err != nil {
		return report.NewExitError(2, "merge-octopus: %v", err)
	}
	headRefs, err := mergecli.ResolveCommitArgs(ctx, store, rest[:1])
	if err != nil {
		return report.NewExitError(2, "merge-octopus: head: %v", err)
	}
	if len(headRefs) != 1 {
		return report.NewExitError(2, "merge-octopus: head may not be EMPTY_TREE")
	}
	remoteRefs, err := mergecli.ResolveCommitArgs(ctx, store, rest[1:])
	if err != nil {
		return report.NewExitError(2, "merge-octopus: %v", err)
	}
	if len(remoteRefs) < 2 {
		return report.NewExitError(2, "merge-octopus: fewer than two remotes; use merge-resolve instead")
	}

	if err := mergecli.MarkTrackedFromTree(ctx, store, headRefs[0].TreeID, wt); err != nil {
		reporter.Warn("%v", err)
	}

	mctx := &mergectx.Context{
		Store:       store,
		UnpackTrees: collab.NewMemoryUnpackTrees(store),
		MergeBases:  store,
		IndexIO:     collab.NewFileIndexIO(store, opts.indexPath),
		Index:       &mergeindex.Index{},
		IndexPath:   opts.indexPath,
		Reporter:    reporter,
	}
	merger := &pathmerge.Merger{
		Store:    mergecli.StoreAdapter{Store: store},
		Lines:    diff3merge.Engine{},
		Worktree: wt,
		Reporter: reporter,
		Style:    func(path string) string { return string(cfg.StyleFor(path)) },
	}

	driver := octopus.New(mctx, merger)
	if program, ok := cfg.ProgramFor("*"); ok && program != "" {
		driver.WalkCallback = extmerge.New(program).Invoke
	}

	code, err := driver.Run(ctx, &octopus.Inputs{Bases: baseRefs, Head: headRefs[0], Remotes: remoteRefs})
	if err == nil {
		if cerr := mergecli.CheckoutMerged(ctx, store, mctx.Index, wt); cerr != nil {
			reporter.Warn("%v", cerr)
		}
	}
	if opts.jsonOut {
		var conflicts []any
		for _, o := range merger.Outcomes {
			if o.IsConflict() {
				conflicts = append(conflicts, o.Record())
			}
		}
		if jerr := report.EmitJSON(report.Stdout(), &report.ConflictReport{Conflicts: conflicts}); jerr != nil {
			return report.NewExitError(2, "merge-octopus: write conflict report: %v", jerr)
		}
	}
	if code == 0 && err == nil {
		return nil
	}
	if err == nil {
		err = fmt.Errorf("merge-octopus: exit %d", code)
	}
	return report.NewExitError(code, "%v", err)
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		if exitErr, ok := err.(*report.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(127)
	}
}
