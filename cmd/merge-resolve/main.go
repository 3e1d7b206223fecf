// Package main is the merge-resolve CLI surface: a two-head merge over
// one or more merge bases, driven by ResolveDriver. With several bases,
// only the first base's tree serves as the ancestor.
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
	"github.com/zeta-vcs/zeta-merge/pkg/pathmerge"
	"github.com/zeta-vcs/zeta-merge/pkg/report"
	"github.com/zeta-vcs/zeta-merge/pkg/resolve"
)

// cliOptions bundles every merge-resolve flag so runResolve doesn't
// carry a growing positional-parameter list.
type cliOptions struct {
	indexPath   string
	configPath  string
	objectsRoot string
	worktree    string
	verbose     bool
	jsonOut     bool
	mergeBase   []string
	abort       bool
	doContinue  bool
}

func newRootCommand() *cobra.Command {
	var opts cliOptions

	cmd := &cobra.Command{
		Use:           "merge-resolve <bases>... -- <head> <remote>",
		Short:         "Join two development histories together over one or more merge bases",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd.Context(), args, cmd.ArgsLenAtDash(), &opts)
		},
	}
	cmd.Flags().StringVar(&opts.indexPath, "index", ".zeta/index", "path to the index lock target")
	cmd.Flags().StringVar(&opts.configPath, "config", mergeconf.DefaultFileName, "path to the merge-driver attribute file")
	cmd.Flags().StringVar(&opts.objectsRoot, "objects", ".zeta/objects", "path to the on-disk object store root")
	cmd.Flags().StringVar(&opts.worktree, "worktree", ".", "path to the working tree merge-resolve checks out into")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose progress output")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "emit a machine-readable conflict report on stdout")
	cmd.Flags().StringArrayVar(&opts.mergeBase, "merge-base", nil, "override the positional bases with explicit merge-base commit(s)")
	cmd.Flags().BoolVar(&opts.abort, "abort", false, "discard a conflicted resolve, resetting the index to <head>")
	cmd.Flags().BoolVar(&opts.doContinue, "continue", false, "resume a conflicted resolve after manual fixups")
	return cmd
}

func buildContext(store *collab.FileObjectStore, opts *cliOptions, reporter *report.Reporter) *mergectx.Context {
	return &mergectx.Context{
		Store:       store,
		UnpackTrees: collab.NewMemoryUnpackTrees(store),
		MergeBases:  store,
		IndexIO:     collab.NewFileIndexIO(store, opts.indexPath),
		Index:       &mergeindex.Index{},
		IndexPath:   opts.indexPath,
		Reporter:    reporter,
	}
}

func buildMerger(store *collab.FileObjectStore, wt *collab.DiskWorktree, cfg *mergeconf.Config, reporter *report.Reporter) *pathmerge.Merger {
	return &pathmerge.Merger{
		Store:    mergecli.StoreAdapter{Store: store},
		Lines:    diff3merge.Engine{},
		Worktree: wt,
		Reporter: reporter,
		Style:    func(path string) string { return string(cfg.StyleFor(path)) },
	}
}

func emitConflictReport(merger *pathmerge.Merger) error {
	var conflicts []any
	for _, o := range merger.Outcomes {
		if o.IsConflict() {
			conflicts = append(conflicts, o.Record())
		}
	}
	return report.EmitJSON(report.Stdout(), &report.ConflictReport{Conflicts: conflicts})
}

func runResolve(ctx context.Context, args []string, dash int, opts *cliOptions) error {
	store := collab.NewFileObjectStore(opts.objectsRoot)
	wt := collab.NewDiskWorktree(opts.worktree)
	reporter := report.New(report.Stdout(), report.Stderr(), opts.verbose)

	cfg, err := mergeconf.Load(opts.configPath)
	if err != nil {
		return report.NewExitError(2, "merge-resolve: %v", err)
	}
	reporter.Debugf("default diff algorithm: %s", cfg.AlgoFor("*"))

	if opts.doContinue {
		return runContinue(ctx, store, wt, cfg, opts, reporter)
	}

	if dash < 0 {
		return report.NewExitError(2, "merge-resolve: missing '--' separator between bases and <head> <remote>")
	}
	bases, rest := args[:dash], args[dash:]

	if opts.abort {
		if len(rest) != 1 {
			return report.NewExitError(2, "merge-resolve: --abort takes exactly one <head> argument after '--'")
		}
		return runAbort(ctx, store, opts, rest[0], reporter)
	}

	if len(bases) == 0 && dash == 0 {
		return report.NewExitError(2, "merge-resolve: baseless merge requires at least one base")
	}
	if len(rest) != 2 {
		return report.NewExitError(2, "merge-resolve: expected exactly <head> <remote> after '--', got %d argument(s)", len(rest))
	}

	if len(opts.mergeBase) > 0 {
		bases = opts.mergeBase
	}

	baseRefs, err := mergecli.ResolveCommitArgs(ctx, store, bases)
	if err != nil {
		return report.NewExitError(2, "merge-resolve: %v", err)
	}
	headID, err := mergecli.ResolveTreeArg(rest[0])
	if err != nil {
		return report.NewExitError(2, "merge-resolve: head: %v", err)
	}
	remoteRefs, err := mergecli.ResolveCommitArgs(ctx, store, rest[1:])
	if err != nil {
		return report.NewExitError(2, "merge-resolve: %v", err)
	}
	var remote *collab.CommitRef
	if len(remoteRefs) == 1 {
		remote = remoteRefs[0]
	}
	if err := mergecli.MarkTrackedFromTree(ctx, store, headID, wt); err != nil {
		reporter.Warn("%v", err)
	}

	mctx := buildContext(store, opts, reporter)
	merger := buildMerger(store, wt, cfg, reporter)

	driver := resolve.New(mctx, merger)
	if program, ok := cfg.ProgramFor("*"); ok && program != "" {
		driver.WalkCallback = extmerge.New(program).Invoke
	}

	code, err := driver.Run(ctx, &resolve.Inputs{Bases: baseRefs, HeadID: headID, Remote: remote})
	if err == nil {
		if cerr := mergecli.CheckoutMerged(ctx, store, mctx.Index, wt); cerr != nil {
			reporter.Warn("%v", cerr)
		}
	}
	if opts.jsonOut {
		if jerr := emitConflictReport(merger); jerr != nil {
			return report.NewExitError(2, "merge-resolve: write conflict report: %v", jerr)
		}
	}
	if code == 0 && err == nil {
		return nil
	}
	if err == nil {
		err = fmt.Errorf("merge-resolve: exit %d", code)
	}
	return report.NewExitError(code, "%v", err)
}

func runAbort(ctx context.Context, store *collab.FileObjectStore, opts *cliOptions, headArg string, reporter *report.Reporter) error {
	headID, err := mergecli.ResolveTreeArg(headArg)
	if err != nil {
		return report.NewExitError(2, "merge-resolve: head: %v", err)
	}
	wt := collab.NewDiskWorktree(opts.worktree)
	mctx := buildContext(store, opts, reporter)
	driver := resolve.New(mctx, nil)
	if err := driver.Abort(ctx, headID); err != nil {
		return report.NewExitError(2, "merge-resolve: abort: %v", err)
	}
	if err := mergecli.CheckoutMerged(ctx, store, mctx.Index, wt); err != nil {
		reporter.Warn("%v", err)
	}
	return nil
}

func runContinue(ctx context.Context, store *collab.FileObjectStore, wt *collab.DiskWorktree, cfg *mergeconf.Config, opts *cliOptions, reporter *report.Reporter) error {
	mctx := buildContext(store, opts, reporter)
	merger := buildMerger(store, wt, cfg, reporter)
	driver := resolve.New(mctx, merger)
	if program, ok := cfg.ProgramFor("*"); ok && program != "" {
		driver.WalkCallback = extmerge.New(program).Invoke
	}

	code, err := driver.Continue(ctx)
	if err == nil {
		if cerr := mergecli.CheckoutMerged(ctx, store, mctx.Index, wt); cerr != nil {
			reporter.Warn("%v", cerr)
		}
	}
	if opts.jsonOut {
		if jerr := emitConflictReport(merger); jerr != nil {
			return report.NewExitError(2, "merge-resolve: write conflict report: %v", jerr)
		}
	}
	if code == 0 && err == nil {
		return nil
	}
	if err == nil {
		err = fmt.Errorf("merge-resolve: exit %d", code)
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
