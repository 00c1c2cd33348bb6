package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagForce       bool
	flagCoreOnly    bool
	flagBundlesOnly bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Regenerate stale autoload artifacts",
	Long:  "Checks both artifacts against their inputs and regenerates whichever is stale, core first. Fresh artifacts are loaded without disk changes.",
	Args:  cobra.NoArgs,
	RunE:  runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&flagForce, "force", false, "regenerate even if artifacts are fresh")
	syncCmd.Flags().BoolVar(&flagCoreOnly, "core-only", false, "only the core artifact")
	syncCmd.Flags().BoolVar(&flagBundlesOnly, "bundles-only", false, "only the bundle artifact")
	syncCmd.MarkFlagsMutuallyExclusive("core-only", "bundles-only")
}

func runSync(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	p, err := newPipeline(logger)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx := context.Background()
	switch {
	case flagCoreOnly:
		err = p.RegenerateCore(ctx, flagForce)
	case flagBundlesOnly:
		err = p.RegenerateBundles(ctx, flagForce)
	default:
		err = p.RegenerateAll(ctx, flagForce)
	}
	if err != nil {
		return err
	}

	for _, notice := range p.Notices() {
		fmt.Fprintf(os.Stderr, "Notice: %s\n", notice)
	}
	return nil
}
