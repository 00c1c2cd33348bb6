package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mstanton/prelude/internal/scan"
)

var scanCmd = &cobra.Command{
	Use:   "scan [path...]",
	Short: "Dry-run scan of source files for autoload cookies",
	Long:  "Extracts cookie-marked declarations from the given files (or every configured script when none are given) and reports what a regeneration would pick up, without writing artifacts.",
	RunE:  runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	var files []scan.FileInfo
	if len(args) > 0 {
		for _, arg := range args {
			abs, err := filepath.Abs(arg)
			if err != nil {
				return fmt.Errorf("resolving %q: %w", arg, err)
			}
			files = append(files, scan.FileInfo{Path: abs, Symbolic: filepath.Base(abs)})
		}
	} else {
		p, err := newPipeline(logger)
		if err != nil {
			return err
		}
		defer p.Close()
		files, err = p.ScanTargets()
		if err != nil {
			return err
		}
	}

	res := scan.Files(files)
	for _, f := range res.Forms {
		owner := f.Bundle
		if owner == "" {
			owner = "(lib)"
		}
		fmt.Fprintf(os.Stdout, "%-8s %-24s %s\n", f.Kind, f.Name, owner)
	}
	fmt.Fprintf(os.Stderr, "scanned=%d ignored=%d contributed=%d forms=%d\n",
		res.Scanned, res.Ignored, res.Contributed, len(res.Forms))
	return nil
}
