package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/mstanton/prelude/internal/ledger"
)

var flagHistory int

var statusCmd = &cobra.Command{
	Use:   "status [artifact]",
	Short: "Show recorded regeneration history",
	Long:  "Without arguments, shows the most recent build per artifact. With an artifact name (core or bundles), shows its build history.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&flagHistory, "limit", 10, "history rows to show for a single artifact")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := pipelineConfig()
	if err != nil {
		return err
	}
	led, err := ledger.Open(filepath.Join(cfg.StateDir, "builds.db"))
	if err != nil {
		return fmt.Errorf("opening build ledger: %w", err)
	}
	defer led.Close()
	if err := led.Migrate(); err != nil {
		return err
	}

	var builds []ledger.Build
	if len(args) == 1 {
		builds, err = led.History(args[0], flagHistory)
	} else {
		builds, err = led.Latest()
	}
	if err != nil {
		return err
	}
	if len(builds) == 0 {
		fmt.Println("no recorded builds")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Artifact", "Status", "Scanned", "Ignored", "Contributed", "Duration", "Built"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	for _, b := range builds {
		status := b.Status
		if b.Error != "" {
			status = fmt.Sprintf("%s (%s)", b.Status, b.Error)
		}
		table.Append([]string{
			b.Artifact,
			status,
			fmt.Sprintf("%d", b.Scanned),
			fmt.Sprintf("%d", b.Ignored),
			fmt.Sprintf("%d", b.Contributed),
			(time.Duration(b.DurationMS) * time.Millisecond).String(),
			b.BuiltAt.Format(time.RFC3339),
		})
	}
	table.Render()
	return nil
}
