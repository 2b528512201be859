package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/grantoftegaard/garden/internal/doctor"
	"github.com/grantoftegaard/garden/pkg/color"
	"github.com/grantoftegaard/garden/pkg/progress"
)

var (
	doctorStrict      bool
	doctorRepair      []string
	doctorListRepairs bool
)

// errUnhealthy makes doctor exit non-zero after it printed its findings.
var errUnhealthy = errors.New("garden is not healthy")

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the garden data for problems",
	Long: `Check the garden data for problems.

Checks that the data directory is readable, that the current snapshot can
be opened and that its legend has exactly one row per plant color. Also
reports misnamed snapshot files, a missing background image, a broken audit
journal and temp files left by interrupted writes.

Use --strict to check the legend of every snapshot in the history.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(false)
		if err != nil {
			return err
		}
		doc := doctor.NewDoctor(a.store, a.journal, a.cfg.BackgroundImage, a.imageDir())

		if doctorListRepairs {
			actions := doc.ListRepairActions()
			if jsonOutput {
				return outputJSON(actions)
			}
			for _, act := range actions {
				fmt.Printf("  %s  %s\n", color.Key(act.ID), act.Description)
			}
			return nil
		}

		if len(doctorRepair) > 0 {
			results, err := doc.Repair(doctorRepair)
			if err != nil {
				return err
			}
			if jsonOutput {
				return outputJSON(results)
			}
			for _, r := range results {
				mark := color.Success("ok")
				if !r.Success {
					mark = color.Error("failed")
				}
				fmt.Printf("  [%s] %s: %s\n", mark, r.Action, r.Message)
			}
			return nil
		}

		var bar *progress.Terminal
		if doctorStrict && !jsonOutput {
			bar = progress.NewTerminal(os.Stderr, "Checking snapshots", 0, true)
			doc.SetProgress(bar.Callback())
		}
		result, err := doc.Check(doctorStrict)
		if bar != nil {
			bar.Done("")
		}
		if err != nil {
			return fmt.Errorf("doctor: %w", err)
		}

		if jsonOutput {
			if err := outputJSON(result); err != nil {
				return err
			}
		} else if len(result.Findings) == 0 {
			fmt.Println("Garden is healthy.")
		} else {
			fmt.Printf("Findings (%d):\n", len(result.Findings))
			for _, f := range result.Findings {
				fmt.Printf("  [%s] %s: %s\n", severityColor(f.Severity), f.Category, f.Description)
			}
		}

		if !result.Healthy {
			return errUnhealthy
		}
		return nil
	},
}

func severityColor(s string) string {
	switch s {
	case "critical", "error":
		return color.Error(s)
	case "warning":
		return color.Warning(s)
	default:
		return color.Dim(s)
	}
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorStrict, "strict", false, "check the legend of every snapshot")
	doctorCmd.Flags().StringSliceVar(&doctorRepair, "repair", nil, "run repair actions (see --list-repairs)")
	doctorCmd.Flags().BoolVar(&doctorListRepairs, "list-repairs", false, "list available repair actions")
	rootCmd.AddCommand(doctorCmd)
}
