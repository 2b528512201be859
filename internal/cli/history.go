package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grantoftegaard/garden/pkg/color"
	"github.com/grantoftegaard/garden/pkg/model"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the snapshot history",
	Long: `Show the snapshot history, oldest first.

The latest snapshot is the current layout and is marked as such.

Examples:
  garden history          # every snapshot
  garden history -n 5     # the five most recent`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(false)
		if err != nil {
			return err
		}
		keys, err := a.svc.History()
		if err != nil {
			return err
		}
		if historyLimit > 0 && len(keys) > historyLimit {
			keys = keys[len(keys)-historyLimit:]
		}

		if jsonOutput {
			if keys == nil {
				keys = []model.SnapshotKey{}
			}
			return outputJSON(keys)
		}
		if len(keys) == 0 {
			fmt.Println("No snapshots yet.")
			return nil
		}
		for i, k := range keys {
			if i == len(keys)-1 {
				fmt.Printf("%s  %s\n", color.Success(string(k)), color.Dim("(current)"))
				continue
			}
			fmt.Println(k)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "show only the N most recent snapshots")
	rootCmd.AddCommand(historyCmd)
}
