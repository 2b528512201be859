package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grantoftegaard/garden/pkg/model"
)

var diffCmd = &cobra.Command{
	Use:   "diff [<from> [<to>]]",
	Short: "Show differences between snapshots",
	Long: `Show differences between two snapshots.

With no arguments the current layout is compared with the snapshot before
it. With one argument that snapshot is compared with the one before it.

Shapes are compared by position in the drawing; legend rows by color.`,
	Args:              cobra.MaximumNArgs(2),
	ValidArgsFunction: completeKeys,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(false)
		if err != nil {
			return err
		}

		var from, to model.SnapshotKey
		switch len(args) {
		case 1:
			to = model.SnapshotKey(args[0])
		case 2:
			from, to = model.SnapshotKey(args[0]), model.SnapshotKey(args[1])
		}

		result, err := a.svc.Diff(from, to)
		if err != nil {
			keys, _ := a.svc.History()
			query := string(to)
			if from != "" {
				query = string(from)
			}
			return withSuggestion(err, query, keys)
		}

		if jsonOutput {
			return outputJSON(result)
		}
		fmt.Print(result.FormatHuman())
		return nil
	},
}

// completeKeys offers snapshot keys, newest first, for up to two arguments.
func completeKeys(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) >= 2 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	a, err := loadApp(false)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	keys, err := a.svc.History()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var out []string
	for i := len(keys) - 1; i >= 0; i-- {
		if strings.HasPrefix(string(keys[i]), toComplete) {
			out = append(out, string(keys[i]))
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveKeepOrder
}

func init() {
	rootCmd.AddCommand(diffCmd)
}
