package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grantoftegaard/garden/internal/legend"
	"github.com/grantoftegaard/garden/pkg/color"
	"github.com/grantoftegaard/garden/pkg/model"
)

const nameColumn = 15

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current layout and legend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(false)
		if err != nil {
			return err
		}
		snap, err := a.svc.Current()
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(map[string]any{
				"key":    snap.Key,
				"shapes": len(snap.Shapes),
				"plants": snap.PlantShapes(),
				"legend": snap.Legend,
			})
		}

		fmt.Printf("%s  %s\n", color.Header("Layout"), snap.Key)
		fmt.Printf("  %d shape(s), %d plant(s)\n\n", len(snap.Shapes), snap.PlantShapes())
		if len(snap.Legend) == 0 {
			fmt.Println("Legend is empty.")
			return nil
		}

		fmt.Println(color.Header("Legend"))
		for _, e := range snap.Legend {
			lines := strings.Split(legend.FormatName(e.Name, nameColumn), "\n")
			fmt.Printf("  %s %-*s  %s  %s\n", color.Swatch(e.Color), nameColumn, lines[0], e.PlantedDate, color.Dim(e.ID))
			for _, l := range lines[1:] {
				fmt.Printf("  %s %s\n", strings.Repeat(" ", swatchWidth(e.Color)), l)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}

// swatchWidth is the number of columns color.Swatch occupies on screen.
func swatchWidth(hex string) int {
	if color.Enabled() && model.IsHexColor(hex) {
		return 4
	}
	return len(hex) + 2
}
