package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grantoftegaard/garden/internal/garden"
	"github.com/grantoftegaard/garden/internal/legend"
	"github.com/grantoftegaard/garden/internal/session"
	"github.com/grantoftegaard/garden/pkg/color"
)

var (
	legendName   string
	legendDate   string
	legendColor  string
	legendCanvas string
	legendImage  string
)

var legendCmd = &cobra.Command{
	Use:   "legend <command>",
	Short: "Edit legend rows",
}

var legendEditCmd = &cobra.Command{
	Use:   "edit <id|color>",
	Short: "Change the name, date or color of a plant",
	Long: `Change a legend row, addressed by its id or its current color.

Changing the color repaints every shape of that plant. The new color must
not belong to another plant. --canvas saves an edited drawing with the same
change; shapes removed from it drop their legend row.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		edit := legend.EntryEdit{Ref: args[0]}
		if cmd.Flags().Changed("name") {
			edit.Name = &legendName
		}
		if cmd.Flags().Changed("date") {
			edit.PlantedDate = &legendDate
		}
		if cmd.Flags().Changed("color") {
			edit.Color = &legendColor
		}

		a, err := loadApp(legendImage != "")
		if err != nil {
			return err
		}

		var sub garden.Submission
		if legendCanvas != "" {
			if sub, err = readCanvas(legendCanvas); err != nil {
				return err
			}
		}
		if sub.Raster, err = readRaster(legendImage); err != nil {
			return err
		}

		sess, err := session.New().StartEdit()
		if err != nil {
			return err
		}
		_, snap, err := a.svc.EditLayout(sess, sub, []legend.EntryEdit{edit})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(map[string]any{"key": snap.Key, "legend": snap.Legend})
		}
		fmt.Printf("Saved %s\n", snap.Key)
		for _, e := range snap.Legend {
			fmt.Printf("  %s %s %s\n", color.Swatch(e.Color), e.Name, e.PlantedDate)
		}
		return nil
	},
}

func init() {
	legendEditCmd.Flags().StringVar(&legendName, "name", "", "new plant name")
	legendEditCmd.Flags().StringVar(&legendDate, "date", "", "new planting date, YYYYMMDD")
	legendEditCmd.Flags().StringVar(&legendColor, "color", "", "new fill color, #RRGGBB")
	legendEditCmd.Flags().StringVar(&legendCanvas, "canvas", "", "canvas JSON with an edited drawing")
	legendEditCmd.Flags().StringVar(&legendImage, "image", "", "rendered canvas overlay for the preview")
	legendCmd.AddCommand(legendEditCmd)
	rootCmd.AddCommand(legendCmd)
}
