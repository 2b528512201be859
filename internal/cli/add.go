package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grantoftegaard/garden/internal/session"
	"github.com/grantoftegaard/garden/pkg/color"
)

var (
	addName   string
	addDate   string
	addColor  string
	addTool   string
	addCanvas string
	addImage  string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a plant drawn on the canvas",
	Long: `Add a plant.

--canvas is the full drawing after the plant was drawn on it, as exported by
the canvas. The new plant's shapes must use --color, which must not belong
to a plant already in the legend. --date defaults to today.

Example:
  garden add --name Tomato --date 20240601 --color '#FF0000' --canvas drawing.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(addImage != "")
		if err != nil {
			return err
		}

		sess, err := session.New().StartAdd(a.svc.NewForm())
		if err != nil {
			return err
		}
		form := sess.Form
		form.Name = addName
		if addDate != "" {
			form.PlantedDate = addDate
		}
		if addColor != "" {
			form.Color = addColor
		}
		if addTool != "" {
			tool, err := session.ParseTool(addTool)
			if err != nil {
				return err
			}
			form.Tool = tool
		}
		if sess, err = sess.WithForm(form); err != nil {
			return err
		}

		sub, err := readCanvas(addCanvas)
		if err != nil {
			return err
		}
		if sub.Raster, err = readRaster(addImage); err != nil {
			return err
		}

		_, snap, err := a.svc.AddPlant(sess, sub)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(map[string]any{"key": snap.Key, "legend": snap.Legend})
		}
		fmt.Printf("Added %s %s planted %s\n", color.Swatch(form.Color), color.Success(form.Name), form.PlantedDate)
		fmt.Printf("  Saved as %s\n", snap.Key)
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addName, "name", "", "plant name (required)")
	addCmd.Flags().StringVar(&addDate, "date", "", "planting date, YYYYMMDD")
	addCmd.Flags().StringVar(&addColor, "color", "", "fill color of the plant's shapes, #RRGGBB")
	addCmd.Flags().StringVar(&addTool, "tool", "", "drawing tool the plant was drawn with")
	addCmd.Flags().StringVar(&addCanvas, "canvas", "", "canvas JSON with the new drawing (required)")
	addCmd.Flags().StringVar(&addImage, "image", "", "rendered canvas overlay (PNG or raw RGBA) for the preview")
	addCmd.MarkFlagRequired("canvas")
	rootCmd.AddCommand(addCmd)
}
