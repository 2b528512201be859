package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grantoftegaard/garden/pkg/color"
)

var renderImage string

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Refresh the layout preview",
	Long: `Composite a rendered canvas overlay onto the background image and replace
the preview file. The layout history is not touched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		raster, err := readRaster(renderImage)
		if err != nil {
			return err
		}
		a, err := loadApp(true)
		if err != nil {
			return err
		}
		if err := a.svc.Render(raster); err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(map[string]any{"output": a.cfg.OutputImage})
		}
		fmt.Printf("Preview written to %s\n", color.Success(a.cfg.OutputImage))
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVar(&renderImage, "image", "", "rendered canvas overlay (PNG or raw RGBA)")
	renderCmd.MarkFlagRequired("image")
	rootCmd.AddCommand(renderCmd)
}
