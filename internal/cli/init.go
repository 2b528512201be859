package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/grantoftegaard/garden/pkg/color"
	"github.com/grantoftegaard/garden/pkg/config"
	"github.com/grantoftegaard/garden/pkg/model"
)

var initBase string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the garden history",
	Long: `Initialize the garden history.

This creates:
  - garden.yaml with default settings, unless it already exists
  - the data directory
  - the first snapshot, seeded from --base when given

The shapes of the base layout become background: they are never treated as
plants and need no legend rows. Running init on an existing history does
nothing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		wroteConfig := false
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			if err := config.Save(configPath, config.Default()); err != nil {
				return err
			}
			wroteConfig = true
		}

		a, err := loadApp(false)
		if err != nil {
			return err
		}

		var base []model.Shape
		if initBase != "" {
			sub, err := readCanvas(initBase)
			if err != nil {
				return err
			}
			base = sub.Shapes
		}

		key, created, err := a.svc.Bootstrap(base)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(map[string]any{
				"data_dir":     a.cfg.DataDir,
				"key":          key,
				"created":      created,
				"config_path":  configPath,
				"config_wrote": wroteConfig,
				"base_shapes":  len(base),
			})
		}
		if wroteConfig {
			fmt.Printf("Wrote %s\n", color.Key(configPath))
		}
		if created {
			fmt.Printf("Initialized garden history in %s\n", color.Success(a.cfg.DataDir))
			fmt.Printf("  Base layout: %d shape(s) in %s\n", len(base), key)
		} else {
			fmt.Printf("Garden history already initialized (latest %s)\n", key)
		}
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initBase, "base", "", "canvas JSON with the base layout")
	rootCmd.AddCommand(initCmd)
}
