package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/grantoftegaard/garden/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config <command>",
	Short: "Inspect the garden configuration",
	Long: `Inspect the configuration read from garden.yaml (or --config).

Configuration options:
  data_dir          - directory of snapshot files
  background_image  - image the layout is drawn over
  output_image      - rendered preview
  audit_log         - audit journal (JSON lines)
  listen_addr       - address of the editor API
  canvas            - width and height of the drawing surface
  defaults          - fill_color, tool and stroke_width of the add-plant form
  logging           - level (debug, info, warn, error) and format (text, json)`,
	DisableFlagsInUseLine: true,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  "Show the configuration with defaults applied and paths resolved.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(cfg)
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		fmt.Printf("# Location: %s\n", configPath)
		fmt.Print(string(data))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
