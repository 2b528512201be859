package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/grantoftegaard/garden/pkg/color"
	"github.com/grantoftegaard/garden/pkg/config"
)

var (
	jsonOutput bool
	noColor    bool
	configPath string
	rootCmd    = &cobra.Command{
		Use:   "garden",
		Short: "garden - garden plot layout editor",
		Long: `garden keeps the layout of a garden plot: shapes drawn over a background
image, a legend naming each plant with its planting date, and a history of
timestamped snapshots of both.`,
		SilenceUsage:     true,
		SilenceErrors:    true,
		PersistentPreRun: preRun,
	}
)

func init() {
	addPersistentFlags(rootCmd)
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	cmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultFile, "path to the configuration file")
}

func preRun(cmd *cobra.Command, args []string) {
	color.Init(noColor)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmtErr("%v", err)
		os.Exit(1)
	}
}

// outputJSON prints v as JSON if --json flag is set, otherwise does nothing.
func outputJSON(v any) error {
	if !jsonOutput {
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func fmtErr(format string, args ...any) {
	prefix := "garden: "
	if color.Enabled() {
		prefix = color.Error("garden:") + " "
	}
	fmt.Fprintf(os.Stderr, prefix+format+"\n", args...)
}
