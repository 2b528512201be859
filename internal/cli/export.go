package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/grantoftegaard/garden/pkg/color"
	"github.com/grantoftegaard/garden/pkg/fsutil"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the current layout as indented JSON",
	Long: `Export the current layout as indented JSON.

Without -o the document is written to stdout. With -o pointing at a
directory, the file is named after the latest snapshot key.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(false)
		if err != nil {
			return err
		}
		name, data, err := a.svc.Export()
		if err != nil {
			return err
		}

		if exportOutput == "" {
			_, err := os.Stdout.Write(data)
			return err
		}

		path := exportOutput
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			path = path + string(os.PathSeparator) + name
		}
		if err := fsutil.AtomicWrite(path, data, 0644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		if jsonOutput {
			return outputJSON(map[string]any{"path": path, "name": name, "bytes": len(data)})
		}
		fmt.Printf("Exported %s to %s\n", name, color.Success(path))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file or directory")
	rootCmd.AddCommand(exportCmd)
}
