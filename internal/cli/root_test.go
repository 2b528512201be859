package cli

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gcolor "github.com/grantoftegaard/garden/pkg/color"
	"github.com/grantoftegaard/garden/pkg/model"
)

func executeCommand(root *cobra.Command, args ...string) (stdout string, err error) {
	// Capture os.Stdout since the CLI prints with fmt.Printf directly
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		done <- buf.String()
	}()

	root.SetArgs(args)
	err = root.Execute()

	w.Close()
	os.Stdout = oldStdout
	return <-done, err
}

func setupTestDir(t *testing.T) string {
	dir := t.TempDir()
	originalWd, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		os.Chdir(originalWd)
	})
	return dir
}

func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
		} else {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func createTestRootCmd() *cobra.Command {
	gcolor.Disable()
	jsonOutput = false
	noColor = false

	cmd := &cobra.Command{
		Use:           "garden",
		Short:         "garden - garden plot layout editor",
		Long:          `garden keeps the layout of a garden plot.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addPersistentFlags(cmd)

	for _, sub := range []*cobra.Command{
		initCmd, showCmd, historyCmd, exportCmd, addCmd, legendCmd,
		diffCmd, renderCmd, doctorCmd, configCmd, completionCmd,
	} {
		resetFlags(sub)
		cmd.AddCommand(sub)
	}
	return cmd
}

// run executes one command line on a fresh root.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeCommand(createTestRootCmd(), args...)
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const (
	baseCanvas   = `{"version":"4.4.0","objects":[{"type":"path","path":[["M",0,0]],"fill":"#88AA55"}]}`
	tomatoCanvas = `{"version":"4.4.0","objects":[{"type":"path","path":[["M",0,0]],"fill":"#88AA55"},{"type":"rect","left":10,"top":10,"width":20,"height":20,"fill":"#FF0000"}]}`
)

func initWithTomato(t *testing.T) string {
	t.Helper()
	dir := setupTestDir(t)
	base := writeFile(t, filepath.Join(dir, "base.json"), baseCanvas)
	_, err := run(t, "init", "--base", base)
	require.NoError(t, err)

	canvas := writeFile(t, filepath.Join(dir, "tomato.json"), tomatoCanvas)
	_, err = run(t, "add", "--name", "Tomato", "--date", "20240601", "--color", "#FF0000", "--canvas", canvas)
	require.NoError(t, err)
	return dir
}

func TestRootCommand_Help(t *testing.T) {
	stdout, err := run(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, stdout, "layout of a garden plot")
}

func TestRootCommand_JSONFlag(t *testing.T) {
	_, err := run(t, "--json", "--help")
	require.NoError(t, err)
	assert.True(t, jsonOutput)
}

func TestInitCommand_CreatesHistory(t *testing.T) {
	dir := setupTestDir(t)
	stdout, err := run(t, "init")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Wrote garden.yaml")
	assert.Contains(t, stdout, "Initialized garden history")
	assert.FileExists(t, filepath.Join(dir, "garden.yaml"))

	entries, err := os.ReadDir(filepath.Join(dir, "data"))
	require.NoError(t, err)
	var snapshots int
	for _, e := range entries {
		if _, ok := model.KeyFromFilename(e.Name()); ok {
			snapshots++
		}
	}
	assert.Equal(t, 1, snapshots)

	stdout, err = run(t, "init")
	require.NoError(t, err)
	assert.Contains(t, stdout, "already initialized")
}

func TestAddCommand_ThenShow(t *testing.T) {
	initWithTomato(t)

	stdout, err := run(t, "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[#FF0000] Tomato")
	assert.Contains(t, stdout, "20240601")
	assert.Contains(t, stdout, "2 shape(s), 1 plant(s)")

	stdout, err = run(t, "--json", "show")
	require.NoError(t, err)
	var out struct {
		Plants int                 `json:"plants"`
		Legend []model.LegendEntry `json:"legend"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, 1, out.Plants)
	require.Len(t, out.Legend, 1)
	assert.Equal(t, "Tomato", out.Legend[0].Name)
}

func TestAddCommand_Errors(t *testing.T) {
	dir := initWithTomato(t)
	canvas := writeFile(t, filepath.Join(dir, "basil.json"),
		`{"objects":[{"type":"path","path":[["M",0,0]],"fill":"#88AA55"},{"type":"circle","fill":"#00AA00"}]}`)

	_, err := run(t, "add", "--color", "#00AA00", "--canvas", canvas)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "please enter a name")

	_, err = run(t, "add", "--name", "Pepper", "--color", "#FF0000", "--canvas", canvas)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E_COLOR_IN_USE")

	_, err = run(t, "add", "--name", "Basil", "--color", "#00AA00", "--canvas", filepath.Join(dir, "tomato.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E_NO_CHANGE")
}

func TestHistoryCommand(t *testing.T) {
	initWithTomato(t)

	stdout, err := run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, stdout, "(current)")

	stdout, err = run(t, "--json", "history")
	require.NoError(t, err)
	var keys []string
	require.NoError(t, json.Unmarshal([]byte(stdout), &keys))
	assert.Len(t, keys, 2)

	stdout, err = run(t, "--json", "history", "-n", "1")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(stdout), &keys))
	assert.Len(t, keys, 1)
}

func TestExportCommand(t *testing.T) {
	dir := initWithTomato(t)
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(outDir, 0755))

	_, err := run(t, "export", "-o", outDir)
	require.NoError(t, err)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	_, ok := model.KeyFromFilename(entries[0].Name())
	assert.True(t, ok, entries[0].Name())

	data, err := os.ReadFile(filepath.Join(outDir, entries[0].Name()))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("{\n    \"canvas_data\"")))

	stdout, err := run(t, "export")
	require.NoError(t, err)
	assert.Equal(t, string(data), stdout)
}

func TestLegendEditCommand(t *testing.T) {
	initWithTomato(t)

	_, err := run(t, "legend", "edit", "#ff0000", "--color", "#AA0000", "--name", "Cherry tomato")
	require.NoError(t, err)

	stdout, err := run(t, "--json", "show")
	require.NoError(t, err)
	var out struct {
		Legend []model.LegendEntry `json:"legend"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	require.Len(t, out.Legend, 1)
	assert.Equal(t, "#AA0000", out.Legend[0].Color)
	assert.Equal(t, "Cherry tomato", out.Legend[0].Name)
	assert.Equal(t, "20240601", out.Legend[0].PlantedDate)

	_, err = run(t, "legend", "edit", "#123456", "--name", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E_LEGEND_ENTRY_NOT_FOUND")
}

func TestDiffCommand(t *testing.T) {
	initWithTomato(t)

	stdout, err := run(t, "diff")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Legend (1):")
	assert.Contains(t, stdout, "+ #FF0000 Tomato 20240601")

	_, err = run(t, "diff", "2001-01-01 - 00:00:00")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "garden history")
}

func TestRenderCommand(t *testing.T) {
	dir := setupTestDir(t)
	_, err := run(t, "init")
	require.NoError(t, err)

	img := image.NewNRGBA(image.Rect(0, 0, 1600, 1000))
	img.Set(5, 5, color.NRGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	overlay := filepath.Join(dir, "overlay.png")
	require.NoError(t, os.WriteFile(overlay, buf.Bytes(), 0644))

	stdout, err := run(t, "render", "--image", overlay)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Preview written")
	assert.FileExists(t, filepath.Join(dir, "img", "current_layout.png"))
}

func TestDoctorCommand(t *testing.T) {
	dir := initWithTomato(t)
	// No background image in this garden.
	stdout, err := run(t, "doctor")
	require.NoError(t, err)
	assert.Contains(t, stdout, "background image missing")

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "img"), 0755))
	writeFile(t, filepath.Join(dir, "img", "background.png"), "png")
	stdout, err = run(t, "doctor", "--strict")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Garden is healthy.")

	writeFile(t, filepath.Join(dir, "data", "2099-01-01 - 00:00:00.json"), "{broken")
	_, err = run(t, "doctor")
	assert.ErrorIs(t, err, errUnhealthy)
}

func TestDoctorCommand_Repair(t *testing.T) {
	dir := initWithTomato(t)
	writeFile(t, filepath.Join(dir, "data", ".garden-tmp-123"), "partial")

	stdout, err := run(t, "doctor", "--list-repairs")
	require.NoError(t, err)
	assert.Contains(t, stdout, "clean_tmp")

	stdout, err = run(t, "doctor", "--repair", "clean_tmp")
	require.NoError(t, err)
	assert.Contains(t, stdout, "removed 1 temp file(s)")
	assert.NoFileExists(t, filepath.Join(dir, "data", ".garden-tmp-123"))
}

func TestConfigShowCommand(t *testing.T) {
	setupTestDir(t)
	stdout, err := run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "data_dir:")
	assert.Contains(t, stdout, "fill_color:")
	assert.Contains(t, stdout, "#0E28D0")
}

func TestSuggestKeys(t *testing.T) {
	keys := []model.SnapshotKey{"2024-06-01 - 12:00:00", "2024-06-01 - 12:05:00", "2024-07-01 - 08:00:00"}
	assert.Contains(t, suggestKeys("2024-06-01 - 12:01:00", keys), "Did you mean one of: 2024-06-01 - 12:00:00, 2024-06-01 - 12:05:00?")
	assert.Contains(t, suggestKeys("yesterday", keys), "garden history")
	assert.Contains(t, suggestKeys("x", nil), "garden init")
}

func TestCompletionCommand(t *testing.T) {
	stdout, err := run(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, stdout, "garden")

	_, err = run(t, "completion", "tcsh")
	assert.Error(t, err)
}

func TestCompleteKeys_NewestFirst(t *testing.T) {
	initWithTomato(t)
	createTestRootCmd()

	keys, directive := completeKeys(diffCmd, nil, "")
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp|cobra.ShellCompDirectiveKeepOrder, directive)
	require.Len(t, keys, 2)
	assert.True(t, model.SnapshotKey(keys[1]).Before(model.SnapshotKey(keys[0])))

	keys, _ = completeKeys(diffCmd, nil, "1999")
	assert.Empty(t, keys)

	keys, _ = completeKeys(diffCmd, []string{"a", "b"}, "")
	assert.Nil(t, keys)
}
