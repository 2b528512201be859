// Package legend keeps the legend of a snapshot consistent with its shapes.
//
// Fill color is the only link between a shape and its legend row, so a fill
// color must be unique per logical plant within one snapshot. Two plants
// painted the same color share one row.
package legend

import (
	"strings"

	"github.com/grantoftegaard/garden/pkg/errclass"
	"github.com/grantoftegaard/garden/pkg/model"
	"github.com/grantoftegaard/garden/pkg/uuidutil"
)

// UsedColors returns the distinct fill colors of plant shapes in draw order,
// spelled as their first shape spells them.
func UsedColors(shapes []model.Shape) []string {
	seen := make(map[string]bool)
	var out []string
	for _, sh := range shapes {
		if !sh.IsPlant() {
			continue
		}
		k := model.ColorKey(sh.FillColor)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, sh.FillColor)
	}
	return out
}

// Reconcile derives the legend for shapes from the prior legend.
//
// Rows whose color is still drawn are kept in their prior order; rows for
// colors no longer drawn are dropped. Every color that is drawn but has no
// prior row needs a caller-supplied entry in pending, appended in draw
// order. Pending entries for colors that are not drawn are ignored.
func Reconcile(prior []model.LegendEntry, shapes []model.Shape, pending []model.LegendEntry) ([]model.LegendEntry, error) {
	used := UsedColors(shapes)
	usedSet := make(map[string]bool, len(used))
	for _, c := range used {
		usedSet[model.ColorKey(c)] = true
	}

	out := make([]model.LegendEntry, 0, len(used))
	have := make(map[string]bool, len(prior))
	for _, e := range prior {
		k := model.ColorKey(e.Color)
		if !usedSet[k] || have[k] {
			continue
		}
		have[k] = true
		out = append(out, e)
	}

	var missing []string
	for _, c := range used {
		k := model.ColorKey(c)
		if have[k] {
			continue
		}
		entry, ok := findByColor(pending, c)
		if !ok {
			missing = append(missing, c)
			continue
		}
		entry.Color = c
		have[k] = true
		out = append(out, entry)
	}
	if len(missing) > 0 {
		return nil, errclass.ErrLegendMetadataMissing.WithMessagef("no name or planted date for color %s", strings.Join(missing, ", "))
	}
	return out, nil
}

// Annotate copies each plant shape's name and planted date from its legend
// row and clears them on shapes that are not plants. It returns a new slice.
func Annotate(shapes []model.Shape, entries []model.LegendEntry) []model.Shape {
	out := make([]model.Shape, len(shapes))
	for i, sh := range shapes {
		sh.Name, sh.PlantedDate = "", ""
		if sh.IsPlant() {
			if e, ok := findByColor(entries, sh.FillColor); ok {
				sh.Name, sh.PlantedDate = e.Name, e.PlantedDate
			}
		}
		out[i] = sh
	}
	return out
}

// AssignIDs returns a copy of entries where every row has an id. Rows read
// from files without ids get the id derived from their color.
func AssignIDs(entries []model.LegendEntry) []model.LegendEntry {
	out := make([]model.LegendEntry, len(entries))
	for i, e := range entries {
		if e.ID == "" {
			e.ID = uuidutil.ForColor(e.Color)
		}
		out[i] = e
	}
	return out
}

// Find returns the index of the row addressed by ref, which is either a row
// id or a color.
func Find(entries []model.LegendEntry, ref string) (int, bool) {
	for i, e := range entries {
		if e.ID != "" && e.ID == ref {
			return i, true
		}
	}
	for i, e := range entries {
		if model.SameColor(e.Color, ref) {
			return i, true
		}
	}
	return -1, false
}

func findByColor(entries []model.LegendEntry, c string) (model.LegendEntry, bool) {
	for _, e := range entries {
		if model.SameColor(e.Color, c) {
			return e, true
		}
	}
	return model.LegendEntry{}, false
}

// FormatName breaks names longer than width runes into lines of width runes.
func FormatName(name string, width int) string {
	r := []rune(name)
	if width <= 0 || len(r) <= width {
		return name
	}
	var lines []string
	for i := 0; i < len(r); i += width {
		end := i + width
		if end > len(r) {
			end = len(r)
		}
		lines = append(lines, string(r[i:end]))
	}
	return strings.Join(lines, "\n")
}
