// Package diff compares two layout snapshots.
package diff

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/grantoftegaard/garden/pkg/model"
)

// ChangeType represents the type of change to a shape or legend row.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeRemoved  ChangeType = "removed"
	ChangeModified ChangeType = "modified"
)

// ShapeChange is one shape that differs between the two snapshots. Index is
// the shape's position in the newer snapshot for added and modified shapes
// and in the older one for removed shapes.
type ShapeChange struct {
	Index    int        `json:"index"`
	Type     ChangeType `json:"type"`
	Kind     string     `json:"kind,omitempty"`
	OldFill  string     `json:"old_fill,omitempty"`
	NewFill  string     `json:"new_fill,omitempty"`
	Geometry bool       `json:"geometry_changed,omitempty"`
}

// LegendChange is one legend row that differs, matched by color.
type LegendChange struct {
	Color string             `json:"color"`
	Type  ChangeType         `json:"type"`
	Old   *model.LegendEntry `json:"old,omitempty"`
	New   *model.LegendEntry `json:"new,omitempty"`
}

// Result represents the result of comparing two snapshots.
type Result struct {
	FromKey       model.SnapshotKey `json:"from_key"`
	ToKey         model.SnapshotKey `json:"to_key"`
	FromTime      time.Time         `json:"from_time"`
	ToTime        time.Time         `json:"to_time"`
	Shapes        []ShapeChange     `json:"shapes"`
	Legend        []LegendChange    `json:"legend"`
	TotalAdded    int               `json:"total_added"`
	TotalRemoved  int               `json:"total_removed"`
	TotalModified int               `json:"total_modified"`
}

// Compare reports how to differs from from. A nil from compares against an
// empty layout.
func Compare(from, to *model.Snapshot) *Result {
	if from == nil {
		from = &model.Snapshot{}
	}
	r := &Result{
		FromKey:  from.Key,
		ToKey:    to.Key,
		FromTime: from.CreatedAt,
		ToTime:   to.CreatedAt,
		Shapes:   []ShapeChange{},
		Legend:   []LegendChange{},
	}

	// Shapes are compared by position since the canvas gives them no identity.
	n := len(from.Shapes)
	if len(to.Shapes) > n {
		n = len(to.Shapes)
	}
	for i := 0; i < n; i++ {
		switch {
		case i >= len(from.Shapes):
			sh := to.Shapes[i]
			r.Shapes = append(r.Shapes, ShapeChange{Index: i, Type: ChangeAdded, Kind: shapeKind(sh), NewFill: sh.FillColor})
		case i >= len(to.Shapes):
			sh := from.Shapes[i]
			r.Shapes = append(r.Shapes, ShapeChange{Index: i, Type: ChangeRemoved, Kind: shapeKind(sh), OldFill: sh.FillColor})
		default:
			a, b := from.Shapes[i], to.Shapes[i]
			geom := !bytes.Equal(a.Geometry, b.Geometry)
			if geom || a.FillColor != b.FillColor || a.Background != b.Background {
				r.Shapes = append(r.Shapes, ShapeChange{
					Index:    i,
					Type:     ChangeModified,
					Kind:     shapeKind(b),
					OldFill:  a.FillColor,
					NewFill:  b.FillColor,
					Geometry: geom,
				})
			}
		}
	}

	for _, e := range from.Legend {
		e := e
		nw, ok := findRow(to.Legend, e.Color)
		switch {
		case !ok:
			r.Legend = append(r.Legend, LegendChange{Color: e.Color, Type: ChangeRemoved, Old: &e})
		case nw.Name != e.Name || nw.PlantedDate != e.PlantedDate:
			r.Legend = append(r.Legend, LegendChange{Color: e.Color, Type: ChangeModified, Old: &e, New: &nw})
		}
	}
	for _, e := range to.Legend {
		e := e
		if _, ok := findRow(from.Legend, e.Color); !ok {
			r.Legend = append(r.Legend, LegendChange{Color: e.Color, Type: ChangeAdded, New: &e})
		}
	}

	for _, c := range r.Shapes {
		r.count(c.Type)
	}
	for _, c := range r.Legend {
		r.count(c.Type)
	}
	return r
}

func (r *Result) count(t ChangeType) {
	switch t {
	case ChangeAdded:
		r.TotalAdded++
	case ChangeRemoved:
		r.TotalRemoved++
	case ChangeModified:
		r.TotalModified++
	}
}

// Empty reports whether the two snapshots describe the same layout.
func (r *Result) Empty() bool {
	return len(r.Shapes) == 0 && len(r.Legend) == 0
}

// ShapesChanged reports whether the drawing itself differs.
func (r *Result) ShapesChanged() bool {
	return len(r.Shapes) > 0
}

func findRow(entries []model.LegendEntry, c string) (model.LegendEntry, bool) {
	for _, e := range entries {
		if model.SameColor(e.Color, c) {
			return e, true
		}
	}
	return model.LegendEntry{}, false
}

func shapeKind(sh model.Shape) string {
	if sh.IsPlant() {
		return "plant"
	}
	if sh.Background {
		return "background"
	}
	return "shape"
}

// FormatHuman returns a human-readable string representation of the diff.
func (r *Result) FormatHuman() string {
	var sb strings.Builder

	from := string(r.FromKey)
	if from == "" {
		from = "(empty)"
	}
	sb.WriteString(fmt.Sprintf("Diff %s -> %s\n\n", from, r.ToKey))

	if len(r.Shapes) > 0 {
		sb.WriteString(fmt.Sprintf("Shapes (%d):\n", len(r.Shapes)))
		for _, c := range r.Shapes {
			switch c.Type {
			case ChangeAdded:
				sb.WriteString(fmt.Sprintf("  + #%d %s %s\n", c.Index, c.Kind, c.NewFill))
			case ChangeRemoved:
				sb.WriteString(fmt.Sprintf("  - #%d %s %s\n", c.Index, c.Kind, c.OldFill))
			default:
				sb.WriteString(fmt.Sprintf("  ~ #%d %s", c.Index, c.Kind))
				if c.OldFill != c.NewFill {
					sb.WriteString(fmt.Sprintf(" (%s -> %s)", c.OldFill, c.NewFill))
				}
				if c.Geometry {
					sb.WriteString(" moved/reshaped")
				}
				sb.WriteString("\n")
			}
		}
		sb.WriteString("\n")
	}

	if len(r.Legend) > 0 {
		sb.WriteString(fmt.Sprintf("Legend (%d):\n", len(r.Legend)))
		for _, c := range r.Legend {
			switch c.Type {
			case ChangeAdded:
				sb.WriteString(fmt.Sprintf("  + %s %s %s\n", c.Color, c.New.Name, c.New.PlantedDate))
			case ChangeRemoved:
				sb.WriteString(fmt.Sprintf("  - %s %s\n", c.Color, c.Old.Name))
			default:
				sb.WriteString(fmt.Sprintf("  ~ %s %s/%s -> %s/%s\n", c.Color, c.Old.Name, c.Old.PlantedDate, c.New.Name, c.New.PlantedDate))
			}
		}
		sb.WriteString("\n")
	}

	if r.Empty() {
		sb.WriteString("No change.\n")
	}

	return sb.String()
}
