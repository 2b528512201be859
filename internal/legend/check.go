package legend

import (
	"fmt"

	"github.com/grantoftegaard/garden/pkg/model"
)

// ProblemKind classifies a legend inconsistency.
type ProblemKind string

const (
	ProblemDuplicate    ProblemKind = "duplicate"
	ProblemMissing      ProblemKind = "missing"
	ProblemOrphan       ProblemKind = "orphan"
	ProblemInvalidColor ProblemKind = "invalid_color"
	ProblemInvalidDate  ProblemKind = "invalid_date"
	ProblemStaleShape   ProblemKind = "stale_shape"
)

// Problem is one inconsistency between a legend and its shapes.
type Problem struct {
	Kind   ProblemKind `json:"kind"`
	Color  string      `json:"color"`
	Detail string      `json:"detail"`
}

// Check lists every way snap violates the one-row-per-plant-color rule.
func Check(snap *model.Snapshot) []Problem {
	var problems []Problem

	used := make(map[string]bool)
	for _, c := range UsedColors(snap.Shapes) {
		used[model.ColorKey(c)] = true
	}

	rows := make(map[string]int)
	for _, e := range snap.Legend {
		k := model.ColorKey(e.Color)
		rows[k]++
		if rows[k] == 2 {
			problems = append(problems, Problem{ProblemDuplicate, e.Color, fmt.Sprintf("color has more than one legend row (%s)", e.Name)})
		}
		if !model.IsHexColor(e.Color) {
			problems = append(problems, Problem{ProblemInvalidColor, e.Color, fmt.Sprintf("legend row %q has a color that is not #RRGGBB", e.Name)})
		}
		if e.PlantedDate != "" {
			if _, err := model.ParsePlantedDate(e.PlantedDate); err != nil {
				problems = append(problems, Problem{ProblemInvalidDate, e.Color, err.Error()})
			}
		}
		if !used[k] && rows[k] == 1 {
			problems = append(problems, Problem{ProblemOrphan, e.Color, fmt.Sprintf("legend row %q has no shape", e.Name)})
		}
	}

	for _, c := range UsedColors(snap.Shapes) {
		if rows[model.ColorKey(c)] == 0 {
			problems = append(problems, Problem{ProblemMissing, c, "plant color has no legend row"})
		}
	}

	for i, sh := range snap.Shapes {
		if !sh.IsPlant() || sh.Name == "" {
			continue
		}
		e, ok := findByColor(snap.Legend, sh.FillColor)
		if ok && (e.Name != sh.Name || e.PlantedDate != sh.PlantedDate) {
			problems = append(problems, Problem{ProblemStaleShape, sh.FillColor, fmt.Sprintf("shape %d says %q/%q, legend says %q/%q", i, sh.Name, sh.PlantedDate, e.Name, e.PlantedDate)})
		}
	}

	return problems
}
