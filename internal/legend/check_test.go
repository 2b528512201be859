package legend_test

import (
	"testing"

	"github.com/grantoftegaard/garden/internal/legend"
	"github.com/grantoftegaard/garden/pkg/model"
	"github.com/stretchr/testify/assert"
)

func kinds(problems []legend.Problem) map[legend.ProblemKind]string {
	out := map[legend.ProblemKind]string{}
	for _, p := range problems {
		out[p.Kind] = p.Color
	}
	return out
}

func TestCheck_Consistent(t *testing.T) {
	snap := &model.Snapshot{
		Shapes: legend.Annotate([]model.Shape{background(t), rect(t, "#FF0000")},
			[]model.LegendEntry{{Color: "#ff0000", Name: "Tomato", PlantedDate: "20240601"}}),
		Legend: []model.LegendEntry{{Color: "#ff0000", Name: "Tomato", PlantedDate: "20240601"}},
	}
	assert.Empty(t, legend.Check(snap))
}

func TestCheck_ReportsEveryProblem(t *testing.T) {
	stale := rect(t, "#00AA00")
	stale.Name = "Basil"
	stale.PlantedDate = "20240101"

	snap := &model.Snapshot{
		Shapes: []model.Shape{background(t), rect(t, "#FF0000"), stale, rect(t, "#0000FF")},
		Legend: []model.LegendEntry{
			{Color: "#FF0000", Name: "Tomato", PlantedDate: "20240601"},
			{Color: "#ff0000", Name: "Tomato again", PlantedDate: "20240601"},
			{Color: "#00AA00", Name: "Thai basil", PlantedDate: "20240101"},
			{Color: "#123456", Name: "Gone", PlantedDate: "2024-01-01"},
			{Color: "red", Name: "Named color"},
		},
	}

	got := kinds(legend.Check(snap))
	assert.Equal(t, "#ff0000", got[legend.ProblemDuplicate])
	assert.Equal(t, "#0000FF", got[legend.ProblemMissing])
	assert.Equal(t, "#00AA00", got[legend.ProblemStaleShape])
	assert.Equal(t, "#123456", got[legend.ProblemInvalidDate])
	assert.Equal(t, "red", got[legend.ProblemInvalidColor])
	assert.Contains(t, []string{"#123456", "red"}, got[legend.ProblemOrphan])
}

func TestCheck_BackgroundNeedsNoRow(t *testing.T) {
	snap := &model.Snapshot{Shapes: []model.Shape{background(t)}}
	assert.Empty(t, legend.Check(snap))
}

func TestCheck_CountsEachProblemOnce(t *testing.T) {
	snap := &model.Snapshot{
		Shapes: []model.Shape{rect(t, "#FF0000"), rect(t, "#0000FF")},
		Legend: []model.LegendEntry{
			{Color: "#FF0000", Name: "Tomato", PlantedDate: "20240601"},
			{Color: "#ff0000", Name: "Tomato again"},
			{Color: "#00FF00", Name: "Ghost", PlantedDate: "June"},
		},
	}
	counts := map[legend.ProblemKind]int{}
	for _, p := range legend.Check(snap) {
		counts[p.Kind]++
	}
	assert.Equal(t, 1, counts[legend.ProblemDuplicate])
	assert.Equal(t, 1, counts[legend.ProblemOrphan])
	assert.Equal(t, 1, counts[legend.ProblemMissing])
	assert.Equal(t, 1, counts[legend.ProblemInvalidDate])
}

func TestCheck_EditedLegendIsClean(t *testing.T) {
	entries, shapes := editFixture(t)
	assert.Empty(t, legend.Check(&model.Snapshot{Shapes: shapes, Legend: entries}))
}
