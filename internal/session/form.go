package session

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/grantoftegaard/garden/pkg/config"
	"github.com/grantoftegaard/garden/pkg/errclass"
	"github.com/grantoftegaard/garden/pkg/model"
	"github.com/grantoftegaard/garden/pkg/pathutil"
)

// Tool is a canvas drawing mode.
type Tool string

const (
	ToolRect     Tool = "rect"
	ToolFreedraw Tool = "freedraw"
	ToolLine     Tool = "line"
	ToolCircle   Tool = "circle"
	ToolPoint    Tool = "point"
)

// Tools lists the drawing modes in menu order.
var Tools = []Tool{ToolRect, ToolFreedraw, ToolLine, ToolCircle, ToolPoint}

// Stroke width bounds of the form.
const (
	MinStrokeWidth = 1
	MaxStrokeWidth = 15
)

var titleCaser = cases.Title(language.English)

// ToolLabel is the menu label of t.
func ToolLabel(t Tool) string {
	if t == ToolRect {
		return "Rectangle"
	}
	return titleCaser.String(string(t))
}

// ParseTool accepts a tool name or its menu label.
func ParseTool(s string) (Tool, error) {
	for _, t := range Tools {
		if s == string(t) || s == ToolLabel(t) {
			return t, nil
		}
	}
	return "", errclass.ErrFormInvalid.WithMessagef("unknown drawing tool %q", s)
}

// PlantForm is the add-plant form.
type PlantForm struct {
	Name        string `json:"name"`
	PlantedDate string `json:"date"`
	Color       string `json:"color"`
	Tool        Tool   `json:"tool"`
	StrokeWidth int    `json:"stroke_width"`
}

// DefaultForm is the form as it appears when adding starts.
func DefaultForm(d config.DefaultsConfig, today time.Time) PlantForm {
	return PlantForm{
		PlantedDate: model.FormatPlantedDate(today),
		Color:       d.FillColor,
		Tool:        Tool(d.Tool),
		StrokeWidth: d.StrokeWidth,
	}
}

// Validate returns the form with its name normalized, or ErrFormInvalid.
func (f PlantForm) Validate() (PlantForm, error) {
	name, err := pathutil.NormalizePlantName(f.Name)
	if err != nil {
		var ge *errclass.GardenError
		msg := err.Error()
		if errors.As(err, &ge) {
			msg = ge.Message
		}
		return f, errclass.ErrFormInvalid.WithMessage(msg)
	}
	f.Name = name

	if _, err := model.ParsePlantedDate(f.PlantedDate); err != nil {
		return f, errclass.ErrFormInvalid.WithMessage(err.Error())
	}
	if !model.IsHexColor(f.Color) {
		return f, errclass.ErrFormInvalid.WithMessagef("color must be #RRGGBB, got %q", f.Color)
	}
	if _, err := ParseTool(string(f.Tool)); err != nil {
		return f, err
	}
	if f.StrokeWidth < MinStrokeWidth || f.StrokeWidth > MaxStrokeWidth {
		return f, errclass.ErrFormInvalid.WithMessage(fmt.Sprintf("stroke width must be between %d and %d", MinStrokeWidth, MaxStrokeWidth))
	}
	return f, nil
}

// Entry is the legend row the form describes.
func (f PlantForm) Entry() model.LegendEntry {
	return model.LegendEntry{Color: f.Color, Name: f.Name, PlantedDate: f.PlantedDate}
}
