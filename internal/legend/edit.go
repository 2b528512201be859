package legend

import (
	"github.com/grantoftegaard/garden/pkg/errclass"
	"github.com/grantoftegaard/garden/pkg/model"
	"github.com/grantoftegaard/garden/pkg/pathutil"
)

// EntryEdit changes one legend row. Ref is the row id or its current color;
// nil fields are left alone.
type EntryEdit struct {
	Ref         string  `json:"ref"`
	Color       *string `json:"color,omitempty"`
	Name        *string `json:"name,omitempty"`
	PlantedDate *string `json:"date,omitempty"`
}

// ApplyEdit applies edit to copies of entries and shapes. A color change
// repaints every plant shape that used the old color, and is refused when
// another row already owns the new color.
func ApplyEdit(entries []model.LegendEntry, shapes []model.Shape, edit EntryEdit) ([]model.LegendEntry, []model.Shape, error) {
	idx, ok := Find(entries, edit.Ref)
	if !ok {
		return nil, nil, errclass.ErrLegendEntryNotFound.WithMessagef("no legend row %q", edit.Ref)
	}

	outEntries := append([]model.LegendEntry(nil), entries...)
	outShapes := append([]model.Shape(nil), shapes...)
	entry := outEntries[idx]

	if edit.Name != nil {
		name, err := pathutil.NormalizePlantName(*edit.Name)
		if err != nil {
			return nil, nil, errclass.ErrFormInvalid.WithMessage(err.Error())
		}
		entry.Name = name
	}

	if edit.PlantedDate != nil {
		if _, err := model.ParsePlantedDate(*edit.PlantedDate); err != nil {
			return nil, nil, errclass.ErrFormInvalid.WithMessage(err.Error())
		}
		entry.PlantedDate = *edit.PlantedDate
	}

	if edit.Color != nil && !model.SameColor(*edit.Color, entry.Color) {
		newColor := *edit.Color
		if !model.IsHexColor(newColor) {
			return nil, nil, errclass.ErrFormInvalid.WithMessagef("color must be #RRGGBB, got %q", newColor)
		}
		for i, other := range outEntries {
			if i != idx && model.SameColor(other.Color, newColor) {
				return nil, nil, errclass.ErrColorInUse.WithMessagef("%s already belongs to %s", newColor, other.Name)
			}
		}
		for i, sh := range outShapes {
			if sh.IsPlant() && model.SameColor(sh.FillColor, entry.Color) {
				sh.FillColor = newColor
				outShapes[i] = sh
			}
		}
		entry.Color = newColor
	} else if edit.Color != nil {
		// Same color in a different spelling.
		entry.Color = *edit.Color
		for i, sh := range outShapes {
			if sh.IsPlant() && model.SameColor(sh.FillColor, entry.Color) {
				sh.FillColor = entry.Color
				outShapes[i] = sh
			}
		}
	}

	outEntries[idx] = entry
	return outEntries, Annotate(outShapes, outEntries), nil
}
