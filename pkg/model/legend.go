package model

// LegendEntry is one distinct plant in the legend. Color is the join key to
// the shapes of the same snapshot; ID only addresses the row.
type LegendEntry struct {
	ID          string `json:"id,omitempty"`
	Color       string `json:"color"`
	Name        string `json:"name"`
	PlantedDate string `json:"date"`
}
