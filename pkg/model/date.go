package model

import (
	"fmt"
	"time"
)

// PlantedDateLayout is the YYYYMMDD layout of planted dates.
const PlantedDateLayout = "20060102"

// ParsePlantedDate parses a YYYYMMDD date.
func ParsePlantedDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(PlantedDateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("planted date %q: want YYYYMMDD", s)
	}
	return t, nil
}

// FormatPlantedDate formats t as YYYYMMDD.
func FormatPlantedDate(t time.Time) string {
	return t.Format(PlantedDateLayout)
}
