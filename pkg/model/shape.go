package model

import (
	"encoding/json"
	"fmt"

	"github.com/grantoftegaard/garden/pkg/jsonutil"
)

// Keys of a canvas object that the store interprets. Everything else in the
// object belongs to the drawing surface and is passed through untouched.
const (
	fillKey       = "fill"
	plantNameKey  = "plant_name"
	plantDateKey  = "planted_date"
	baseLayoutKey = "base_layout"
)

// Shape is one drawn object on the canvas.
type Shape struct {
	// Geometry is the canvas object minus the fields below. ParseShape and
	// Store.Save keep it in canonical JSON form; comparisons rely on that.
	Geometry json.RawMessage
	// FillColor doubles as the join key to a legend entry.
	FillColor   string
	Name        string
	PlantedDate string
	// Background marks base-layout shapes seeded at bootstrap.
	Background bool
}

// ParseShape reads one canvas object as the drawing surface emits it.
func ParseShape(raw []byte) (Shape, error) {
	var s Shape
	if err := s.UnmarshalJSON(raw); err != nil {
		return Shape{}, err
	}
	return s, nil
}

// IsPlant reports whether the shape denotes a plant: a non-background shape
// filled with a #RRGGBB color.
func (s Shape) IsPlant() bool {
	return !s.Background && IsHexColor(s.FillColor)
}

// MarshalJSON writes the geometry back out as a canvas object with the fill
// and plant metadata merged in.
func (s Shape) MarshalJSON() ([]byte, error) {
	fields := map[string]json.RawMessage{}
	if len(s.Geometry) > 0 {
		if err := json.Unmarshal(s.Geometry, &fields); err != nil {
			return nil, fmt.Errorf("shape geometry: %w", err)
		}
		if fields == nil {
			fields = map[string]json.RawMessage{}
		}
	}

	// A non-string fill (null, gradient) stays in the geometry unless the
	// shape has been recolored.
	if _, ok := fields[fillKey]; !ok || s.FillColor != "" {
		if err := putString(fields, fillKey, s.FillColor); err != nil {
			return nil, err
		}
	}
	if s.Name != "" {
		if err := putString(fields, plantNameKey, s.Name); err != nil {
			return nil, err
		}
	}
	if s.PlantedDate != "" {
		if err := putString(fields, plantDateKey, s.PlantedDate); err != nil {
			return nil, err
		}
	}
	if s.Background {
		fields[baseLayoutKey] = json.RawMessage("true")
	}
	return json.Marshal(fields)
}

// UnmarshalJSON splits a canvas object into geometry and metadata.
func (s *Shape) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("shape: %w", err)
	}
	if fields == nil {
		return fmt.Errorf("shape: expected a JSON object")
	}

	var out Shape
	if raw, ok := fields[fillKey]; ok {
		var fill string
		if json.Unmarshal(raw, &fill) == nil && string(raw) != "null" {
			out.FillColor = fill
			delete(fields, fillKey)
		}
	}
	if err := takeString(fields, plantNameKey, &out.Name); err != nil {
		return err
	}
	if err := takeString(fields, plantDateKey, &out.PlantedDate); err != nil {
		return err
	}
	if raw, ok := fields[baseLayoutKey]; ok {
		if err := json.Unmarshal(raw, &out.Background); err != nil {
			return fmt.Errorf("shape %s: %w", baseLayoutKey, err)
		}
		delete(fields, baseLayoutKey)
	}

	geometry, err := jsonutil.CanonicalMarshal(fields)
	if err != nil {
		return fmt.Errorf("shape geometry: %w", err)
	}
	out.Geometry = geometry
	*s = out
	return nil
}

func takeString(fields map[string]json.RawMessage, key string, dst *string) error {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	delete(fields, key)
	if string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("shape %s: %w", key, err)
	}
	return nil
}

func putString(fields map[string]json.RawMessage, key, value string) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("shape %s: %w", key, err)
	}
	fields[key] = raw
	return nil
}
