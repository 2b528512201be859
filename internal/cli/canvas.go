package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/grantoftegaard/garden/internal/garden"
	"github.com/grantoftegaard/garden/pkg/model"
)

// readCanvas loads a drawing from path. Both a canvas export
// ({"version":..,"objects":[..]}) and a full snapshot file are accepted.
func readCanvas(path string) (garden.Submission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return garden.Submission{}, fmt.Errorf("read canvas: %w", err)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return garden.Submission{}, fmt.Errorf("parse canvas %s: %w", path, err)
	}

	if _, ok := probe["canvas_data"]; ok {
		var snap model.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return garden.Submission{}, fmt.Errorf("parse snapshot %s: %w", path, err)
		}
		return garden.Submission{Shapes: snap.Shapes, CanvasVersion: snap.CanvasVersion}, nil
	}

	var sub garden.Submission
	if err := json.Unmarshal(data, &sub); err != nil {
		return garden.Submission{}, fmt.Errorf("parse canvas %s: %w", path, err)
	}
	if sub.Shapes == nil {
		sub.Shapes = []model.Shape{}
	}
	return sub, nil
}

// readRaster loads the overlay image handed to the renderer.
func readRaster(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}
