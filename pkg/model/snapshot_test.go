package model_test

import (
	"encoding/json"
	"sort"
	"testing"
	"time"

	"github.com/grantoftegaard/garden/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSnapshotKey_Format(t *testing.T) {
	ts := time.Date(2024, 6, 1, 9, 5, 7, 999, time.UTC)
	assert.Equal(t, model.SnapshotKey("2024-06-01 - 09:05:07"), model.NewSnapshotKey(ts, 0))
	assert.Equal(t, model.SnapshotKey("2024-06-01 - 09:05:07_000002"), model.NewSnapshotKey(ts, 2))
}

func TestNewSnapshotKey_ConvertsToUTC(t *testing.T) {
	cet := time.FixedZone("CET", 3600)
	ts := time.Date(2024, 6, 1, 10, 0, 0, 0, cet)
	assert.Equal(t, model.SnapshotKey("2024-06-01 - 09:00:00"), model.NewSnapshotKey(ts, 0))
}

func TestParseSnapshotKey(t *testing.T) {
	ts, seq, err := model.ParseSnapshotKey("2024-06-01 - 09:05:07_000013")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 9, 5, 7, 0, time.UTC), ts)
	assert.Equal(t, 13, seq)

	for _, bad := range []string{"", "2024-06-01", "2024-06-01 - 09:05:07x", "2024-06-01 - 09:05:07_", "2024-06-01 - 09:05:07_abcdef", "2024-06-01 - 09:05:07-000001", "2024-06-01 - 09:05:07_001", "2024-06-01 - 09:05:07_+00001", "2024-06-01 - 09:05:07_000000", "2024-13-01 - 09:05:07"} {
		_, _, err := model.ParseSnapshotKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestKeyFromFilename(t *testing.T) {
	key, ok := model.KeyFromFilename("2024-06-01 - 09:05:07.json")
	require.True(t, ok)
	assert.Equal(t, model.SnapshotKey("2024-06-01 - 09:05:07"), key)
	assert.Equal(t, "2024-06-01 - 09:05:07.json", key.Filename())

	_, ok = model.KeyFromFilename("notes.json")
	assert.False(t, ok)
	_, ok = model.KeyFromFilename("2024-06-01 - 09:05:07.png")
	assert.False(t, ok)
}

func TestSnapshotKey_BeforeOrdersCounterAfterBareKey(t *testing.T) {
	bare := model.SnapshotKey("2024-06-01 - 09:05:07")
	first := model.SnapshotKey("2024-06-01 - 09:05:07_000001")
	tenth := model.SnapshotKey("2024-06-01 - 09:05:07_000010")
	thousandth := model.SnapshotKey("2024-06-01 - 09:05:07_001000")
	next := model.SnapshotKey("2024-06-01 - 09:05:08")

	ordered := []model.SnapshotKey{bare, first, tenth, thousandth, next}
	for i := 0; i < len(ordered)-1; i++ {
		assert.True(t, ordered[i].Before(ordered[i+1]), "%s < %s", ordered[i], ordered[i+1])
	}
	assert.False(t, next.Before(bare))
	assert.False(t, bare.Before(bare))
}

func TestSnapshotKey_FilenamesSortInSaveOrder(t *testing.T) {
	ts := time.Date(2024, 6, 1, 9, 5, 7, 0, time.UTC)
	var keys []model.SnapshotKey
	for _, seq := range []int{0, 1, 2, 9, 10, 999, 1000, model.MaxSeq} {
		keys = append(keys, model.NewSnapshotKey(ts, seq))
	}
	keys = append(keys, model.NewSnapshotKey(ts.Add(time.Second), 0))

	want := make([]string, len(keys))
	for i, k := range keys {
		want[i] = k.Filename()
	}
	names := append([]string(nil), want...)
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	sort.Strings(names)
	assert.Equal(t, want, names)
}

func TestSnapshotKey_Next(t *testing.T) {
	ts := time.Date(2024, 6, 1, 9, 5, 7, 0, time.UTC)
	assert.Equal(t, model.SnapshotKey("2024-06-01 - 09:05:07_000001"), model.NewSnapshotKey(ts, 0).Next())
	assert.Equal(t, model.SnapshotKey("2024-06-01 - 09:05:07_000043"), model.NewSnapshotKey(ts, 42).Next())

	full := model.NewSnapshotKey(ts, model.MaxSeq)
	assert.Equal(t, model.SnapshotKey("2024-06-01 - 09:05:08"), full.Next())
	assert.True(t, full.Before(full.Next()))
}

func TestSnapshotKey_TimeAndSeq(t *testing.T) {
	key := model.SnapshotKey("2024-06-01 - 09:05:07_000004")
	assert.Equal(t, time.Date(2024, 6, 1, 9, 5, 7, 0, time.UTC), key.Time())
	assert.Equal(t, 4, key.Seq())
	assert.True(t, model.SnapshotKey("garbage").Time().IsZero())
}

func TestSnapshot_MarshalLayout(t *testing.T) {
	shape, err := model.ParseShape([]byte(`{"type":"rect","left":10,"fill":"#FF0000"}`))
	require.NoError(t, err)
	shape.Name = "Tomato"
	shape.PlantedDate = "20240601"

	snap := model.Snapshot{
		CanvasVersion: "4.4.0",
		Shapes:        []model.Shape{shape},
		Legend:        []model.LegendEntry{{Color: "#FF0000", Name: "Tomato", PlantedDate: "20240601"}},
	}
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"canvas_data": {
			"version": "4.4.0",
			"objects": [{"type":"rect","left":10,"fill":"#FF0000","plant_name":"Tomato","planted_date":"20240601"}]
		},
		"mapping": [{"color":"#FF0000","name":"Tomato","date":"20240601"}]
	}`, string(data))
}

func TestSnapshot_UnmarshalLegacyBody(t *testing.T) {
	body := `{"canvas_data":{"version":"4.4.0","objects":[{"type":"path","fill":null,"stroke":"#333"},{"type":"rect","fill":"#0e28d0"}]},
		"mapping":[{"color":"#0e28d0","name":"Carrots","date":"20230415"}]}`

	var snap model.Snapshot
	require.NoError(t, json.Unmarshal([]byte(body), &snap))
	require.Len(t, snap.Shapes, 2)
	assert.Equal(t, "", snap.Shapes[0].FillColor)
	assert.False(t, snap.Shapes[0].IsPlant())
	assert.Equal(t, "#0e28d0", snap.Shapes[1].FillColor)
	assert.True(t, snap.Shapes[1].IsPlant())
	assert.Equal(t, []model.LegendEntry{{Color: "#0e28d0", Name: "Carrots", PlantedDate: "20230415"}}, snap.Legend)
	assert.Equal(t, 1, snap.PlantShapes())
}

func TestSnapshot_UnmarshalRejectsMissingCanvas(t *testing.T) {
	var snap model.Snapshot
	assert.Error(t, json.Unmarshal([]byte(`{"mapping":[]}`), &snap))
	assert.Error(t, json.Unmarshal([]byte(`{"canvas_data":{"objects":[1,2]}}`), &snap))
}

func TestSnapshot_UnmarshalEmptyCollections(t *testing.T) {
	var snap model.Snapshot
	require.NoError(t, json.Unmarshal([]byte(`{"canvas_data":{"objects":null}}`), &snap))
	assert.NotNil(t, snap.Shapes)
	assert.NotNil(t, snap.Legend)
	assert.Empty(t, snap.Shapes)
	assert.Empty(t, snap.Legend)
}

func TestSnapshot_CloneIsIndependent(t *testing.T) {
	orig := &model.Snapshot{
		Legend: []model.LegendEntry{{Color: "#ff0000", Name: "Tomato"}},
	}
	c := orig.Clone()
	c.Legend[0].Name = "Pepper"
	c.Shapes = append(c.Shapes, model.Shape{FillColor: "#00ff00"})

	assert.Equal(t, "Tomato", orig.Legend[0].Name)
	assert.Nil(t, orig.Shapes)
}
