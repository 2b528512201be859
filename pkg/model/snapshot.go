package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// KeyLayout is the time layout embedded in every snapshot key.
const KeyLayout = "2006-01-02 - 15:04:05"

// SnapshotExt is the file extension of a stored snapshot.
const SnapshotExt = ".json"

// Collision counters are written as "_" and seqDigits zero-padded digits.
// "_" sorts after ".", so "<ts>.json" < "<ts>_000001.json" and plain file
// name order is save order.
const (
	seqSep    = "_"
	seqDigits = 6
	MaxSeq    = 999999
)

// SnapshotKey identifies one stored snapshot: "YYYY-MM-DD - HH:MM:SS" in UTC,
// followed by "_NNNNNN" when several saves share the same second.
type SnapshotKey string

// NewSnapshotKey builds the key for t (truncated to the second) and a
// collision counter. seq 0 produces the bare timestamp. seq must not exceed
// MaxSeq.
func NewSnapshotKey(t time.Time, seq int) SnapshotKey {
	base := t.UTC().Format(KeyLayout)
	if seq <= 0 {
		return SnapshotKey(base)
	}
	return SnapshotKey(fmt.Sprintf("%s%s%0*d", base, seqSep, seqDigits, seq))
}

// Next returns the smallest key after k: the next counter in the same
// second, or the following second once the counter is exhausted.
func (k SnapshotKey) Next() SnapshotKey {
	ts, seq, err := ParseSnapshotKey(string(k))
	if err != nil {
		return k
	}
	if seq >= MaxSeq {
		return NewSnapshotKey(ts.Add(time.Second), 0)
	}
	return NewSnapshotKey(ts, seq+1)
}

// ParseSnapshotKey splits a key into its timestamp and collision counter.
func ParseSnapshotKey(s string) (time.Time, int, error) {
	if len(s) < len(KeyLayout) {
		return time.Time{}, 0, fmt.Errorf("snapshot key %q: too short", s)
	}
	ts, err := time.ParseInLocation(KeyLayout, s[:len(KeyLayout)], time.UTC)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("snapshot key %q: %w", s, err)
	}
	rest := s[len(KeyLayout):]
	if rest == "" {
		return ts, 0, nil
	}
	if !strings.HasPrefix(rest, seqSep) || len(rest) != len(seqSep)+seqDigits {
		return time.Time{}, 0, fmt.Errorf("snapshot key %q: bad counter suffix", s)
	}
	digits := rest[len(seqSep):]
	if strings.Trim(digits, "0123456789") != "" {
		return time.Time{}, 0, fmt.Errorf("snapshot key %q: bad counter suffix", s)
	}
	seq, err := strconv.Atoi(digits)
	if err != nil || seq <= 0 {
		return time.Time{}, 0, fmt.Errorf("snapshot key %q: bad counter suffix", s)
	}
	return ts, seq, nil
}

// KeyFromFilename returns the key stored in a snapshot file name.
func KeyFromFilename(name string) (SnapshotKey, bool) {
	if !strings.HasSuffix(name, SnapshotExt) {
		return "", false
	}
	key := strings.TrimSuffix(name, SnapshotExt)
	if _, _, err := ParseSnapshotKey(key); err != nil {
		return "", false
	}
	return SnapshotKey(key), true
}

// Filename returns the file name the snapshot is stored under.
func (k SnapshotKey) Filename() string {
	return string(k) + SnapshotExt
}

// Time returns the timestamp embedded in the key, or the zero time for a
// malformed key.
func (k SnapshotKey) Time() time.Time {
	ts, _, err := ParseSnapshotKey(string(k))
	if err != nil {
		return time.Time{}
	}
	return ts
}

// Seq returns the collision counter of the key.
func (k SnapshotKey) Seq() int {
	_, seq, err := ParseSnapshotKey(string(k))
	if err != nil {
		return 0
	}
	return seq
}

// Before reports whether k sorts strictly before other in save order.
func (k SnapshotKey) Before(other SnapshotKey) bool {
	kt, kseq, kerr := ParseSnapshotKey(string(k))
	ot, oseq, oerr := ParseSnapshotKey(string(other))
	if kerr != nil || oerr != nil {
		return k < other
	}
	if !kt.Equal(ot) {
		return kt.Before(ot)
	}
	return kseq < oseq
}

// String returns the key as string.
func (k SnapshotKey) String() string {
	return string(k)
}

// Snapshot is one immutable saved version of the garden layout.
//
// Key and CreatedAt come from the storage key and are not part of the body.
type Snapshot struct {
	Key           SnapshotKey
	CreatedAt     time.Time
	CanvasVersion string
	Shapes        []Shape
	Legend        []LegendEntry
}

// snapshotBody is the on-disk layout: shapes under canvas_data.objects and the
// legend under mapping.
type snapshotBody struct {
	CanvasData *canvasData   `json:"canvas_data"`
	Mapping    []LegendEntry `json:"mapping"`
}

type canvasData struct {
	Version string  `json:"version,omitempty"`
	Objects []Shape `json:"objects"`
}

// MarshalJSON encodes the snapshot body.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	shapes := s.Shapes
	if shapes == nil {
		shapes = []Shape{}
	}
	legend := s.Legend
	if legend == nil {
		legend = []LegendEntry{}
	}
	return json.Marshal(snapshotBody{
		CanvasData: &canvasData{Version: s.CanvasVersion, Objects: shapes},
		Mapping:    legend,
	})
}

// UnmarshalJSON decodes a snapshot body. Key and CreatedAt are left untouched.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var body snapshotBody
	if err := json.Unmarshal(data, &body); err != nil {
		return err
	}
	if body.CanvasData == nil {
		return fmt.Errorf("snapshot: missing canvas_data")
	}
	s.CanvasVersion = body.CanvasData.Version
	s.Shapes = body.CanvasData.Objects
	if s.Shapes == nil {
		s.Shapes = []Shape{}
	}
	s.Legend = body.Mapping
	if s.Legend == nil {
		s.Legend = []LegendEntry{}
	}
	return nil
}

// Clone returns a copy whose slices can be modified without touching s.
// Geometry payloads are shared; they are never mutated in place.
func (s *Snapshot) Clone() *Snapshot {
	c := *s
	c.Shapes = append([]Shape(nil), s.Shapes...)
	c.Legend = append([]LegendEntry(nil), s.Legend...)
	if c.Shapes == nil {
		c.Shapes = []Shape{}
	}
	if c.Legend == nil {
		c.Legend = []LegendEntry{}
	}
	return &c
}

// PlantShapes returns the number of shapes that denote a plant.
func (s *Snapshot) PlantShapes() int {
	n := 0
	for _, sh := range s.Shapes {
		if sh.IsPlant() {
			n++
		}
	}
	return n
}
