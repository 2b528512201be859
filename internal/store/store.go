// Package store persists layout snapshots as an append-only directory of
// JSON files, one file per save, named after the save time.
//
// The store takes no locks. Two processes saving at once both succeed with
// distinct keys; the later key is current and the other stays in the history.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/grantoftegaard/garden/pkg/errclass"
	"github.com/grantoftegaard/garden/pkg/fsutil"
	"github.com/grantoftegaard/garden/pkg/jsonutil"
	"github.com/grantoftegaard/garden/pkg/logging"
	"github.com/grantoftegaard/garden/pkg/model"
	"github.com/grantoftegaard/garden/pkg/pathutil"
)

// maxSaveAttempts bounds the counter bumps when keys keep colliding.
const maxSaveAttempts = 1000

// Store is a directory of snapshot files.
type Store struct {
	dir string
	now func() time.Time
	log *logging.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the clock used to derive new keys.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New returns a store over dir. The directory is not touched until used.
func New(dir string, opts ...Option) *Store {
	s := &Store{dir: dir, now: time.Now, log: logging.Global()}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithFields(map[string]any{"component": "store", "dir": dir})
	return s
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file path of key.
func (s *Store) Path(key model.SnapshotKey) string {
	return filepath.Join(s.dir, key.Filename())
}

// ListKeys returns all snapshot keys in ascending save order, whatever order
// the directory lists them in. Files that are not named like a snapshot are
// skipped.
func (s *Store) ListKeys() ([]model.SnapshotKey, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errclass.ErrStorageUnavailable.WithMessagef("read data directory %s: %v", s.dir, err)
	}

	keys := make([]model.SnapshotKey, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		key, ok := model.KeyFromFilename(entry.Name())
		if !ok {
			continue
		}
		keys = append(keys, key)
	}

	sort.SliceStable(keys, func(i, j int) bool {
		return keys[i].Before(keys[j])
	})
	return keys, nil
}

// LatestKey returns the key of the current snapshot.
func (s *Store) LatestKey() (model.SnapshotKey, error) {
	keys, err := s.ListKeys()
	if err != nil {
		return "", err
	}
	if len(keys) == 0 {
		return "", errclass.ErrNoSnapshots.WithMessagef("no snapshots in %s", s.dir)
	}
	return keys[len(keys)-1], nil
}

// LoadLatest returns the current snapshot: the one with the greatest key.
func (s *Store) LoadLatest() (*model.Snapshot, error) {
	key, err := s.LatestKey()
	if err != nil {
		return nil, err
	}
	return s.Load(key)
}

// Load reads the snapshot stored under key.
func (s *Store) Load(key model.SnapshotKey) (*model.Snapshot, error) {
	if err := pathutil.ValidateKey(string(key)); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errclass.ErrSnapshotNotFound.WithMessagef("snapshot %s", key)
		}
		return nil, errclass.ErrStorageUnavailable.WithMessagef("read snapshot %s: %v", key, err)
	}

	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errclass.ErrSnapshotCorrupt.WithMessagef("%s: %v", key, err)
	}
	snap.Key = key
	snap.CreatedAt = key.Time()
	return &snap, nil
}

// Save writes snap under a new key and returns it. The key is derived from
// the clock at second resolution and always sorts after every existing key;
// an existing file is never replaced. Key and CreatedAt of snap are set to
// the stored values and shape geometry is rewritten into canonical form, so
// snap equals what Load returns for the key.
func (s *Store) Save(snap *model.Snapshot) (model.SnapshotKey, error) {
	keys, err := s.ListKeys()
	if err != nil {
		return "", err
	}

	shapes, err := canonicalShapes(snap.Shapes)
	if err != nil {
		return "", err
	}
	snap.Shapes = shapes

	body, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	key := model.NewSnapshotKey(s.now(), 0)
	if len(keys) > 0 {
		latest := keys[len(keys)-1]
		if !latest.Before(key) {
			// Same second as the latest save, or a clock that went back.
			key = latest.Next()
		}
	}

	for attempt := 0; ; attempt++ {
		err := fsutil.WriteNew(s.Path(key), body, 0644)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) || attempt >= maxSaveAttempts {
			return "", errclass.ErrStorageUnavailable.WithMessagef("write snapshot %s: %v", key, err)
		}
		// Another writer took the key between listing and writing.
		key = key.Next()
	}

	snap.Key = key
	snap.CreatedAt = key.Time()
	s.log.Info("snapshot saved", map[string]any{
		"key":    string(key),
		"shapes": len(snap.Shapes),
		"legend": len(snap.Legend),
	})
	return key, nil
}

// canonicalShapes returns a copy of shapes whose geometry is canonical JSON.
func canonicalShapes(shapes []model.Shape) ([]model.Shape, error) {
	if shapes == nil {
		return nil, nil
	}
	out := make([]model.Shape, len(shapes))
	for i, sh := range shapes {
		if len(sh.Geometry) > 0 {
			geometry, err := jsonutil.Canonicalize(sh.Geometry)
			if err != nil {
				return nil, fmt.Errorf("shape %d geometry: %w", i, err)
			}
			sh.Geometry = geometry
		}
		out[i] = sh
	}
	return out, nil
}

// Bootstrap seeds the history with a base-layout snapshot when it is empty,
// creating the data directory if needed. The base shapes are marked as
// background and carry no plant metadata, so the seed has an empty legend.
// It returns the current key and whether a seed was written.
func (s *Store) Bootstrap(base []model.Shape) (model.SnapshotKey, bool, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", false, errclass.ErrStorageUnavailable.WithMessagef("create data directory %s: %v", s.dir, err)
	}

	keys, err := s.ListKeys()
	if err != nil {
		return "", false, err
	}
	if len(keys) > 0 {
		return keys[len(keys)-1], false, nil
	}

	seed := &model.Snapshot{
		Shapes: make([]model.Shape, len(base)),
		Legend: []model.LegendEntry{},
	}
	for i, sh := range base {
		sh.Background = true
		sh.Name = ""
		sh.PlantedDate = ""
		seed.Shapes[i] = sh
	}

	key, err := s.Save(seed)
	if err != nil {
		return "", false, err
	}
	s.log.Info("history bootstrapped", map[string]any{"key": string(key), "base_shapes": len(base)})
	return key, true, nil
}

// Stray lists .json files in the data directory that are not named like a
// snapshot. They are invisible to ListKeys.
func (s *Store) Stray() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errclass.ErrStorageUnavailable.WithMessagef("read data directory %s: %v", s.dir, err)
	}
	var out []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != model.SnapshotExt {
			continue
		}
		if _, ok := model.KeyFromFilename(name); !ok {
			out = append(out, name)
		}
	}
	return out, nil
}
