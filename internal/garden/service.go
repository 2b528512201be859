// Package garden runs the user actions of the layout editor. Each action is
// one read-modify-write of the layout history: load the latest snapshot,
// derive the next one, save it under a new key, refresh the preview.
package garden

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/grantoftegaard/garden/internal/audit"
	"github.com/grantoftegaard/garden/internal/diff"
	"github.com/grantoftegaard/garden/internal/legend"
	"github.com/grantoftegaard/garden/internal/render"
	"github.com/grantoftegaard/garden/internal/session"
	"github.com/grantoftegaard/garden/internal/store"
	"github.com/grantoftegaard/garden/pkg/config"
	"github.com/grantoftegaard/garden/pkg/errclass"
	"github.com/grantoftegaard/garden/pkg/jsonutil"
	"github.com/grantoftegaard/garden/pkg/logging"
	"github.com/grantoftegaard/garden/pkg/metrics"
	"github.com/grantoftegaard/garden/pkg/model"
	"github.com/grantoftegaard/garden/pkg/uuidutil"
)

// Save kinds, used as audit details and metric labels.
const (
	KindBootstrap = "bootstrap"
	KindAdd       = "add"
	KindEdit      = "edit"
)

// Submission is what the canvas hands back when the user saves: the drawn
// objects and, optionally, the rendered overlay.
type Submission struct {
	Shapes        []model.Shape `json:"objects"`
	CanvasVersion string        `json:"version,omitempty"`
	// Raster is PNG or raw RGBA bytes; base64 in JSON.
	Raster []byte `json:"image,omitempty"`
}

// Service is the garden layout editor backend.
type Service struct {
	store    *store.Store
	renderer *render.Renderer
	journal  *audit.FileAppender
	metrics  *metrics.Registry
	log      *logging.Logger
	now      func() time.Time
	defaults config.DefaultsConfig
}

// Option configures a Service.
type Option func(*Service)

// WithRenderer enables preview rendering.
func WithRenderer(r *render.Renderer) Option {
	return func(s *Service) { s.renderer = r }
}

// WithJournal enables the audit journal.
func WithJournal(j *audit.FileAppender) Option {
	return func(s *Service) { s.journal = j }
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metrics.Registry) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithClock sets the clock used for form defaults.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithDefaults sets the add-plant form defaults.
func WithDefaults(d config.DefaultsConfig) Option {
	return func(s *Service) { s.defaults = d }
}

// New creates a Service over st.
func New(st *store.Store, opts ...Option) *Service {
	s := &Service{
		store:    st,
		metrics:  metrics.NewRegistry(),
		log:      logging.Global(),
		now:      time.Now,
		defaults: config.Default().Defaults,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying layout store.
func (s *Service) Store() *store.Store {
	return s.store
}

// NewForm returns the add-plant form with today's date.
func (s *Service) NewForm() session.PlantForm {
	return session.DefaultForm(s.defaults, s.now())
}

// Current returns the latest snapshot. Legend rows without an id get their
// color-derived id and plant shapes carry their row's name and date, so
// files written before either existed read the same as new ones.
func (s *Service) Current() (*model.Snapshot, error) {
	snap, err := s.store.LoadLatest()
	if err != nil {
		return nil, s.fail(err)
	}
	snap.Legend = legend.AssignIDs(snap.Legend)
	snap.Shapes = legend.Annotate(snap.Shapes, snap.Legend)
	return snap, nil
}

// Bootstrap seeds an empty history with base.
func (s *Service) Bootstrap(base []model.Shape) (model.SnapshotKey, bool, error) {
	key, created, err := s.store.Bootstrap(base)
	if err != nil {
		return "", false, s.fail(err)
	}
	if created {
		s.metrics.RecordSave(KindBootstrap, 0, 1)
		s.journalAppend(model.EventTypeSnapshotBootstrap, key, map[string]any{"shapes": len(base)})
	}
	return key, created, nil
}

// AddPlant saves the drawing of a new plant described by the session form.
// The form color must not already belong to a legend row; every other new
// plant color in the drawing is an error.
func (s *Service) AddPlant(sess session.Session, sub Submission) (session.Session, *model.Snapshot, error) {
	if err := sess.Require(session.ModeAdding); err != nil {
		return sess, nil, s.fail(err)
	}
	form, err := sess.Form.Validate()
	if err != nil {
		return sess, nil, s.fail(err)
	}

	cur, err := s.Current()
	if err != nil {
		return sess, nil, err
	}
	for _, e := range cur.Legend {
		if model.SameColor(e.Color, form.Color) {
			return sess, nil, s.fail(errclass.ErrColorInUse.WithMessagef("%s already belongs to %s", form.Color, e.Name))
		}
	}

	shapes := carryBackground(cur.Shapes, nonNil(sub.Shapes))
	if !diff.Compare(cur, &model.Snapshot{Shapes: shapes}).ShapesChanged() {
		return sess, nil, s.fail(errclass.ErrNoChange.WithMessage("no change"))
	}

	entry := form.Entry()
	entry.ID = uuidutil.NewV4()
	entries, err := legend.Reconcile(cur.Legend, shapes, []model.LegendEntry{entry})
	if err != nil {
		return sess, nil, s.fail(err)
	}
	if _, ok := legend.Find(entries, entry.ID); !ok {
		s.log.Warn("plant color not drawn, legend row not added", map[string]any{"color": form.Color, "name": form.Name})
	}

	next, err := s.commit(KindAdd, cur, sub, shapes, entries)
	if err != nil {
		return sess, nil, err
	}
	done, err := sess.Finish()
	if err != nil {
		return sess, nil, s.fail(err)
	}
	return done, next, nil
}

// EditLayout saves an edited drawing together with legend edits. A nil
// Shapes slice in sub keeps the current drawing. Deleted plants lose their
// legend row; the drawing must not introduce plant colors without a row.
func (s *Service) EditLayout(sess session.Session, sub Submission, edits []legend.EntryEdit) (session.Session, *model.Snapshot, error) {
	if err := sess.Require(session.ModeEditing); err != nil {
		return sess, nil, s.fail(err)
	}

	cur, err := s.Current()
	if err != nil {
		return sess, nil, err
	}

	shapes := cur.Shapes
	if sub.Shapes != nil {
		shapes = carryBackground(cur.Shapes, sub.Shapes)
	}
	entries := cur.Legend
	for _, e := range edits {
		entries, shapes, err = legend.ApplyEdit(entries, shapes, e)
		if err != nil {
			return sess, nil, s.fail(err)
		}
	}

	entries, err = legend.Reconcile(entries, shapes, nil)
	if err != nil {
		return sess, nil, s.fail(err)
	}

	next, err := s.commit(KindEdit, cur, sub, shapes, entries)
	if err != nil {
		return sess, nil, err
	}
	done, err := sess.Finish()
	if err != nil {
		return sess, nil, s.fail(err)
	}
	return done, next, nil
}

// commit saves the successor of cur unless it describes the same layout.
func (s *Service) commit(kind string, cur *model.Snapshot, sub Submission, shapes []model.Shape, entries []model.LegendEntry) (*model.Snapshot, error) {
	version := sub.CanvasVersion
	if version == "" {
		version = cur.CanvasVersion
	}
	next := &model.Snapshot{
		CanvasVersion: version,
		Shapes:        legend.Annotate(shapes, entries),
		Legend:        entries,
	}

	changes := diff.Compare(cur, next)
	if changes.Empty() {
		return nil, s.fail(errclass.ErrNoChange.WithMessage("no change"))
	}

	key, err := s.store.Save(next)
	if err != nil {
		return nil, s.fail(err)
	}

	history := 0
	if keys, err := s.store.ListKeys(); err == nil {
		history = len(keys)
	}
	s.metrics.RecordSave(kind, len(entries), history)
	s.journalAppend(model.EventTypeSnapshotSave, key, map[string]any{
		"kind":           kind,
		"from":           string(cur.Key),
		"legend_entries": len(entries),
		"added":          changes.TotalAdded,
		"removed":        changes.TotalRemoved,
		"modified":       changes.TotalModified,
	})

	if len(sub.Raster) > 0 {
		// The snapshot is already durable; a failed preview is reported but
		// does not undo the save.
		if err := s.Render(sub.Raster); err != nil {
			s.log.ErrorErr("preview not refreshed", err, map[string]any{"key": string(key)})
		}
	}
	return next, nil
}

// Render refreshes the preview image from raster.
func (s *Service) Render(raster []byte) error {
	if s.renderer == nil {
		return s.fail(errors.New("no renderer configured"))
	}
	if err := s.renderer.RenderCurrent(raster); err != nil {
		return s.fail(err)
	}
	s.journalAppend(model.EventTypeRender, "", map[string]any{"output": s.renderer.OutputPath()})
	return nil
}

// Export returns the latest snapshot as an indented JSON document and the
// file name it is offered under.
func (s *Service) Export() (string, []byte, error) {
	snap, err := s.Current()
	if err != nil {
		return "", nil, err
	}
	data, err := jsonutil.MarshalPretty(snap)
	if err != nil {
		return "", nil, s.fail(fmt.Errorf("encode export: %w", err))
	}
	return snap.Key.Filename(), data, nil
}

// History returns every snapshot key, oldest first.
func (s *Service) History() ([]model.SnapshotKey, error) {
	keys, err := s.store.ListKeys()
	if err != nil {
		return nil, s.fail(err)
	}
	return keys, nil
}

// Diff compares two snapshots. An empty to means the latest snapshot and an
// empty from means the one before to.
func (s *Service) Diff(from, to model.SnapshotKey) (*diff.Result, error) {
	keys, err := s.History()
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, s.fail(errclass.ErrNoSnapshots)
	}
	if to == "" {
		to = keys[len(keys)-1]
	}
	if from == "" {
		for i, k := range keys {
			if k == to && i > 0 {
				from = keys[i-1]
			}
		}
	}

	toSnap, err := s.store.Load(to)
	if err != nil {
		return nil, s.fail(err)
	}
	var fromSnap *model.Snapshot
	if from != "" {
		if fromSnap, err = s.store.Load(from); err != nil {
			return nil, s.fail(err)
		}
	}
	return diff.Compare(fromSnap, toSnap), nil
}

func (s *Service) journalAppend(event model.AuditEventType, key model.SnapshotKey, details map[string]any) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Append(event, key, details); err != nil {
		s.log.ErrorErr("audit append failed", err, map[string]any{"event": string(event)})
	}
}

// fail counts err by class and returns it unchanged.
func (s *Service) fail(err error) error {
	s.metrics.RecordError(errclass.Code(err))
	return err
}

// carryBackground keeps the background mark on submitted shapes that are
// unchanged copies of a background shape at the same position. Canvas
// widgets do not always round-trip unknown object keys.
func carryBackground(prev, next []model.Shape) []model.Shape {
	out := append([]model.Shape(nil), next...)
	for i := range out {
		if i < len(prev) && prev[i].Background && !out[i].Background &&
			bytes.Equal(prev[i].Geometry, out[i].Geometry) && prev[i].FillColor == out[i].FillColor {
			out[i].Background = true
		}
	}
	return out
}

func nonNil(shapes []model.Shape) []model.Shape {
	if shapes == nil {
		return []model.Shape{}
	}
	return shapes
}
