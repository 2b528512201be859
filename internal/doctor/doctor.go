// Package doctor inspects a garden data directory for problems.
package doctor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/grantoftegaard/garden/internal/audit"
	"github.com/grantoftegaard/garden/internal/legend"
	"github.com/grantoftegaard/garden/internal/store"
	"github.com/grantoftegaard/garden/pkg/errclass"
	"github.com/grantoftegaard/garden/pkg/fsutil"
	"github.com/grantoftegaard/garden/pkg/model"
	"github.com/grantoftegaard/garden/pkg/progress"
)

// Finding represents a detected issue.
type Finding struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Path        string `json:"path,omitempty"`
}

// Result contains doctor check results.
type Result struct {
	Healthy  bool      `json:"healthy"`
	Findings []Finding `json:"findings"`
}

func (r *Result) add(f Finding) {
	r.Findings = append(r.Findings, f)
	if f.Severity == "critical" || f.Severity == "error" {
		r.Healthy = false
	}
}

// RepairAction describes a fix Repair can apply.
type RepairAction struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// RepairResult is the outcome of one repair action.
type RepairResult struct {
	Action  string `json:"action"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	Cleaned int    `json:"cleaned,omitempty"`
}

// Doctor performs garden health checks.
type Doctor struct {
	store      *store.Store
	journal    *audit.FileAppender
	background string
	tempDirs   []string
	progress   progress.Callback
}

// NewDoctor creates a new doctor. journal may be nil. Leftover temp files
// are looked for in the data directory and in extraTempDirs.
func NewDoctor(st *store.Store, journal *audit.FileAppender, background string, extraTempDirs ...string) *Doctor {
	return &Doctor{
		store:      st,
		journal:    journal,
		background: background,
		tempDirs:   append([]string{st.Dir()}, extraTempDirs...),
		progress:   progress.Noop,
	}
}

// SetProgress reports every snapshot opened by Check to cb.
func (d *Doctor) SetProgress(cb progress.Callback) {
	if cb == nil {
		cb = progress.Noop
	}
	d.progress = cb
}

// Check runs all diagnostic checks. Legend consistency is checked for the
// latest snapshot, or for every snapshot when strict is set.
func (d *Doctor) Check(strict bool) (*Result, error) {
	result := &Result{Healthy: true, Findings: []Finding{}}

	keys, err := d.store.ListKeys()
	if err != nil {
		result.add(Finding{
			Category:    "storage",
			Description: fmt.Sprintf("cannot list snapshots: %v", err),
			Severity:    "critical",
			Path:        d.store.Dir(),
		})
		return result, nil
	}

	d.checkSnapshots(result, keys, strict)
	d.checkStray(result)
	d.checkBackground(result)
	d.checkAuditChain(result)
	d.checkOrphanTmp(result)

	return result, nil
}

func (d *Doctor) checkSnapshots(result *Result, keys []model.SnapshotKey, strict bool) {
	if len(keys) == 0 {
		result.add(Finding{
			Category:    "history",
			Description: "no snapshots; run init to seed the history",
			Severity:    "warning",
			Path:        d.store.Dir(),
		})
		return
	}

	check := keys[len(keys)-1:]
	if strict {
		check = keys
	}
	for i, key := range check {
		d.progress("check", i+1, len(check), string(key))
		snap, err := d.store.Load(key)
		if err != nil {
			severity := "error"
			if errors.Is(err, errclass.ErrSnapshotCorrupt) && key == keys[len(keys)-1] {
				// The current layout cannot be opened at all.
				severity = "critical"
			}
			result.add(Finding{
				Category:    "snapshot",
				Description: err.Error(),
				Severity:    severity,
				Path:        d.store.Path(key),
			})
			continue
		}
		for _, p := range legend.Check(snap) {
			result.add(Finding{
				Category:    "legend",
				Description: fmt.Sprintf("%s: %s %s", key, p.Color, p.Detail),
				Severity:    problemSeverity(p.Kind),
				Path:        d.store.Path(key),
			})
		}
	}
}

func problemSeverity(k legend.ProblemKind) string {
	switch k {
	case legend.ProblemDuplicate, legend.ProblemMissing, legend.ProblemInvalidColor:
		return "error"
	default:
		return "warning"
	}
}

func (d *Doctor) checkStray(result *Result) {
	stray, err := d.store.Stray()
	if err != nil {
		return
	}
	for _, name := range stray {
		result.add(Finding{
			Category:    "naming",
			Description: fmt.Sprintf("%s is not named like a snapshot and is ignored", name),
			Severity:    "warning",
			Path:        filepath.Join(d.store.Dir(), name),
		})
	}
}

func (d *Doctor) checkBackground(result *Result) {
	if d.background == "" {
		return
	}
	if _, err := os.Stat(d.background); err != nil {
		result.add(Finding{
			Category:    "image",
			Description: "background image missing; previews are drawn on a blank canvas",
			Severity:    "warning",
			Path:        d.background,
		})
	}
}

func (d *Doctor) checkAuditChain(result *Result) {
	if d.journal == nil {
		return
	}
	if _, err := d.journal.Verify(); err != nil {
		result.add(Finding{
			Category:    "audit",
			Description: err.Error(),
			Severity:    "critical",
			Path:        d.journal.Path(),
		})
	}
}

func (d *Doctor) checkOrphanTmp(result *Result) {
	for _, path := range d.leftoverTemps() {
		result.add(Finding{
			Category:    "tmp",
			Description: fmt.Sprintf("orphan temp file: %s", filepath.Base(path)),
			Severity:    "info",
			Path:        path,
		})
	}
}

func (d *Doctor) leftoverTemps() []string {
	var out []string
	for _, dir := range d.tempDirs {
		found, err := fsutil.LeftoverTemps(dir)
		if err != nil {
			continue
		}
		out = append(out, found...)
	}
	return out
}

// ListRepairActions returns the available repair actions.
func (d *Doctor) ListRepairActions() []RepairAction {
	return []RepairAction{
		{ID: "clean_tmp", Description: "remove temp files left by interrupted writes"},
	}
}

// Repair runs the named actions. Unknown actions are reported as failed
// results, not as an error.
func (d *Doctor) Repair(actions []string) ([]RepairResult, error) {
	var results []RepairResult
	for _, action := range actions {
		switch action {
		case "clean_tmp":
			results = append(results, d.cleanTmp())
		default:
			results = append(results, RepairResult{
				Action:  action,
				Message: fmt.Sprintf("unknown repair action: %s", action),
			})
		}
	}
	return results, nil
}

func (d *Doctor) cleanTmp() RepairResult {
	res := RepairResult{Action: "clean_tmp", Success: true}
	for _, path := range d.leftoverTemps() {
		if err := os.Remove(path); err != nil {
			res.Success = false
			res.Message = fmt.Sprintf("remove %s: %v", path, err)
			continue
		}
		res.Cleaned++
	}
	if res.Success {
		res.Message = fmt.Sprintf("removed %d temp file(s)", res.Cleaned)
	}
	return res
}
