// Package session models the editor session of the UI shell: which mode the
// editor is in and the add-plant form.
//
// Transitions are pure: each returns a new Session and never mutates its
// receiver, so callers decide when a transition takes effect.
package session

import (
	"fmt"

	"github.com/grantoftegaard/garden/pkg/errclass"
)

// Mode is the editor mode.
type Mode string

const (
	ModeViewing Mode = "viewing"
	ModeAdding  Mode = "adding"
	ModeEditing Mode = "editing"
)

// Session is the editor state of one user.
type Session struct {
	Mode Mode      `json:"mode"`
	Form PlantForm `json:"form"`
}

// New returns a session in viewing mode.
func New() Session {
	return Session{Mode: ModeViewing}
}

// StartAdd enters adding mode with the form reset to defaults.
func (s Session) StartAdd(defaults PlantForm) (Session, error) {
	if s.Mode != ModeViewing {
		return s, invalid(s.Mode, ModeAdding)
	}
	return Session{Mode: ModeAdding, Form: defaults}, nil
}

// StartEdit enters editing mode.
func (s Session) StartEdit() (Session, error) {
	if s.Mode != ModeViewing {
		return s, invalid(s.Mode, ModeEditing)
	}
	return Session{Mode: ModeEditing, Form: s.Form}, nil
}

// Cancel abandons the pending add or edit.
func (s Session) Cancel() (Session, error) {
	if s.Mode == ModeViewing {
		return s, invalid(s.Mode, ModeViewing)
	}
	return Session{Mode: ModeViewing, Form: s.Form}, nil
}

// Finish returns to viewing after a successful save.
func (s Session) Finish() (Session, error) {
	return s.Cancel()
}

// WithForm replaces the form while adding.
func (s Session) WithForm(f PlantForm) (Session, error) {
	if s.Mode != ModeAdding {
		return s, errclass.ErrInvalidTransition.WithMessagef("the plant form can only change while adding, not while %s", s.Mode)
	}
	return Session{Mode: s.Mode, Form: f}, nil
}

// Require fails unless the session is in mode m.
func (s Session) Require(m Mode) error {
	if s.Mode != m {
		return errclass.ErrInvalidTransition.WithMessagef("session is %s, not %s", s.Mode, m)
	}
	return nil
}

func invalid(from, to Mode) error {
	return errclass.ErrInvalidTransition.WithMessage(fmt.Sprintf("cannot go from %s to %s", from, to))
}
