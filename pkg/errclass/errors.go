// Package errclass defines the stable, machine-readable error classes of the
// garden layout store.
package errclass

import (
	"errors"
	"fmt"
)

// GardenError is a stable, machine-readable error class.
type GardenError struct {
	Code    string
	Message string
}

func (e *GardenError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *GardenError) Is(target error) bool {
	t, ok := target.(*GardenError)
	return ok && e.Code == t.Code
}

// WithMessage returns a new GardenError with the same Code but a specific message.
func (e *GardenError) WithMessage(msg string) *GardenError {
	return &GardenError{Code: e.Code, Message: msg}
}

// WithMessagef returns a new GardenError with a formatted message.
func (e *GardenError) WithMessagef(format string, args ...any) *GardenError {
	return &GardenError{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// Error classes. None of them is retried: every one aborts the current user
// action and is surfaced as-is.
var (
	ErrStorageUnavailable    = &GardenError{Code: "E_STORAGE_UNAVAILABLE"}
	ErrNoSnapshots           = &GardenError{Code: "E_NO_SNAPSHOTS"}
	ErrSnapshotCorrupt       = &GardenError{Code: "E_SNAPSHOT_CORRUPT"}
	ErrSnapshotNotFound      = &GardenError{Code: "E_SNAPSHOT_NOT_FOUND"}
	ErrLegendMetadataMissing = &GardenError{Code: "E_LEGEND_METADATA_MISSING"}
	ErrColorInUse            = &GardenError{Code: "E_COLOR_IN_USE"}
	ErrFormInvalid           = &GardenError{Code: "E_FORM_INVALID"}
	ErrInvalidTransition     = &GardenError{Code: "E_INVALID_TRANSITION"}
	ErrNoChange              = &GardenError{Code: "E_NO_CHANGE"}
	ErrNameInvalid           = &GardenError{Code: "E_NAME_INVALID"}
	ErrAuditChainBroken      = &GardenError{Code: "E_AUDIT_CHAIN_BROKEN"}
	ErrRasterInvalid         = &GardenError{Code: "E_RASTER_INVALID"}
	ErrLegendEntryNotFound   = &GardenError{Code: "E_LEGEND_ENTRY_NOT_FOUND"}
)

// Code extracts the error class code from err, or "" when err carries none.
func Code(err error) string {
	var ge *GardenError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ""
}
