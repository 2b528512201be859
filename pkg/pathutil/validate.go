// Package pathutil validates user-supplied names before they reach the
// filesystem or a snapshot body.
package pathutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/grantoftegaard/garden/pkg/errclass"
	"github.com/grantoftegaard/garden/pkg/model"
)

// ValidateKey checks that a snapshot key taken from user input names a file
// directly inside the data directory.
func ValidateKey(key string) error {
	if key == "" {
		return errclass.ErrNameInvalid.WithMessage("snapshot key must not be empty")
	}
	if strings.Contains(key, "..") {
		return errclass.ErrNameInvalid.WithMessagef("snapshot key must not contain '..': %s", key)
	}
	if strings.ContainsAny(key, "/\\") {
		return errclass.ErrNameInvalid.WithMessagef("snapshot key must not contain separators: %s", key)
	}
	if _, _, err := model.ParseSnapshotKey(key); err != nil {
		return errclass.ErrNameInvalid.WithMessagef("not a snapshot key: %s", key)
	}
	return nil
}

// NormalizePlantName returns the NFC form of a plant name with surrounding
// whitespace removed. Names that end up empty or carry control characters
// are rejected.
func NormalizePlantName(name string) (string, error) {
	name = strings.TrimSpace(norm.NFC.String(name))
	if name == "" {
		return "", errclass.ErrNameInvalid.WithMessage("please enter a name")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return "", errclass.ErrNameInvalid.WithMessagef("name must not contain control characters: %q", name)
		}
	}
	return name, nil
}
