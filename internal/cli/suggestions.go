package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/grantoftegaard/garden/pkg/color"
	"github.com/grantoftegaard/garden/pkg/errclass"
	"github.com/grantoftegaard/garden/pkg/model"
)

// suggestKeys provides helpful suggestions when a snapshot key is not found.
// Keys sharing the longest prefix with the query are offered first.
func suggestKeys(query string, keys []model.SnapshotKey) string {
	if len(keys) == 0 {
		return fmt.Sprintf("No snapshots yet. Run %s first.", color.Key("garden init"))
	}

	best := 0
	var matches []string
	for _, k := range keys {
		n := commonPrefix(query, string(k))
		switch {
		case n > best:
			best = n
			matches = []string{string(k)}
		case n == best && n > 0:
			matches = append(matches, string(k))
		}
	}
	// A shared date prefix is the least that makes a suggestion useful.
	if best < len("2006-01-02") {
		return fmt.Sprintf("Run %s to see available snapshots.", color.Key("garden history"))
	}
	if len(matches) > 3 {
		matches = matches[len(matches)-3:]
	}

	hint := "Did you mean"
	if len(matches) > 1 {
		hint += " one of"
	}
	return fmt.Sprintf("%s: %s?", hint, strings.Join(matches, ", "))
}

func commonPrefix(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

// withSuggestion adds a hint to snapshot lookup failures.
func withSuggestion(err error, query string, keys []model.SnapshotKey) error {
	if errors.Is(err, errclass.ErrSnapshotNotFound) || errors.Is(err, errclass.ErrNameInvalid) {
		return fmt.Errorf("%w\n%s", err, suggestKeys(query, keys))
	}
	return err
}
