package color

import (
	"strings"
	"testing"
)

func restoreState(t *testing.T) {
	origEnabled := state.enabled.Load()
	origOverridden := state.overridden.Load()
	t.Cleanup(func() {
		state.enabled.Store(origEnabled)
		state.overridden.Store(origOverridden)
	})
}

func TestEnableDisable(t *testing.T) {
	restoreState(t)

	Enable()
	if !Enabled() {
		t.Error("expected colors to be enabled after Enable()")
	}

	Disable()
	if Enabled() {
		t.Error("expected colors to be disabled after Disable()")
	}
}

func TestColorFuncs(t *testing.T) {
	restoreState(t)
	Enable()

	tests := []struct {
		name     string
		fn       func(string) string
		contains string
	}{
		{"Success", Success, Green},
		{"Error", Error, Red},
		{"Warning", Warning, Yellow},
		{"Key", Key, Cyan},
		{"Header", Header, Bold},
		{"Dim", Dim, DimCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.fn("Tomato")
			if !strings.Contains(out, tt.contains) || !strings.HasSuffix(out, Reset) {
				t.Errorf("%s(%q) = %q", tt.name, "Tomato", out)
			}
		})
	}
}

func TestColorFuncs_Disabled(t *testing.T) {
	restoreState(t)
	Disable()

	if got := Success("ok"); got != "ok" {
		t.Errorf("expected plain text, got %q", got)
	}
}

func TestSwatch(t *testing.T) {
	restoreState(t)

	Enable()
	if got := Swatch("#FF8000"); !strings.HasPrefix(got, "\033[48;2;255;128;0m") {
		t.Errorf("unexpected swatch %q", got)
	}
	if got := Swatch("rgba(0,0,0,0.5)"); got != "[rgba(0,0,0,0.5)]" {
		t.Errorf("non-hex colors fall back to text, got %q", got)
	}

	Disable()
	if got := Swatch("#FF8000"); got != "[#FF8000]" {
		t.Errorf("expected text fallback, got %q", got)
	}
}
