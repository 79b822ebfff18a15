package ui

import (
	"strings"
	"testing"
)

func TestFormatters_IncludeMessage(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) string
		icon string
	}{
		{"success", FormatSuccess, IconSuccess},
		{"error", FormatError, IconError},
		{"info", FormatInfo, IconInfo},
		{"warning", FormatWarning, IconWarning},
		{"layer", FormatLayer, IconLayer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.fn("converted dtm.bil")
			if !strings.Contains(out, "converted dtm.bil") {
				t.Errorf("output %q does not contain message", out)
			}
			if !strings.Contains(out, tt.icon) {
				t.Errorf("output %q does not contain icon %q", out, tt.icon)
			}
		})
	}
}

func TestRenderTable_ContainsCells(t *testing.T) {
	out := RenderTable(
		[]string{"Driver", "Extensions"},
		[][]string{{"EHdr", "bil, bip, bsq"}, {"AAIGrid", "asc"}},
	)

	for _, want := range []string{"Driver", "Extensions", "EHdr", "bil, bip, bsq", "AAIGrid", "asc"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderList(t *testing.T) {
	out := RenderList([]string{"a.mnu", "b.mnu"})
	if strings.Count(out, "\n") != 2 {
		t.Errorf("expected two lines, got %q", out)
	}
}

func TestSetTheme_KeepsStylesUsable(t *testing.T) {
	for _, theme := range []string{"light", "dark", "auto"} {
		SetTheme(theme)
		if !strings.Contains(FormatSuccess("ok"), "ok") {
			t.Errorf("theme %q broke FormatSuccess", theme)
		}
	}
}
