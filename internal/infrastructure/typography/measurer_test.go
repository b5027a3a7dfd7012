package typography

import "testing"

func TestHeuristicWidthCountsRunes(t *testing.T) {
	m := NewHeuristicMeasurer(6)

	if got := m.Width(""); got != 0 {
		t.Errorf("empty text width = %d, want 0", got)
	}
	if got := m.Width("NFL 21-14"); got != 9*6 {
		t.Errorf("width = %d, want %d", got, 9*6)
	}
	// Multibyte runes count once each.
	if got := m.Width("höme"); got != 4*6 {
		t.Errorf("multibyte width = %d, want %d", got, 4*6)
	}
}

func TestMeasurerFallsBackWithoutFont(t *testing.T) {
	if _, err := loadFace("", 16, 72); err == nil {
		t.Errorf("empty font path should fail to load")
	}
	if _, err := loadFace("/nonexistent/font.ttf", 16, 72); err == nil {
		t.Errorf("missing font file should fail to load")
	}

	m := NewHeuristicMeasurer(0)
	if m.UsingFont() {
		t.Errorf("heuristic measurer claims to use a font")
	}
	if got := m.Width("x"); got <= 0 {
		t.Errorf("fallback char width not applied, got %d", got)
	}
}
