package league

import (
	"testing"

	"github.com/navali-creations/soothsayer-sub003/internal/cards"
)

// TestResolver_CaseInsensitive tests that lookups ignore label casing
func TestResolver_CaseInsensitive(t *testing.T) {
	r := NewResolver(NewStaticDirectory())

	for _, raw := range []string{"Keepers", "keepers", "KEEPERS", "  keepers  "} {
		if got := r.Resolve(cards.GamePoE1, raw); got != "Keepers of the Flame" {
			t.Errorf("Resolve(%q): expected Keepers of the Flame, got: %q", raw, got)
		}
	}
}

// TestResolver_CanonicalName tests that full names resolve to themselves
func TestResolver_CanonicalName(t *testing.T) {
	r := NewResolver(NewStaticDirectory())

	if got := r.Resolve(cards.GamePoE1, "keepers of the flame"); got != "Keepers of the Flame" {
		t.Errorf("Expected Keepers of the Flame, got: %q", got)
	}
}

// TestResolver_UnknownLabel tests that a miss returns the raw label unchanged
func TestResolver_UnknownLabel(t *testing.T) {
	r := NewResolver(NewStaticDirectory())

	if got := r.Resolve(cards.GamePoE1, "Phrecia"); got != "Phrecia" {
		t.Errorf("Expected raw label back, got: %q", got)
	}
}

// TestResolver_GamesAreSeparate tests that aliases do not leak across games
func TestResolver_GamesAreSeparate(t *testing.T) {
	r := NewResolver(NewStaticDirectory())

	if got := r.Resolve(cards.GamePoE2, "Keepers"); got != "Keepers" {
		t.Errorf("Expected raw label for the other game, got: %q", got)
	}
	if got := r.Resolve(cards.GamePoE2, "Dawn"); got != "Dawn of the Hunt" {
		t.Errorf("Expected Dawn of the Hunt, got: %q", got)
	}
}

// TestStaticDirectory_AddAlias tests extending the directory at runtime
func TestStaticDirectory_AddAlias(t *testing.T) {
	d := NewStaticDirectory()
	d.AddAlias(cards.GamePoE1, "Phrecia", "Legacy of Phrecia")

	name, ok := d.CanonicalLeague(cards.GamePoE1, "phrecia")
	if !ok {
		t.Fatal("Expected alias to resolve after AddAlias")
	}
	if name != "Legacy of Phrecia" {
		t.Errorf("Expected Legacy of Phrecia, got: %q", name)
	}
}
