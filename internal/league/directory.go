package league

import (
	"strings"
	"sync"

	"github.com/navali-creations/soothsayer-sub003/internal/cards"
)

// StaticDirectory is an in-memory league directory seeded with the known
// challenge leagues per game. The community sheet abbreviates league names in
// its header, so most entries map a short label to the full name.
type StaticDirectory struct {
	mu      sync.RWMutex
	entries map[cards.Game]map[string]string
}

type leagueEntry struct {
	game      cards.Game
	alias     string
	canonical string
}

// NewStaticDirectory creates a directory populated with the known leagues.
func NewStaticDirectory() *StaticDirectory {
	d := &StaticDirectory{
		entries: make(map[cards.Game]map[string]string),
	}
	d.populate()
	return d
}

// populate seeds the alias table
func (d *StaticDirectory) populate() {
	seed := []leagueEntry{
		{cards.GamePoE1, "Standard", "Standard"},
		{cards.GamePoE1, "Hardcore", "Hardcore"},
		{cards.GamePoE1, "Keepers", "Keepers of the Flame"},
		{cards.GamePoE1, "Mercenaries", "Mercenaries of Trarthus"},
		{cards.GamePoE1, "Settlers", "Settlers of Kalguur"},
		{cards.GamePoE1, "Necropolis", "Necropolis"},
		{cards.GamePoE1, "Affliction", "Affliction"},
		{cards.GamePoE2, "Standard", "Standard"},
		{cards.GamePoE2, "Dawn", "Dawn of the Hunt"},
		{cards.GamePoE2, "Rise", "Rise of the Abyssal"},
	}

	for _, e := range seed {
		d.AddAlias(e.game, e.alias, e.canonical)
	}
}

// AddAlias registers an alias for a canonical league name. The canonical name
// itself always resolves too.
func (d *StaticDirectory) AddAlias(game cards.Game, alias, canonical string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	byAlias, ok := d.entries[game]
	if !ok {
		byAlias = make(map[string]string)
		d.entries[game] = byAlias
	}
	byAlias[strings.ToLower(strings.TrimSpace(alias))] = canonical
	byAlias[strings.ToLower(canonical)] = canonical
}

// CanonicalLeague looks up a raw label case-insensitively.
func (d *StaticDirectory) CanonicalLeague(game cards.Game, raw string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	byAlias, ok := d.entries[game]
	if !ok {
		return "", false
	}
	name, ok := byAlias[strings.ToLower(strings.TrimSpace(raw))]
	return name, ok
}
