package league

import (
	"log"

	"github.com/navali-creations/soothsayer-sub003/internal/cards"
)

// Directory is the lookup the resolver consults.
type Directory interface {
	CanonicalLeague(game cards.Game, raw string) (string, bool)
}

// Resolver canonicalizes the raw league label the parser pulled from the
// sheet header. An unknown label is not a failure: the sheet is usually ahead
// of the directory right after a league launch, so the raw label is used
// as-is until the directory catches up.
type Resolver struct {
	dir Directory
}

// NewResolver creates a resolver backed by the given directory.
func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve returns the canonical league name for a raw header label.
func (r *Resolver) Resolve(game cards.Game, raw string) string {
	if name, ok := r.dir.CanonicalLeague(game, raw); ok {
		return name
	}
	log.Printf("[League] No canonical name for %q (%s), keeping raw label", raw, game)
	return raw
}
