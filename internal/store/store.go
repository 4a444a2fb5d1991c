package store

import (
	"context"
	"time"

	"github.com/navali-creations/soothsayer-sub003/internal/cards"
)

// WeightRecord is one persisted card weight, keyed by (ItemName, Game, League).
// Rows are overwritten on later loads of the same key, never deleted, so
// different leagues accumulate independent rows.
type WeightRecord struct {
	ItemName  string       `json:"itemName"`
	Game      cards.Game   `json:"game"`
	League    string       `json:"league"`
	Weight    int          `json:"weight"`
	Rarity    cards.Rarity `json:"rarity"`
	FromBoss  bool         `json:"fromBoss"`
	LoadedAt  time.Time    `json:"loadedAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// CacheMetadata is the latest-load marker, exactly one row per game. Each
// successful load replaces the row wholesale; it is not a history.
type CacheMetadata struct {
	Game       cards.Game
	League     string
	LoadedAt   time.Time
	AppVersion string
	CardCount  int
	CreatedAt  time.Time
}

// Store is the transactional persistence contract the loader writes through
// and consumers read through. UpsertWeights and SyncBossFlag each run inside a
// single transaction; a concurrent reader never observes them half-applied.
type Store interface {
	// UpsertWeights writes a batch of weight rows, last write wins per key.
	// A nil or empty batch is a no-op.
	UpsertWeights(ctx context.Context, rows []WeightRecord) error

	// UpsertMetadata replaces the latest-load marker for the game.
	UpsertMetadata(ctx context.Context, meta CacheMetadata) error

	// GetMetadata returns the marker for a game, or nil when none exists.
	GetMetadata(ctx context.Context, game cards.Game) (*CacheMetadata, error)

	// GetWeights returns the rows for a game/league sorted by item name in
	// byte order.
	GetWeights(ctx context.Context, game cards.Game, league string) ([]WeightRecord, error)

	// GetBossItems is GetWeights filtered to boss-exclusive rows.
	GetBossItems(ctx context.Context, game cards.Game, league string) ([]WeightRecord, error)

	// SyncBossFlag flips the boss-exclusive flag on the item catalog: true
	// for every item present in this game/league's weights with
	// FromBoss=true, false for every other item of the game. Idempotent.
	// The catalog rows themselves are owned elsewhere; this only updates
	// the flag on rows that already exist.
	SyncBossFlag(ctx context.Context, game cards.Game, league string) error

	Close() error
}
