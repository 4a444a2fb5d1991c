package cards

import (
	"fmt"
	"strings"
)

// Game identifies which game variant a dataset belongs to.
type Game string

const (
	GamePoE1 Game = "poe1"
	GamePoE2 Game = "poe2"
)

// ParseGame validates a game identifier from config or CLI input.
func ParseGame(s string) (Game, error) {
	switch g := Game(strings.ToLower(strings.TrimSpace(s))); g {
	case GamePoE1, GamePoE2:
		return g, nil
	}
	return "", fmt.Errorf("unknown game %q", s)
}

// Rarity is the 0-4 ordinal drop-rarity scale.
type Rarity int

const (
	RarityUnknown       Rarity = 0
	RarityExtremelyRare Rarity = 1
	RarityRare          Rarity = 2
	RarityLessCommon    Rarity = 3
	RarityCommon        Rarity = 4
)

func (r Rarity) String() string {
	switch r {
	case RarityExtremelyRare:
		return "Extremely Rare"
	case RarityRare:
		return "Rare"
	case RarityLessCommon:
		return "Less Common"
	case RarityCommon:
		return "Common"
	default:
		return "Unknown"
	}
}

// RawRow is one dataset line after column resolution, before classification.
type RawRow struct {
	ItemName       string
	Bucket         int
	Weight         int
	FromBoss       bool
	RawLeagueLabel string
}

// ClassifiedRow is a RawRow with its rarity band assigned.
type ClassifiedRow struct {
	RawRow
	Rarity Rarity
}
