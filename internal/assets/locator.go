package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/navali-creations/soothsayer-sub003/internal/cards"
)

// ErrAssetNotFound means no weight sheet exists for the requested game. The
// loader reports this as a clean empty result, not a failure.
var ErrAssetNotFound = errors.New("weight sheet not found")

// sheetNames maps each game to its packaged sheet file name.
var sheetNames = map[cards.Game]string{
	cards.GamePoE1: "divination_card_weights.csv",
	cards.GamePoE2: "divination_card_weights_poe2.csv",
}

// Locator finds the weight sheet on disk. Packaged builds ship the sheet next
// to the executable under data/, development runs read it from the working
// tree, and a per-user copy may live under the config directory.
type Locator struct {
	extraDirs []string
}

// NewLocator creates a locator. Any extra directories are searched first, in
// order.
func NewLocator(extraDirs ...string) *Locator {
	return &Locator{extraDirs: extraDirs}
}

// Resolve returns the sheet path for a game, or ErrAssetNotFound when no
// candidate location has one.
func (l *Locator) Resolve(game cards.Game) (string, error) {
	name, ok := sheetNames[game]
	if !ok {
		return "", fmt.Errorf("%w: no sheet configured for game %q", ErrAssetNotFound, game)
	}

	var candidates []string
	for _, dir := range l.extraDirs {
		candidates = append(candidates, filepath.Join(dir, name))
	}
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		candidates = append(candidates,
			filepath.Join(exeDir, "data", name),
			filepath.Join(exeDir, name),
		)
	}
	candidates = append(candidates, filepath.Join("data", name), name)
	if configDir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(configDir, "Soothsayer", name))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", ErrAssetNotFound
}

// Read loads the sheet bytes from a resolved path.
func (l *Locator) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read weight sheet: %w", err)
	}
	return data, nil
}
