package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/navali-creations/soothsayer-sub003/internal/assets"
	"github.com/navali-creations/soothsayer-sub003/internal/cards"
	"github.com/navali-creations/soothsayer-sub003/internal/config"
	"github.com/navali-creations/soothsayer-sub003/internal/league"
	"github.com/navali-creations/soothsayer-sub003/internal/loader"
	"github.com/navali-creations/soothsayer-sub003/internal/notify"
	"github.com/navali-creations/soothsayer-sub003/internal/store"
)

// Build-time variables - set via -ldflags
// Example: go build -ldflags "-X 'main.Version=1.2.3'"
var Version = "dev"

// fixedSource serves one explicit sheet path regardless of game
type fixedSource struct {
	path string
}

func (s fixedSource) Resolve(game cards.Game) (string, error) { return s.path, nil }
func (s fixedSource) Read(path string) ([]byte, error)        { return os.ReadFile(path) }

func main() {
	config.LoadEnvFile()

	gameFlag := flag.String("game", "poe1", "Game to load (poe1 or poe2)")
	force := flag.Bool("force", false, "Reload even when version and league are unchanged")
	file := flag.String("file", "", "Load this sheet file instead of the packaged one")
	flag.Parse()

	game, err := cards.ParseGame(*gameFlag)
	if err != nil {
		fmt.Println("Usage:")
		fmt.Println("  cardloader -game=poe1 [-force] [-file=weights.csv]")
		fmt.Println()
		fmt.Println("Parses the divination card weight sheet, classifies rarities and")
		fmt.Println("upserts the result into the configured store.")
		os.Exit(1)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	st, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	var source loader.AssetSource
	switch {
	case *file != "":
		source = fixedSource{path: *file}
	case cfg.AssetDir != "":
		source = assets.NewLocator(cfg.AssetDir)
	default:
		source = assets.NewLocator()
	}

	var notifier loader.Notifier
	if cfg.WebhookURL != "" {
		notifier = notify.NewWebhookSink(cfg.WebhookURL)
	}

	resolver := league.NewResolver(league.NewStaticDirectory())
	l := loader.NewLoader(st, source, resolver, newClassifier(cfg), notifier)

	result := l.Load(context.Background(), loader.LoadRequest{
		Game:       game,
		Force:      *force,
		Now:        time.Now().UTC(),
		AppVersion: Version,
	})
	if result.Err != nil {
		log.Fatalf("Load failed: %v", result.Err)
	}

	switch {
	case result.Skipped:
		fmt.Printf("Skipped: %d cards already loaded for %s (version %s)\n", result.Count, result.League, Version)
	case result.Count == 0 && result.League == "":
		fmt.Printf("No weight sheet found for %s\n", game)
	default:
		fmt.Printf("Loaded %d cards for %s/%s\n", result.Count, game, result.League)
	}
}

func openStore(cfg config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return store.NewPostgresStore(ctx, cfg.DatabaseURL)
	default:
		path := cfg.SQLitePath
		if path == "" {
			path = store.DefaultSQLitePath()
		}
		return store.NewSQLiteStore(path)
	}
}

func newClassifier(cfg config.Config) loader.Classifier {
	if cfg.ClassifierPolicy == config.PolicyRelative {
		return cards.RelativeClassifier{}
	}
	return cards.NewWeightClassifier(cards.DefaultThresholds())
}
