package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
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

var games = []cards.Game{cards.GamePoE1, cards.GamePoE2}

var (
	weights *loader.Loader
	hub     *notify.Hub
)

func main() {
	config.LoadEnvFile()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	st, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	hub = notify.NewHub()
	broadcaster := notify.NewBroadcaster(hub)
	if cfg.WebhookURL != "" {
		broadcaster.AddSink(notify.NewWebhookSink(cfg.WebhookURL))
	}

	var locator *assets.Locator
	if cfg.AssetDir != "" {
		locator = assets.NewLocator(cfg.AssetDir)
	} else {
		locator = assets.NewLocator()
	}

	resolver := league.NewResolver(league.NewStaticDirectory())
	weights = loader.NewLoader(st, locator, resolver, newClassifier(cfg), broadcaster)

	ctx := loader.SetupSignalHandler(func(ctx context.Context) {
		hub.Close()
	})

	for _, game := range games {
		result := weights.Load(ctx, loader.LoadRequest{
			Game:       game,
			Now:        time.Now().UTC(),
			AppVersion: Version,
		})
		if result.Err != nil {
			log.Printf("[Main] Initial %s load failed: %v", game, result.Err)
		}
	}

	go reloadLoop(ctx, cfg.ReloadInterval)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", handleStatus)
	mux.HandleFunc("/api/weights", handleWeights)
	mux.HandleFunc("/api/boss-items", handleBossItems)
	mux.HandleFunc("/api/reload", handleReload)
	mux.HandleFunc("/ws", hub.HandleWS)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("[Main] Soothsayer %s listening on %s", Version, cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed: %v", err)
	}
	log.Println("[Main] Shutdown complete")
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

// reloadLoop re-runs the pipeline on a timer so league rollovers and sheet
// updates are picked up without a restart. The version check keeps unchanged
// runs write-free.
func reloadLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, game := range games {
				result := weights.Load(ctx, loader.LoadRequest{
					Game:       game,
					Now:        time.Now().UTC(),
					AppVersion: Version,
				})
				if result.Err != nil {
					log.Printf("[Main] Scheduled %s reload failed: %v", game, result.Err)
				}
			}
		}
	}
}

func handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	perGame := map[string]interface{}{}
	for _, game := range games {
		status, err := weights.Status(ctx, game)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		perGame[string(game)] = map[string]interface{}{
			"hasData":    status.HasData,
			"count":      status.Count,
			"league":     status.League,
			"loadedAt":   status.LoadedAt,
			"appVersion": status.AppVersion,
			"state":      weights.State(game),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"version": Version,
		"clients": hub.ClientCount(),
		"games":   perGame,
	})
}

func handleWeights(w http.ResponseWriter, r *http.Request) {
	serveWeights(w, r, weights.Weights)
}

func handleBossItems(w http.ResponseWriter, r *http.Request) {
	serveWeights(w, r, weights.BossItems)
}

func serveWeights(w http.ResponseWriter, r *http.Request, query func(context.Context, cards.Game, string) ([]store.WeightRecord, error)) {
	ctx := r.Context()

	game, err := cards.ParseGame(r.URL.Query().Get("game"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// An empty league falls back to the last loaded one
	leagueName := r.URL.Query().Get("league")

	rows, err := query(ctx, game, leagueName)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rows)
}

func handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	game, err := cards.ParseGame(r.URL.Query().Get("game"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	force := r.URL.Query().Get("force") == "true"

	result := weights.Load(r.Context(), loader.LoadRequest{
		Game:       game,
		Force:      force,
		Now:        time.Now().UTC(),
		AppVersion: Version,
	})
	if result.Err != nil {
		http.Error(w, result.Err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":  result.Success,
		"skipped":  result.Skipped,
		"count":    result.Count,
		"league":   result.League,
		"loadedAt": result.LoadedAt,
		"runId":    result.RunID,
	})
}
