package loader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/navali-creations/soothsayer-sub003/internal/assets"
	"github.com/navali-creations/soothsayer-sub003/internal/cards"
	"github.com/navali-creations/soothsayer-sub003/internal/notify"
	"github.com/navali-creations/soothsayer-sub003/internal/store"
)

// AssetSource locates and reads the raw weight sheet for a game.
// Note: This is separate from the assets.Locator struct to allow for mocking in tests.
type AssetSource interface {
	// Resolve returns the sheet path, or an error wrapping
	// assets.ErrAssetNotFound when no sheet ships for the game.
	Resolve(game cards.Game) (string, error)
	// Read returns the raw sheet bytes.
	Read(path string) ([]byte, error)
}

// LeagueResolver maps the sheet's raw league label to a canonical name.
type LeagueResolver interface {
	Resolve(game cards.Game, raw string) string
}

// Classifier assigns a rarity to every parsed row.
type Classifier interface {
	Classify(rows []cards.RawRow) []cards.ClassifiedRow
}

// Notifier receives the broadcast after a fully successful load.
type Notifier interface {
	Notify(ctx context.Context, event notify.Event) error
}

// Load failure categories
var (
	ErrAssetRead   = errors.New("failed to read weight sheet")
	ErrPersistence = errors.New("failed to persist weights")
)

// LoadRequest carries the explicit inputs of one load run. Now and AppVersion
// are parameters rather than ambient reads so the version check and the
// stored timestamps are deterministic.
type LoadRequest struct {
	Game       cards.Game
	Force      bool
	Now        time.Time
	AppVersion string
}

// Result reports the outcome of one load run.
type Result struct {
	Success  bool
	Skipped  bool
	Count    int
	League   string
	LoadedAt time.Time
	RunID    string
	Err      error
}

// Status describes the cached dataset for one game.
type Status struct {
	HasData    bool
	Count      int
	League     string
	LoadedAt   time.Time
	AppVersion string
}

// gameSlot serializes loads for one game
type gameSlot struct {
	mu      sync.Mutex
	machine *StateMachine
}

// Loader sequences the weight ingestion pipeline: resolve asset, read,
// parse, resolve league, check version, classify, persist, sync flags,
// notify. Loads for the same game are serialized internally; loads for
// different games may run concurrently.
type Loader struct {
	store    store.Store
	provider *store.Provider
	assets   AssetSource
	leagues  LeagueResolver
	classify Classifier
	notifier Notifier

	slots map[cards.Game]*gameSlot
}

// NewLoader wires the pipeline with its collaborators. notifier may be nil.
func NewLoader(st store.Store, source AssetSource, leagues LeagueResolver, classifier Classifier, notifier Notifier) *Loader {
	l := &Loader{
		store:    st,
		provider: store.NewProvider(st),
		assets:   source,
		leagues:  leagues,
		classify: classifier,
		notifier: notifier,
		slots:    make(map[cards.Game]*gameSlot),
	}

	for _, game := range []cards.Game{cards.GamePoE1, cards.GamePoE2} {
		slot := &gameSlot{machine: NewStateMachine()}
		slot.machine.OnTransition(func(from, to State) {
			log.Printf("[Loader] %s: %s -> %s", game, from, to)
		})
		l.slots[game] = slot
	}

	return l
}

// Load runs the full pipeline for one game and blocks until it finishes.
func (l *Loader) Load(ctx context.Context, req LoadRequest) Result {
	slot, ok := l.slots[req.Game]
	if !ok {
		return Result{Err: fmt.Errorf("unknown game %q", req.Game)}
	}

	if req.Now.IsZero() {
		req.Now = time.Now().UTC()
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	runID := uuid.NewString()
	result := l.run(ctx, slot.machine, req, runID)
	slot.machine.TransitionTo(StateIdle)
	return result
}

// LoadAsync runs Load on its own goroutine and delivers the result on the
// returned channel. The channel is buffered so the result is never lost.
func (l *Loader) LoadAsync(ctx context.Context, req LoadRequest) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		ch <- l.Load(ctx, req)
	}()
	return ch
}

func (l *Loader) run(ctx context.Context, machine *StateMachine, req LoadRequest, runID string) Result {
	machine.TransitionTo(StateResolvingAsset)
	path, err := l.assets.Resolve(req.Game)
	if err != nil {
		if errors.Is(err, assets.ErrAssetNotFound) {
			// No sheet ships for this game. A clean no-op, not a failure.
			log.Printf("[Loader] No weight sheet for %s, nothing to load", req.Game)
			return Result{Success: true, RunID: runID}
		}
		return Result{RunID: runID, Err: fmt.Errorf("%w: %v", ErrAssetRead, err)}
	}

	machine.TransitionTo(StateReading)
	data, err := l.assets.Read(path)
	if err != nil {
		return Result{RunID: runID, Err: fmt.Errorf("%w: %v", ErrAssetRead, err)}
	}

	machine.TransitionTo(StateParsing)
	parsed, err := cards.Parse(data)
	if err != nil {
		return Result{RunID: runID, Err: err}
	}

	machine.TransitionTo(StateResolvingLeague)
	league := l.leagues.Resolve(req.Game, parsed.League)

	machine.TransitionTo(StateCheckingVersion)
	meta, err := l.store.GetMetadata(ctx, req.Game)
	if err != nil {
		return Result{RunID: runID, Err: fmt.Errorf("%w: %v", ErrPersistence, err)}
	}
	if !req.Force && meta != nil && meta.AppVersion == req.AppVersion && meta.League == league {
		log.Printf("[Loader] %s weights for %s already loaded on version %s, skipping", req.Game, league, req.AppVersion)
		return Result{
			Success:  true,
			Skipped:  true,
			Count:    meta.CardCount,
			League:   meta.League,
			LoadedAt: meta.LoadedAt,
			RunID:    runID,
		}
	}

	machine.TransitionTo(StateClassifying)
	classified := l.classify.Classify(parsed.Rows)

	machine.TransitionTo(StatePersisting)
	records := make([]store.WeightRecord, 0, len(classified))
	for _, row := range classified {
		records = append(records, store.WeightRecord{
			ItemName:  row.ItemName,
			Game:      req.Game,
			League:    league,
			Weight:    row.Weight,
			Rarity:    row.Rarity,
			FromBoss:  row.FromBoss,
			LoadedAt:  req.Now,
			UpdatedAt: req.Now,
		})
	}
	if err := l.store.UpsertWeights(ctx, records); err != nil {
		return Result{RunID: runID, Err: fmt.Errorf("%w: %v", ErrPersistence, err)}
	}
	if err := l.store.UpsertMetadata(ctx, store.CacheMetadata{
		Game:       req.Game,
		League:     league,
		LoadedAt:   req.Now,
		AppVersion: req.AppVersion,
		CardCount:  len(records),
		CreatedAt:  req.Now,
	}); err != nil {
		return Result{RunID: runID, Err: fmt.Errorf("%w: %v", ErrPersistence, err)}
	}

	machine.TransitionTo(StateSyncingFlags)
	if err := l.store.SyncBossFlag(ctx, req.Game, league); err != nil {
		return Result{RunID: runID, Err: fmt.Errorf("%w: %v", ErrPersistence, err)}
	}

	machine.TransitionTo(StateNotifying)
	if l.notifier != nil {
		event := notify.Event{
			Game:     req.Game,
			League:   league,
			Count:    len(records),
			LoadedAt: req.Now,
			RunID:    runID,
		}
		// Broadcast is best-effort
		if err := l.notifier.Notify(ctx, event); err != nil {
			log.Printf("[Loader] Notification failed: %v", err)
		}
	}

	log.Printf("[Loader] Loaded %d %s weights for %s", len(records), req.Game, league)
	return Result{
		Success:  true,
		Count:    len(records),
		League:   league,
		LoadedAt: req.Now,
		RunID:    runID,
	}
}

// Status reports the latest-load marker for a game.
func (l *Loader) Status(ctx context.Context, game cards.Game) (Status, error) {
	meta, err := l.store.GetMetadata(ctx, game)
	if err != nil {
		return Status{}, fmt.Errorf("failed to read load status: %w", err)
	}
	if meta == nil {
		return Status{}, nil
	}

	return Status{
		HasData:    true,
		Count:      meta.CardCount,
		League:     meta.League,
		LoadedAt:   meta.LoadedAt,
		AppVersion: meta.AppVersion,
	}, nil
}

// State returns the current pipeline state for a game.
func (l *Loader) State(game cards.Game) State {
	slot, ok := l.slots[game]
	if !ok {
		return StateIdle
	}
	return slot.machine.Current()
}

// Weights returns the stored rows for a game/league, falling back to the
// last loaded league when the requested one has no rows.
func (l *Loader) Weights(ctx context.Context, game cards.Game, league string) ([]store.WeightRecord, error) {
	return l.provider.Weights(ctx, game, league)
}

// BossItems is Weights filtered to boss-exclusive rows.
func (l *Loader) BossItems(ctx context.Context, game cards.Game, league string) ([]store.WeightRecord, error) {
	return l.provider.BossItems(ctx, game, league)
}
