package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/navali-creations/soothsayer-sub003/internal/cards"
)

var testLoadTime = time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC)

// newTestStore opens a fresh database in a temp directory
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Expected store to open, got: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedItems inserts catalog rows the way the catalog subsystem would
func seedItems(t *testing.T, s *SQLiteStore, game cards.Game, names ...string) {
	t.Helper()

	for _, name := range names {
		if _, err := s.DB().Exec(
			"INSERT INTO items (name, game, boss_exclusive) VALUES (?, ?, 0)",
			name, string(game),
		); err != nil {
			t.Fatalf("Expected item seed to succeed, got: %v", err)
		}
	}
}

func testBatch(game cards.Game, league string) []WeightRecord {
	return []WeightRecord{
		{ItemName: "Rain of Chaos", Game: game, League: league, Weight: 121400, Rarity: cards.RarityCommon, LoadedAt: testLoadTime, UpdatedAt: testLoadTime},
		{ItemName: "The Doctor", Game: game, League: league, Weight: 0, Rarity: cards.RarityUnknown, FromBoss: true, LoadedAt: testLoadTime, UpdatedAt: testLoadTime},
		{ItemName: "The Hoarder", Game: game, League: league, Weight: 640, Rarity: cards.RarityRare, LoadedAt: testLoadTime, UpdatedAt: testLoadTime},
	}
}

// TestSQLiteStore_UpsertAndGetWeights tests the write/read round trip
func TestSQLiteStore_UpsertAndGetWeights(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	league := "Keepers of the Flame"

	if err := s.UpsertWeights(ctx, testBatch(cards.GamePoE1, league)); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	records, err := s.GetWeights(ctx, cards.GamePoE1, league)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got: %d", len(records))
	}

	first := records[0]
	if first.ItemName != "Rain of Chaos" {
		t.Errorf("Expected Rain of Chaos first, got: %q", first.ItemName)
	}
	if first.Weight != 121400 || first.Rarity != cards.RarityCommon || first.FromBoss {
		t.Errorf("Unexpected record contents: %+v", first)
	}
	if !first.LoadedAt.Equal(testLoadTime) {
		t.Errorf("Expected loadedAt %v, got: %v", testLoadTime, first.LoadedAt)
	}
}

// TestSQLiteStore_ByteOrder tests that ordering is by byte value, not locale
func TestSQLiteStore_ByteOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	batch := []WeightRecord{
		{ItemName: "abandon", Game: cards.GamePoE1, League: "Standard", LoadedAt: testLoadTime, UpdatedAt: testLoadTime},
		{ItemName: "Zeal", Game: cards.GamePoE1, League: "Standard", LoadedAt: testLoadTime, UpdatedAt: testLoadTime},
		{ItemName: "Azure", Game: cards.GamePoE1, League: "Standard", LoadedAt: testLoadTime, UpdatedAt: testLoadTime},
	}
	if err := s.UpsertWeights(ctx, batch); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	records, err := s.GetWeights(ctx, cards.GamePoE1, "Standard")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	want := []string{"Azure", "Zeal", "abandon"}
	for i, name := range want {
		if records[i].ItemName != name {
			t.Errorf("Position %d: expected %q, got: %q", i, name, records[i].ItemName)
		}
	}
}

// TestSQLiteStore_UpsertIdempotent tests that a repeated identical batch changes nothing
func TestSQLiteStore_UpsertIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	league := "Keepers of the Flame"
	batch := testBatch(cards.GamePoE1, league)

	if err := s.UpsertWeights(ctx, batch); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	before, err := s.GetWeights(ctx, cards.GamePoE1, league)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if err := s.UpsertWeights(ctx, batch); err != nil {
		t.Fatalf("Expected no error on second upsert, got: %v", err)
	}
	after, err := s.GetWeights(ctx, cards.GamePoE1, league)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(after) != len(before) {
		t.Fatalf("Expected %d records, got: %d", len(before), len(after))
	}
	for i := range before {
		if after[i] != before[i] {
			t.Errorf("Record %d changed: %+v vs %+v", i, before[i], after[i])
		}
	}
}

// TestSQLiteStore_UpsertOverwrites tests last-write-wins on an existing key
func TestSQLiteStore_UpsertOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	league := "Keepers of the Flame"

	if err := s.UpsertWeights(ctx, testBatch(cards.GamePoE1, league)); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	later := testLoadTime.Add(24 * time.Hour)
	update := []WeightRecord{
		{ItemName: "The Doctor", Game: cards.GamePoE1, League: league, Weight: 12, Rarity: cards.RarityExtremelyRare, FromBoss: false, LoadedAt: later, UpdatedAt: later},
	}
	if err := s.UpsertWeights(ctx, update); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	records, err := s.GetWeights(ctx, cards.GamePoE1, league)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got: %d", len(records))
	}

	var doctor *WeightRecord
	for i := range records {
		if records[i].ItemName == "The Doctor" {
			doctor = &records[i]
		}
	}
	if doctor == nil {
		t.Fatal("Expected The Doctor to still exist")
	}
	if doctor.Weight != 12 || doctor.Rarity != cards.RarityExtremelyRare || doctor.FromBoss {
		t.Errorf("Expected overwritten values, got: %+v", doctor)
	}
	if !doctor.LoadedAt.Equal(later) {
		t.Errorf("Expected loadedAt %v, got: %v", later, doctor.LoadedAt)
	}
}

// TestSQLiteStore_EmptyUpsertIsNoOp tests that an empty batch writes nothing
func TestSQLiteStore_EmptyUpsertIsNoOp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertWeights(ctx, nil); err != nil {
		t.Fatalf("Expected no error for empty batch, got: %v", err)
	}

	records, err := s.GetWeights(ctx, cards.GamePoE1, "Standard")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected no records, got: %d", len(records))
	}
}

// TestSQLiteStore_LeaguesAccumulate tests that leagues keep independent rows
func TestSQLiteStore_LeaguesAccumulate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertWeights(ctx, testBatch(cards.GamePoE1, "Keepers of the Flame")); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if err := s.UpsertWeights(ctx, testBatch(cards.GamePoE1, "Standard")[:1]); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	keepers, _ := s.GetWeights(ctx, cards.GamePoE1, "Keepers of the Flame")
	standard, _ := s.GetWeights(ctx, cards.GamePoE1, "Standard")
	if len(keepers) != 3 {
		t.Errorf("Expected 3 Keepers records, got: %d", len(keepers))
	}
	if len(standard) != 1 {
		t.Errorf("Expected 1 Standard record, got: %d", len(standard))
	}
}

// TestSQLiteStore_MetadataRoundTrip tests the single-row-per-game marker
func TestSQLiteStore_MetadataRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	meta, err := s.GetMetadata(ctx, cards.GamePoE1)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if meta != nil {
		t.Fatalf("Expected no metadata before first load, got: %+v", meta)
	}

	first := CacheMetadata{
		Game:       cards.GamePoE1,
		League:     "Keepers of the Flame",
		LoadedAt:   testLoadTime,
		AppVersion: "1.4.0",
		CardCount:  447,
		CreatedAt:  testLoadTime,
	}
	if err := s.UpsertMetadata(ctx, first); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	meta, err = s.GetMetadata(ctx, cards.GamePoE1)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if meta == nil {
		t.Fatal("Expected metadata after upsert")
	}
	if meta.League != first.League || meta.AppVersion != first.AppVersion || meta.CardCount != first.CardCount {
		t.Errorf("Unexpected metadata: %+v", meta)
	}
	if !meta.LoadedAt.Equal(testLoadTime) {
		t.Errorf("Expected loadedAt %v, got: %v", testLoadTime, meta.LoadedAt)
	}

	// A later load replaces the marker wholesale
	second := first
	second.League = "Standard"
	second.AppVersion = "1.5.0"
	second.CardCount = 450
	if err := s.UpsertMetadata(ctx, second); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	meta, err = s.GetMetadata(ctx, cards.GamePoE1)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if meta.League != "Standard" || meta.AppVersion != "1.5.0" || meta.CardCount != 450 {
		t.Errorf("Expected replaced metadata, got: %+v", meta)
	}

	var count int
	if err := s.DB().QueryRow("SELECT COUNT(*) FROM cache_metadata WHERE game = ?", string(cards.GamePoE1)).Scan(&count); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected exactly 1 metadata row, got: %d", count)
	}
}

// TestSQLiteStore_GetBossItems tests the boss-only filter
func TestSQLiteStore_GetBossItems(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	league := "Keepers of the Flame"

	if err := s.UpsertWeights(ctx, testBatch(cards.GamePoE1, league)); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	boss, err := s.GetBossItems(ctx, cards.GamePoE1, league)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(boss) != 1 {
		t.Fatalf("Expected 1 boss record, got: %d", len(boss))
	}
	if boss[0].ItemName != "The Doctor" {
		t.Errorf("Expected The Doctor, got: %q", boss[0].ItemName)
	}
}

// TestSQLiteStore_SyncBossFlag tests the two-phase flag rewrite
func TestSQLiteStore_SyncBossFlag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	league := "Keepers of the Flame"

	// The Encroaching Darkness never appears in any load
	seedItems(t, s, cards.GamePoE1, "Rain of Chaos", "The Doctor", "The Hoarder", "Encroaching Darkness")
	// Flag starts dirty to prove the sync clears it
	if _, err := s.DB().Exec("UPDATE items SET boss_exclusive = 1 WHERE name = ?", "Encroaching Darkness"); err != nil {
		t.Fatalf("Expected flag seed to succeed, got: %v", err)
	}

	if err := s.UpsertWeights(ctx, testBatch(cards.GamePoE1, league)); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if err := s.SyncBossFlag(ctx, cards.GamePoE1, league); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	flags, err := s.ItemFlags(ctx, cards.GamePoE1)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	want := map[string]bool{
		"Rain of Chaos":        false,
		"The Doctor":           true,
		"The Hoarder":          false,
		"Encroaching Darkness": false,
	}
	for name, flag := range want {
		if flags[name] != flag {
			t.Errorf("%s: expected boss_exclusive=%v, got: %v", name, flag, flags[name])
		}
	}

	// Second sync with unchanged inputs changes nothing
	if err := s.SyncBossFlag(ctx, cards.GamePoE1, league); err != nil {
		t.Fatalf("Expected no error on second sync, got: %v", err)
	}
	again, err := s.ItemFlags(ctx, cards.GamePoE1)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	for name, flag := range flags {
		if again[name] != flag {
			t.Errorf("%s: flag changed on repeated sync", name)
		}
	}
}

// TestSQLiteStore_SyncBossFlagScopedToGame tests that other games are untouched
func TestSQLiteStore_SyncBossFlagScopedToGame(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedItems(t, s, cards.GamePoE1, "The Doctor")
	seedItems(t, s, cards.GamePoE2, "The Doctor")
	if _, err := s.DB().Exec("UPDATE items SET boss_exclusive = 1 WHERE game = ?", string(cards.GamePoE2)); err != nil {
		t.Fatalf("Expected flag seed to succeed, got: %v", err)
	}

	if err := s.SyncBossFlag(ctx, cards.GamePoE1, "Standard"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	other, err := s.ItemFlags(ctx, cards.GamePoE2)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !other["The Doctor"] {
		t.Error("Expected the other game's flag to be untouched")
	}
}
