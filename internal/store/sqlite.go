package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/navali-creations/soothsayer-sub003/internal/cards"
)

// SQLiteStore persists card weights in a local SQLite database. This is the
// desktop deployment backend.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// DefaultSQLitePath returns the per-user database location.
func DefaultSQLitePath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = "."
	}
	return filepath.Join(configDir, "Soothsayer", "soothsayer.db")
}

// NewSQLiteStore opens the database at path, creating the file and schema as
// needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// init creates the schema. The items table belongs to the card catalog; its
// rows are inserted elsewhere and only the boss_exclusive flag is written
// here.
func (s *SQLiteStore) init() error {
	schema := `
		CREATE TABLE IF NOT EXISTS card_weights (
			item_name TEXT NOT NULL,
			game TEXT NOT NULL,
			league TEXT NOT NULL,
			weight INTEGER NOT NULL DEFAULT 0,
			rarity INTEGER NOT NULL DEFAULT 0,
			from_boss INTEGER NOT NULL DEFAULT 0,
			loaded_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (item_name, game, league)
		);

		CREATE TABLE IF NOT EXISTS cache_metadata (
			game TEXT PRIMARY KEY,
			league TEXT NOT NULL,
			loaded_at TEXT NOT NULL,
			app_version TEXT NOT NULL,
			card_count INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS items (
			name TEXT NOT NULL,
			game TEXT NOT NULL,
			boss_exclusive INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (name, game)
		);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// DB returns the underlying database connection
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// UpsertWeights bulk upserts weight rows in a single transaction.
func (s *SQLiteStore) UpsertWeights(ctx context.Context, rows []WeightRecord) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after Commit()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO card_weights (item_name, game, league, weight, rarity, from_boss, loaded_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_name, game, league) DO UPDATE SET
			weight = excluded.weight,
			rarity = excluded.rarity,
			from_boss = excluded.from_boss,
			loaded_at = excluded.loaded_at,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare card_weights statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx,
			row.ItemName, string(row.Game), row.League,
			row.Weight, int(row.Rarity), boolToInt(row.FromBoss),
			toDBTime(row.LoadedAt), toDBTime(row.UpdatedAt),
		); err != nil {
			return fmt.Errorf("failed to upsert card_weights row %q: %w", row.ItemName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	fmt.Printf("[Store] Upserted %d card weights (%s/%s)\n", len(rows), rows[0].Game, rows[0].League)
	return nil
}

// UpsertMetadata replaces the latest-load marker for the game.
func (s *SQLiteStore) UpsertMetadata(ctx context.Context, meta CacheMetadata) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO cache_metadata (game, league, loaded_at, app_version, card_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, string(meta.Game), meta.League, toDBTime(meta.LoadedAt), meta.AppVersion, meta.CardCount, toDBTime(meta.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert cache_metadata: %w", err)
	}
	return nil
}

// GetMetadata returns the latest-load marker, or nil when the game has never
// loaded.
func (s *SQLiteStore) GetMetadata(ctx context.Context, game cards.Game) (*CacheMetadata, error) {
	var (
		meta                CacheMetadata
		loadedAt, createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT game, league, loaded_at, app_version, card_count, created_at
		FROM cache_metadata WHERE game = ?
	`, string(game)).Scan(&meta.Game, &meta.League, &loadedAt, &meta.AppVersion, &meta.CardCount, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache_metadata: %w", err)
	}

	meta.LoadedAt = fromDBTime(loadedAt)
	meta.CreatedAt = fromDBTime(createdAt)
	return &meta, nil
}

// GetWeights returns the rows for a game/league sorted by item name. SQLite's
// default BINARY collation gives the byte ordering the contract asks for.
func (s *SQLiteStore) GetWeights(ctx context.Context, game cards.Game, league string) ([]WeightRecord, error) {
	return s.queryWeights(ctx, `
		SELECT item_name, game, league, weight, rarity, from_boss, loaded_at, updated_at
		FROM card_weights
		WHERE game = ? AND league = ?
		ORDER BY item_name
	`, string(game), league)
}

// GetBossItems returns only the boss-exclusive rows for a game/league.
func (s *SQLiteStore) GetBossItems(ctx context.Context, game cards.Game, league string) ([]WeightRecord, error) {
	return s.queryWeights(ctx, `
		SELECT item_name, game, league, weight, rarity, from_boss, loaded_at, updated_at
		FROM card_weights
		WHERE game = ? AND league = ? AND from_boss = 1
		ORDER BY item_name
	`, string(game), league)
}

func (s *SQLiteStore) queryWeights(ctx context.Context, query string, args ...interface{}) ([]WeightRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query card_weights: %w", err)
	}
	defer rows.Close()

	var records []WeightRecord
	for rows.Next() {
		var (
			rec                 WeightRecord
			rarity, fromBoss    int
			loadedAt, updatedAt string
		)
		if err := rows.Scan(&rec.ItemName, &rec.Game, &rec.League, &rec.Weight, &rarity, &fromBoss, &loadedAt, &updatedAt); err != nil {
			fmt.Printf("[Store] Error scanning card_weights row: %v\n", err)
			continue
		}
		rec.Rarity = cards.Rarity(rarity)
		rec.FromBoss = fromBoss != 0
		rec.LoadedAt = fromDBTime(loadedAt)
		rec.UpdatedAt = fromDBTime(updatedAt)
		records = append(records, rec)
	}

	return records, rows.Err()
}

// SyncBossFlag rewrites the catalog's boss_exclusive flag from the current
// weight rows. Both updates run in one transaction so a reader never sees the
// set-true half without the set-false half.
func (s *SQLiteStore) SyncBossFlag(ctx context.Context, game cards.Game, league string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE items SET boss_exclusive = 1
		WHERE game = ? AND name IN (
			SELECT item_name FROM card_weights
			WHERE game = ? AND league = ? AND from_boss = 1
		)
	`, string(game), string(game), league); err != nil {
		return fmt.Errorf("failed to set boss flags: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE items SET boss_exclusive = 0
		WHERE game = ? AND name NOT IN (
			SELECT item_name FROM card_weights
			WHERE game = ? AND league = ? AND from_boss = 1
		)
	`, string(game), string(game), league); err != nil {
		return fmt.Errorf("failed to clear boss flags: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ItemFlags returns the catalog's boss_exclusive flag per item name.
func (s *SQLiteStore) ItemFlags(ctx context.Context, game cards.Game) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, boss_exclusive FROM items WHERE game = ?
	`, string(game))
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	flags := make(map[string]bool)
	for rows.Next() {
		var (
			name string
			flag int
		)
		if err := rows.Scan(&name, &flag); err != nil {
			fmt.Printf("[Store] Error scanning items row: %v\n", err)
			continue
		}
		flags[name] = flag != 0
	}

	return flags, rows.Err()
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// toDBTime stores timestamps as UTC RFC3339 text, the zero time as empty.
func toDBTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func fromDBTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
