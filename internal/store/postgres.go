package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/navali-creations/soothsayer-sub003/internal/cards"
)

// PostgresStore persists card weights in Postgres. This is the backend for
// server deployments where several overlay clients share one dataset.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects to the database and ensures the schema exists.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.createTables(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// createTables creates the required tables if they don't exist
func (s *PostgresStore) createTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS card_weights (
			item_name TEXT NOT NULL,
			game TEXT NOT NULL,
			league TEXT NOT NULL,
			weight INTEGER NOT NULL DEFAULT 0,
			rarity INTEGER NOT NULL DEFAULT 0,
			from_boss BOOLEAN NOT NULL DEFAULT FALSE,
			loaded_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (item_name, game, league)
		)`,
		`CREATE TABLE IF NOT EXISTS cache_metadata (
			game TEXT PRIMARY KEY,
			league TEXT NOT NULL,
			loaded_at TIMESTAMPTZ NOT NULL,
			app_version TEXT NOT NULL,
			card_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			name TEXT NOT NULL,
			game TEXT NOT NULL,
			boss_exclusive BOOLEAN NOT NULL DEFAULT FALSE,
			PRIMARY KEY (name, game)
		)`,
	}

	for _, q := range queries {
		if _, err := s.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// Pool returns the underlying connection pool
func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

// UpsertWeights bulk upserts weight rows in a single transaction.
func (s *PostgresStore) UpsertWeights(ctx context.Context, rows []WeightRecord) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO card_weights (item_name, game, league, weight, rarity, from_boss, loaded_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (item_name, game, league) DO UPDATE SET
			weight = EXCLUDED.weight,
			rarity = EXCLUDED.rarity,
			from_boss = EXCLUDED.from_boss,
			loaded_at = EXCLUDED.loaded_at,
			updated_at = EXCLUDED.updated_at
	`
	for _, row := range rows {
		if _, err := tx.Exec(ctx, query,
			row.ItemName, string(row.Game), row.League,
			row.Weight, int(row.Rarity), row.FromBoss,
			row.LoadedAt.UTC(), row.UpdatedAt.UTC(),
		); err != nil {
			return fmt.Errorf("failed to upsert card_weights row %q: %w", row.ItemName, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	fmt.Printf("[Store] Upserted %d card weights (%s/%s)\n", len(rows), rows[0].Game, rows[0].League)
	return nil
}

// UpsertMetadata replaces the latest-load marker for the game.
func (s *PostgresStore) UpsertMetadata(ctx context.Context, meta CacheMetadata) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO cache_metadata (game, league, loaded_at, app_version, card_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game) DO UPDATE SET
			league = EXCLUDED.league,
			loaded_at = EXCLUDED.loaded_at,
			app_version = EXCLUDED.app_version,
			card_count = EXCLUDED.card_count,
			created_at = EXCLUDED.created_at
	`, string(meta.Game), meta.League, meta.LoadedAt.UTC(), meta.AppVersion, meta.CardCount, meta.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert cache_metadata: %w", err)
	}
	return nil
}

// GetMetadata returns the latest-load marker, or nil when the game has never
// loaded.
func (s *PostgresStore) GetMetadata(ctx context.Context, game cards.Game) (*CacheMetadata, error) {
	var meta CacheMetadata
	err := s.pool.QueryRow(ctx, `
		SELECT game, league, loaded_at, app_version, card_count, created_at
		FROM cache_metadata WHERE game = $1
	`, string(game)).Scan(&meta.Game, &meta.League, &meta.LoadedAt, &meta.AppVersion, &meta.CardCount, &meta.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache_metadata: %w", err)
	}
	return &meta, nil
}

// GetWeights returns the rows for a game/league sorted by item name. The "C"
// collation forces byte ordering regardless of the database locale.
func (s *PostgresStore) GetWeights(ctx context.Context, game cards.Game, league string) ([]WeightRecord, error) {
	return s.queryWeights(ctx, `
		SELECT item_name, game, league, weight, rarity, from_boss, loaded_at, updated_at
		FROM card_weights
		WHERE game = $1 AND league = $2
		ORDER BY item_name COLLATE "C"
	`, string(game), league)
}

// GetBossItems returns only the boss-exclusive rows for a game/league.
func (s *PostgresStore) GetBossItems(ctx context.Context, game cards.Game, league string) ([]WeightRecord, error) {
	return s.queryWeights(ctx, `
		SELECT item_name, game, league, weight, rarity, from_boss, loaded_at, updated_at
		FROM card_weights
		WHERE game = $1 AND league = $2 AND from_boss
		ORDER BY item_name COLLATE "C"
	`, string(game), league)
}

func (s *PostgresStore) queryWeights(ctx context.Context, query string, args ...interface{}) ([]WeightRecord, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query card_weights: %w", err)
	}
	defer rows.Close()

	var records []WeightRecord
	for rows.Next() {
		var (
			rec    WeightRecord
			rarity int
		)
		if err := rows.Scan(&rec.ItemName, &rec.Game, &rec.League, &rec.Weight, &rarity, &rec.FromBoss, &rec.LoadedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan card_weights row: %w", err)
		}
		rec.Rarity = cards.Rarity(rarity)
		records = append(records, rec)
	}

	return records, rows.Err()
}

// SyncBossFlag rewrites the catalog's boss_exclusive flag from the current
// weight rows, both updates inside one transaction.
func (s *PostgresStore) SyncBossFlag(ctx context.Context, game cards.Game, league string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE items SET boss_exclusive = TRUE
		WHERE game = $1 AND name IN (
			SELECT item_name FROM card_weights
			WHERE game = $1 AND league = $2 AND from_boss
		)
	`, string(game), league); err != nil {
		return fmt.Errorf("failed to set boss flags: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE items SET boss_exclusive = FALSE
		WHERE game = $1 AND name NOT IN (
			SELECT item_name FROM card_weights
			WHERE game = $1 AND league = $2 AND from_boss
		)
	`, string(game), league); err != nil {
		return fmt.Errorf("failed to clear boss flags: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ItemFlags returns the catalog's boss_exclusive flag per item name.
func (s *PostgresStore) ItemFlags(ctx context.Context, game cards.Game) (map[string]bool, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT name, boss_exclusive FROM items WHERE game = $1
	`, string(game))
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	flags := make(map[string]bool)
	for rows.Next() {
		var (
			name string
			flag bool
		)
		if err := rows.Scan(&name, &flag); err != nil {
			return nil, fmt.Errorf("failed to scan items row: %w", err)
		}
		flags[name] = flag
	}

	return flags, rows.Err()
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
