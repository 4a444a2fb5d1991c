package store

import (
	"context"

	"github.com/navali-creations/soothsayer-sub003/internal/cards"
)

// Provider answers weight queries with the league fallback applied. Right
// after a league launch the sheet lags behind, so a request for the new
// league falls back to whichever league the last successful load recorded.
type Provider struct {
	store Store
}

// NewProvider creates a read facade over a store.
func NewProvider(store Store) *Provider {
	return &Provider{store: store}
}

// Weights returns the weight rows for a game/league, retrying once with the
// last-loaded league when the requested one is empty. "No data" is an empty
// list, never an error.
func (p *Provider) Weights(ctx context.Context, game cards.Game, league string) ([]WeightRecord, error) {
	return p.queryWithFallback(ctx, game, league, p.store.GetWeights)
}

// BossItems is Weights restricted to boss-exclusive rows.
func (p *Provider) BossItems(ctx context.Context, game cards.Game, league string) ([]WeightRecord, error) {
	return p.queryWithFallback(ctx, game, league, p.store.GetBossItems)
}

func (p *Provider) queryWithFallback(ctx context.Context, game cards.Game, league string, query func(context.Context, cards.Game, string) ([]WeightRecord, error)) ([]WeightRecord, error) {
	// Try the requested league first
	records, err := query(ctx, game, league)
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		return records, nil
	}

	// Retry with the league from the last successful load
	meta, err := p.store.GetMetadata(ctx, game)
	if err != nil {
		return nil, err
	}
	if meta == nil || meta.League == "" || meta.League == league {
		return []WeightRecord{}, nil
	}

	records, err = query(ctx, game, meta.League)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []WeightRecord{}
	}
	return records, nil
}
