package app

import (
	"context"
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	"github.com/ougirez/discounts/internal/domain"
	"github.com/ougirez/discounts/internal/pkg/store"
)

// ImportMarkets reads a JSON array of markets from r and upserts the valid ones.
func ImportMarkets(ctx context.Context, st store.Store, r io.Reader) (int, error) {
	var markets []domain.Market
	if err := sonic.ConfigDefault.NewDecoder(r).Decode(&markets); err != nil {
		return 0, fmt.Errorf("decode markets: %w", err)
	}

	valid := markets[:0]
	for _, m := range markets {
		if m.ID == "" {
			continue
		}
		if _, err := domain.ParseMarketType(string(m.MarketType)); err != nil {
			continue
		}
		valid = append(valid, m)
	}

	if err := st.UpsertMarkets(ctx, valid); err != nil {
		return 0, fmt.Errorf("store.UpsertMarkets: %w", err)
	}
	return len(valid), nil
}
