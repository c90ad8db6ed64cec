// Package app wires configuration into stores, adapters and services.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ougirez/discounts/internal/domain"
	"github.com/ougirez/discounts/internal/pkg/config"
	"github.com/ougirez/discounts/internal/pkg/constants"
	"github.com/ougirez/discounts/internal/pkg/fetch"
	"github.com/ougirez/discounts/internal/pkg/logger"
	"github.com/ougirez/discounts/internal/pkg/resume"
	"github.com/ougirez/discounts/internal/pkg/store"
	"github.com/ougirez/discounts/internal/pkg/store/sqlite"
	"github.com/ougirez/discounts/internal/pkg/store/xpgx"
	"github.com/ougirez/discounts/internal/service/directory"
	"github.com/ougirez/discounts/internal/service/discounts"
	"github.com/ougirez/discounts/internal/service/retailers"
	"github.com/ougirez/discounts/internal/service/retailers/aldinord"
	"github.com/ougirez/discounts/internal/service/retailers/aldisued"
	"github.com/ougirez/discounts/internal/service/retailers/hit"
	"github.com/ougirez/discounts/internal/service/retailers/netto"
	"github.com/ougirez/discounts/internal/service/retailers/norma"
	"github.com/ougirez/discounts/internal/service/retailers/penny"
	"github.com/ougirez/discounts/internal/service/retailers/rewe"
)

// OpenStore opens the configured store. The returned func releases it.
func OpenStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	switch cfg.Store.Driver {
	case constants.StoreDriverPostgres:
		pool, err := xpgx.New(ctx, cfg.Store.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("xpgx.New: %w", err)
		}
		return store.NewStore(pool), pool.Close, nil

	case constants.StoreDriverSQLite, "":
		st, err := sqlite.Open(cfg.Store.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite.Open: %w", err)
		}
		return st, func() { _ = st.Close() }, nil
	}

	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// NewRegistry builds the enabled adapters. opts are applied to every client.
func NewRegistry(ctx context.Context, cfg *config.Config, opts ...fetch.Option) *retailers.Registry {
	rc := cfg.Retailers
	reg := retailers.NewRegistry()

	client := func(mt domain.MarketType, c config.RetailerConfig, extra ...fetch.Option) *fetch.Client {
		return retailers.NewClient(string(mt), cfg, c, append(extra, opts...)...)
	}

	if rc.AldiNord.Enabled {
		reg.Register(aldinord.New(client(domain.MarketTypeAldiNord, rc.AldiNord), rc.AldiNord.BaseURL))
	}
	if rc.AldiSued.Enabled {
		reg.Register(aldisued.New(client(domain.MarketTypeAldiSued, rc.AldiSued), rc.AldiSued.BaseURL))
	}
	if rc.Penny.Enabled {
		reg.Register(penny.New(client(domain.MarketTypePenny, rc.Penny), rc.Penny.BaseURL))
	}
	if rc.Rewe.Enabled {
		var extra []fetch.Option
		cert, err := fetch.LoadCertificate(rc.Rewe.CertFile, rc.Rewe.KeyFile)
		if err != nil {
			logger.Warnf(ctx, "rewe client certificate: %v", err)
		} else {
			extra = append(extra, fetch.WithCertificate(cert))
		}
		reg.Register(rewe.New(client(domain.MarketTypeRewe, rc.Rewe.RetailerConfig, extra...), rc.Rewe.BaseURL))
	}
	if rc.Hit.Enabled {
		reg.Register(hit.New(client(domain.MarketTypeHit, rc.Hit, fetch.WithHeader("x-api-key", rc.Hit.APIKey)), rc.Hit.BaseURL))
	}
	if rc.Netto.Enabled {
		reg.Register(netto.New(client(domain.MarketTypeNetto, rc.Netto.RetailerConfig), rc.Netto.BaseURL, rc.Netto.BrandsURL, rc.Netto.APIKey))
	}
	if rc.Norma.Enabled {
		reg.Register(norma.New(client(domain.MarketTypeNorma, rc.Norma.RetailerConfig), rc.Norma.BaseURL, rc.Norma.AuthToken))
	}

	return reg
}

// Clock returns the current time in the configured timezone.
func Clock(cfg *config.Config) func() time.Time {
	loc := cfg.Location()
	return func() time.Time { return time.Now().In(loc) }
}

func batchSizes(cfg *config.Config) map[domain.MarketType]int {
	rc := cfg.Retailers
	return map[domain.MarketType]int{
		domain.MarketTypeAldiNord: rc.AldiNord.BatchSize,
		domain.MarketTypeAldiSued: rc.AldiSued.BatchSize,
		domain.MarketTypePenny:    rc.Penny.BatchSize,
		domain.MarketTypeRewe:     rc.Rewe.BatchSize,
		domain.MarketTypeHit:      rc.Hit.BatchSize,
		domain.MarketTypeNetto:    rc.Netto.BatchSize,
		domain.MarketTypeNorma:    rc.Norma.BatchSize,
	}
}

// NewDiscountsService assembles the retrieval service on top of st.
func NewDiscountsService(ctx context.Context, cfg *config.Config, st store.Store, opts ...fetch.Option) *discounts.Service {
	now := Clock(cfg)
	return discounts.NewDiscountsService(
		NewRegistry(ctx, cfg, opts...),
		directory.NewDirectoryService(st, cfg.Retailers.Norma.RegioKeys, now),
		st,
		resume.NewStore(cfg.Run.ResumeDir),
		now,
		discounts.Options{
			BatchSize:  cfg.Run.BatchSize,
			Workers:    cfg.Run.Workers,
			BatchSizes: batchSizes(cfg),
		},
	)
}
