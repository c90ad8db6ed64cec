package app

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ougirez/discounts/internal/domain"
	"github.com/ougirez/discounts/internal/pkg/config"
	"github.com/ougirez/discounts/internal/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryFromDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	reg := NewRegistry(context.Background(), cfg)
	assert.Equal(t, []domain.MarketType{
		domain.MarketTypeAldiNord,
		domain.MarketTypeAldiSued,
		domain.MarketTypePenny,
		domain.MarketTypeHit,
		domain.MarketTypeNetto,
		domain.MarketTypeNorma,
	}, reg.MarketTypes(), "rewe needs a certificate and is off by default")
}

func TestNewRegistryReweWithoutCertificate(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Retailers.Rewe.Enabled = true
	cfg.Retailers.Rewe.CertFile = filepath.Join(t.TempDir(), "missing.pem")

	reg := NewRegistry(context.Background(), cfg)
	_, err = reg.Get(domain.MarketTypeRewe)
	require.NoError(t, err, "adapter is registered and fails on prepare")
}

func TestOpenStore(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: constants.StoreDriverSQLite, DSN: ":memory:"}}

	st, closeFn, err := OpenStore(context.Background(), cfg)
	require.NoError(t, err)
	defer closeFn()
	require.NoError(t, st.Migrate(context.Background()))

	cfg.Store.Driver = "mongo"
	_, _, err = OpenStore(context.Background(), cfg)
	assert.Error(t, err)
}

func TestImportMarkets(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{Store: config.StoreConfig{Driver: constants.StoreDriverSQLite, DSN: ":memory:"}}
	st, closeFn, err := OpenStore(ctx, cfg)
	require.NoError(t, err)
	defer closeFn()
	require.NoError(t, st.Migrate(ctx))

	body := `[
		{"id": "1001", "market_type": "hit", "name": "HIT Bonn", "city": "Bonn", "postal_code": "53111"},
		{"id": "", "market_type": "hit", "name": "no id"},
		{"id": "7", "market_type": "edeka", "name": "unknown chain"}
	]`
	n, err := ImportMarkets(ctx, st, strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	markets, err := st.ListMarkets(ctx, domain.MarketTypeHit)
	require.NoError(t, err)
	require.Len(t, markets, 1)
	assert.Equal(t, "HIT Bonn", markets[0].Name)

	_, err = ImportMarkets(ctx, st, strings.NewReader(`{"id": 1}`))
	assert.Error(t, err)
}
