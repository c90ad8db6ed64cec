package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
run:
  batch_size: 50
retailers:
  norma:
    regio_keys: ["NOR-1", "NOR-2"]
  penny:
    delay_min: 10ms
    delay_max: 30ms
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Run.BatchSize)
	assert.Equal(t, 4, cfg.Run.Workers)
	assert.Equal(t, []string{"NOR-1", "NOR-2"}, cfg.Retailers.Norma.RegioKeys)
	assert.Equal(t, "https://www.penny.de", cfg.Retailers.Penny.BaseURL)
	assert.Equal(t, "Europe/Berlin", cfg.Location().String())

	lo, hi := cfg.Delays(cfg.Retailers.Penny)
	assert.Equal(t, 10*time.Millisecond, lo)
	assert.Equal(t, 30*time.Millisecond, hi)

	lo, hi = cfg.Delays(cfg.Retailers.Hit)
	assert.Equal(t, cfg.HTTP.DelayMin, lo)
	assert.Equal(t, cfg.HTTP.DelayMax, hi)
}
