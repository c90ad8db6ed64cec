package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/ougirez/discounts/internal/pkg/constants"
	"github.com/spf13/viper"
)

const envPrefix = "DISCOUNTS"

type Config struct {
	Timezone  string          `mapstructure:"timezone"`
	Log       LogConfig       `mapstructure:"log"`
	Store     StoreConfig     `mapstructure:"store"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Run       RunConfig       `mapstructure:"run"`
	API       APIConfig       `mapstructure:"api"`
	Retailers RetailersConfig `mapstructure:"retailers"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type HTTPConfig struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	Retries  uint64        `mapstructure:"retries"`
	DelayMin time.Duration `mapstructure:"delay_min"`
	DelayMax time.Duration `mapstructure:"delay_max"`
}

type RunConfig struct {
	BatchSize int    `mapstructure:"batch_size"`
	Workers   int    `mapstructure:"workers"`
	ResumeDir string `mapstructure:"resume_dir"`
}

type APIConfig struct {
	Addr   string `mapstructure:"addr"`
	Secret string `mapstructure:"secret"`
}

// RetailerConfig holds the settings every adapter understands. Zero delay bounds
// fall back to the http section.
type RetailerConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	UserAgent         string        `mapstructure:"user_agent"`
	DelayMin          time.Duration `mapstructure:"delay_min"`
	DelayMax          time.Duration `mapstructure:"delay_max"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	BatchSize         int           `mapstructure:"batch_size"`
}

type ReweConfig struct {
	RetailerConfig `mapstructure:",squash"`
	CertFile       string `mapstructure:"cert_file"`
	KeyFile        string `mapstructure:"key_file"`
}

type NettoConfig struct {
	RetailerConfig `mapstructure:",squash"`
	BrandsURL      string `mapstructure:"brands_url"`
}

type NormaConfig struct {
	RetailerConfig `mapstructure:",squash"`
	AuthToken      string   `mapstructure:"auth_token"`
	RegioKeys      []string `mapstructure:"regio_keys"`
}

type RetailersConfig struct {
	AldiNord RetailerConfig `mapstructure:"aldi_nord"`
	AldiSued RetailerConfig `mapstructure:"aldi_sued"`
	Penny    RetailerConfig `mapstructure:"penny"`
	Rewe     ReweConfig     `mapstructure:"rewe"`
	Hit      RetailerConfig `mapstructure:"hit"`
	Netto    NettoConfig    `mapstructure:"netto"`
	Norma    NormaConfig    `mapstructure:"norma"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(constants.ViperTimezoneKey, "Europe/Berlin")
	v.SetDefault(constants.ViperLogLevelKey, "info")
	v.SetDefault(constants.ViperLogDevelopmentKey, false)
	v.SetDefault(constants.ViperStoreDriverKey, constants.StoreDriverSQLite)
	v.SetDefault(constants.ViperStoreDSNKey, "discounts.db")
	v.SetDefault(constants.ViperHTTPTimeoutKey, 20*time.Second)
	v.SetDefault(constants.ViperHTTPRetriesKey, 2)
	v.SetDefault(constants.ViperHTTPDelayMinKey, 20*time.Millisecond)
	v.SetDefault(constants.ViperHTTPDelayMaxKey, 500*time.Millisecond)
	v.SetDefault(constants.ViperRunBatchSizeKey, 300)
	v.SetDefault(constants.ViperRunWorkersKey, 4)
	v.SetDefault(constants.ViperRunResumeDirKey, "tmp")
	v.SetDefault(constants.ViperAPIAddrKey, ":8080")

	v.SetDefault("retailers.aldi_nord.enabled", true)
	v.SetDefault("retailers.aldi_nord.base_url", "https://www.aldi-nord.de")
	v.SetDefault("retailers.aldi_sued.enabled", true)
	v.SetDefault("retailers.aldi_sued.base_url", "https://www.aldi-sued.de")
	v.SetDefault("retailers.penny.enabled", true)
	v.SetDefault("retailers.penny.base_url", "https://www.penny.de")
	v.SetDefault("retailers.rewe.enabled", false)
	v.SetDefault("retailers.rewe.base_url", "https://mobile-clients-api.rewe.de")
	v.SetDefault("retailers.rewe.cert_file", "tmp/private.pem")
	v.SetDefault("retailers.rewe.key_file", "tmp/private.key")
	v.SetDefault("retailers.rewe.user_agent", "REWE-Mobile-Client/3.17.1.32270 Android/11 Phone/Google_sdk_gphone_x86_64")
	v.SetDefault("retailers.hit.enabled", true)
	v.SetDefault("retailers.hit.base_url", "https://www.hit.de")
	v.SetDefault("retailers.hit.user_agent", "okhttp/4.12.0")
	v.SetDefault("retailers.netto.enabled", true)
	v.SetDefault("retailers.netto.base_url", "https://www.clickforbrand.de")
	v.SetDefault("retailers.netto.brands_url", "https://www.netto-online.de/marken")
	v.SetDefault("retailers.netto.user_agent", "NettoApp/7.1.2 (Build: 7.1.2.1; Android 11)")
	v.SetDefault("retailers.norma.enabled", true)
	v.SetDefault("retailers.norma.base_url", "https://www.norma-online.de")
	v.SetDefault("retailers.norma.delay_min", 2*time.Second)
	v.SetDefault("retailers.norma.delay_max", 6*time.Second)
}

// Load reads an optional .env file, the config file at path (may be empty) and
// DISCOUNTS_* environment overrides into the global viper instance.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("godotenv.Load: %w", err)
	}

	v := viper.GetViper()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("viper.ReadInConfig: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("viper.Unmarshal: %w", err)
	}
	if cfg.HTTP.DelayMax < cfg.HTTP.DelayMin {
		return nil, fmt.Errorf("http.delay_max %s is below http.delay_min %s", cfg.HTTP.DelayMax, cfg.HTTP.DelayMin)
	}

	return &cfg, nil
}

func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Delays returns the delay bounds of rc, falling back to the global ones.
func (c *Config) Delays(rc RetailerConfig) (time.Duration, time.Duration) {
	lo, hi := rc.DelayMin, rc.DelayMax
	if lo == 0 && hi == 0 {
		return c.HTTP.DelayMin, c.HTTP.DelayMax
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}
