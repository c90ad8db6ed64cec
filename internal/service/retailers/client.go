package retailers

import (
	"context"
	"time"

	"github.com/ougirez/discounts/internal/pkg/config"
	"github.com/ougirez/discounts/internal/pkg/fetch"
	"golang.org/x/time/rate"
)

// NewClient builds the fetch client of one retailer from its configuration.
func NewClient(mt string, cfg *config.Config, rc config.RetailerConfig, opts ...fetch.Option) *fetch.Client {
	minDelay, maxDelay := cfg.Delays(rc)
	base := []fetch.Option{
		fetch.WithTimeout(cfg.HTTP.Timeout),
		fetch.WithRetries(cfg.HTTP.Retries),
		fetch.WithDelay(fetch.Delay{Min: minDelay, Max: maxDelay}),
	}
	if rc.UserAgent != "" {
		base = append(base, fetch.WithHeader("User-Agent", rc.UserAgent))
	}
	if rc.RequestsPerSecond > 0 {
		base = append(base, fetch.WithLimiter(rate.NewLimiter(rate.Limit(rc.RequestsPerSecond), 1)))
	}
	return fetch.New(mt, append(base, opts...)...)
}

// NoSleep is a fetch sleep function that never pauses.
func NoSleep(context.Context, time.Duration) error {
	return nil
}
