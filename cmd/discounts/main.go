package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ougirez/discounts/internal/api"
	"github.com/ougirez/discounts/internal/app"
	"github.com/ougirez/discounts/internal/domain"
	"github.com/ougirez/discounts/internal/pkg/config"
	"github.com/ougirez/discounts/internal/pkg/logger"
	"github.com/ougirez/discounts/internal/pkg/utils"
)

const usage = `usage: discounts [-config file] <command> [args]

commands:
  run [market_type...]    retrieve offers, all enabled retailers by default
  serve                   start the admin API
  migrate                 create the storage schema
  markets import <file>   load markets from a JSON array
  token [-ttl duration]   print an admin token for the API
`

func main() {
	configPath := flag.String("config", "", "path to the config file")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err = logger.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := flag.Args()
	switch args[0] {
	case "run":
		err = run(ctx, cfg, args[1:])
	case "serve":
		err = serve(ctx, cfg)
	case "migrate":
		err = migrate(ctx, cfg)
	case "markets":
		err = importMarkets(ctx, cfg, args[1:])
	case "token":
		err = token(cfg, args[1:])
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Error(ctx, err.Error())
		stop()
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, args []string) error {
	mts := make([]domain.MarketType, 0, len(args))
	for _, a := range args {
		mt, err := domain.ParseMarketType(a)
		if err != nil {
			return err
		}
		mts = append(mts, mt)
	}

	st, closeFn, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	reports := app.NewDiscountsService(ctx, cfg, st).RunAll(ctx, mts)

	out, err := sonic.ConfigStd.MarshalIndent(reports, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal reports: %w", err)
	}
	fmt.Println(string(out))

	for _, r := range reports {
		if r.Error != "" {
			return fmt.Errorf("%s: %s", r.MarketType, r.Error)
		}
	}
	return nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	st, closeFn, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	svc := api.NewAPIService(app.NewDiscountsService(ctx, cfg, st), cfg.API.Secret)
	go svc.Serve(cfg.API.Addr)
	logger.Infof(ctx, "api listening on %s", cfg.API.Addr)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return svc.Shutdown(shutdownCtx)
}

func migrate(ctx context.Context, cfg *config.Config) error {
	st, closeFn, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	return st.Migrate(ctx)
}

func importMarkets(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 2 || args[0] != "import" {
		return errors.New("usage: discounts markets import <file.json>")
	}

	f, err := os.Open(args[1])
	if err != nil {
		return fmt.Errorf("os.Open: %w", err)
	}
	defer f.Close()

	st, closeFn, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	n, err := app.ImportMarkets(ctx, st, f)
	if err != nil {
		return err
	}
	logger.Infof(ctx, "imported %d markets", n)
	return nil
}

func token(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if cfg.API.Secret == "" {
		return errors.New("api.secret is not set")
	}

	signed, err := utils.NewAuthToken(cfg.API.Secret, *ttl)
	if err != nil {
		return err
	}
	fmt.Println(signed)
	return nil
}
