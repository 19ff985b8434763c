package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"

	"github.com/pj950/ffftttt/internal/app"
	"github.com/pj950/ffftttt/internal/config"
	"github.com/pj950/ffftttt/internal/fundamentals"
	"github.com/pj950/ffftttt/internal/util"
)

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to the YAML config")
	symbols := flag.String("symbols", "", "comma-separated symbols (defaults to the watchlist)")
	cached := flag.Bool("cached", false, "score today's cache instead of refetching")
	flag.Parse()

	log := util.NewLogger("info")

	cfg, err := app.ProvideConfig(app.ConfigPath(*configPath))
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	log = app.ProvideLogger(cfg)

	watch := cfg.Watchlist
	if *symbols != "" {
		watch = config.NormalizeSymbols(strings.Split(*symbols, ","))
	}
	cfg.Fundamentals.Enabled = true

	src, err := app.ProvideSource(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("market data source")
	}
	mgr, err := app.ProvideFundamentals(cfg, src, log)
	if err != nil {
		log.Fatal().Err(err).Msg("fundamentals manager")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if !*cached {
		if _, err := mgr.Refresh(ctx, watch); err != nil {
			log.Fatal().Err(err).Msg("refresh fundamentals")
		}
	}
	snap, err := mgr.Snapshot(ctx, watch, false)
	if err != nil {
		log.Fatal().Err(err).Msg("score fundamentals")
	}
	passed, results := snap.Whitelist(watch)

	out := make([]fundamentals.Result, 0, len(watch))
	for _, sym := range watch {
		out = append(out, results[sym])
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatal().Err(err).Msg("encode results")
	}
	log.Info().Int("symbols", len(watch)).Int("passed", len(passed)).Str("cache", mgr.CachePath()).Msg("fundamentals refreshed")
}
