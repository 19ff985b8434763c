package main

import (
	"context"
	"flag"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/pj950/ffftttt/internal/app"
	"github.com/pj950/ffftttt/internal/marketdata"
	"github.com/pj950/ffftttt/internal/metrics"
	"github.com/pj950/ffftttt/internal/util"
)

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to the YAML config")
	once := flag.Bool("once", false, "run a single cycle and exit")
	flag.Parse()

	log := util.NewLogger("info")

	rt, cleanup, err := InitializeRuntime(app.ConfigPath(*configPath))
	if err != nil {
		log.Fatal().Err(err).Msg("init runtime")
	}
	defer cleanup()
	log = rt.Log
	cfg := rt.Config

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if streamer, ok := rt.Runner.Source.(marketdata.Streamer); ok {
		go func() {
			if err := streamer.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("feed stopped")
				cancel()
			}
		}()
	}

	if *once {
		sigs, err := rt.Runner.RunOnce(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("signal cycle")
		}
		log.Info().Int("signals", len(sigs)).Msg("single cycle done")
		return
	}

	if cfg.App.MetricsAddr != "" {
		_ = metrics.Serve(cfg.App.MetricsAddr)
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	log.Info().
		Str("strategy", rt.Runner.Assembler.Strategy.Name).
		Str("market", cfg.Market.Region).
		Str("tz", cfg.Market.Timezone).
		Strs("watchlist", cfg.Watchlist).
		Strs("timeframes", cfg.Timeframes).
		Dur("interval", rt.Runner.Interval).
		Msg("signal runner started")
	if err := rt.Runner.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("runner stopped")
	}
	log.Info().Msg("shutting down")
}
