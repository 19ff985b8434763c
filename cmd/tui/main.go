package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pj950/ffftttt/internal/config"
	"github.com/pj950/ffftttt/internal/indicator"
)

const defaultConfigPath = "internal/config/config.yaml"

func main() {
	reader := bufio.NewReader(os.Stdin)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	for {
		fmt.Println("\n=== Signal Runner Control ===")
		fmt.Println("1) Show configuration summary")
		fmt.Println("2) Edit strategy and cooldown")
		fmt.Println("3) Edit fundamentals thresholds")
		fmt.Println("4) Edit watchlist")
		fmt.Println("5) Save config")
		fmt.Println("6) Launch signal runner")
		fmt.Println("7) Reload config from disk")
		fmt.Println("0) Exit")
		fmt.Print("Select option: ")

		input, _ := reader.ReadString('\n')
		choice := strings.TrimSpace(input)

		switch choice {
		case "1":
			printSummary(cfg)
		case "2":
			editStrategy(reader, cfg)
		case "3":
			editFundamentals(reader, cfg)
		case "4":
			editWatchlist(reader, cfg)
		case "5":
			if err := validate(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "not saved, config invalid: %v\n", err)
			} else if err := saveConfig(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			} else {
				fmt.Println("config saved")
			}
		case "6":
			launchRunner(reader)
		case "7":
			reloaded, err := loadConfig()
			if err != nil {
				fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
			} else {
				cfg = reloaded
				fmt.Println("config reloaded")
			}
		case "0":
			return
		default:
			fmt.Println("unknown option")
		}
	}
}

func printSummary(cfg *config.Config) {
	fmt.Println("\n--- Configuration Summary ---")
	fmt.Printf("Market: %s (%s) %s-%s\n", cfg.Market.Region, cfg.Market.Timezone, cfg.Realtime.MarketHours.Start, cfg.Realtime.MarketHours.End)
	fmt.Println("Watchlist:", strings.Join(cfg.Watchlist, ", "))
	fmt.Println("Timeframes:", strings.Join(cfg.Timeframes, ", "))
	fmt.Printf("Strategy: %s (%s) min confidence %.2f\n", cfg.Strategy.Type, cfg.Strategy.FusionMode, cfg.Strategy.MinConfidence)
	fmt.Printf("Cooldown: enabled=%t window %.1fh\n", cfg.Realtime.Cooldown.Enabled, cfg.Realtime.Cooldown.PeriodHours)
	f := cfg.Fundamentals
	fmt.Printf("Fundamentals: enabled=%t on missing=%s\n", f.Enabled, f.OnMissing)
	fmt.Printf("  liquidity min %.0f | PE (%.2f, %.2f] | PB max %.2f | cap percentile min %.2f | min score %.2f\n",
		f.Thresholds.Liquidity.Min, f.Thresholds.Global.PEMin, f.Thresholds.Global.PEMax,
		f.Thresholds.Global.PBMax, f.Thresholds.Global.CapPercentileMin, f.Scoring.MinScore)
	for market := range f.Thresholds.Overrides {
		r := f.Thresholds.Resolve(market)
		fmt.Printf("  %s override: PE (%.2f, %.2f] PB max %.2f\n", market, r.PEMin, r.PEMax, r.PBMax)
	}
}

func editStrategy(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Strategy / Cooldown ---")
	cfg.Strategy.MinConfidence = promptFloat(reader, "Min confidence (0-1)", cfg.Strategy.MinConfidence)
	cfg.Realtime.Cooldown.PeriodHours = promptFloat(reader, "Cooldown window (hours, 0 disables)", cfg.Realtime.Cooldown.PeriodHours)
	cfg.Realtime.Cooldown.Enabled = cfg.Realtime.Cooldown.PeriodHours > 0
	cfg.Realtime.CheckInterval = int(promptFloat(reader, "Check interval (seconds)", float64(cfg.Realtime.CheckInterval)))
}

func editFundamentals(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Fundamentals ---")
	f := &cfg.Fundamentals
	f.Thresholds.Liquidity.Min = promptFloat(reader, "Min 20d turnover", f.Thresholds.Liquidity.Min)
	f.Thresholds.Global.PEMax = promptFloat(reader, "PE max", f.Thresholds.Global.PEMax)
	f.Thresholds.Global.PBMax = promptFloat(reader, "PB max", f.Thresholds.Global.PBMax)
	f.Thresholds.Global.CapPercentileMin = promptPercent(reader, "Market cap percentile min (%)", f.Thresholds.Global.CapPercentileMin)
	f.Scoring.MinScore = promptFloat(reader, "Min composite score (0-1)", f.Scoring.MinScore)
}

func editWatchlist(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Watchlist ---")
	fmt.Printf("Current symbols: %s\n", strings.Join(cfg.Watchlist, ", "))
	fmt.Print("Enter symbols comma-separated (blank to keep): ")
	if line, _ := reader.ReadString('\n'); strings.TrimSpace(line) != "" {
		cfg.Watchlist = config.NormalizeSymbols(strings.Split(line, ","))
	}
}

func validate(cfg *config.Config) error {
	return cfg.Validate(indicator.Default)
}

func launchRunner(reader *bufio.Reader) {
	fmt.Println("Launching signal runner (Ctrl+C to stop)...")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", "run", "./cmd/runner", "--config", locateConfig())
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start runner: %v\n", err)
		return
	}

	go func() {
		_ = cmd.Wait()
		cancel()
	}()

	fmt.Print("\nPress ENTER to stop the runner and return to menu...")
	_, _ = reader.ReadString('\n')
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func promptFloat(reader *bufio.Reader, label string, current float64) float64 {
	fmt.Printf("%s [%.2f]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.ParseFloat(line, 64)
	if err != nil {
		fmt.Printf("invalid number, keeping %.2f\n", current)
		return current
	}
	return val
}

func promptPercent(reader *bufio.Reader, label string, current float64) float64 {
	pct := promptFloat(reader, label, current*100)
	return pct / 100
}

func loadConfig() (*config.Config, error) {
	return config.Load(locateConfig())
}

func saveConfig(cfg *config.Config) error {
	return config.Save(locateConfig(), cfg)
}

func locateConfig() string {
	if filepath.IsAbs(defaultConfigPath) {
		return defaultConfigPath
	}
	return filepath.Clean(defaultConfigPath)
}
