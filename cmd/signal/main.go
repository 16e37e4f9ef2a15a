package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/pilegduaempat-art/-binance-trading-bot/internal/config"
	"github.com/pilegduaempat-art/-binance-trading-bot/internal/indicator"
	"github.com/pilegduaempat-art/-binance-trading-bot/internal/market"
	"github.com/pilegduaempat-art/-binance-trading-bot/internal/report"
	"github.com/pilegduaempat-art/-binance-trading-bot/internal/signal"
	"github.com/pilegduaempat-art/-binance-trading-bot/internal/util"
)

// lookback bars handed to the scorer for structure rules
const recentLookback = 50

func main() {
	var (
		configPath = flag.String("config", "", "YAML config path (built-in defaults when empty)")
		csvPath    = flag.String("csv", "", "candle history CSV, latest bar is evaluated")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		cfg.App.LogLevel = lvl
	}

	log := util.NewConsoleLogger(cfg.App.LogLevel)

	if *csvPath == "" {
		log.Fatal().Msg("provide -csv")
	}

	bars, err := market.LoadCSV(*csvPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *csvPath).Msg("load history")
	}
	if len(bars) == 0 {
		log.Fatal().Msg("empty history")
	}
	indicator.Enrich(bars, indicator.DefaultWindows())

	scorer, err := signal.NewScorer(cfg.Signal, cfg.Thresholds)
	if err != nil {
		log.Fatal().Err(err).Msg("build scorer")
	}

	last := len(bars) - 1
	start := last - recentLookback
	if start < 0 {
		start = 0
	}
	sig := scorer.Score(signal.Input{Bar: bars[last], Recent: bars[start:last]})
	report.SignalCard(os.Stdout, sig)
}
