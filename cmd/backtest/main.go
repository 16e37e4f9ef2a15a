package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/pilegduaempat-art/-binance-trading-bot/internal/backtest"
	"github.com/pilegduaempat-art/-binance-trading-bot/internal/config"
	"github.com/pilegduaempat-art/-binance-trading-bot/internal/indicator"
	"github.com/pilegduaempat-art/-binance-trading-bot/internal/market"
	"github.com/pilegduaempat-art/-binance-trading-bot/internal/metrics"
	"github.com/pilegduaempat-art/-binance-trading-bot/internal/report"
	"github.com/pilegduaempat-art/-binance-trading-bot/internal/signal"
	"github.com/pilegduaempat-art/-binance-trading-bot/internal/storage"
	"github.com/pilegduaempat-art/-binance-trading-bot/internal/util"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config path (built-in defaults when empty)")
		csvPath    = flag.String("csv", "", "candle history CSV for one symbol")
		dirPath    = flag.String("dir", "", "directory of per-symbol candle CSVs")
		save       = flag.Bool("save", false, "persist results to the local database")
		fillsPath  = flag.String("fills", "", "append simulated fills to this JSONL file")
		listRuns   = flag.Bool("runs", false, "list stored runs and exit")
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
	if db := os.Getenv("DB_PATH"); db != "" {
		cfg.Storage.DBPath = db
	}

	log := util.NewConsoleLogger(cfg.App.LogLevel)

	if cfg.App.MetricsAddr != "" {
		_ = metrics.Serve(cfg.App.MetricsAddr)
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	ctx := context.Background()

	if *listRuns {
		store, err := storage.Open(dbPath(cfg))
		if err != nil {
			log.Fatal().Err(err).Msg("open results db")
		}
		defer store.Close()
		runs, err := store.ListRuns(ctx, 20)
		if err != nil {
			log.Fatal().Err(err).Msg("list runs")
		}
		report.Runs(os.Stdout, runs)
		return
	}

	jobs, err := collectJobs(*csvPath, *dirPath)
	if err != nil {
		log.Fatal().Err(err).Msg("collect inputs")
	}

	scorer, err := signal.NewScorer(cfg.Signal, cfg.Thresholds)
	if err != nil {
		log.Fatal().Err(err).Msg("build scorer")
	}
	sim, err := backtest.NewSimulator(cfg.Backtest, scorer, log)
	if err != nil {
		log.Fatal().Err(err).Msg("build simulator")
	}

	if path := firstNonEmpty(*fillsPath, cfg.Backtest.FillsPath); path != "" {
		rec, err := backtest.NewJSONLRecorder(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("open fills recorder")
		}
		defer rec.Close()
		sim.SetRecorder(rec)
	}

	var store *storage.Store
	if *save {
		store, err = storage.Open(dbPath(cfg))
		if err != nil {
			log.Fatal().Err(err).Msg("open results db")
		}
		defer store.Close()
	}

	windows := indicator.DefaultWindows()
	for _, job := range jobs {
		bars, err := market.LoadCSV(job.path)
		if err != nil {
			log.Error().Err(err).Str("path", job.path).Msg("load history")
			continue
		}
		indicator.Enrich(bars, windows)

		res, err := sim.Run(bars, nil)
		if err != nil {
			log.Error().Err(err).Str("symbol", job.symbol).Msg("backtest failed")
			continue
		}

		fmt.Printf("\n== %s (%d bars) ==\n", job.symbol, len(bars))
		report.Summary(os.Stdout, res)
		report.Trades(os.Stdout, res.Trades)

		if store != nil {
			id, err := store.SaveRun(ctx, job.symbol, len(bars), res)
			if err != nil {
				log.Error().Err(err).Str("symbol", job.symbol).Msg("save run")
				continue
			}
			log.Info().Str("run_id", id).Str("symbol", job.symbol).Msg("run saved")
		}
	}
}

type job struct {
	symbol string
	path   string
}

func collectJobs(csvPath, dirPath string) ([]job, error) {
	switch {
	case csvPath != "":
		return []job{{symbol: symbolFromPath(csvPath), path: csvPath}}, nil
	case dirPath != "":
		entries, err := os.ReadDir(dirPath)
		if err != nil {
			return nil, err
		}
		var jobs []job
		for _, entry := range entries {
			if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
				continue
			}
			path := filepath.Join(dirPath, entry.Name())
			jobs = append(jobs, job{symbol: symbolFromPath(path), path: path})
		}
		if len(jobs) == 0 {
			return nil, fmt.Errorf("no csv files in %s", dirPath)
		}
		return jobs, nil
	default:
		return nil, fmt.Errorf("provide -csv or -dir")
	}
}

func symbolFromPath(path string) string {
	base := filepath.Base(path)
	return strings.ToUpper(strings.TrimSuffix(base, filepath.Ext(base)))
}

func dbPath(cfg *config.Config) string {
	return firstNonEmpty(cfg.Storage.DBPath, "results.db")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
