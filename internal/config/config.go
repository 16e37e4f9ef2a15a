// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Signal groups the knobs consumed by the signal scorer.
type Signal struct {
	MinScoreLong     int     `yaml:"min_score_long"`
	MinScoreShort    int     `yaml:"min_score_short"`
	MinConfidence    float64 `yaml:"min_confidence"`
	MaxConfidence    float64 `yaml:"max_confidence"`
	ATRMultiplierSL  float64 `yaml:"atr_multiplier_sl"`
	ATRMultiplierTP1 float64 `yaml:"atr_multiplier_tp1"`
	ATRMultiplierTP2 float64 `yaml:"atr_multiplier_tp2"`
	ATRMultiplierTP3 float64 `yaml:"atr_multiplier_tp3"`
	MLWeight         int     `yaml:"ml_weight"`
}

// Thresholds carries the indicator levels the factor rules compare against.
type Thresholds struct {
	RSIOversold          float64 `yaml:"rsi_oversold"`
	RSIOverbought        float64 `yaml:"rsi_overbought"`
	RSIExtremeOversold   float64 `yaml:"rsi_extreme_oversold"`
	RSIExtremeOverbought float64 `yaml:"rsi_extreme_overbought"`
	ADXStrongTrend       float64 `yaml:"adx_strong_trend"`
	ADXVeryStrongTrend   float64 `yaml:"adx_very_strong_trend"`
	HighVolumeRatio      float64 `yaml:"high_volume_ratio"`
	CMFBullish           float64 `yaml:"cmf_bullish"`
	CMFBearish           float64 `yaml:"cmf_bearish"`
	MFIOversold          float64 `yaml:"mfi_oversold"`
	MFIOverbought        float64 `yaml:"mfi_overbought"`
	ImbalanceBullish     float64 `yaml:"imbalance_bullish"`
	ImbalanceBearish     float64 `yaml:"imbalance_bearish"`
}

// Backtest configures the simulator and its bookkeeping. A zero
// MaxNotionalPerTrade disables the notional cap.
type Backtest struct {
	InitialBalance      float64 `yaml:"initial_balance"`
	RiskPerTradePct     float64 `yaml:"risk_per_trade_pct"`
	MaxNotionalPerTrade float64 `yaml:"max_notional_per_trade"`
	MinCandles          int     `yaml:"min_candles"`
	UseTrailingStop     bool    `yaml:"use_trailing_stop"`
	PartialTP           bool    `yaml:"partial_tp"`
	FillsPath           string  `yaml:"fills_path"`
}

// Storage points at the local results database.
type Storage struct {
	DBPath string `yaml:"db_path"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App        App        `yaml:"app"`
	Signal     Signal     `yaml:"signal"`
	Thresholds Thresholds `yaml:"thresholds"`
	Backtest   Backtest   `yaml:"backtest"`
	Storage    Storage    `yaml:"storage"`
}

// Default returns the configuration the bot ships with.
func Default() *Config {
	return &Config{
		App: App{
			Name:        "trading-bot",
			Env:         "dev",
			MetricsAddr: "",
			LogLevel:    "info",
		},
		Signal: Signal{
			MinScoreLong:     6,
			MinScoreShort:    -6,
			MinConfidence:    50,
			MaxConfidence:    95,
			ATRMultiplierSL:  2.5,
			ATRMultiplierTP1: 1.5,
			ATRMultiplierTP2: 3.0,
			ATRMultiplierTP3: 5.0,
			MLWeight:         3,
		},
		Thresholds: Thresholds{
			RSIOversold:          30,
			RSIOverbought:        70,
			RSIExtremeOversold:   20,
			RSIExtremeOverbought: 80,
			ADXStrongTrend:       25,
			ADXVeryStrongTrend:   40,
			HighVolumeRatio:      2.0,
			CMFBullish:           0.15,
			CMFBearish:           -0.15,
			MFIOversold:          20,
			MFIOverbought:        80,
			ImbalanceBullish:     0.3,
			ImbalanceBearish:     -0.3,
		},
		Backtest: Backtest{
			InitialBalance:  10000,
			RiskPerTradePct: 2.0,
			MinCandles:      200,
			UseTrailingStop: true,
			PartialTP:       true,
		},
		Storage: Storage{},
	}
}

// Load reads a YAML file from disk and hydrates a Config struct on top of defaults.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate rejects inconsistent settings before any bar is processed.
func (c *Config) Validate() error {
	s := c.Signal
	if s.MinScoreLong <= 0 {
		return fmt.Errorf("config: min_score_long must be positive, got %d", s.MinScoreLong)
	}
	if s.MinScoreShort >= 0 {
		return fmt.Errorf("config: min_score_short must be negative, got %d", s.MinScoreShort)
	}
	if s.MinConfidence > s.MaxConfidence {
		return fmt.Errorf("config: min_confidence %.1f exceeds max_confidence %.1f", s.MinConfidence, s.MaxConfidence)
	}
	if s.MinConfidence < 0 || s.MaxConfidence > 100 {
		return fmt.Errorf("config: confidence bounds must stay within [0,100]")
	}
	for name, mult := range map[string]float64{
		"atr_multiplier_sl":  s.ATRMultiplierSL,
		"atr_multiplier_tp1": s.ATRMultiplierTP1,
		"atr_multiplier_tp2": s.ATRMultiplierTP2,
		"atr_multiplier_tp3": s.ATRMultiplierTP3,
	} {
		if mult <= 0 {
			return fmt.Errorf("config: %s must be positive, got %.2f", name, mult)
		}
	}
	if s.ATRMultiplierTP1 >= s.ATRMultiplierTP2 || s.ATRMultiplierTP2 >= s.ATRMultiplierTP3 {
		return fmt.Errorf("config: take-profit multipliers must be strictly increasing")
	}
	if s.MLWeight < 0 {
		return fmt.Errorf("config: ml_weight must not be negative, got %d", s.MLWeight)
	}

	b := c.Backtest
	if b.InitialBalance <= 0 {
		return fmt.Errorf("config: initial_balance must be positive, got %.2f", b.InitialBalance)
	}
	if b.RiskPerTradePct <= 0 || b.RiskPerTradePct > 100 {
		return fmt.Errorf("config: risk_per_trade_pct must be in (0,100], got %.2f", b.RiskPerTradePct)
	}
	if b.MaxNotionalPerTrade < 0 {
		return fmt.Errorf("config: max_notional_per_trade must not be negative, got %.2f", b.MaxNotionalPerTrade)
	}
	if b.MinCandles < 0 {
		return fmt.Errorf("config: min_candles must not be negative, got %d", b.MinCandles)
	}

	t := c.Thresholds
	if t.RSIOversold >= t.RSIOverbought {
		return fmt.Errorf("config: rsi_oversold must stay below rsi_overbought")
	}
	if t.CMFBearish >= t.CMFBullish {
		return fmt.Errorf("config: cmf_bearish must stay below cmf_bullish")
	}
	if t.ImbalanceBearish >= t.ImbalanceBullish {
		return fmt.Errorf("config: imbalance_bearish must stay below imbalance_bullish")
	}
	if t.MFIOversold >= t.MFIOverbought {
		return fmt.Errorf("config: mfi_oversold must stay below mfi_overbought")
	}
	return nil
}
