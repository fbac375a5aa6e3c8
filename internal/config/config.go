package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"CrudeSentinel/internal/backtest"
	"CrudeSentinel/internal/bias"
	"CrudeSentinel/internal/calculator"
	"CrudeSentinel/internal/model"
	"CrudeSentinel/internal/pipeline"
	"CrudeSentinel/internal/strategy"
)

// Config holds all application configuration.
type Config struct {
	Strategy struct {
		WilliamsPeriod int `yaml:"williams_period"`
		// Pointers so an explicit 0 (the top of the scale) is kept.
		OversoldThreshold   *float64 `yaml:"oversold_threshold"`
		OverboughtThreshold *float64 `yaml:"overbought_threshold"`
		Rule                string   `yaml:"rule"`
	} `yaml:"strategy"`
	Simulation struct {
		StopLossPct float64 `yaml:"stop_loss_pct"`
		TargetPct   float64 `yaml:"target_pct"`
		HorizonBars int     `yaml:"horizon_bars"`
	} `yaml:"simulation"`
	Auxiliary struct {
		Seasonality struct {
			Enabled       bool  `yaml:"enabled"`
			BullishMonths []int `yaml:"bullish_months"`
		} `yaml:"seasonality"`
		Positioning struct {
			Enabled     bool   `yaml:"enabled"`
			BaseURL     string `yaml:"base_url"`
			Market      string `yaml:"market"`
			LongField   string `yaml:"long_field"`
			ShortField  string `yaml:"short_field"`
			ZeroNetLong bool   `yaml:"zero_net_long"`
		} `yaml:"positioning"`
		ReversalCandle struct {
			Enabled bool `yaml:"enabled"`
		} `yaml:"reversal_candle"`
	} `yaml:"auxiliary"`
	DataSource struct {
		Source   string `yaml:"source"` // yahoo, vstrader or mock
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
		Symbol   string `yaml:"symbol"`
		Interval string `yaml:"interval"`
		Bars     int    `yaml:"bars"`
	} `yaml:"data_source"`
	Redis struct {
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"redis"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Export struct {
		CSVDir string `yaml:"csv_dir"`
	} `yaml:"export"`
	Alert struct {
		StateFile string `yaml:"state_file"`
	} `yaml:"alert"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		RunCron    string `yaml:"run_cron"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	API struct {
		Listen string `yaml:"listen"`
	} `yaml:"api"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"TELEGRAM_BOT_TOKEN": &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &c.Telegram.ChatID,
		"VSTRADER_BASE_URL":  &c.DataSource.BaseURL,
		"VSTRADER_API_KEY":   &c.DataSource.APIKey,
		"DATA_SOURCE":        &c.DataSource.Source,
		"HTTPS_PROXY":        &c.Proxy,
		"SQLITE_PATH":        &c.Database.SQLitePath,
		"REDIS_ADDR":         &c.Redis.Addr,
		"SYMBOL":             &c.DataSource.Symbol,
		"CRON_RUN":           &c.Schedule.RunCron,
		"API_LISTEN":         &c.API.Listen,
		"LOG_LEVEL":          &c.Log.Level,
		"CSV_DIR":            &c.Export.CSVDir,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	floats := map[string]*float64{
		"STOP_LOSS_PCT": &c.Simulation.StopLossPct,
		"TARGET_PCT":    &c.Simulation.TargetPct,
	}
	for key, dst := range floats {
		if v := os.Getenv(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("env %s: %w", key, err)
			}
			*dst = f
		}
	}

	if v := os.Getenv("RUN_ON_START"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("env RUN_ON_START: %w", err)
		}
		c.Schedule.RunOnStart = b
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Strategy.WilliamsPeriod == 0 {
		c.Strategy.WilliamsPeriod = calculator.DefaultWilliamsPeriod
	}
	if c.Strategy.OversoldThreshold == nil {
		c.Strategy.OversoldThreshold = floatPtr(strategy.DefaultOversold)
	}
	if c.Strategy.OverboughtThreshold == nil {
		c.Strategy.OverboughtThreshold = floatPtr(strategy.DefaultOverbought)
	}
	if c.Strategy.Rule == "" {
		c.Strategy.Rule = string(strategy.RuleCrossover)
	}
	if c.Simulation.StopLossPct == 0 {
		c.Simulation.StopLossPct = backtest.DefaultStopLossPct
	}
	if c.Simulation.TargetPct == 0 {
		c.Simulation.TargetPct = backtest.DefaultTargetPct
	}
	if c.Simulation.HorizonBars == 0 {
		c.Simulation.HorizonBars = backtest.DefaultHorizonBars
	}
	if len(c.Auxiliary.Seasonality.BullishMonths) == 0 {
		// winter heating demand
		c.Auxiliary.Seasonality.BullishMonths = []int{1, 2, 11, 12}
	}
	if c.Auxiliary.Positioning.Market == "" {
		c.Auxiliary.Positioning.Market = "CRUDE OIL, LIGHT SWEET"
	}
	if c.DataSource.Source == "" {
		c.DataSource.Source = "yahoo"
		if c.DataSource.BaseURL != "" {
			c.DataSource.Source = "vstrader"
		}
	}
	if c.DataSource.Symbol == "" {
		c.DataSource.Symbol = "CL=F"
	}
	if c.DataSource.Interval == "" {
		c.DataSource.Interval = string(model.IntervalDaily)
	}
	if c.DataSource.Bars == 0 {
		c.DataSource.Bars = 130
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 15 * time.Minute
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/crude_sentinel.db"
	}
	if c.Alert.StateFile == "" {
		c.Alert.StateFile = "data/alert_state.json"
	}
	if c.Schedule.RunCron == "" {
		c.Schedule.RunCron = "0 30 22 * * 1-5"
	}
	if c.API.Listen == "" {
		c.API.Listen = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	if _, err := c.Settings(); err != nil {
		return err
	}
	switch c.DataSource.Source {
	case "yahoo", "mock":
	case "vstrader":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for vstrader")
		}
	default:
		return fmt.Errorf("data_source.source %q must be yahoo, vstrader or mock", c.DataSource.Source)
	}
	switch model.Interval(c.DataSource.Interval) {
	case model.IntervalDaily, model.IntervalWeekly:
	default:
		return fmt.Errorf("data_source.interval %q must be 1d or 1wk", c.DataSource.Interval)
	}
	if c.DataSource.Bars <= 0 {
		return fmt.Errorf("data_source.bars must be positive")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether chat delivery is configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Rules returns the signal rule configuration.
func (c *Config) Rules() strategy.RuleSet {
	return strategy.RuleSet{
		Mode:       strategy.RuleMode(c.Strategy.Rule),
		Oversold:   floatOr(c.Strategy.OversoldThreshold, strategy.DefaultOversold),
		Overbought: c.overbought(),
	}
}

func (c *Config) overbought() float64 {
	return floatOr(c.Strategy.OverboughtThreshold, strategy.DefaultOverbought)
}

func floatPtr(v float64) *float64 { return &v }

func floatOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// SimulationParams returns the exit policy.
func (c *Config) SimulationParams() backtest.Params {
	return backtest.Params{
		StopLossPct: c.Simulation.StopLossPct,
		TargetPct:   c.Simulation.TargetPct,
		HorizonBars: c.Simulation.HorizonBars,
		Overbought:  c.overbought(),
	}
}

// AuxiliarySettings returns which auxiliary predicates gate Buy signals.
func (c *Config) AuxiliarySettings() (bias.Settings, error) {
	a := c.Auxiliary
	months, err := bias.NewMonthSet(a.Seasonality.BullishMonths...)
	if err != nil {
		return bias.Settings{}, fmt.Errorf("auxiliary.seasonality.bullish_months: %w", err)
	}
	return bias.Settings{
		Seasonality:    a.Seasonality.Enabled,
		BullishMonths:  months,
		Positioning:    a.Positioning.Enabled,
		ZeroNetIsLong:  a.Positioning.ZeroNetLong,
		ReversalCandle: a.ReversalCandle.Enabled,
	}, nil
}

// Settings assembles and validates the immutable pipeline configuration.
func (c *Config) Settings() (pipeline.Settings, error) {
	if c.Strategy.WilliamsPeriod <= 0 {
		return pipeline.Settings{}, fmt.Errorf("strategy.williams_period must be positive: %w", model.ErrInvalidParameter)
	}
	rules := c.Rules()
	if err := rules.Validate(); err != nil {
		return pipeline.Settings{}, fmt.Errorf("strategy: %w", err)
	}
	sim := c.SimulationParams()
	if err := sim.Validate(); err != nil {
		return pipeline.Settings{}, fmt.Errorf("simulation: %w", err)
	}
	aux, err := c.AuxiliarySettings()
	if err != nil {
		return pipeline.Settings{}, err
	}
	return pipeline.Settings{
		WilliamsPeriod: c.Strategy.WilliamsPeriod,
		Rules:          rules,
		Simulation:     sim,
		Auxiliary:      aux,
	}, nil
}
