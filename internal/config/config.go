package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Symbol  string `yaml:"symbol"`
		Mock    bool   `yaml:"mock"`
	} `yaml:"data_source"`
	Analysis struct {
		// Timeframes are ordered from highest to lowest.
		Timeframes  []string           `yaml:"timeframes"`
		MaxBiCount  int                `yaml:"max_bi_count"`
		HistoryBars int                `yaml:"history_bars"`
		Tolerances  map[string]float64 `yaml:"tolerances"`
	} `yaml:"analysis"`
	Schedule struct {
		PollCron string `yaml:"poll_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// DefaultTolerances is the buy/sell zone tolerance per timeframe.
func DefaultTolerances() map[string]float64 {
	return map[string]float64{
		"1d":  0.21,
		"60m": 0.13,
		"30m": 0.08,
		"15m": 0.05,
		"5m":  0.03,
		"1m":  0.02,
	}
}

// Load reads config from a YAML file, then applies environment variable overrides.
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

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("VSTRADER_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("VSTRADER_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("SYMBOL"); v != "" {
		cfg.DataSource.Symbol = v
	}
	if v := os.Getenv("TIMEFRAMES"); v != "" {
		cfg.Analysis.Timeframes = splitList(v)
	}
	if v := os.Getenv("MAX_BI_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse MAX_BI_COUNT: %w", err)
		}
		cfg.Analysis.MaxBiCount = n
	}
	if v := os.Getenv("CRON_POLL"); v != "" {
		cfg.Schedule.PollCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.DataSource.Symbol == "" {
		cfg.DataSource.Symbol = "SPX500"
	}
	if len(cfg.Analysis.Timeframes) == 0 {
		cfg.Analysis.Timeframes = []string{"60m", "15m", "5m"}
	}
	if cfg.Analysis.MaxBiCount == 0 {
		cfg.Analysis.MaxBiCount = 20
	}
	if cfg.Analysis.HistoryBars == 0 {
		cfg.Analysis.HistoryBars = 1000
	}
	if cfg.Analysis.Tolerances == nil {
		cfg.Analysis.Tolerances = DefaultTolerances()
	}
	if cfg.Schedule.PollCron == "" {
		cfg.Schedule.PollCron = "0 */5 * * * *"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/stroke_sentinel.db"
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.DataSource.Symbol == "" {
		return fmt.Errorf("data_source.symbol is required")
	}
	if len(c.Analysis.Timeframes) == 0 {
		return fmt.Errorf("analysis.timeframes must list at least one timeframe")
	}
	for _, tf := range c.Analysis.Timeframes {
		tol, ok := c.Analysis.Tolerances[tf]
		if !ok {
			return fmt.Errorf("analysis.tolerances has no entry for timeframe %q", tf)
		}
		if tol <= 0 || tol >= 1 {
			return fmt.Errorf("analysis.tolerances[%q] must be in (0, 1), got %v", tf, tol)
		}
	}
	if c.Analysis.MaxBiCount <= 0 {
		return fmt.Errorf("analysis.max_bi_count must be positive")
	}
	if c.Analysis.HistoryBars < 3 {
		return fmt.Errorf("analysis.history_bars must be at least 3")
	}
	return nil
}

// TelegramEnabled reports whether notifications can be sent.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
