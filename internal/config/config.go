package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"SMARespect/internal/model"
	"SMARespect/internal/strategy"
)

const dateLayout = "2006-01-02"

// DefaultSymbols is the NSE watch list used when nothing else is configured.
var DefaultSymbols = []string{
	"MAXHEALTH.NS", "ACC.NS", "TCS.NS", "FCL.NS", "SBIN.NS", "BEL.NS", "AXISBANK.NS",
	"INFY.NS", "LT.NS", "SRF.NS", "BAJAJFINSV.NS", "KOTAKBANK.NS", "ZOMATO.NS",
	"IRFC.NS", "ADANIENT.NS",
}

// Config holds all application configuration.
type Config struct {
	Analysis struct {
		Symbols       []string `yaml:"symbols"`
		Periods       []int    `yaml:"periods"`
		Interval      string   `yaml:"interval"`
		StartDate     string   `yaml:"start_date"` // YYYY-MM-DD, empty means Jan 1 of the current year
		LookbackDays  int      `yaml:"lookback_days"`
		Concurrency   int      `yaml:"concurrency"`
		OnlyRespected bool     `yaml:"only_respected"`
	} `yaml:"analysis"`
	DataSource struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"data_source"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		ReportCron string `yaml:"report_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	API struct {
		Addr    string        `yaml:"addr"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"api"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads .env (if present) and the YAML config at path, then applies
// environment variable overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

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
	if v := os.Getenv("SMA_SYMBOLS"); v != "" {
		cfg.Analysis.Symbols = SplitList(v)
	}
	if v := os.Getenv("SMA_PERIODS"); v != "" {
		periods, err := ParsePeriods(v)
		if err != nil {
			return nil, fmt.Errorf("SMA_PERIODS: %w", err)
		}
		cfg.Analysis.Periods = periods
	}
	if v := os.Getenv("SMA_INTERVAL"); v != "" {
		cfg.Analysis.Interval = v
	}
	if v := os.Getenv("SMA_START_DATE"); v != "" {
		cfg.Analysis.StartDate = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_SOURCE_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_SOURCE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CRON_REPORT"); v != "" {
		cfg.Schedule.ReportCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("API_ADDR"); v != "" {
		cfg.API.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	// Defaults
	if len(cfg.Analysis.Symbols) == 0 {
		cfg.Analysis.Symbols = append([]string(nil), DefaultSymbols...)
	}
	if len(cfg.Analysis.Periods) == 0 {
		cfg.Analysis.Periods = strategy.DefaultPeriods()
	}
	if cfg.Analysis.Interval == "" {
		cfg.Analysis.Interval = string(model.IntervalDaily)
	}
	if cfg.Analysis.LookbackDays == 0 {
		cfg.Analysis.LookbackDays = 365
	}
	if cfg.Analysis.Concurrency == 0 {
		cfg.Analysis.Concurrency = 4
	}
	if cfg.Schedule.ReportCron == "" {
		cfg.Schedule.ReportCron = "0 0 16 * * 1-5"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/sma_respect.db"
	}
	if cfg.API.Addr == "" {
		cfg.API.Addr = ":8080"
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 2 * time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if _, err := model.ParseInterval(c.Analysis.Interval); err != nil {
		return fmt.Errorf("analysis.interval: %w", err)
	}
	for _, p := range c.Analysis.Periods {
		if p <= 0 {
			return fmt.Errorf("analysis.periods must be positive, got %d", p)
		}
	}
	if c.Analysis.StartDate != "" {
		if _, err := time.Parse(dateLayout, c.Analysis.StartDate); err != nil {
			return fmt.Errorf("analysis.start_date: use YYYY-MM-DD: %w", err)
		}
	}
	if c.Analysis.LookbackDays < 0 {
		return fmt.Errorf("analysis.lookback_days must not be negative")
	}
	if c.Analysis.Concurrency < 1 {
		return fmt.Errorf("analysis.concurrency must be at least 1")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Request builds the default analysis request for now, over symbols.
func (c *Config) Request(symbols []string, now time.Time) (model.AnalysisRequest, error) {
	interval, err := model.ParseInterval(c.Analysis.Interval)
	if err != nil {
		return model.AnalysisRequest{}, err
	}
	start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	if c.Analysis.StartDate != "" {
		if start, err = ParseDate(c.Analysis.StartDate); err != nil {
			return model.AnalysisRequest{}, err
		}
	}
	return model.AnalysisRequest{
		Symbols:  symbols,
		Start:    start,
		End:      EndOfDay(now),
		Interval: interval,
		Periods:  append([]int(nil), c.Analysis.Periods...),
	}, nil
}

// ParseDate parses YYYY-MM-DD as a UTC date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, use YYYY-MM-DD", model.ErrInvalidInput, s)
	}
	return t, nil
}

// EndOfDay returns midnight UTC following t's date, so the whole day is included.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParsePeriods parses a comma separated list of positive integers.
func ParsePeriods(s string) ([]int, error) {
	parts := SplitList(s)
	periods := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: invalid period %q", model.ErrInvalidInput, p)
		}
		periods = append(periods, n)
	}
	return periods, nil
}
