package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SMARespect/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultSymbols, cfg.Analysis.Symbols)
	assert.Equal(t, []int{34, 50, 55, 89, 100, 144, 200, 233}, cfg.Analysis.Periods)
	assert.Equal(t, "1d", cfg.Analysis.Interval)
	assert.Equal(t, 365, cfg.Analysis.LookbackDays)
	assert.Equal(t, 4, cfg.Analysis.Concurrency)
	assert.Equal(t, "0 0 16 * * 1-5", cfg.Schedule.ReportCron)
	assert.Equal(t, ":8080", cfg.API.Addr)
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoad_YAMLAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
analysis:
  symbols: [TCS.NS, INFY.NS]
  periods: [50, 200]
  interval: weekly
  start_date: "2024-01-01"
  only_respected: true
telegram:
  bot_token: file-token
  chat_id: "42"
api:
  timeout: 30s
`)
	t.Setenv("SMA_PERIODS", "34, 89")
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"TCS.NS", "INFY.NS"}, cfg.Analysis.Symbols)
	assert.Equal(t, []int{34, 89}, cfg.Analysis.Periods)
	assert.Equal(t, "weekly", cfg.Analysis.Interval)
	assert.True(t, cfg.Analysis.OnlyRespected)
	assert.Equal(t, "env-token", cfg.Telegram.BotToken)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.True(t, cfg.TelegramEnabled())
}

func TestLoad_BadInput(t *testing.T) {
	_, err := Load(writeConfig(t, "analysis: [unclosed"))
	assert.Error(t, err)

	t.Setenv("SMA_PERIODS", "34,abc")
	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(c *Config)
	}{
		{"bad interval", func(c *Config) { c.Analysis.Interval = "5m" }},
		{"zero period", func(c *Config) { c.Analysis.Periods = []int{0} }},
		{"bad start date", func(c *Config) { c.Analysis.StartDate = "01/02/2024" }},
		{"half telegram", func(c *Config) { c.Telegram.BotToken = "x" }},
		{"no concurrency", func(c *Config) { c.Analysis.Concurrency = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			require.NoError(t, err)
			tt.mod(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestRequest(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	now := time.Date(2024, 7, 15, 13, 0, 0, 0, time.UTC)

	req, err := cfg.Request([]string{"TCS.NS"}, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), req.Start)
	assert.Equal(t, time.Date(2024, 7, 16, 0, 0, 0, 0, time.UTC), req.End)
	assert.Equal(t, model.IntervalDaily, req.Interval)
	assert.NoError(t, req.Validate())

	cfg.Analysis.StartDate = "2023-06-01"
	req, err = cfg.Request([]string{"TCS.NS"}, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), req.Start)
}

func TestParseHelpers(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, SplitList(" A, ,B ,"))
	assert.Nil(t, SplitList(""))

	p, err := ParsePeriods("34,50")
	require.NoError(t, err)
	assert.Equal(t, []int{34, 50}, p)
	_, err = ParsePeriods("-1")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = ParseDate("2024-13-01")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}
