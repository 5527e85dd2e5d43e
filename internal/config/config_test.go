package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Ledger.GroupURL = "https://spliit.app/groups/abc"
	cfg.Ledger.Payer = "Alice"
	cfg.Ledger.Shares = map[string]int{"Alice": 60, "Bob": 40}
	cfg.Bank.Account = "acc-1"
	cfg.Fetch.MaxRateLimitRetries = 3

	path := filepath.Join(t.TempDir(), "splitfeed.yaml")
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "https://api.monobank.ua", cfg.Bank.BaseURL)
	assert.Equal(t, 30, cfg.Fetch.WindowDays)
	assert.Equal(t, 5*time.Second, cfg.Fetch.Cooldown)
	assert.Equal(t, 5*time.Second, cfg.Fetch.RateLimitCooldown)
	assert.Zero(t, cfg.Fetch.MaxRateLimitRetries)
	assert.Equal(t, time.Hour, cfg.Categories.TTL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Ledger.DryRun)
	assert.NoError(t, cfg.Validate())
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "splitfeed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fetch:\n  cooldown: 1s\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.Fetch.Cooldown)
	assert.Equal(t, 30, cfg.Fetch.WindowDays)
}

func TestYAMLFormat(t *testing.T) {
	cfg := Default()
	cfg.Bank.Token = ""
	path := filepath.Join(t.TempDir(), "splitfeed.yaml")
	require.NoError(t, Save(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "window_days: 30")
	assert.Contains(t, contents, "cooldown: 5s")
	assert.Contains(t, contents, "ttl: 1h0m0s")
	assert.NotContains(t, contents, "token:")
}

func TestValidate_Aggregates(t *testing.T) {
	cfg := Default()
	cfg.Fetch.WindowDays = 45
	cfg.Log.Level = "loud"
	cfg.Ledger.GroupURL = "not a url"
	cfg.Ledger.Shares = map[string]int{"Alice": 120}

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "fetch.window_days must be less than or equal to 31")
	assert.Contains(t, msg, "log.level must be one of")
	assert.Contains(t, msg, "ledger.group_url must be a valid URL")
	assert.Contains(t, msg, "ledger.shares[Alice] must be less than or equal to 100")
}

func TestResolve_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "splitfeed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ledger:\n  payer: Bob\nbank:\n  base_url: https://api.monobank.ua\n"), 0o644))

	t.Setenv(EnvPayer, "Alice")
	t.Setenv(EnvLogLevel, "DEBUG")

	cfg, err := Resolve(path, "")
	require.NoError(t, err)
	assert.Equal(t, "Alice", cfg.Ledger.Payer)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestResolve_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("MONOBANK_TOKEN=from-dotenv\nSPLIIT_GROUP_URL=https://spliit.app/groups/xyz\n"), 0o644))
	t.Setenv(EnvMonobankToken, "")
	t.Setenv(EnvGroupURL, "")
	os.Unsetenv(EnvMonobankToken)
	os.Unsetenv(EnvGroupURL)

	cfg, err := Resolve(filepath.Join(dir, "missing.yaml"), envFile)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Bank.Token)
	assert.Equal(t, "https://spliit.app/groups/xyz", cfg.Ledger.GroupURL)
}

func TestResolve_MissingFilesUseDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Resolve(filepath.Join(dir, "none.yaml"), filepath.Join(dir, "none.env"))
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Fetch.WindowDays)
}

func TestResolve_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "splitfeed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fetch: [unclosed"), 0o644))
	_, err := Resolve(path, "")
	assert.ErrorContains(t, err, "parsing config")
}
