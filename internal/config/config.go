package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the file.
const (
	EnvMonobankToken = "MONOBANK_TOKEN"
	EnvGroupURL      = "SPLIIT_GROUP_URL"
	EnvPayer         = "SPLITFEED_PAYER"
	EnvAccount       = "SPLITFEED_ACCOUNT"
	EnvLogLevel      = "SPLITFEED_LOG_LEVEL"
)

// DefaultFile is the config file name looked up in the working directory.
const DefaultFile = "splitfeed.yaml"

// Config represents the top-level splitfeed.yaml configuration.
type Config struct {
	Ledger     LedgerConfig     `yaml:"ledger"`
	Bank       BankConfig       `yaml:"bank"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Categories CategoriesConfig `yaml:"categories"`
	Log        LogConfig        `yaml:"log"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// LedgerConfig identifies the Spliit group and how expenses are split.
type LedgerConfig struct {
	GroupURL string `yaml:"group_url" validate:"omitempty,url"`
	Payer    string `yaml:"payer"`
	// Shares maps participant name to percent. Empty means an equal split.
	Shares map[string]int `yaml:"shares,omitempty" validate:"dive,gte=0,lte=100"`
	DryRun bool           `yaml:"dry_run"`
}

// BankConfig configures the Monobank client.
type BankConfig struct {
	BaseURL         string        `yaml:"base_url" validate:"required,url"`
	Token           string        `yaml:"token,omitempty"`
	Account         string        `yaml:"account"`
	Timeout         time.Duration `yaml:"timeout" validate:"gte=0"`
	RequestInterval time.Duration `yaml:"request_interval" validate:"gte=0"`
}

// FetchConfig controls statement windowing and pacing.
type FetchConfig struct {
	WindowDays          int           `yaml:"window_days" validate:"gte=1,lte=31"`
	Cooldown            time.Duration `yaml:"cooldown" validate:"gte=0"`
	RateLimitCooldown   time.Duration `yaml:"rate_limit_cooldown" validate:"gte=0"`
	MaxRateLimitRetries int           `yaml:"max_rate_limit_retries" validate:"gte=0"`
	LookbackDays        int           `yaml:"lookback_days" validate:"gte=1"`
}

// CategoriesConfig selects where MCC descriptions come from. File wins
// over SourceURL when both are set.
type CategoriesConfig struct {
	SourceURL  string        `yaml:"source_url" validate:"omitempty,url"`
	File       string        `yaml:"file,omitempty"`
	TTL        time.Duration `yaml:"ttl" validate:"gte=0"`
	FailureTTL time.Duration `yaml:"failure_ttl" validate:"gte=0"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// MetricsConfig controls the metrics textfile written after each run.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// Load reads a splitfeed.yaml file from disk. Fields missing from the file
// keep their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Bank: BankConfig{
			BaseURL: "https://api.monobank.ua",
			Timeout: 30 * time.Second,
		},
		Fetch: FetchConfig{
			WindowDays:        30,
			Cooldown:          5 * time.Second,
			RateLimitCooldown: 5 * time.Second,
			LookbackDays:      30,
		},
		Categories: CategoriesConfig{
			SourceURL:  "https://raw.githubusercontent.com/greggles/mcc-codes/main/mcc_codes.json",
			TTL:        time.Hour,
			FailureTTL: time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Resolve builds the effective configuration: envFile (if present) is
// loaded into the environment, path (if present) is read over the
// defaults, environment overrides are applied and the result validated.
// Missing files are not an error.
func Resolve(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	cfg := Default()
	if path != "" {
		loaded, err := Load(path)
		switch {
		case err == nil:
			cfg = loaded
		case !errors.Is(err, os.ErrNotExist):
			return nil, err
		}
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv() {
	c.Bank.Token = getEnv(EnvMonobankToken, c.Bank.Token)
	c.Bank.Account = getEnv(EnvAccount, c.Bank.Account)
	c.Ledger.GroupURL = getEnv(EnvGroupURL, c.Ledger.GroupURL)
	c.Ledger.Payer = getEnv(EnvPayer, c.Ledger.Payer)
	c.Log.Level = strings.ToLower(getEnv(EnvLogLevel, c.Log.Level))
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks field constraints and reports every violation at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s %s", fieldPath(fe.Namespace()), describe(fe)))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// fieldPath strips the root struct name: "Config.fetch.window_days" ->
// "fetch.window_days".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
