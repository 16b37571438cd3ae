package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/elonfeng/pulse/pkg/source"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	HTTP     HTTPConfig     `yaml:"http"`
	Sources  SourcesConfig  `yaml:"sources"`
	Cache    CacheConfig    `yaml:"cache"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" validate:"min=1,max=65535"`
}

// HTTPConfig configures the shared upstream client.
type HTTPConfig struct {
	UserAgent     string  `yaml:"user_agent"`
	RatePerSecond float64 `yaml:"rate_per_second" validate:"gte=0"`
	Burst         int     `yaml:"burst" validate:"gte=0"`
}

// CacheConfig configures the SQLite batch cache and alert log.
type CacheConfig struct {
	Path string `yaml:"path"`
	TTL  string `yaml:"ttl"`
}

// ParseTTL returns the cache TTL. Zero disables caching.
func (c CacheConfig) ParseTTL() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// ScheduleConfig configures periodic aggregation.
type ScheduleConfig struct {
	Spec string `yaml:"spec"`
}

// SourcesConfig holds configuration for all data sources.
type SourcesConfig struct {
	Wikipedia  WikipediaConfig  `yaml:"wikipedia"`
	HackerNews HackerNewsConfig `yaml:"hackernews"`
	Lemmy      LemmyConfig      `yaml:"lemmy"`
	Crypto     CryptoConfig     `yaml:"crypto"`
	Dex        DexConfig        `yaml:"dex"`
}

// SourceBase is shared by every source section.
type SourceBase struct {
	Enabled bool   `yaml:"enabled"`
	Timeout string `yaml:"timeout"`
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`
	Limit   int    `yaml:"limit" validate:"gte=0,lte=100"`
}

// ParseTimeout returns the fetch timeout, or fallback when unset or invalid.
func (s SourceBase) ParseTimeout(fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s.Timeout)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// WikipediaConfig for the most-read articles source.
type WikipediaConfig struct {
	SourceBase `yaml:",inline"`
	Project    string `yaml:"project"`
}

// HackerNewsConfig for the Hacker News source.
type HackerNewsConfig struct {
	SourceBase `yaml:",inline"`
	RSSURL     string `yaml:"rss_url" validate:"omitempty,url"`
	TopN       int    `yaml:"top_n"`
	MinLength  int    `yaml:"min_length"`
}

// LemmyConfig for the Lemmy source.
type LemmyConfig struct {
	SourceBase `yaml:",inline"`
	Instances  []string `yaml:"instances" validate:"dive,url"`
	TopN       int      `yaml:"top_n"`
	MinLength  int      `yaml:"min_length"`
}

// CryptoConfig for the CoinGecko trending source.
type CryptoConfig struct {
	SourceBase `yaml:",inline"`
	APIKey     string `yaml:"api_key"`
}

// DexConfig for the GeckoTerminal trending-pool source.
type DexConfig struct {
	SourceBase `yaml:",inline"`
	Network    string `yaml:"network"`
}

// Timeouts returns the per-source fetch timeouts.
func (s SourcesConfig) Timeouts() map[source.SourceID]time.Duration {
	return map[source.SourceID]time.Duration{
		source.SourceWikipedia:  s.Wikipedia.ParseTimeout(15 * time.Second),
		source.SourceHackerNews: s.HackerNews.ParseTimeout(20 * time.Second),
		source.SourceLemmy:      s.Lemmy.ParseTimeout(30 * time.Second),
		source.SourceCrypto:     s.Crypto.ParseTimeout(10 * time.Second),
		source.SourceDex:        s.Dex.ParseTimeout(10 * time.Second),
	}
}

// AlertsConfig configures alert destinations.
type AlertsConfig struct {
	MinScore int            `yaml:"min_score" validate:"gte=0,lte=100"`
	Cooldown string         `yaml:"cooldown"`
	Slack    SlackConfig    `yaml:"slack"`
	Discord  DiscordConfig  `yaml:"discord"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// ParseCooldown returns the alert cooldown as time.Duration.
func (a AlertsConfig) ParseCooldown() time.Duration {
	d, err := time.ParseDuration(a.Cooldown)
	if err != nil || d <= 0 {
		return 6 * time.Hour
	}
	return d
}

// SlackConfig for Slack webhook alerts.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url" validate:"omitempty,url"`
}

// DiscordConfig for Discord webhook alerts.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url" validate:"omitempty,url"`
}

// WebhookConfig for generic webhook alerts.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url" validate:"omitempty,url"`
	Secret  string `yaml:"secret"`
}

// TelegramConfig for Telegram bot alerts.
type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	Format string `yaml:"format" validate:"omitempty,oneof=json console"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		HTTP: HTTPConfig{
			UserAgent:     "pulse/1.0 (trend aggregator)",
			RatePerSecond: 10,
			Burst:         10,
		},
		Sources: SourcesConfig{
			Wikipedia: WikipediaConfig{
				SourceBase: SourceBase{Enabled: true, Timeout: "15s", Limit: 30},
				Project:    "en.wikipedia",
			},
			HackerNews: HackerNewsConfig{
				SourceBase: SourceBase{Enabled: true, Timeout: "20s", Limit: 30},
				RSSURL:     source.DefaultHackerNewsRSSURL,
				TopN:       20,
				MinLength:  2,
			},
			Lemmy: LemmyConfig{
				SourceBase: SourceBase{Enabled: true, Timeout: "30s", Limit: 25},
				Instances:  append([]string(nil), source.DefaultLemmyInstances...),
				TopN:       20,
				MinLength:  3,
			},
			Crypto: CryptoConfig{
				SourceBase: SourceBase{Enabled: true, Timeout: "10s", Limit: 10},
			},
			Dex: DexConfig{
				SourceBase: SourceBase{Enabled: true, Timeout: "10s", Limit: 10},
				Network:    "solana",
			},
		},
		Cache: CacheConfig{
			Path: "./pulse.db",
			TTL:  "2m",
		},
		Schedule: ScheduleConfig{Spec: "@every 10m"},
		Alerts: AlertsConfig{
			MinScore: 85,
			Cooldown: "6h",
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PULSE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse PULSE_PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("PULSE_DB_PATH"); v != "" {
		cfg.Cache.Path = v
	}
	if v := os.Getenv("PULSE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		cfg.Sources.Crypto.APIKey = v
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Slack.WebhookURL = v
		cfg.Alerts.Slack.Enabled = true
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Discord.WebhookURL = v
		cfg.Alerts.Discord.Enabled = true
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Alerts.Telegram.BotToken = v
		cfg.Alerts.Telegram.Enabled = true
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parse TELEGRAM_CHAT_ID %q: %w", v, err)
		}
		cfg.Alerts.Telegram.ChatID = id
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate reports every field that holds an out-of-range value,
// named by its YAML path.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: must satisfy %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: must be a valid %s", field, fe.Tag()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
