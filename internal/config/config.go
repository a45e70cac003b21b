// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Database() DatabaseConfig
	Server() ServerConfig
	Evidence() EvidenceConfig
	Registry() RegistryConfig
	Alerts() AlertsConfig
	Archive() ArchiveConfig
	Scoring() ScoringConfig
	Impersonation() ImpersonationConfig

	// Setters used by CLI flag overrides.
	SetServerAddr(addr string)
	SetEvidenceBackend(backend string)
	SetAlertsTelegramEnabled(bool)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg        LoggerConfig        `mapstructure:"logger" yaml:"logger"`
	DatabaseCfg      DatabaseConfig      `mapstructure:"database" yaml:"database"`
	ServerCfg        ServerConfig        `mapstructure:"server" yaml:"server"`
	EvidenceCfg      EvidenceConfig      `mapstructure:"evidence" yaml:"evidence"`
	RegistryCfg      RegistryConfig      `mapstructure:"registry" yaml:"registry"`
	AlertsCfg        AlertsConfig        `mapstructure:"alerts" yaml:"alerts"`
	ArchiveCfg       ArchiveConfig       `mapstructure:"archive" yaml:"archive"`
	ScoringCfg       ScoringConfig       `mapstructure:"scoring" yaml:"scoring"`
	ImpersonationCfg ImpersonationConfig `mapstructure:"impersonation" yaml:"impersonation"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig               { return c.LoggerCfg }
func (c *Config) Database() DatabaseConfig           { return c.DatabaseCfg }
func (c *Config) Server() ServerConfig               { return c.ServerCfg }
func (c *Config) Evidence() EvidenceConfig           { return c.EvidenceCfg }
func (c *Config) Registry() RegistryConfig           { return c.RegistryCfg }
func (c *Config) Alerts() AlertsConfig               { return c.AlertsCfg }
func (c *Config) Archive() ArchiveConfig             { return c.ArchiveCfg }
func (c *Config) Scoring() ScoringConfig             { return c.ScoringCfg }
func (c *Config) Impersonation() ImpersonationConfig { return c.ImpersonationCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetServerAddr(addr string)             { c.ServerCfg.Addr = addr }
func (c *Config) SetEvidenceBackend(backend string)     { c.EvidenceCfg.Backend = backend }
func (c *Config) SetAlertsTelegramEnabled(enabled bool) { c.AlertsCfg.Telegram.Enabled = enabled }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// DatabaseConfig holds the database connection details.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	Auth            AuthConfig    `mapstructure:"auth" yaml:"auth"`
}

// AuthConfig enables HS256 bearer-token auth on the /v1 routes.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Secret  string `mapstructure:"secret" yaml:"secret"`
	Issuer  string `mapstructure:"issuer" yaml:"issuer"`
}

// EvidenceConfig selects and tunes the evidence vault backend.
type EvidenceConfig struct {
	// Backend is one of "memory", "file" or "postgres".
	Backend      string        `mapstructure:"backend" yaml:"backend"`
	Dir          string        `mapstructure:"dir" yaml:"dir"`
	Salt         string        `mapstructure:"salt" yaml:"salt"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// RegistryConfig selects the active-alert registry backend.
type RegistryConfig struct {
	// Backend is one of "memory" or "redis".
	Backend string      `mapstructure:"backend" yaml:"backend"`
	Redis   RedisConfig `mapstructure:"redis" yaml:"redis"`
}

// RedisConfig holds Redis connection details.
type RedisConfig struct {
	Addr      string        `mapstructure:"addr" yaml:"addr"`
	Password  string        `mapstructure:"password" yaml:"password"`
	DB        int           `mapstructure:"db" yaml:"db"`
	KeyPrefix string        `mapstructure:"key_prefix" yaml:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// AlertsConfig configures the notification channels.
type AlertsConfig struct {
	Console  ConsoleConfig  `mapstructure:"console" yaml:"console"`
	Telegram TelegramConfig `mapstructure:"telegram" yaml:"telegram"`
	NATS     NATSConfig     `mapstructure:"nats" yaml:"nats"`
}

// ConsoleConfig tunes the local alert channel. It is never disabled.
type ConsoleConfig struct {
	Color bool `mapstructure:"color" yaml:"color"`
}

// TelegramConfig configures the push-notification channel.
type TelegramConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	APIURL    string        `mapstructure:"api_url" yaml:"api_url"`
	BotToken  string        `mapstructure:"bot_token" yaml:"bot_token"`
	ChatID    string        `mapstructure:"chat_id" yaml:"chat_id"`
	MinLevel  string        `mapstructure:"min_level" yaml:"min_level"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// NATSConfig configures the alert event-bus channel.
type NATSConfig struct {
	Enabled       bool          `mapstructure:"enabled" yaml:"enabled"`
	URL           string        `mapstructure:"url" yaml:"url"`
	SubjectPrefix string        `mapstructure:"subject_prefix" yaml:"subject_prefix"`
	MinLevel      string        `mapstructure:"min_level" yaml:"min_level"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// ArchiveConfig configures the Wayback Machine archival collaborator.
type ArchiveConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// ScoringConfig configures the external scorer collaborators.
type ScoringConfig struct {
	// Provider is "http" (analysis service) or "gemini".
	Provider       string        `mapstructure:"provider" yaml:"provider"`
	AnalysisURL    string        `mapstructure:"analysis_url" yaml:"analysis_url"`
	MediaURL       string        `mapstructure:"media_url" yaml:"media_url"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
	CorpusFile     string        `mapstructure:"corpus_file" yaml:"corpus_file"`
	DefaultSubject string        `mapstructure:"default_subject" yaml:"default_subject"`
	Gemini         GeminiConfig  `mapstructure:"gemini" yaml:"gemini"`
}

// GeminiConfig configures the Gemini contradiction scorer.
type GeminiConfig struct {
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`
	Model       string  `mapstructure:"model" yaml:"model"`
	Temperature float32 `mapstructure:"temperature" yaml:"temperature"`
}

// ImpersonationConfig tunes the impersonation risk heuristics.
type ImpersonationConfig struct {
	ProtectedHandles   []string `mapstructure:"protected_handles" yaml:"protected_handles"`
	SuspiciousPatterns []string `mapstructure:"suspicious_patterns" yaml:"suspicious_patterns"`
	NewAccountDays     int      `mapstructure:"new_account_days" yaml:"new_account_days"`
	LowKarma           int      `mapstructure:"low_karma" yaml:"low_karma"`
	LowMembers         int      `mapstructure:"low_members" yaml:"low_members"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "guardian")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Server --
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.auth.enabled", false)
	v.SetDefault("server.auth.issuer", "guardian")

	// -- Evidence --
	v.SetDefault("evidence.backend", "file")
	v.SetDefault("evidence.dir", "~/.guardian/evidence")
	v.SetDefault("evidence.salt", "vip_guardian")
	v.SetDefault("evidence.write_timeout", "5s")

	// -- Registry --
	v.SetDefault("registry.backend", "memory")
	v.SetDefault("registry.redis.addr", "localhost:6379")
	v.SetDefault("registry.redis.db", 0)
	v.SetDefault("registry.redis.key_prefix", "guardian:alert:")
	v.SetDefault("registry.redis.ttl", "0s")

	// -- Alerts --
	v.SetDefault("alerts.console.color", true)
	v.SetDefault("alerts.telegram.enabled", true)
	v.SetDefault("alerts.telegram.api_url", "https://api.telegram.org")
	v.SetDefault("alerts.telegram.min_level", "medium")
	v.SetDefault("alerts.telegram.timeout", "10s")
	v.SetDefault("alerts.telegram.rate_limit", 1.0)
	v.SetDefault("alerts.nats.enabled", false)
	v.SetDefault("alerts.nats.url", "nats://localhost:4222")
	v.SetDefault("alerts.nats.subject_prefix", "guardian.alerts")
	v.SetDefault("alerts.nats.min_level", "medium")
	v.SetDefault("alerts.nats.timeout", "5s")

	// -- Archive --
	v.SetDefault("archive.enabled", true)
	v.SetDefault("archive.base_url", "https://web.archive.org")
	v.SetDefault("archive.timeout", "30s")

	// -- Scoring --
	v.SetDefault("scoring.provider", "http")
	v.SetDefault("scoring.analysis_url", "http://localhost:8000")
	v.SetDefault("scoring.media_url", "")
	v.SetDefault("scoring.timeout", "30s")
	v.SetDefault("scoring.corpus_file", "~/.guardian/corpus.yaml")
	v.SetDefault("scoring.default_subject", "")
	v.SetDefault("scoring.gemini.model", "gemini-2.5-flash")
	v.SetDefault("scoring.gemini.temperature", 0.2)

	// -- Impersonation --
	v.SetDefault("impersonation.protected_handles", []string{})
	v.SetDefault("impersonation.new_account_days", 30)
	v.SetDefault("impersonation.low_karma", 100)
	v.SetDefault("impersonation.low_members", 1000)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Secrets are also accepted under their historical, unprefixed names.
	v.BindEnv("alerts.telegram.bot_token", "GUARDIAN_ALERTS_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN")
	v.BindEnv("alerts.telegram.chat_id", "GUARDIAN_ALERTS_TELEGRAM_CHAT_ID", "TELEGRAM_CHAT_ID")
	v.BindEnv("scoring.gemini.api_key", "GUARDIAN_SCORING_GEMINI_API_KEY", "GOOGLE_API_KEY")
	v.BindEnv("database.url", "GUARDIAN_DATABASE_URL", "DATABASE_URL")
	v.BindEnv("server.auth.secret", "GUARDIAN_SERVER_AUTH_SECRET")
	v.BindEnv("registry.redis.password", "GUARDIAN_REGISTRY_REDIS_PASSWORD")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Manually load the Gemini key if Unmarshal didn't pick it up.
	if cfg.ScoringCfg.Provider == "gemini" && cfg.ScoringCfg.Gemini.APIKey == "" {
		cfg.ScoringCfg.Gemini.APIKey = os.Getenv("GOOGLE_API_KEY")
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.EvidenceCfg.Dir, &c.ScoringCfg.CorpusFile, &c.LoggerCfg.LogFile} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	switch c.EvidenceCfg.Backend {
	case "memory":
	case "file":
		if c.EvidenceCfg.Dir == "" {
			return fmt.Errorf("evidence.dir is required for the file backend")
		}
	case "postgres":
		if c.DatabaseCfg.URL == "" {
			return fmt.Errorf("database.url is required for the postgres evidence backend")
		}
	default:
		return fmt.Errorf("evidence.backend must be one of memory, file, postgres (got %q)", c.EvidenceCfg.Backend)
	}
	if c.EvidenceCfg.Salt == "" {
		return fmt.Errorf("evidence.salt must not be empty")
	}
	if c.EvidenceCfg.WriteTimeout <= 0 {
		return fmt.Errorf("evidence.write_timeout must be a positive duration")
	}

	switch c.RegistryCfg.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("registry.backend must be one of memory, redis (got %q)", c.RegistryCfg.Backend)
	}

	if err := c.AlertsCfg.Validate(); err != nil {
		return fmt.Errorf("alerts configuration invalid: %w", err)
	}
	if err := c.ServerCfg.Auth.Validate(); err != nil {
		return fmt.Errorf("server.auth configuration invalid: %w", err)
	}

	switch strings.ToLower(c.ScoringCfg.Provider) {
	case "http", "gemini":
	default:
		return fmt.Errorf("scoring.provider must be one of http, gemini (got %q)", c.ScoringCfg.Provider)
	}

	if c.ImpersonationCfg.NewAccountDays < 0 || c.ImpersonationCfg.LowKarma < 0 || c.ImpersonationCfg.LowMembers < 0 {
		return fmt.Errorf("impersonation thresholds must not be negative")
	}
	return nil
}

// Validate checks the per-channel settings. Missing credentials are not an
// error: an unconfigured channel is skipped at dispatch time.
func (a *AlertsConfig) Validate() error {
	for name, level := range map[string]string{"telegram": a.Telegram.MinLevel, "nats": a.NATS.MinLevel} {
		switch level {
		case "medium", "high", "critical":
		case "low":
			return fmt.Errorf("%s.min_level cannot be low: push channels never fire below medium", name)
		default:
			return fmt.Errorf("%s.min_level must be one of medium, high, critical (got %q)", name, level)
		}
	}
	if a.Telegram.Timeout <= 0 || a.NATS.Timeout <= 0 {
		return fmt.Errorf("channel timeouts must be positive durations")
	}
	if a.Telegram.RateLimit <= 0 {
		return fmt.Errorf("telegram.rate_limit must be greater than 0")
	}
	return nil
}

// Validate checks the API auth settings.
func (a *AuthConfig) Validate() error {
	if !a.Enabled {
		return nil
	}
	if len(a.Secret) < 16 {
		return fmt.Errorf("secret must be at least 16 bytes when auth is enabled")
	}
	return nil
}
