package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Vault     VaultConfig     `yaml:"vault" mapstructure:"vault"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Groq      GroqConfig      `yaml:"groq" mapstructure:"groq"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// VaultConfig locates the encrypted dataset files and holds the secret
// their keys are derived from.
type VaultConfig struct {
	Secret  string      `yaml:"secret" mapstructure:"secret"`
	DataDir string      `yaml:"data_dir" mapstructure:"data_dir"`
	Files   FilesConfig `yaml:"files" mapstructure:"files"`
}

// FilesConfig names each dataset file inside the data directory.
type FilesConfig struct {
	Documents  string `yaml:"documents" mapstructure:"documents"`
	Candidates string `yaml:"candidates" mapstructure:"candidates"`
	Products   string `yaml:"products" mapstructure:"products"`
	Resale     string `yaml:"resale" mapstructure:"resale"`
	History    string `yaml:"history" mapstructure:"history"`
	Calendar   string `yaml:"calendar" mapstructure:"calendar"`
	Driver     string `yaml:"driver" mapstructure:"driver"`
	Master     string `yaml:"master" mapstructure:"master"`
	Usage      string `yaml:"usage" mapstructure:"usage"`
	Contexts   string `yaml:"contexts" mapstructure:"contexts"`
	Events     string `yaml:"events" mapstructure:"events"`
}

// Path joins a dataset file name onto the data directory. An empty name
// means the dataset is not configured and yields "".
func (v VaultConfig) Path(name string) string {
	if name == "" {
		return ""
	}
	return filepath.Join(v.DataDir, name)
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// GroqConfig holds settings for the OpenAI-compatible Groq endpoint.
type GroqConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// PipelineConfig configures extraction and enrichment behavior.
type PipelineConfig struct {
	OriginsFile          string  `yaml:"origins_file" mapstructure:"origins_file"`
	ValuationConcurrency int     `yaml:"valuation_concurrency" mapstructure:"valuation_concurrency"`
	ValuationRPS         float64 `yaml:"valuation_rps" mapstructure:"valuation_rps"`
}

// StoreConfig configures the run ledger backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the correction server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from path, or from ./config.yaml when path is
// empty, then applies RESALE_* environment overrides. A missing
// ./config.yaml is not an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, eris.Wrapf(err, "config: stat %s", path)
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("RESALE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("vault.secret", "")
	v.SetDefault("vault.data_dir", "data")
	v.SetDefault("vault.files.documents", "emails.json")
	v.SetDefault("vault.files.candidates", "candidates.json")
	v.SetDefault("vault.files.products", "products.json")
	v.SetDefault("vault.files.resale", "resale_cost.json")
	v.SetDefault("vault.files.history", "chrome_history.json")
	v.SetDefault("vault.files.calendar", "calendar.json")
	v.SetDefault("vault.files.driver", "driver_history.json")
	v.SetDefault("vault.files.master", "aggregated_data.json")
	v.SetDefault("vault.files.usage", "usage.json")
	v.SetDefault("vault.files.contexts", "product_context.json")
	v.SetDefault("vault.files.events", "calendar_events.json")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("groq.key", "")
	v.SetDefault("groq.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("groq.model", "llama-3.3-70b-versatile")
	v.SetDefault("pipeline.origins_file", "")
	v.SetDefault("pipeline.valuation_concurrency", 4)
	v.SetDefault("pipeline.valuation_rps", 2.0)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "resale.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the keys a command mode needs. Modes: run, classify,
// enrich, serve, vault.
func (c *Config) Validate(mode string) error {
	var errs []string
	require := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, msg)
		}
	}

	switch mode {
	case "run", "classify":
		require(c.Vault.Secret != "", "vault.secret is required")
		require(c.Anthropic.Key != "", "anthropic.key is required")
		require(c.Anthropic.MaxTokens > 0, "anthropic.max_tokens must be > 0")
	case "enrich":
		require(c.Vault.Secret != "", "vault.secret is required")
		require(c.Anthropic.Key != "", "anthropic.key is required")
		require(c.Groq.Key != "", "groq.key is required")
		require(c.Pipeline.ValuationConcurrency >= 1 && c.Pipeline.ValuationConcurrency <= 32,
			"pipeline.valuation_concurrency must be between 1 and 32")
		require(c.Pipeline.ValuationRPS > 0, "pipeline.valuation_rps must be > 0")
	case "serve":
		require(c.Vault.Secret != "", "vault.secret is required")
		require(c.Server.Port > 0, "server.port must be > 0")
	case "vault":
		require(c.Vault.Secret != "", "vault.secret is required")
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
		errs = append(errs, "store.driver must be sqlite or postgres")
	}
	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
