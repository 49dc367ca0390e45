package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "resale.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "data", cfg.Vault.DataDir)
	assert.Equal(t, "products.json", cfg.Vault.Files.Products)
	assert.Equal(t, "aggregated_data.json", cfg.Vault.Files.Master)
	assert.Equal(t, "usage.json", cfg.Vault.Files.Usage)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
	assert.Equal(t, int64(2048), cfg.Anthropic.MaxTokens)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.Groq.BaseURL)
	assert.Equal(t, 4, cfg.Pipeline.ValuationConcurrency)
	assert.InDelta(t, 2.0, cfg.Pipeline.ValuationRPS, 0.001)
	assert.Empty(t, cfg.Vault.Secret)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/resale
log:
  level: debug
  format: console
server:
  port: 9090
vault:
  data_dir: /var/lib/resale
  files:
    master: master.json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/var/lib/resale/master.json", cfg.Vault.Path(cfg.Vault.Files.Master))
	// Defaults still apply for unset values
	assert.Equal(t, "usage.json", cfg.Vault.Files.Usage)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("RESALE_STORE_DRIVER", "postgres")
	t.Setenv("RESALE_LOG_LEVEL", "warn")
	t.Setenv("RESALE_VAULT_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "s3cret", cfg.Vault.Secret)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [\n"), 0o644))

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadExplicitPath(t *testing.T) {
	chdirTemp(t)
	path := filepath.Join(t.TempDir(), "resale.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7070\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Store.Driver)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestVaultConfigPath(t *testing.T) {
	v := VaultConfig{DataDir: "data"}
	assert.Equal(t, filepath.Join("data", "usage.json"), v.Path("usage.json"))
	assert.Empty(t, v.Path(""))
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "invalid", Format: "json"}))
}

func validConfig() *Config {
	cfg := &Config{}
	cfg.Vault.Secret = "secret"
	cfg.Anthropic.Key = "sk-ant-key"
	cfg.Anthropic.MaxTokens = 1024
	cfg.Groq.Key = "gsk-key"
	cfg.Pipeline.ValuationConcurrency = 4
	cfg.Pipeline.ValuationRPS = 2
	cfg.Store.Driver = "sqlite"
	cfg.Server.Port = 8080
	return cfg
}

func TestValidate_AllModes(t *testing.T) {
	cfg := validConfig()
	for _, mode := range []string{"run", "classify", "enrich", "serve", "vault"} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidateRun_MissingFields(t *testing.T) {
	cfg := validConfig()
	cfg.Vault.Secret = ""
	cfg.Anthropic.Key = ""

	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vault.secret is required")
	assert.Contains(t, err.Error(), "anthropic.key is required")
}

func TestValidateEnrich_Bounds(t *testing.T) {
	cfg := validConfig()
	cfg.Groq.Key = ""
	cfg.Pipeline.ValuationConcurrency = 0
	cfg.Pipeline.ValuationRPS = 0

	err := cfg.Validate("enrich")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "groq.key is required")
	assert.Contains(t, err.Error(), "valuation_concurrency must be between 1 and 32")
	assert.Contains(t, err.Error(), "valuation_rps must be > 0")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidate_StoreDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Driver = "mysql"

	err := cfg.Validate("vault")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validConfig().Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
