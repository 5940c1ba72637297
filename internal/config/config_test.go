package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{
		"SERVICE_NAME", "SERVER_PORT", "LOG_LEVEL", "DB_DRIVER", "DATABASE_URL",
		"FILTER_DATE_FORMAT", "JWT_SECRET", "KAFKA_BROKERS", "KAFKA_TOPIC",
		"PRODUCT_SOURCE", "ES_PRODUCT_INDEX",
	} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "shopcarts", cfg.ServiceName)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "2006-01-02", cfg.FilterDateFormat)
	assert.Equal(t, "cart_events", cfg.KafkaTopic)
	assert.Equal(t, "products", cfg.ESProductIndex)
	assert.Empty(t, cfg.JWTSecret)
	assert.Nil(t, cfg.KafkaBrokers)

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("KAFKA_BROKERS", " a:9092, ,b:9092 ")
	t.Setenv("PRODUCT_SOURCE", "http")
	t.Setenv("PRODUCT_SERVICE_URL", "http://catalog:8080")

	cfg := Load()
	assert.Equal(t, 9000, cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	require.NoError(t, cfg.Validate())
}

func TestValidate_CollectsErrors(t *testing.T) {
	t.Parallel()

	cfg := Config{ServerPort: 0, DBDriver: "mysql", ProductSource: "elasticsearch"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERVER_PORT")
	assert.Contains(t, err.Error(), "mysql")
	assert.Contains(t, err.Error(), "ES_URL")
}

func TestEnvIntDefault_Invalid(t *testing.T) {
	t.Setenv("SOME_PORT", "eighty")
	assert.Equal(t, 80, EnvIntDefault("SOME_PORT", 80))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("SHOPCARTS_DOTENV_PROBE=yes\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("SHOPCARTS_DOTENV_PROBE") })

	LoadDotEnv(path, filepath.Join(dir, "missing.env"))
	assert.Equal(t, "yes", os.Getenv("SHOPCARTS_DOTENV_PROBE"))
}
