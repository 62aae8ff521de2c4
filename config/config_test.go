package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DB_MAX_IDLE_CONNS", "")
	t.Setenv("DB_MAX_OPEN_CONNS", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("SHUTDOWN_TIMEOUT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Server.Environment)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 10, cfg.Database.MaxIdleConns)
	assert.Equal(t, 100, cfg.Database.MaxOpenConns)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:8080"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("DB_MAX_IDLE_CONNS", "5")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("ALLOWED_ORIGINS", " https://book.example.com , ,https://admin.example.com")
	t.Setenv("UPLOAD_MAX_SIZE", "2048")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 5, cfg.Database.MaxIdleConns)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.Equal(t, []string{"https://book.example.com", "https://admin.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, int64(2048), cfg.Upload.MaxSize)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")
	t.Setenv("DB_MAX_IDLE_CONNS", "many")
	t.Setenv("DB_MAX_OPEN_CONNS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 10, cfg.Database.MaxIdleConns)
}

func TestLoad_RejectsPoolSmallerThanIdle(t *testing.T) {
	t.Setenv("DB_MAX_IDLE_CONNS", "50")
	t.Setenv("DB_MAX_OPEN_CONNS", "10")

	_, err := Load()
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db",
		Port:     "5432",
		User:     "salon",
		Password: "secret",
		DBName:   "salonbook",
		SSLMode:  "require",
	}

	assert.Equal(t, "host=db port=5432 user=salon password=secret dbname=salonbook sslmode=require", cfg.DSN())
}
