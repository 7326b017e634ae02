package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 15, cfg.HTTP.TimeoutSeconds)
	require.Equal(t, 3, cfg.HTTP.MaxRetries)
	require.Equal(t, 5, cfg.HTTP.MaxRedirects)
	require.Equal(t, "brandloom-insights/0.1", cfg.HTTP.UserAgent)
	require.Equal(t, 45, cfg.Pipeline.BudgetSeconds)
	require.Equal(t, "noop", cfg.Storage.Provider)
	require.Equal(t, "memory", cfg.DB.Provider)
	require.Equal(t, "noop", cfg.PubSub.Provider)
	require.True(t, cfg.Logging.Development)

	require.Equal(t, 15*time.Second, cfg.HTTPTimeout())
	require.Equal(t, 45*time.Second, cfg.PipelineBudget())
}

func TestLoad_FileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
http:
  timeout_seconds: 7
pipeline:
  budget_seconds: 20
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 7, cfg.HTTP.TimeoutSeconds)
	require.Equal(t, 20, cfg.Pipeline.BudgetSeconds)
	// Untouched keys keep their defaults.
	require.Equal(t, 3, cfg.HTTP.MaxRetries)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Server:   ServerConfig{Port: 8080},
			HTTP:     HTTPConfig{TimeoutSeconds: 15},
			Pipeline: PipelineConfig{BudgetSeconds: 45},
		}
	}

	require.NoError(t, base().Validate())

	cfg := base()
	cfg.Server.Port = 0
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Pipeline.BudgetSeconds = 0
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Auth.Enabled = true
	require.Error(t, cfg.Validate())
	cfg.Auth.APIKey = "sekret"
	require.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Storage.Provider = "gcs"
	require.Error(t, cfg.Validate())
	cfg.Storage.GCSBucket = "bucket"
	require.NoError(t, cfg.Validate())

	cfg = base()
	cfg.DB.Provider = "postgres"
	require.Error(t, cfg.Validate())
	cfg.DB.DSN = "postgres://localhost/insights"
	require.NoError(t, cfg.Validate())

	cfg = base()
	cfg.PubSub.Provider = "pubsub"
	require.Error(t, cfg.Validate())
	cfg.PubSub.ProjectID = "proj"
	cfg.PubSub.TopicName = "topic"
	require.NoError(t, cfg.Validate())
}
