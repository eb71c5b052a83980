package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, ":9090", cfg.GRPC.Addr)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Empty(t, cfg.Logging.Backend, "backend выбирается логгером по env")
	assert.Equal(t, "http://localhost:8080", cfg.Client.ServerURL)
	require.NoError(t, cfg.ValidateServer())
	require.NoError(t, cfg.ValidateClient())
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_FromFile(t *testing.T) {
	path := writeFile(t, `
http:
  addr: ":18080"
storage:
  driver: redis
redis:
  addr: localhost:6379
sandbox:
  timeout: 2s
client:
  participantsPoll: 3s
`)
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":18080", cfg.HTTP.Addr)
	assert.Equal(t, DriverRedis, cfg.Storage.Driver)
	assert.Equal(t, "coderoom:", cfg.Redis.KeyPrefix)
	require.NoError(t, cfg.ValidateServer())
	assert.Equal(t, 2*time.Second, ParseDurationOr(0, cfg.Sandbox.Timeout))
	assert.Equal(t, 3*time.Second, ParseDurationOr(0, cfg.Client.ParticipantsPoll))
}

func TestValidateServer(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{name: "postgres without dsn", body: "storage:\n  driver: postgres\n"},
		{name: "redis without addr", body: "storage:\n  driver: redis\n"},
		{name: "unknown driver", body: "storage:\n  driver: mongo\n"},
		{name: "bad timeout", body: "sandbox:\n  timeout: soon\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := LoadFile(writeFile(t, tc.body))
			require.NoError(t, err)
			assert.Error(t, cfg.ValidateServer())
		})
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := LoadFile(writeFile(t, "http: [\n"))
	assert.Error(t, err)
}

func TestParseDurationOr(t *testing.T) {
	assert.Equal(t, time.Second, ParseDurationOr(time.Second, ""))
	assert.Equal(t, time.Second, ParseDurationOr(time.Second, "nope"))
	assert.Equal(t, time.Duration(0), ParseDurationOr(time.Second, "0s"))
	assert.Equal(t, 5*time.Minute, ParseDurationOr(time.Second, "5m"))
}
