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

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	c, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, 10*time.Second, c.Server.ShutdownTimeout)
	assert.Equal(t, "USD", c.App.Currency)
	assert.Equal(t, 24*time.Hour, c.Auth.TokenTTL)
	assert.Equal(t, 1024, c.LLM.MaxTokens)
	assert.Empty(t, c.LLM.APIKey)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
server:
  addr: ":9000"
app:
  currency: eur
llm:
  timeout: 5s
  temperature: 0.7
auth:
  jwt_secret: from-file
`)
	t.Setenv("WEALTH_SERVER_ADDR", ":9100")
	t.Setenv("WEALTH_DATABASE_URL", "postgres://localhost/wealth")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	c, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, ":9100", c.Server.Addr)
	assert.Equal(t, "postgres://localhost/wealth", c.Database.URL)
	assert.Equal(t, "EUR", c.App.Currency)
	assert.Equal(t, 5*time.Second, c.LLM.Timeout)
	assert.Equal(t, 0.7, c.LLM.Temperature)
	assert.Equal(t, "from-file", c.Auth.JWTSecret)
	assert.Equal(t, "sk-test", c.LLM.APIKey)
}

func TestLoad_ExplicitKeyWinsOverFallback(t *testing.T) {
	t.Setenv("WEALTH_LLM_API_KEY", "sk-explicit")
	t.Setenv("ANTHROPIC_API_KEY", "sk-fallback")
	c, err := Load(writeFile(t, "log:\n  level: debug\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, "sk-explicit", c.LLM.APIKey)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)

	_, err = Load(writeFile(t, "app:\n  currency: euros\n"), nil)
	assert.ErrorContains(t, err, "app.currency")

	_, err = Load(writeFile(t, "log:\n  format: xml\n"), nil)
	assert.ErrorContains(t, err, "log.format")
}
