package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadFromMergesEnvFileAndSecrets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
server:
  port: "5000"
db:
  host: localhost
  port: 5432
gemini:
  api_key: ${GEMINI_API_KEY}
  model: gemini-2.5-flash
  timeout: 60s
jwt:
  secret: ${JWT_SECRET}
  ttl: 24h
`)
	writeFile(t, dir, "staging.yaml", `
db:
  host: db.staging
`)
	writeFile(t, dir, "secrets.env", "GEMINI_API_KEY=\"from-file\"\nJWT_SECRET=file-secret\n")

	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("PORT", "")
	t.Setenv("SERVER_PORT", "")

	cfg, err := LoadFrom("staging", dir)
	require.NoError(t, err)

	assert.Equal(t, "db.staging", cfg.DB.Host)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, "from-file", cfg.Gemini.APIKey)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, 60*time.Second, cfg.Gemini.Timeout)
	assert.Equal(t, ":5000", cfg.Server.Addr())
	assert.Equal(t, "task.activity.q", cfg.Worker.Queue)
	assert.NoError(t, cfg.ValidateServer())
}

func TestPortEnvOverridesServerPort(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "server:\n  port: \"8080\"\n")

	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("PORT", "7000")

	cfg, err := LoadFrom("local", dir)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr())
}

func TestValidateServerRequiresGeminiKey(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "gemini:\n  api_key: ${GEMINI_API_KEY}\n")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := LoadFrom("local", dir)
	require.NoError(t, err)

	err = cfg.ValidateServer()
	assert.ErrorIs(t, err, ErrMissingGeminiKey)
	assert.ErrorIs(t, err, ErrMissingJWTSecret)
}

func TestLoadFromMissingBase(t *testing.T) {
	_, err := LoadFrom("local", t.TempDir())
	assert.Error(t, err)
}
