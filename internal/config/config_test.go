package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func newTestManager() *Manager {
	return &Manager{}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := newTestManager().Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 3*time.Second, cfg.Watch.Interval)
	assert.Equal(t, 72*time.Hour, cfg.Gmail.TokenRetention)
	assert.Equal(t, 5*time.Second, cfg.Notify.Duration)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
watch:
  dir: /srv/mail
  interval: 10s
gmail:
  token_dir: /var/lib/tokens
log:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := newTestManager().Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/mail", cfg.Watch.Dir)
	assert.Equal(t, 10*time.Second, cfg.Watch.Interval)
	assert.Equal(t, "email_data.txt", cfg.Watch.FileName)
	assert.Equal(t, "/var/lib/tokens", cfg.Gmail.TokenDir)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("GMAIL_MAILER_WATCH_INTERVAL", "7s")
	t.Setenv("GMAIL_MAILER_GMAIL_USER_ID", "someone@example.com")

	cfg, err := newTestManager().Load("")
	require.NoError(t, err)

	assert.Equal(t, 7*time.Second, cfg.Watch.Interval)
	assert.Equal(t, "someone@example.com", cfg.Gmail.UserID)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := newTestManager().Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero interval", mutate: func(c *Config) { c.Watch.Interval = 0 }},
		{name: "empty file name", mutate: func(c *Config) { c.Watch.FileName = "" }},
		{name: "zero retention", mutate: func(c *Config) { c.Gmail.TokenRetention = 0 }},
		{name: "negative notify duration", mutate: func(c *Config) { c.Notify.Duration = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestYAMLRoundTrip(t *testing.T) {
	out, err := Default().YAML()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Contains(t, decoded, "watch")
	assert.Contains(t, decoded, "gmail")
}
