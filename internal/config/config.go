// Configuration management with layered loading and validation
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g. GMAIL_MAILER_WATCH_INTERVAL.
const EnvPrefix = "GMAIL_MAILER"

// Config represents complete application configuration
type Config struct {
	Watch  WatchConfig  `yaml:"watch" mapstructure:"watch"`
	Gmail  GmailConfig  `yaml:"gmail" mapstructure:"gmail"`
	Notify NotifyConfig `yaml:"notify" mapstructure:"notify"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// WatchConfig controls where and how often the request file is polled.
type WatchConfig struct {
	// Dir overrides the platform desktop directory when set.
	Dir      string        `yaml:"dir" mapstructure:"dir"`
	FileName string        `yaml:"file_name" mapstructure:"file_name"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
	// Notify wakes the poll loop early on filesystem write events.
	Notify bool `yaml:"notify" mapstructure:"notify"`
}

type GmailConfig struct {
	CredentialsFile string        `yaml:"credentials_file" mapstructure:"credentials_file"`
	TokenDir        string        `yaml:"token_dir" mapstructure:"token_dir"`
	TokenRetention  time.Duration `yaml:"token_retention" mapstructure:"token_retention"`
	AuthTimeout     time.Duration `yaml:"auth_timeout" mapstructure:"auth_timeout"`
	UserID          string        `yaml:"user_id" mapstructure:"user_id"`
}

type NotifyConfig struct {
	Duration time.Duration `yaml:"duration" mapstructure:"duration"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // console|json
}

// Manager handles config loading with environment overrides
type Manager struct {
	candidates []string
}

func NewManager() *Manager {
	return &Manager{candidates: []string{"config.yaml", "config/config.yaml"}}
}

// Load configuration with fallback chain: defaults -> file -> environment
func (m *Manager) Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if path == "" {
		path = m.findConfig()
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the settings the service ships with
func Default() *Config {
	return &Config{
		Watch: WatchConfig{
			FileName: "email_data.txt",
			Interval: 3 * time.Second,
		},
		Gmail: GmailConfig{
			CredentialsFile: "credentials.json",
			TokenDir:        ".",
			TokenRetention:  72 * time.Hour,
			AuthTimeout:     5 * time.Minute,
			UserID:          "me",
		},
		Notify: NotifyConfig{
			Duration: 5 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate rejects settings the watcher or credential cache cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Watch.FileName == "" {
		errs = append(errs, errors.New("watch.file_name must not be empty"))
	}
	if c.Watch.Interval <= 0 {
		errs = append(errs, fmt.Errorf("watch.interval must be positive, got %s", c.Watch.Interval))
	}
	if c.Gmail.TokenRetention <= 0 {
		errs = append(errs, fmt.Errorf("gmail.token_retention must be positive, got %s", c.Gmail.TokenRetention))
	}
	if c.Notify.Duration < 0 {
		errs = append(errs, fmt.Errorf("notify.duration must not be negative, got %s", c.Notify.Duration))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// setDefaults registers every key so environment overrides apply even
// without a config file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("watch.dir", d.Watch.Dir)
	v.SetDefault("watch.file_name", d.Watch.FileName)
	v.SetDefault("watch.interval", d.Watch.Interval)
	v.SetDefault("watch.notify", d.Watch.Notify)

	v.SetDefault("gmail.credentials_file", d.Gmail.CredentialsFile)
	v.SetDefault("gmail.token_dir", d.Gmail.TokenDir)
	v.SetDefault("gmail.token_retention", d.Gmail.TokenRetention)
	v.SetDefault("gmail.auth_timeout", d.Gmail.AuthTimeout)
	v.SetDefault("gmail.user_id", d.Gmail.UserID)

	v.SetDefault("notify.duration", d.Notify.Duration)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// findConfig searches common locations for config files
func (m *Manager) findConfig() string {
	for _, path := range m.candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
