package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// DefaultDeleteWindow is how long a first `d` stays armed waiting for the second one.
const DefaultDeleteWindow = 500 * time.Millisecond

type Config struct {
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
	Server   ServerConfig   `toml:"server"`
	Remote   RemoteConfig   `toml:"remote"`
	Vim      VimConfig      `toml:"vim"`
	UI       UIConfig       `toml:"ui"`
	Keys     KeysConfig     `toml:"keys"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

// DevFileConfig controls the logfmt sink written while running in dev mode.
type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type ServerConfig struct {
	Bind        string `toml:"bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

// RemoteConfig points the TUI at a running HTTP API instead of the local database.
type RemoteConfig struct {
	URL     string   `toml:"url"`
	Timeout Duration `toml:"timeout"`
}

type VimConfig struct {
	DeleteWindow Duration `toml:"delete_window"`
}

type UIConfig struct {
	ShowClock   bool   `toml:"show_clock"`
	ClockFormat string `toml:"clock_format"`
}

// KeysConfig remaps single-key Normal-mode actions. Empty values keep the defaults.
type KeysConfig struct {
	Insert  string `toml:"insert"`
	Edit    string `toml:"edit"`
	Toggle  string `toml:"toggle"`
	Delete  string `toml:"delete"`
	Command string `toml:"command"`
}

// Duration decodes TOML strings such as "500ms" or "10s".
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText renders the duration in Go syntax.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

var supportedLogLevels = []string{"debug", "info", "warn", "error", "fatal"}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     ".vimdo/log",
			},
		},
		Server: ServerConfig{
			Bind:        "127.0.0.1:8001",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
		Remote: RemoteConfig{
			Timeout: Duration(10 * time.Second),
		},
		Vim: VimConfig{
			DeleteWindow: Duration(DefaultDeleteWindow),
		},
		UI: UIConfig{
			ShowClock:   true,
			ClockFormat: "02.01.2006 15:04:05",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}

	level := strings.TrimSpace(strings.ToLower(c.Logging.Level))
	valid := false
	for _, candidate := range supportedLogLevels {
		if level == candidate {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	if c.Logging.DevFile.Enabled && strings.TrimSpace(c.Logging.DevFile.Dir) == "" {
		return errors.New("logging.dev_file.dir is required when dev_file is enabled")
	}

	if strings.TrimSpace(c.Server.Bind) == "" {
		return errors.New("server.bind is required")
	}
	for name, endpoint := range map[string]string{
		"server.api_endpoint": c.Server.APIEndpoint,
		"server.mcp_endpoint": c.Server.MCPEndpoint,
	} {
		if !strings.HasPrefix(strings.TrimSpace(endpoint), "/") {
			return fmt.Errorf("invalid %s: %q must start with /", name, endpoint)
		}
	}

	if raw := strings.TrimSpace(c.Remote.URL); raw != "" {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("invalid remote.url: %q", c.Remote.URL)
		}
	}
	if c.Remote.Timeout.Std() < 0 {
		return errors.New("remote.timeout must be >= 0")
	}

	if c.Vim.DeleteWindow.Std() <= 0 {
		return fmt.Errorf("invalid vim.delete_window: %s must be > 0", c.Vim.DeleteWindow.Std())
	}

	if c.UI.ShowClock && strings.TrimSpace(c.UI.ClockFormat) == "" {
		return errors.New("ui.clock_format is required when show_clock is enabled")
	}

	seen := map[string]string{}
	for name, key := range map[string]string{
		"keys.insert":  c.Keys.Insert,
		"keys.edit":    c.Keys.Edit,
		"keys.toggle":  c.Keys.Toggle,
		"keys.delete":  c.Keys.Delete,
		"keys.command": c.Keys.Command,
	} {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if other, ok := seen[key]; ok {
			return fmt.Errorf("invalid %s: %q already bound by %s", name, key, other)
		}
		seen[key] = name
	}

	return nil
}
