package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default("/tmp/vimdo.db")
	if cfg.Database.Path != "/tmp/vimdo.db" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if cfg.Vim.DeleteWindow.Std() != 500*time.Millisecond {
		t.Fatalf("unexpected delete window %s", cfg.Vim.DeleteWindow.Std())
	}
	if cfg.Server.APIEndpoint != "/api/v1" || cfg.Server.MCPEndpoint != "/mcp" {
		t.Fatalf("unexpected server endpoints %#v", cfg.Server)
	}
	if cfg.Remote.URL != "" {
		t.Fatalf("expected remote mode off by default, got %q", cfg.Remote.URL)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	defaults := Default("/tmp/vimdo.db")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), defaults)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != defaults.Database.Path {
		t.Fatalf("expected default db path, got %q", cfg.Database.Path)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[database]
path = "/custom/vimdo.db"

[logging]
level = "debug"

[remote]
url = "http://127.0.0.1:9000/api/v1"
timeout = "3s"

[vim]
delete_window = "750ms"

[ui]
show_clock = false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path, Default("/tmp/default.db"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != "/custom/vimdo.db" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected log level %q", cfg.Logging.Level)
	}
	if cfg.Remote.URL != "http://127.0.0.1:9000/api/v1" || cfg.Remote.Timeout.Std() != 3*time.Second {
		t.Fatalf("unexpected remote config %#v", cfg.Remote)
	}
	if cfg.Vim.DeleteWindow.Std() != 750*time.Millisecond {
		t.Fatalf("unexpected delete window %s", cfg.Vim.DeleteWindow.Std())
	}
	if cfg.UI.ShowClock {
		t.Fatal("expected clock hidden from config override")
	}
	if cfg.Server.Bind != "127.0.0.1:8001" {
		t.Fatalf("expected untouched server bind default, got %q", cfg.Server.Bind)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"delete window": "[vim]\ndelete_window = \"0s\"\n",
		"log level":     "[logging]\nlevel = \"loud\"\n",
		"remote url":    "[remote]\nurl = \"not a url\"\n",
		"endpoint":      "[server]\napi_endpoint = \"api\"\n",
		"bad duration":  "[vim]\ndelete_window = \"soon\"\n",
		"key clash":     "[keys]\ninsert = \"x\"\ndelete = \"x\"\n",
	}
	for name, content := range cases {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		if _, err := Load(path, Default("/tmp/default.db")); err == nil {
			t.Fatalf("expected error for invalid %s", name)
		}
	}
}

func TestLoadKeyOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[keys]\nedit = \"o\"\ndelete = \"x\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	cfg, err := Load(path, Default("/tmp/default.db"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Keys.Edit != "o" || cfg.Keys.Delete != "x" || cfg.Keys.Insert != "" {
		t.Fatalf("unexpected keys config %#v", cfg.Keys)
	}
}

func TestDurationMarshalText(t *testing.T) {
	out, err := Duration(1500 * time.Millisecond).MarshalText()
	if err != nil {
		t.Fatalf("MarshalText() error = %v", err)
	}
	if !strings.EqualFold(string(out), "1.5s") {
		t.Fatalf("unexpected duration text %q", out)
	}
}
