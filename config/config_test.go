package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("GRIZZLY_DATA_DIR", dataDir)
	t.Setenv("GRIZZLY_PROVIDER", "")
	t.Setenv("GRIZZLY_MODEL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.DefaultProvider != "anthropic" {
		t.Errorf("expected anthropic default, got %q", cfg.DefaultProvider)
	}
	if cfg.DataDir() != dataDir {
		t.Errorf("expected data dir %q, got %q", dataDir, cfg.DataDir())
	}
	if cfg.Credentials == nil {
		t.Error("expected a credential store")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("GRIZZLY_DATA_DIR", dataDir)
	t.Setenv("GRIZZLY_PROVIDER", "")
	t.Setenv("GRIZZLY_MODEL", "")

	configToml := `
default_provider = "openai"

[openai]
model = "gpt-4o"

[server]
command = "npx"
args = ["-y", "@modelcontextprotocol/server-filesystem", "/tmp"]
`
	if err := os.WriteFile(filepath.Join(dataDir, "config.toml"), []byte(configToml), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.DefaultProvider != "openai" {
		t.Errorf("expected openai, got %q", cfg.DefaultProvider)
	}
	if cfg.Model("openai") != "gpt-4o" {
		t.Errorf("expected gpt-4o, got %q", cfg.Model("openai"))
	}
	if cfg.Server.Command != "npx" || len(cfg.Server.Args) != 3 {
		t.Errorf("server config lost: %+v", cfg.Server)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("GRIZZLY_DATA_DIR", dataDir)
	t.Setenv("GRIZZLY_PROVIDER", "openai")
	t.Setenv("GRIZZLY_MODEL", "gpt-4.1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.DefaultProvider != "openai" {
		t.Errorf("expected env provider to win, got %q", cfg.DefaultProvider)
	}
	if cfg.OpenAI.Model != "gpt-4.1" {
		t.Errorf("expected env model applied to openai, got %q", cfg.OpenAI.Model)
	}
}

func TestAPIKeyPrefersEnvironment(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-from-env")

	store := NewCredentialStore()
	store.Set("anthropic", "sk-ant-from-store")
	cfg := &Config{Credentials: store}

	if key := cfg.APIKey("anthropic"); key != "sk-ant-from-env" {
		t.Errorf("expected env key, got %q", key)
	}

	t.Setenv("ANTHROPIC_API_KEY", "")
	if key := cfg.APIKey("anthropic"); key != "sk-ant-from-store" {
		t.Errorf("expected stored key, got %q", key)
	}
}

func TestAPIKeyWithoutStore(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cfg := &Config{}

	if key := cfg.APIKey("openai"); key != "" {
		t.Errorf("expected empty key, got %q", key)
	}
}

func TestCheckDebug(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"true", true},
		{"1", true},
		{"false", false},
		{"yes", false},
	}

	for _, tt := range tests {
		t.Setenv("GRIZZLY_DEBUG", tt.value)
		if got := CheckDebug(); got != tt.want {
			t.Errorf("GRIZZLY_DEBUG=%q: expected %v, got %v", tt.value, tt.want, got)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("GRIZZLY_DATA_DIR", dataDir)
	t.Setenv("GRIZZLY_PROVIDER", "")
	t.Setenv("GRIZZLY_MODEL", "")

	cfg := &Config{
		DataDirectory:   dataDir,
		DefaultProvider: "openai",
		OpenAI:          ProviderConfig{Model: "gpt-4o-mini"},
		Server:          ServerConfig{URL: "https://example.com/mcp", Transport: "sse"},
	}
	if err := cfg.Save(); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(dataDir, "config.toml"))
	if err != nil {
		t.Fatalf("config file missing: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected 0600 permissions, got %o", perm)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.DefaultProvider != "openai" || loaded.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("round trip lost fields: %+v", loaded)
	}
	if loaded.Server.URL != "https://example.com/mcp" || loaded.Server.Transport != "sse" {
		t.Errorf("server config lost: %+v", loaded.Server)
	}
}
