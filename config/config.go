// Package config loads grizzly's settings and credentials and owns the
// shared debug logger.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ProviderConfig describes one model provider endpoint.
type ProviderConfig struct {
	BaseURL string `toml:"base_url,omitempty"`
	Model   string `toml:"model,omitempty"`
}

// ServerConfig describes how to reach the MCP server under inspection.
// Command launches a local server over stdio; URL connects to a remote
// one. Command wins when both are set.
type ServerConfig struct {
	Command   string   `toml:"command,omitempty"`
	Args      []string `toml:"args,omitempty"`
	URL       string   `toml:"url,omitempty"`
	Transport string   `toml:"transport,omitempty"` // "sse" or "streamable-http"
}

// UserConfig is the on-disk shape of config.toml.
type UserConfig struct {
	DefaultProvider string         `toml:"default_provider"`
	Anthropic       ProviderConfig `toml:"anthropic"`
	OpenAI          ProviderConfig `toml:"openai"`
	Server          ServerConfig   `toml:"server"`
}

// Config is the resolved runtime configuration.
type Config struct {
	DataDirectory   string
	DefaultProvider string
	Anthropic       ProviderConfig
	OpenAI          ProviderConfig
	Server          ServerConfig
	Credentials     *CredentialStore
}

var Debug = false
var DebugLog *log.Logger

// DataDir returns the expanded data directory path.
func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

// Model returns the configured model for the given provider ID, empty
// when unset (providers fall back to their own defaults).
func (c *Config) Model(providerID string) string {
	switch providerID {
	case "anthropic":
		return c.Anthropic.Model
	case "openai":
		return c.OpenAI.Model
	}
	return ""
}

// APIKey returns the stored credential for a provider, preferring the
// conventional environment variables over the credential store.
func (c *Config) APIKey(providerID string) string {
	switch providerID {
	case "anthropic":
		if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
			return key
		}
	case "openai":
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			return key
		}
	}
	if c.Credentials == nil {
		return ""
	}
	return c.Credentials.Get(providerID)
}

func (c *Config) applyEnvOverrides() {
	if dataDir := os.Getenv("GRIZZLY_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
	if provider := os.Getenv("GRIZZLY_PROVIDER"); provider != "" {
		c.DefaultProvider = provider
	}
	if model := os.Getenv("GRIZZLY_MODEL"); model != "" {
		switch c.DefaultProvider {
		case "openai":
			c.OpenAI.Model = model
		default:
			c.Anthropic.Model = model
		}
	}
}

// CheckDebug reports whether GRIZZLY_DEBUG is set.
func CheckDebug() bool {
	debug := os.Getenv("GRIZZLY_DEBUG")
	return debug == "true" || debug == "1"
}

// InitDebugLog opens the debug log in the data directory when
// GRIZZLY_DEBUG is set. The file is 0600; streams and tool arguments
// end up in it.
func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	Debug = true
	logPath := filepath.Join(dataDir, "debug.log")

	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (GRIZZLY_DEBUG=%s) ===", os.Getenv("GRIZZLY_DEBUG"))
}

// Load resolves configuration from config.toml in the data directory,
// applies environment overrides, and loads the credential store. A
// missing config file is not an error; defaults apply.
func Load() (*Config, error) {
	cfg := &Config{
		DataDirectory:   GetDefaultDataDir(),
		DefaultProvider: "anthropic",
	}

	if dataDir := os.Getenv("GRIZZLY_DATA_DIR"); dataDir != "" {
		cfg.DataDirectory = dataDir
	}

	configPath := filepath.Join(cfg.DataDir(), "config.toml")
	if FileExists(configPath) {
		var userCfg UserConfig
		if _, err := toml.DecodeFile(configPath, &userCfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
		}
		if userCfg.DefaultProvider != "" {
			cfg.DefaultProvider = userCfg.DefaultProvider
		}
		cfg.Anthropic = userCfg.Anthropic
		cfg.OpenAI = userCfg.OpenAI
		cfg.Server = userCfg.Server
	}

	cfg.applyEnvOverrides()

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg.Credentials = NewCredentialStore()
	if err := cfg.Credentials.Load(dataDir); err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	return cfg, nil
}

// Save writes the user-editable parts of the configuration back to
// config.toml with owner-only permissions.
func (c *Config) Save() error {
	userCfg := UserConfig{
		DefaultProvider: c.DefaultProvider,
		Anthropic:       c.Anthropic,
		OpenAI:          c.OpenAI,
		Server:          c.Server,
	}

	configPath := filepath.Join(c.DataDir(), "config.toml")
	f, err := os.OpenFile(configPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(userCfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
