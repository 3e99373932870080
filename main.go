package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alpic-ai/grizzly/config"
	"github.com/alpic-ai/grizzly/mcp"
	"github.com/alpic-ai/grizzly/model"
	"github.com/alpic-ai/grizzly/provider"
	"github.com/alpic-ai/grizzly/storage"
	"github.com/alpic-ai/grizzly/ui"
)

const Version = "v0.1.0"

const usage = `Usage:
  grizzly -- <command> [args...]   inspect a local stdio server
  grizzly <url>                    inspect a remote server (SSE or streamable HTTP)
  grizzly                          use the [server] section of config.toml

The model provider comes from config.toml (default_provider) or the
GRIZZLY_PROVIDER environment variable. API keys are read from
ANTHROPIC_API_KEY / OPENAI_API_KEY or the credential store.`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	config.Debug = config.CheckDebug()
	config.InitDebugLog(cfg.DataDir())

	applyServerArgs(cfg, os.Args[1:])

	if cfg.Server.Command == "" && cfg.Server.URL == "" {
		fmt.Fprintln(os.Stderr, "No server to inspect.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	prov, err := buildProvider(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize provider: %v\n", err)
		os.Exit(1)
	}

	connectCtx, connectCancel := context.WithTimeout(context.Background(), 30*time.Second)
	mcpClient, err := mcp.Connect(connectCtx, cfg.Server)
	connectCancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to server: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		if err := mcpClient.Close(closeCtx); err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("Warning: server shutdown: %v", err)
		}
	}()

	// History is an audit trail, not a dependency; run without it if
	// the database cannot open
	history, err := storage.NewHistoryStore(cfg.DataDir())
	if err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("Warning: invocation history disabled: %v", err)
		}
		history = nil
	} else {
		defer history.Close()
	}

	dataModel := model.NewModel(cfg, mcpClient, prov, history, Version)

	p := tea.NewProgram(
		ui.NewAppView(dataModel),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// applyServerArgs overrides the configured server with one given on
// the command line. "grizzly -- npx some-server --flag" launches a
// stdio server; a single URL argument targets a remote one.
func applyServerArgs(cfg *config.Config, args []string) {
	for i, arg := range args {
		if arg == "--" {
			rest := args[i+1:]
			if len(rest) == 0 {
				return
			}
			cfg.Server = config.ServerConfig{
				Command: rest[0],
				Args:    rest[1:],
			}
			return
		}
	}

	if len(args) == 1 && (strings.HasPrefix(args[0], "http://") || strings.HasPrefix(args[0], "https://")) {
		cfg.Server.Command = ""
		cfg.Server.Args = nil
		cfg.Server.URL = args[0]
	}
}

func buildProvider(cfg *config.Config) (provider.Provider, error) {
	id := cfg.DefaultProvider
	if id == "" {
		id = "anthropic"
	}

	baseURL := ""
	switch id {
	case "anthropic":
		baseURL = cfg.Anthropic.BaseURL
	case "openai":
		baseURL = cfg.OpenAI.BaseURL
	}

	return provider.NewProvider(provider.Config{
		Type:    provider.MapProviderIDToType(id),
		BaseURL: baseURL,
		Model:   cfg.Model(id),
		APIKey:  cfg.APIKey(id),
	})
}
