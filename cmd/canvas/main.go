// Package main provides the canvas visual-editing host. It keeps the edit
// ledger for one project, talks to an editor surface over a websocket or a
// Playwright-driven preview, and compiles the edits into instructions for
// a coding agent.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/entrhq/canvas/pkg/dispatch"
)

const (
	version      = "0.1.0"
	defaultModel = dispatch.DefaultModel

	defaultWSAddr = "127.0.0.1:7777"
)

// Config holds the application configuration
type Config struct {
	WorkspaceDir string
	ConfigPath   string
	Project      string
	URL          string

	Store      string
	Dir        string
	RedisURL   string
	SQLitePath string

	WSAddr  string
	MCPAddr string

	APIKey  string
	BaseURL string
	Model   string

	Preview     bool
	Headless    bool
	Print       bool
	ShowVersion bool
}

func main() {
	config := parseFlags()

	if config.ShowVersion {
		fmt.Printf("Canvas v%s\n", version)
		return
	}

	if err := config.validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if runErr := run(ctx, config); runErr != nil {
		cancel()
		log.Fatalf("Application error: %v", runErr)
	}
	cancel()
}

// parseFlags parses command line flags
func parseFlags() *Config {
	config := &Config{}

	flag.StringVar(&config.WorkspaceDir, "workspace", ".", "Project directory holding .canvas.yaml")
	flag.StringVar(&config.ConfigPath, "config", "", "Path to the global config file (default: ~/.canvas/config.json)")
	flag.StringVar(&config.Project, "project", "", "Project name used to key the persisted ledger (overrides .canvas.yaml)")
	flag.StringVar(&config.URL, "url", "", "Page to open with -preview (overrides .canvas.yaml)")

	flag.StringVar(&config.Store, "store", "", "Ledger backend: file, redis or sqlite")
	flag.StringVar(&config.Dir, "dir", "", "Directory for the file backend (default: ~/.canvas/ledger)")
	flag.StringVar(&config.RedisURL, "redis-url", "", "Redis URL for the redis backend")
	flag.StringVar(&config.SQLitePath, "sqlite-path", "", "Database path for the sqlite backend (default: ~/.canvas/canvas.db)")

	flag.StringVar(&config.WSAddr, "ws-addr", defaultWSAddr, "Address the surface websocket listens on (empty disables)")
	flag.StringVar(&config.MCPAddr, "mcp-addr", "", "Address to serve the MCP tools over streamable HTTP (empty disables)")

	flag.StringVar(&config.APIKey, "api-key", "", "API key for chat delivery (or set OPENAI_API_KEY env var)")
	flag.StringVar(&config.BaseURL, "base-url", "", "Chat completions base URL (or set OPENAI_BASE_URL env var)")
	flag.StringVar(&config.Model, "model", "", "Model that receives sent instructions")

	flag.BoolVar(&config.Preview, "preview", false, "Open the project URL in a Playwright browser and edit it in place")
	flag.BoolVar(&config.Headless, "headless", false, "Run the preview browser headless")
	flag.BoolVar(&config.Print, "print", false, "Print the compiled instructions for the saved ledger and exit")
	flag.BoolVar(&config.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Canvas - visual edits to agent instructions\n\n")
		fmt.Fprintf(os.Stderr, "Usage: canvas [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  OPENAI_API_KEY     API key for chat delivery\n")
		fmt.Fprintf(os.Stderr, "  OPENAI_BASE_URL    Chat completions base URL (for compatible APIs)\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  canvas                                   # surface connects to ws://%s\n", defaultWSAddr)
		fmt.Fprintf(os.Stderr, "  canvas -preview -url http://localhost:3000\n")
		fmt.Fprintf(os.Stderr, "  canvas -store sqlite -mcp-addr 127.0.0.1:7778\n")
		fmt.Fprintf(os.Stderr, "  canvas -print -project shop\n")
	}

	flag.Parse()
	return config
}

// validate checks that the configuration is valid
func (c *Config) validate() error {
	info, err := os.Stat(c.WorkspaceDir)
	if err != nil {
		return fmt.Errorf("workspace directory error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("workspace path '%s' is not a directory", c.WorkspaceDir)
	}
	if c.Preview && c.Print {
		return fmt.Errorf("-preview and -print cannot be combined")
	}
	if !c.Preview && c.Headless {
		return fmt.Errorf("-headless only applies with -preview")
	}
	return nil
}
