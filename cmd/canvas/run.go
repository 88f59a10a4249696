package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/entrhq/canvas/pkg/bridge"
	appconfig "github.com/entrhq/canvas/pkg/config"
	"github.com/entrhq/canvas/pkg/dispatch"
	"github.com/entrhq/canvas/pkg/executor/tui"
	"github.com/entrhq/canvas/pkg/host"
	"github.com/entrhq/canvas/pkg/logging"
	"github.com/entrhq/canvas/pkg/preview"
	"github.com/entrhq/canvas/pkg/security/workspace"
	"github.com/entrhq/canvas/pkg/surface"
)

const shutdownTimeout = 5 * time.Second

// run executes the main application logic
func run(ctx context.Context, config *Config) error {
	if err := appconfig.Initialize(config.ConfigPath); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	project, err := appconfig.LoadProject(config.WorkspaceDir)
	if err != nil {
		return err
	}
	if config.Project != "" {
		project.Project = config.Project
	}
	if config.URL != "" {
		project.URL = config.URL
	}

	// on failure NewLogger still returns a stderr logger
	logger, _ := logging.NewLogger("canvas")
	defer func() { _ = logger.Close() }()

	storage := appconfig.ResolveStorage(config.Store, config.Dir, config.RedisURL, config.SQLitePath)
	store, err := openStore(storage)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Warnf("closing ledger store: %v", cerr)
		}
	}()

	agentSettings := appconfig.ResolveAgent(config.Model, config.BaseURL, config.APIKey, defaultModel)
	chat := dispatch.NewChat(dispatch.ChatConfig{
		APIKey:  agentSettings.APIKey,
		BaseURL: agentSettings.BaseURL,
		Model:   agentSettings.Model,
	})

	hostBridge := bridge.New(bridge.SourceHost, nil, bridge.WithLogger(logger.With("bridge")))

	// the agent route is chosen once the MCP surface is known
	var agent dispatch.Dispatcher
	controller := host.New(hostBridge,
		host.WithStore(store),
		host.WithProject(host.StaticProject(project.Project)),
		host.WithStatus(host.StatusFunc(func() bool { return agent != nil && agent.Available() })),
		host.WithLogger(logger.With("host")),
	)
	mcpRoute := dispatch.NewMCP(controller)
	agent = selectAgent(chat, mcpRoute, config.MCPAddr != "")

	controller.Load(ctx)
	if config.Print {
		fmt.Print(controller.Compile())
		return nil
	}

	controller.Bind(hostBridge)
	go func() {
		if rerr := hostBridge.Run(ctx); rerr != nil && !errors.Is(rerr, context.Canceled) {
			logger.Warnf("bridge stopped: %v", rerr)
		}
	}()

	var servers []*http.Server
	defer func() { shutdown(servers, logger) }()

	if config.Preview {
		closePreview, perr := startPreview(ctx, project, config.Headless, hostBridge, logger)
		if perr != nil {
			return perr
		}
		defer closePreview()
	} else if config.WSAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/", bridge.NewWSHandler(func(t *bridge.WSTransport) {
			logger.Debugf("surface connected")
			hostBridge.Reattach(t)
		}, logger.With("websocket")))
		servers = append(servers, serve(config.WSAddr, mux, logger))
	}

	if config.MCPAddr != "" {
		srv := mcpRoute.NewServer(version)
		handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return srv }, nil)
		servers = append(servers, serve(config.MCPAddr, handler, logger))
	}

	guard, err := workspace.NewGuard(config.WorkspaceDir)
	if err != nil {
		return fmt.Errorf("failed to create workspace guard: %w", err)
	}

	tokenizer, err := dispatch.NewTokenizer()
	if err != nil {
		logger.Warnf("token counts fall back to estimates: %v", err)
	}

	executor := tui.NewExecutor(tui.Config{
		Host:      controller,
		Sender:    hostBridge,
		Clipboard: dispatch.NewClipboard(),
		Agent:     agent,
		Tokenizer: tokenizer,
		MaxTokens: agentSettings.MaxPromptTokens,
		Header:    fmt.Sprintf("canvas · %s", controller.Key()),
		Logger:    logger.With("tui"),
		ReadFile:  guard.ReadFile,
	})

	if err := executor.Run(ctx); err != nil {
		return fmt.Errorf("executor error: %w", err)
	}
	return nil
}

// selectAgent prefers chat delivery when an API key is configured and
// falls back to publishing over MCP.
func selectAgent(chat *dispatch.Chat, mcpRoute *dispatch.MCP, serveMCP bool) dispatch.Dispatcher {
	switch {
	case chat.Available():
		return chat
	case serveMCP:
		return mcpRoute
	}
	return nil
}

// startPreview opens the project page in a browser and runs a surface
// agent over it, connected to the host bridge through an in-process pipe.
func startPreview(ctx context.Context, project *appconfig.Project, headless bool, hostBridge *bridge.Bridge, logger *logging.Logger) (func(), error) {
	if project.URL == "" {
		return nil, fmt.Errorf("-preview needs a page: pass -url or set url in %s", appconfig.ProjectFileName)
	}

	manager := preview.NewManager(logger.With("preview"))
	if err := manager.Initialize(); err != nil {
		return nil, err
	}
	session, err := manager.Open(project.URL, preview.Options{Headless: headless})
	if err != nil {
		_ = manager.Shutdown()
		return nil, err
	}

	var cfg surface.Config
	if editor := appconfig.GetEditor(); editor != nil {
		cfg = editor.SurfaceConfig(project.Language)
	} else {
		cfg = surface.DefaultConfig()
		cfg.Language = project.Language
	}
	agent, err := surface.New(session.Document(), nil,
		surface.WithConfig(cfg),
		surface.WithLogger(logger.With("surface")),
	)
	if err != nil {
		_ = manager.Shutdown()
		return nil, err
	}

	hostEnd, surfaceEnd := bridge.NewPipe(0)
	surfaceBridge := bridge.New(bridge.SourceSurface, surfaceEnd, bridge.WithLogger(logger.With("surface-bridge")))
	hostBridge.Reattach(hostEnd)
	go func() {
		if rerr := surfaceBridge.Run(ctx); rerr != nil && !errors.Is(rerr, context.Canceled) {
			logger.Warnf("surface bridge stopped: %v", rerr)
		}
	}()
	agent.Bind(surfaceBridge)

	if err := session.Attach(agent); err != nil {
		_ = manager.Shutdown()
		return nil, err
	}

	return func() {
		if serr := manager.Shutdown(); serr != nil {
			logger.Warnf("preview shutdown: %v", serr)
		}
	}, nil
}

func serve(addr string, h http.Handler, logger *logging.Logger) *http.Server {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("listen %s: %v", addr, err)
		}
	}()
	return srv
}

func shutdown(servers []*http.Server, logger *logging.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warnf("shutdown %s: %v", srv.Addr, err)
		}
	}
}
