package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"dataprobe/adapters/datareadiness/coercer"
	"dataprobe/adapters/llm"
	"dataprobe/adapters/tabular"
	"dataprobe/ai"
	"dataprobe/app"
	"dataprobe/internal"
	"dataprobe/internal/config"
	"dataprobe/internal/query"
	"dataprobe/ports"
	"dataprobe/ui"
	"dataprobe/ui/ops"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Data access
	Reader  ports.DatasetReader
	Filters *query.Evaluator

	// Question answering
	LLMClient ports.LLMClient
	Prompts   *ai.PromptManager
	Questions *app.QuestionService

	// Session and surfaces
	Controller *app.SessionController
	UIServer   *ui.Server
	OpsServer  *ops.Server

	servers []*http.Server
	logger  *internal.Logger
}

// New creates a new dependency injection container. version is reported by
// the health endpoint.
func New(cfg *config.Config, version string) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	internal.DefaultLogger.SetLevel(internal.ParseLogLevel(cfg.Log.Level))

	c := &Container{
		Config: cfg,
		logger: internal.DefaultLogger.With("Container"),
	}

	c.initData()
	c.initAIComponents()

	c.Controller = app.NewSessionController(c.Reader, c.Filters, c.Questions, app.ControllerConfig{
		PreviewRows: cfg.Upload.PreviewRows,
	})

	server, err := ui.NewServer(c.Controller, ui.Config{
		GinMode:        cfg.Server.GinMode,
		MaxUploadBytes: cfg.Upload.MaxBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create UI server: %w", err)
	}
	c.UIServer = server

	if cfg.Ops.Enabled {
		c.OpsServer = ops.NewServer(ops.Config{Port: cfg.Ops.Port, Version: version})
	}

	c.logger.Info("container initialized for session %s", c.Controller.SessionID().Short())
	return c, nil
}

func (c *Container) initData() {
	c.Reader = tabular.NewDataReader(coercer.NewTypeCoercer(coercer.DefaultCoercionConfig()))
	c.Filters = query.NewEvaluator()
}

func (c *Container) initAIComponents() {
	aiCfg := c.Config.AI
	c.LLMClient = llm.NewClient(llm.Config{
		APIKey:        aiCfg.APIKey,
		BaseURL:       aiCfg.BaseURL,
		SystemContext: aiCfg.SystemContext,
		Temperature:   aiCfg.Temperature,
	})
	c.Prompts = ai.NewPromptManager(aiCfg.PromptsDir)
	c.Questions = app.NewQuestionService(c.LLMClient, c.Prompts, app.QuestionConfig{
		Model:       aiCfg.Model,
		MaxTokens:   aiCfg.MaxTokens,
		Timeout:     aiCfg.Timeout,
		PreviewRows: c.Config.Upload.PreviewRows,
	})
	c.logger.Info("questions go to %s using model %s", aiCfg.BaseURL, aiCfg.Model)
}

// Servers returns the HTTP servers to run: the UI and, when enabled, ops
func (c *Container) Servers() []*http.Server {
	if c.servers != nil {
		return c.servers
	}
	c.servers = append(c.servers, c.UIServer.HTTPServer(":"+c.Config.Server.Port))
	if c.OpsServer != nil {
		c.servers = append(c.servers, c.OpsServer.HTTPServer())
	}
	return c.servers
}

// Shutdown gracefully stops every server started from Servers
func (c *Container) Shutdown(ctx context.Context) error {
	var firstErr error
	for _, srv := range c.servers {
		if err := srv.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("shutting down %s: %w", srv.Addr, err)
		}
	}
	return firstErr
}

// Run serves until ctx is cancelled or a server fails, then shuts every
// server down.
func (c *Container) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range c.Servers() {
		srv := srv
		g.Go(func() error {
			c.logger.Info("listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serving %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		c.logger.Info("shutting down")
		return c.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
