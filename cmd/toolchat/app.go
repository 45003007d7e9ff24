package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"
	"google.golang.org/genai"

	"github.com/m2tx/toolchat/assets"
	"github.com/m2tx/toolchat/internal/agent"
	"github.com/m2tx/toolchat/internal/cli"
	"github.com/m2tx/toolchat/internal/completions"
	"github.com/m2tx/toolchat/internal/config"
	"github.com/m2tx/toolchat/internal/functions"
	"github.com/m2tx/toolchat/internal/history"
	"github.com/m2tx/toolchat/internal/model"
	"github.com/m2tx/toolchat/internal/repository"
	"github.com/m2tx/toolchat/internal/server"
)

const mongoConnectTimeout = 5 * time.Second

// app is the wired process: one agent and one history shared by the console and the server.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	printer *cli.Printer
	agent   *agent.Agent
	server  *server.Server
	closers []func(context.Context) error
}

func newApp(ctx context.Context, cfg *config.Config, stdout io.Writer) (*app, error) {
	logger := config.NewLogger(os.Stderr, cfg.Debug)
	slog.SetDefault(logger)

	a := &app{
		cfg:     cfg,
		logger:  logger,
		printer: cli.NewPrinter(stdout, cli.WithMarkdown(cfg.Markdown)),
	}

	client, err := completions.NewClient(cfg.Completions(), completions.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	client.Retrier().OnRetry = a.printer.Retry

	registry := a.buildRegistry(ctx)

	systemPrompt := cfg.Agent.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = assets.SystemInstruction
	}
	hist := history.New(model.SystemMessage(systemPrompt))

	a.agent = agent.New(client, registry, hist,
		agent.WithMaxSteps(cfg.Agent.MaxSteps),
		agent.WithLogger(logger),
		agent.WithHooks(a.printer.Hooks()),
	)
	a.server = server.New(a.agent, cfg.Addr(), cfg.Server.StaticDir,
		server.WithLogger(logger),
		server.WithFallbackIndex(assets.IndexHTML),
		server.WithReady(func(string) {
			a.printer.Println(fmt.Sprintf("Web interface running at http://localhost:%d", cfg.Server.Port))
		}),
	)
	return a, nil
}

func (a *app) buildRegistry(ctx context.Context) *agent.Registry {
	directory := a.directory(ctx)
	embedder := a.embedder(ctx)
	return functions.Load(ctx, a.logger, functions.Defaults(directory, embedder, a.cfg.Tools.DocsDir)...)
}

// directory returns the Mongo-backed directory when configured and reachable, else the sample one.
func (a *app) directory(ctx context.Context) repository.DirectoryRepository {
	if a.cfg.Mongo.URI == "" {
		return repository.NewSampleDirectoryRepository()
	}

	connectCtx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	mongoClient, err := mongo.Connect(connectCtx, mongooptions.Client().ApplyURI(a.cfg.Mongo.URI))
	if err == nil {
		err = mongoClient.Ping(connectCtx, nil)
	}
	if err != nil {
		a.logger.Warn("mongodb: unavailable, using sample directory", "err", err)
		if mongoClient != nil {
			_ = mongoClient.Disconnect(context.Background())
		}
		return repository.NewSampleDirectoryRepository()
	}

	a.closers = append(a.closers, mongoClient.Disconnect)
	a.logger.Info("mongodb: connected", "database", a.cfg.Mongo.Database)
	return repository.NewMongoDirectoryRepository(mongoClient.Database(a.cfg.Mongo.Database))
}

// embedder uses Gemini embeddings when a model is configured and a client can be built.
func (a *app) embedder(ctx context.Context) *agent.Embedder {
	opts := []agent.EmbedderOption{agent.WithEmbedderLogger(a.logger)}
	if a.cfg.Tools.EmbeddingModel == "" {
		return agent.NewEmbedder(opts...)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		a.logger.Warn("embedder: gemini unavailable, using local embeddings", "err", err)
		return agent.NewEmbedder(opts...)
	}
	opts = append(opts, agent.WithGeminiEmbeddings(client, a.cfg.Tools.EmbeddingModel))
	return agent.NewEmbedder(opts...)
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, c := range a.closers {
		if err := c(ctx); err != nil {
			a.logger.Warn("shutdown", "err", err)
		}
	}
}

// runChat runs the console REPL, with the web interface in the background when web is set.
func runChat(ctx context.Context, cfg *config.Config, web bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a, err := newApp(ctx, cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer a.close()

	serverDone := make(chan error, 1)
	if web {
		go func() { serverDone <- a.server.ListenAndServe(ctx) }()
	} else {
		serverDone <- nil
	}

	replDone := make(chan error, 1)
	go func() {
		replDone <- cli.NewREPL(a.agent, os.Stdin, a.printer).Run(ctx)
	}()

	var replErr error
	select {
	case replErr = <-replDone:
	case err := <-serverDone:
		// the web interface failed to start; keep the console going without it
		if err != nil {
			a.logger.Error("server: stopped", "err", err)
		}
		serverDone <- nil
		replErr = <-replDone
	case <-ctx.Done():
		a.printer.Println("")
		a.printer.Println("Bye.")
	}

	cancel()
	if err := <-serverDone; err != nil {
		a.logger.Error("server: stopped", "err", err)
	}
	if errors.Is(replErr, context.Canceled) {
		return nil
	}
	return replErr
}

func runServe(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer a.close()

	return a.server.ListenAndServe(ctx)
}

func runTools(ctx context.Context, cfg *config.Config, w io.Writer) error {
	logger := config.NewLogger(os.Stderr, cfg.Debug)
	a := &app{cfg: cfg, logger: logger}
	defer a.close()

	registry := a.buildRegistry(ctx)
	for _, tool := range registry.Schemas() {
		fmt.Fprintf(w, "%-20s %s\n", tool.Function.Name, tool.Function.Description)
	}
	return nil
}
