// Package servecmder provides the serve command for running the studai API server.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/studai/api"
	"github.com/papercomputeco/studai/pkg/config"
	"github.com/papercomputeco/studai/pkg/dotdir"
	embeddingutils "github.com/papercomputeco/studai/pkg/embeddings/utils"
	eventstreamutils "github.com/papercomputeco/studai/pkg/eventstream/utils"
	"github.com/papercomputeco/studai/pkg/llm/provider"
	"github.com/papercomputeco/studai/pkg/logger"
	"github.com/papercomputeco/studai/pkg/rag"
	"github.com/papercomputeco/studai/pkg/render"
	vectorutils "github.com/papercomputeco/studai/pkg/vector/utils"
)

type ServeCommander struct {
	flags config.FlagSet

	listen        string
	uploadsDir    string
	outputDir     string
	vectorProv    string
	vectorTarget  string
	collection    string
	embeddingProv string
	embeddingTgt  string
	embeddingMdl  string
	embeddingDims uint
	chatProv      string
	chatTgt       string
	chatModel     string
	mode          string
	toolPolicy    string
	eventsProv    string
	eventsBrokers string

	debug    bool
	jsonLogs bool
	logFile  string

	cfg    *config.Config
	logger *slog.Logger
}

const serveLongDesc string = `Run the studai API server.

The server ingests PDFs on POST /upload, answers questions on POST /ask,
lists uploaded files on GET /pdfs and, when api.mcp is enabled, exposes the
corpus search tool over MCP at /mcp.

Every flag falls back to the matching config.toml key, then to the
STUDAI_ environment variable, then to the built-in default.

Examples:
  studai serve
  studai serve --listen :9000 --mode agentic
  studai serve --vector-store-provider qdrant --vector-store-target http://localhost:6334
  studai serve --embedding-provider ollama --embedding-model nomic-embed-text --embedding-dimensions 768`

const serveShortDesc string = "Run the studai API server"

var serveFlags = []string{
	config.FlagListen,
	config.FlagUploadsDir,
	config.FlagOutputDir,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagCollection,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagChatProv,
	config.FlagChatTgt,
	config.FlagChatModel,
	config.FlagAskMode,
	config.FlagToolPolicy,
	config.FlagEventsProv,
	config.FlagEventsBrokers,
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{
		flags: config.Flags,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, cmder.flags, serveFlags)
			cmder.cfg = config.FromViper(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, cmder.flags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, cmder.flags, config.FlagUploadsDir, &cmder.uploadsDir)
	config.AddStringFlag(cmd, cmder.flags, config.FlagOutputDir, &cmder.outputDir)
	config.AddStringFlag(cmd, cmder.flags, config.FlagVectorStoreProv, &cmder.vectorProv)
	config.AddStringFlag(cmd, cmder.flags, config.FlagVectorStoreTgt, &cmder.vectorTarget)
	config.AddStringFlag(cmd, cmder.flags, config.FlagCollection, &cmder.collection)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEmbeddingProv, &cmder.embeddingProv)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEmbeddingTgt, &cmder.embeddingTgt)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEmbeddingModel, &cmder.embeddingMdl)
	config.AddUintFlag(cmd, cmder.flags, config.FlagEmbeddingDims, &cmder.embeddingDims)
	config.AddStringFlag(cmd, cmder.flags, config.FlagChatProv, &cmder.chatProv)
	config.AddStringFlag(cmd, cmder.flags, config.FlagChatTgt, &cmder.chatTgt)
	config.AddStringFlag(cmd, cmder.flags, config.FlagChatModel, &cmder.chatModel)
	config.AddStringFlag(cmd, cmder.flags, config.FlagAskMode, &cmder.mode)
	config.AddStringFlag(cmd, cmder.flags, config.FlagToolPolicy, &cmder.toolPolicy)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEventsProv, &cmder.eventsProv)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEventsBrokers, &cmder.eventsBrokers)
	cmd.Flags().BoolVar(&cmder.jsonLogs, "json-logs", false, "Emit JSON logs instead of pretty terminal output")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append JSON logs to this file")

	return cmd
}

func (c *ServeCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	mode, err := rag.ParseMode(c.cfg.Ask.Mode)
	if err != nil {
		return err
	}

	closeLog, err := c.setupLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	ddm := dotdir.NewManager()
	uploadsDir, err := ddm.EnsureDir(c.cfg.Storage.UploadsDir)
	if err != nil {
		return err
	}
	outputDir, err := ddm.EnsureDir(c.cfg.Storage.OutputDir)
	if err != nil {
		return err
	}

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: c.cfg.Embedding.Provider,
		TargetURL:    c.cfg.Embedding.Target,
		Model:        c.cfg.Embedding.Model,
		APIKey:       c.cfg.Embedding.APIKey,
		Dimensions:   c.cfg.Embedding.Dimensions,
		CacheSize:    c.cfg.Embedding.CacheSize,
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer embedder.Close()

	store, err := vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
		ProviderType: c.cfg.VectorStore.Provider,
		Target:       c.cfg.VectorStore.Target,
		Collection:   c.cfg.VectorStore.Collection,
		Dimensions:   c.cfg.Embedding.Dimensions,
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating vector store: %w", err)
	}
	defer store.Close()

	chat, err := provider.New(provider.Options{
		ProviderType: c.cfg.Chat.Provider,
		Target:       c.cfg.Chat.Target,
		Model:        c.cfg.Chat.Model,
		APIKey:       c.cfg.Chat.APIKey,
	})
	if err != nil {
		return fmt.Errorf("creating chat model: %w", err)
	}

	publisher, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		ProviderType: c.cfg.Events.Provider,
		Brokers:      c.cfg.Events.Brokers,
		Topic:        c.cfg.Events.Topic,
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating event publisher: %w", err)
	}
	defer publisher.Close()

	service, err := rag.NewService(rag.Config{
		Embedder:    embedder,
		VectorStore: store,
		Chat:        chat,
		Renderer:    render.New(outputDir),
		Registry:    rag.NewRegistry(),
		Publisher:   publisher,
		Logger:      c.logger,
		UploadsDir:  uploadsDir,
		DefaultMode: mode,
		ToolPolicy:  rag.ToolPolicy(c.cfg.Ask.ToolPolicy),
		PlainTopK:   c.cfg.Ask.PlainTopK,
		AgenticTopK: c.cfg.Ask.AgenticTopK,
	})
	if err != nil {
		return fmt.Errorf("creating rag service: %w", err)
	}

	server, err := api.NewServer(api.Config{
		ListenAddr:  c.cfg.API.Listen,
		BodyLimitMB: c.cfg.API.BodyLimitMB,
		RenderPDF:   c.cfg.Ask.RenderPDF,
		MCP:         c.cfg.API.MCP,
	}, service, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	c.logger.Info("studai configured",
		"vector_store", c.cfg.VectorStore.Provider,
		"collection", c.cfg.VectorStore.Collection,
		"embedding_provider", c.cfg.Embedding.Provider,
		"embedding_model", c.cfg.Embedding.Model,
		"chat_model", chat.Name(),
		"mode", mode,
		"events", c.cfg.Events.Provider,
		"uploads_dir", uploadsDir,
		"output_dir", outputDir,
	)

	errChan := make(chan error, 1)

	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
		c.logger.Info("context canceled, shutting down")
	}

	if err := server.Shutdown(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// setupLogger builds the console logger and, with --log-file, tees every
// record to a JSON file as well.
func (c *ServeCommander) setupLogger() (func(), error) {
	opts := []logger.Option{logger.WithDebug(c.debug)}
	if c.jsonLogs {
		opts = append(opts, logger.WithJSON(true))
	} else {
		opts = append(opts, logger.WithPretty(true))
	}
	console := logger.New(opts...)

	if c.logFile == "" {
		c.logger = console
		return func() {}, nil
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	file := logger.New(
		logger.WithWriter(f),
		logger.WithJSON(true),
		logger.WithDebug(c.debug),
	)
	c.logger = logger.Multi(console, file)

	return func() { _ = f.Close() }, nil
}
