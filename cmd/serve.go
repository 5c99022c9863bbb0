package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"corpus-go/internal/controller"
	"corpus-go/internal/handler"
	"corpus-go/internal/service"
	"corpus-go/internal/service/coocgraph"
	"corpus-go/pkg/mcp"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the corpus over HTTP",
	Long: `Load the saved corpus snapshot, or build it from corpus.root when none exists,
and serve the HTTP API, the MCP tools and prometheus metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Server port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	env, err := setup()
	if err != nil {
		return err
	}
	logger := env.logger
	defer logger.Sync()

	cfg := env.cfg
	if servePort != 0 {
		cfg.App.Port = servePort
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cm, err := loadOrBuild(ctx, env)
	if err != nil {
		return err
	}

	var graph *coocgraph.CoocGraph
	if cfg.Graph.Backend != "" {
		graph, err = coocgraph.NewCoocGraphFromConfig(cfg, logger)
		if err != nil {
			logger.Warn("Failed to initialize graph backend, graph queries will be disabled", zap.Error(err))
		} else {
			defer graph.Close(context.Background())
			if err := exportGraph(ctx, graph, cm, cfg.Graph.MaxEdges); err != nil {
				logger.Warn("Failed to export co-occurrence graph", zap.Error(err))
			}
		}
	}

	var mcpServer *mcp.CorpusServer
	if cfg.Mcp.Enabled {
		mcpServer = mcp.NewCorpusServer(cm, logger)
		logger.Info("MCP server enabled", zap.String("path", "/mcp"))
	}

	corpusController := controller.NewCorpusController(cm, graph, logger)
	router := handler.SetupRouter(corpusController, mcpServer, logger)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", zap.Int("port", cfg.App.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func loadOrBuild(ctx context.Context, env *runtimeEnv) (*service.CorpusManager, error) {
	persistence, err := service.NewCorpusPersistence(env.cfg.App.WorkDir, env.logger)
	if err != nil {
		return nil, err
	}
	if persistence.SnapshotExists(env.cfg.Corpus.Name) {
		return env.loadCorpus()
	}
	if env.cfg.Corpus.Root == "" {
		return nil, fmt.Errorf("no snapshot named %s and no corpus.root to build from", env.cfg.Corpus.Name)
	}

	env.logger.Info("No snapshot found, building corpus", zap.String("root", env.cfg.Corpus.Root))
	cm, err := buildCorpus(ctx, env)
	if err != nil {
		return nil, err
	}
	if err := persistence.SaveCorpusManager(cm); err != nil {
		env.logger.Warn("Failed to save corpus snapshot", zap.Error(err))
	}
	return cm, nil
}
