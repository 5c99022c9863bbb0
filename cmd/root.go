package main

import (
	"fmt"

	"corpus-go/internal/config"
	"corpus-go/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath string
	workDir    string
	logLevel   string
	corpusName string
)

var rootCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Phrase search and co-occurrence statistics over text corpora",
	Long: `Build a suffix-array index and a co-occurrence table from a directory of text
files, then query phrases, token contexts and n-grams from the command line or
over HTTP.

Examples:
  corpus build ./books --backward 2 --forward 2 --csv coocs.csv
  corpus search the white whale
  corpus coocs whale --limit 5
  corpus serve --config app.yaml`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&workDir, "workdir", "", "Directory holding corpus snapshots (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&corpusName, "name", "", "Corpus name (overrides config)")
}

// runtimeEnv is what every command needs: configuration and a logger
type runtimeEnv struct {
	cfg    *config.Config
	logger *zap.Logger
}

func setup() (*runtimeEnv, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	// Override from command line if provided
	if workDir != "" {
		cfg.App.WorkDir = workDir
	}
	if logLevel != "" {
		cfg.App.LogLevel = logLevel
	}
	if corpusName != "" {
		cfg.Corpus.Name = corpusName
	}

	logger, err := newLogger(cfg.App.LogLevel)
	if err != nil {
		return nil, err
	}
	logger.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	return &runtimeEnv{cfg: cfg, logger: logger}, nil
}

func newLogger(level string) (*zap.Logger, error) {
	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfgZap := zap.NewProductionConfig()
	cfgZap.Level.SetLevel(zapLevel)
	cfgZap.OutputPaths = []string{"stderr"}
	logger, err := cfgZap.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// loadCorpus restores the named snapshot from the work directory
func (env *runtimeEnv) loadCorpus() (*service.CorpusManager, error) {
	cm, err := service.NewCorpusManager(env.cfg, env.logger)
	if err != nil {
		return nil, err
	}
	persistence, err := service.NewCorpusPersistence(env.cfg.App.WorkDir, env.logger)
	if err != nil {
		return nil, err
	}
	if err := persistence.LoadCorpusManager(cm, env.cfg.Corpus.Name); err != nil {
		return nil, fmt.Errorf("failed to load corpus %s (run build first): %w", env.cfg.Corpus.Name, err)
	}
	return cm, nil
}
