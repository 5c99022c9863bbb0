package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"corpus-go/internal/service"
	"corpus-go/internal/service/coocgraph"
	"corpus-go/internal/service/stream"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	buildSplitter string
	buildMinFreq  int64
	buildBackward int
	buildForward  int
	buildShards   int
	buildBloom    bool
	buildCSV      string
	buildGraph    bool
)

var buildCmd = &cobra.Command{
	Use:   "build [root]",
	Short: "Build and save a corpus from a file or directory",
	Long: `Read every file below root line by line, build the vocabulary, the suffix-array
index and the co-occurrence table, and save a snapshot to the work directory.

The root defaults to corpus.root from the configuration.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVar(&buildSplitter, "splitter", "", "Token splitter: fields or words")
	buildCmd.Flags().Int64Var(&buildMinFreq, "min-freq", 0, "Replace tokens seen fewer times with <UNKNOWN>")
	buildCmd.Flags().IntVar(&buildBackward, "backward", -1, "Context tokens before the target")
	buildCmd.Flags().IntVar(&buildForward, "forward", -1, "Context tokens after the target")
	buildCmd.Flags().IntVar(&buildShards, "shards", 0, "Count co-occurrences in this many parallel segments")
	buildCmd.Flags().BoolVar(&buildBloom, "bloom", false, "Keep singletons out of the vocabulary with a bloom filter")
	buildCmd.Flags().StringVar(&buildCSV, "csv", "", "Write the co-occurrence table to this CSV file")
	buildCmd.Flags().BoolVar(&buildGraph, "graph", false, "Export the co-occurrence table to the configured graph backend")
}

func runBuild(cmd *cobra.Command, args []string) error {
	env, err := setup()
	if err != nil {
		return err
	}
	defer env.logger.Sync()

	cfg := env.cfg
	if len(args) == 1 {
		cfg.Corpus.Root = args[0]
	}
	if cmd.Flags().Changed("splitter") {
		cfg.Corpus.Splitter = buildSplitter
	}
	if cmd.Flags().Changed("min-freq") {
		cfg.Corpus.MinFrequency = buildMinFreq
	}
	if cmd.Flags().Changed("backward") {
		cfg.Cooccurrence.Backward = buildBackward
	}
	if cmd.Flags().Changed("forward") {
		cfg.Cooccurrence.Forward = buildForward
	}
	if cmd.Flags().Changed("shards") {
		cfg.Cooccurrence.Shards = buildShards
	}
	if buildBloom {
		cfg.Corpus.UseBloom = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Corpus.Root == "" {
		return fmt.Errorf("no corpus root given")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cm, err := buildCorpus(ctx, env)
	if err != nil {
		return err
	}

	persistence, err := service.NewCorpusPersistence(cfg.App.WorkDir, env.logger)
	if err != nil {
		return err
	}
	if err := persistence.SaveCorpusManager(cm); err != nil {
		return fmt.Errorf("failed to save corpus: %w", err)
	}

	if buildCSV != "" {
		if err := writeCSV(cm, buildCSV); err != nil {
			return err
		}
		env.logger.Info("Wrote co-occurrence table", zap.String("path", buildCSV))
	}

	if buildGraph {
		graph, err := coocgraph.NewCoocGraphFromConfig(cfg, env.logger)
		if err != nil {
			return err
		}
		defer graph.Close(context.Background())
		if err := exportGraph(ctx, graph, cm, cfg.Graph.MaxEdges); err != nil {
			return err
		}
	}

	stats, _ := cm.Stats()
	fmt.Fprintf(cmd.OutOrStdout(), "Built corpus %s (snapshot %s)\n", stats.Name, stats.SnapshotID)
	fmt.Fprintf(cmd.OutOrStdout(), "  tokens read:        %d\n", stats.TokensRead)
	fmt.Fprintf(cmd.OutOrStdout(), "  vocabulary size:    %d\n", stats.VocabularySize)
	fmt.Fprintf(cmd.OutOrStdout(), "  filtered tokens:    %d\n", stats.FilteredTokens)
	fmt.Fprintf(cmd.OutOrStdout(), "  co-occurrence pairs: %d\n", stats.CooccurrencePairs)
	fmt.Fprintf(cmd.OutOrStdout(), "  build time:         %s\n", stats.BuildDuration)
	return nil
}

// buildCorpus streams the configured root into a fresh corpus manager
func buildCorpus(ctx context.Context, env *runtimeEnv) (*service.CorpusManager, error) {
	splitter, err := stream.SplitterByName(env.cfg.Corpus.Splitter)
	if err != nil {
		return nil, err
	}
	cm, err := service.NewCorpusManager(env.cfg, env.logger)
	if err != nil {
		return nil, err
	}

	streamer := stream.NewLineStreamer(env.cfg.Corpus.Root, splitter, env.logger)
	if err := cm.Build(ctx, streamer); err != nil {
		return nil, fmt.Errorf("failed to build corpus from %s: %w", env.cfg.Corpus.Root, err)
	}
	return cm, nil
}

func writeCSV(cm *service.CorpusManager, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := cm.ExportCSV(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func exportGraph(ctx context.Context, graph *coocgraph.CoocGraph, cm *service.CorpusManager, maxEdges int) error {
	entries, err := cm.Entries()
	if err != nil {
		return err
	}
	c, err := cm.Corpus()
	if err != nil {
		return err
	}
	_, err = graph.Export(ctx, entries, c.Interner(), maxEdges)
	return err
}
