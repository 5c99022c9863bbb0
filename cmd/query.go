package main

import (
	"errors"
	"fmt"
	"strings"

	"corpus-go/internal/service"

	"github.com/spf13/cobra"
)

var (
	searchMode  string
	searchLimit int
	coocsLimit  int
	ngramsN     int
	ngramsMin   int
	ngramsLimit int
)

var searchCmd = &cobra.Command{
	Use:   "search <token>...",
	Short: "Find every occurrence of a phrase",
	Args:  cobra.ArbitraryArgs,
	RunE:  runSearch,
}

var coocsCmd = &cobra.Command{
	Use:   "coocs <token>",
	Short: "List the contexts of a token, most frequent first",
	Args:  cobra.ExactArgs(1),
	RunE:  runCoocs,
}

var ngramsCmd = &cobra.Command{
	Use:   "ngrams",
	Short: "List the most frequent n-grams",
	Args:  cobra.NoArgs,
	RunE:  runNGrams,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(coocsCmd)
	rootCmd.AddCommand(ngramsCmd)

	searchCmd.Flags().StringVar(&searchMode, "mode", "", "Search strategy: linear or binary")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "Maximum number of offsets to print")

	coocsCmd.Flags().IntVar(&coocsLimit, "limit", 10, "Maximum number of contexts, 0 for all")

	ngramsCmd.Flags().IntVarP(&ngramsN, "n", "n", 2, "N-gram size")
	ngramsCmd.Flags().IntVar(&ngramsMin, "min-count", 2, "Minimum number of occurrences")
	ngramsCmd.Flags().IntVar(&ngramsLimit, "limit", 20, "Maximum number of n-grams, 0 for all")
}

func runSearch(cmd *cobra.Command, args []string) error {
	env, err := setup()
	if err != nil {
		return err
	}
	defer env.logger.Sync()

	// An empty mode lets the manager use the configured default
	var mode service.SearchMode
	if searchMode != "" {
		if mode, err = service.ParseSearchMode(searchMode); err != nil {
			return err
		}
	}

	cm, err := env.loadCorpus()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	phrase := strings.Join(args, " ")
	result, err := cm.Search(args, mode)
	if errors.Is(err, service.ErrNotFound) {
		fmt.Fprintf(out, "%q: not found\n", phrase)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%q: %d occurrences (suffix range %d-%d)\n", phrase, result.Count, result.Range.Lo, result.Range.Hi)
	offsets := result.Offsets
	if searchLimit > 0 && len(offsets) > searchLimit {
		offsets = offsets[:searchLimit]
	}
	for _, off := range offsets {
		fmt.Fprintf(out, "  %d\n", off)
	}
	if len(offsets) < len(result.Offsets) {
		fmt.Fprintf(out, "  ... %d more\n", len(result.Offsets)-len(offsets))
	}
	return nil
}

func runCoocs(cmd *cobra.Command, args []string) error {
	env, err := setup()
	if err != nil {
		return err
	}
	defer env.logger.Sync()

	cm, err := env.loadCorpus()
	if err != nil {
		return err
	}

	coocs, err := cm.Cooccurrences(args[0], coocsLimit)
	if errors.Is(err, service.ErrNotFound) {
		fmt.Fprintf(cmd.OutOrStdout(), "%q: not found\n", args[0])
		return nil
	}
	if err != nil {
		return err
	}
	for _, c := range coocs {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", c.Context, c.Frequency)
	}
	return nil
}

func runNGrams(cmd *cobra.Command, args []string) error {
	env, err := setup()
	if err != nil {
		return err
	}
	defer env.logger.Sync()

	cm, err := env.loadCorpus()
	if err != nil {
		return err
	}

	ngrams, err := cm.NGrams(ngramsN, ngramsMin, ngramsLimit)
	if err != nil {
		return err
	}
	for _, ng := range ngrams {
		fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", ng.Count, ng.Tokens)
	}
	return nil
}
