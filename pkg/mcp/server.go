package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"corpus-go/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

const maxListedOffsets = 20

type CorpusServer struct {
	server        *mcp.Server
	corpusManager *service.CorpusManager
	logger        *zap.Logger
	handler       *mcp.StreamableHTTPHandler
}

type SearchPhraseParams struct {
	Phrase string `json:"phrase" jsonschema:"the phrase to find, tokens separated by whitespace"`
	Mode   string `json:"mode,omitempty" jsonschema:"search strategy, linear or binary"`
}

type CooccurrencesParams struct {
	Token string `json:"token" jsonschema:"the target token"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of contexts to return"`
}

func NewCorpusServer(corpusManager *service.CorpusManager, logger *zap.Logger) *CorpusServer {
	server := &CorpusServer{
		corpusManager: corpusManager,
		logger:        logger,
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "CorpusIndex",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "searchPhrase",
		Description: "Find every occurrence of a phrase in the indexed corpus. Returns the number of occurrences and the token offsets at which the phrase starts",
	}, server.handleSearchPhrase)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "getCooccurrences",
		Description: "List the tokens that appear within the co-occurrence window of a token, most frequent first",
	}, server.handleCooccurrences)

	server.handler = mcp.NewStreamableHTTPHandler(func(req *http.Request) *mcp.Server {
		return mcpServer
	}, nil)

	server.server = mcpServer
	return server
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	result := textResult(text)
	result.IsError = true
	return result
}

func (s *CorpusServer) handleSearchPhrase(ctx context.Context, req *mcp.CallToolRequest, args SearchPhraseParams) (*mcp.CallToolResult, any, error) {
	s.logger.Info("Handling searchPhrase request", zap.String("phrase", args.Phrase), zap.String("mode", args.Mode))

	mode, err := service.ParseSearchMode(args.Mode)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}
	if args.Mode == "" {
		mode = s.corpusManager.DefaultMode()
	}

	result, err := s.corpusManager.Search(strings.Fields(args.Phrase), mode)
	if errors.Is(err, service.ErrNotFound) {
		return textResult(fmt.Sprintf("Phrase %q does not occur in the corpus", args.Phrase)), nil, nil
	}
	if err != nil {
		s.logger.Error("Failed to search phrase", zap.String("phrase", args.Phrase), zap.Error(err))
		return errorResult(fmt.Sprintf("Search failed: %v", err)), nil, nil
	}

	return textResult(formatSearchResult(args.Phrase, result)), nil, nil
}

func formatSearchResult(phrase string, result *service.SearchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Phrase %q occurs %d times (%s search)\n", phrase, result.Count, result.Mode)

	offsets := result.Offsets
	if len(offsets) > maxListedOffsets {
		offsets = offsets[:maxListedOffsets]
	}
	parts := make([]string, len(offsets))
	for i, off := range offsets {
		parts[i] = fmt.Sprint(off)
	}
	fmt.Fprintf(&b, "Offsets: %s", strings.Join(parts, ", "))
	if len(result.Offsets) > maxListedOffsets {
		fmt.Fprintf(&b, " ... and %d more", len(result.Offsets)-maxListedOffsets)
	}
	return b.String()
}

func (s *CorpusServer) handleCooccurrences(ctx context.Context, req *mcp.CallToolRequest, args CooccurrencesParams) (*mcp.CallToolResult, any, error) {
	s.logger.Info("Handling getCooccurrences request", zap.String("token", args.Token), zap.Int("limit", args.Limit))

	limit := args.Limit
	if limit <= 0 {
		limit = 10
	}

	coocs, err := s.corpusManager.Cooccurrences(args.Token, limit)
	if errors.Is(err, service.ErrNotFound) {
		return textResult(fmt.Sprintf("Token %q does not occur in the corpus", args.Token)), nil, nil
	}
	if err != nil {
		s.logger.Error("Failed to get co-occurrences", zap.String("token", args.Token), zap.Error(err))
		return errorResult(fmt.Sprintf("Lookup failed: %v", err)), nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Contexts of %q:\n", args.Token)
	if len(coocs) == 0 {
		b.WriteString("(none)")
	}
	for _, c := range coocs {
		fmt.Fprintf(&b, "- %s: %d\n", c.Context, c.Frequency)
	}
	return textResult(b.String()), nil, nil
}

// SetupHTTPRoutes mounts the streamable HTTP transport under /mcp
func (s *CorpusServer) SetupHTTPRoutes(router *gin.Engine) {
	router.Any("/mcp", gin.WrapH(s.handler))
}
