package controller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"corpus-go/internal/service"
	"corpus-go/internal/service/coocgraph"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultListLimit = 100

type CorpusController struct {
	corpusManager *service.CorpusManager
	graph         *coocgraph.CoocGraph // nil when no graph backend is configured
	logger        *zap.Logger
}

func NewCorpusController(corpusManager *service.CorpusManager, graph *coocgraph.CoocGraph, logger *zap.Logger) *CorpusController {
	return &CorpusController{
		corpusManager: corpusManager,
		graph:         graph,
		logger:        logger,
	}
}

// SearchRequest names the phrase either as tokens or as a whitespace separated string
type SearchRequest struct {
	Tokens []string `json:"tokens"`
	Phrase string   `json:"phrase"`
	Mode   string   `json:"mode"`
	Limit  int      `json:"limit"`
}

type SearchResponse struct {
	*service.SearchResult
	Truncated bool `json:"truncated"`
}

// respondError maps service errors to HTTP status codes
func (cc *CorpusController) respondError(c *gin.Context, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrNoCorpus):
		status = http.StatusServiceUnavailable
	default:
		cc.logger.Error(message, zap.Error(err))
	}
	c.JSON(status, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}

func badRequest(c *gin.Context, message string, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}

func (cc *CorpusController) Search(c *gin.Context) {
	var request SearchRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		cc.logger.Error("Invalid request payload", zap.Error(err))
		badRequest(c, "Invalid request payload", err)
		return
	}

	mode := cc.corpusManager.DefaultMode()
	if request.Mode != "" {
		parsed, err := service.ParseSearchMode(request.Mode)
		if err != nil {
			badRequest(c, "Invalid search mode", err)
			return
		}
		mode = parsed
	}

	tokens := request.Tokens
	if request.Phrase != "" {
		tokens = strings.Fields(request.Phrase)
	}

	result, err := cc.corpusManager.Search(tokens, mode)
	if err != nil {
		cc.respondError(c, "Failed to search phrase", err)
		return
	}

	limit := request.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	response := SearchResponse{SearchResult: result}
	if len(result.Offsets) > limit {
		// Copy so the cached result keeps every offset
		trimmed := *result
		trimmed.Offsets = result.Offsets[:limit]
		response = SearchResponse{SearchResult: &trimmed, Truncated: true}
	}

	c.JSON(http.StatusOK, response)
}

func (cc *CorpusController) GetCooccurrences(c *gin.Context) {
	target := c.Param("target")
	limit, err := queryInt(c, "limit", defaultListLimit)
	if err != nil {
		badRequest(c, "Invalid limit", err)
		return
	}

	coocs, err := cc.corpusManager.Cooccurrences(target, limit)
	if err != nil {
		cc.respondError(c, "Failed to get co-occurrences", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"target":        target,
		"cooccurrences": coocs,
	})
}

func (cc *CorpusController) GetNGrams(c *gin.Context) {
	n, err := queryInt(c, "n", 2)
	if err != nil {
		badRequest(c, "Invalid n", err)
		return
	}
	minCount, err := queryInt(c, "min_count", 1)
	if err != nil {
		badRequest(c, "Invalid min_count", err)
		return
	}
	limit, err := queryInt(c, "limit", defaultListLimit)
	if err != nil {
		badRequest(c, "Invalid limit", err)
		return
	}
	if n < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "n must be at least 1"})
		return
	}

	ngrams, err := cc.corpusManager.NGrams(n, minCount, limit)
	if err != nil {
		cc.respondError(c, "Failed to enumerate n-grams", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"n":      n,
		"ngrams": ngrams,
	})
}

func (cc *CorpusController) GetStats(c *gin.Context) {
	stats, err := cc.corpusManager.Stats()
	if err != nil {
		cc.respondError(c, "Failed to get corpus stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetGraphNeighbors reads the contexts of a token from the exported graph
func (cc *CorpusController) GetGraphNeighbors(c *gin.Context) {
	if cc.graph == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "No graph backend configured"})
		return
	}
	limit, err := queryInt(c, "limit", defaultListLimit)
	if err != nil {
		badRequest(c, "Invalid limit", err)
		return
	}

	token := c.Param("token")
	neighbors, err := cc.graph.Neighbors(c.Request.Context(), token, limit)
	if err != nil {
		cc.respondError(c, "Failed to read graph neighbors", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"neighbors": neighbors,
	})
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
