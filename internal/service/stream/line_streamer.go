// Package stream turns files on disk into an ordered stream of string tokens.
package stream

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"corpus-go/internal/util"

	"go.uber.org/zap"
)

// maxLineBytes bounds a single line; longer lines are reported and their file skipped
const maxLineBytes = 4 * 1024 * 1024

// TokenSource produces tokens in order, one callback per token.
// Returning an error from fn stops the iteration and is returned by Each.
type TokenSource interface {
	Each(ctx context.Context, fn func(token string) error) error
}

// SliceSource is an in-memory TokenSource
type SliceSource []string

// sliceCheckInterval is how many tokens SliceSource yields between context checks
const sliceCheckInterval = 4096

// Each yields every token of the slice
func (s SliceSource) Each(ctx context.Context, fn func(token string) error) error {
	for i, token := range s {
		if i%sliceCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := fn(token); err != nil {
			return err
		}
	}
	return nil
}

// LineStreamer reads every file below a root path line by line and splits each
// line into tokens. Files are visited in lexical order.
type LineStreamer struct {
	root     string
	splitter Splitter
	logger   *zap.Logger
}

// NewLineStreamer creates a streamer over root, which may be a file or a directory
func NewLineStreamer(root string, splitter Splitter, logger *zap.Logger) *LineStreamer {
	if splitter == nil {
		splitter = Fields
	}
	return &LineStreamer{
		root:     root,
		splitter: splitter,
		logger:   logger,
	}
}

// Files lists the regular files below the root, skipping VCS and build directories
func (ls *LineStreamer) Files() ([]string, error) {
	var files []string
	err := filepath.WalkDir(ls.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != ls.root && util.ShouldSkipDirectory(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", ls.root, err)
	}
	return files, nil
}

// Each yields every token of every file. Files that cannot be read are logged
// and skipped.
func (ls *LineStreamer) Each(ctx context.Context, fn func(token string) error) error {
	files, err := ls.Files()
	if err != nil {
		return err
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := ls.eachInFile(path, fn); err != nil {
			return err
		}
	}
	return nil
}

// eachInFile only returns errors produced by fn
func (ls *LineStreamer) eachInFile(path string, fn func(token string) error) error {
	file, err := os.Open(path)
	if err != nil {
		ls.logger.Warn("Failed to open file",
			zap.String("path", util.ToRelativePath(ls.root, path)),
			zap.Error(err))
		return nil
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lines := 0
	for scanner.Scan() {
		lines++
		for _, token := range ls.splitter(scanner.Text()) {
			if err := fn(token); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		ls.logger.Warn("Failed to read file",
			zap.String("path", util.ToRelativePath(ls.root, path)),
			zap.Int("lines_read", lines),
			zap.Error(err))
		return nil
	}

	ls.logger.Debug("Streamed file",
		zap.String("path", util.ToRelativePath(ls.root, path)),
		zap.Int("lines", lines))
	return nil
}

// ReadAll collects every token of src
func ReadAll(ctx context.Context, src TokenSource) ([]string, error) {
	var tokens []string
	err := src.Each(ctx, func(token string) error {
		tokens = append(tokens, token)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tokens, nil
}
