package util

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldSkipDirectory(t *testing.T) {
	assert.True(t, ShouldSkipDirectory(".git"))
	assert.True(t, ShouldSkipDirectory("node_modules"))
	assert.False(t, ShouldSkipDirectory("src"))
	assert.False(t, ShouldSkipDirectory("gitdocs"))
}

func TestToRelativePath(t *testing.T) {
	root := filepath.Join("corpus", "books")
	assert.Equal(t, filepath.Join("a", "b.txt"), ToRelativePath(root, filepath.Join(root, "a", "b.txt")))
	assert.Equal(t, root, ToRelativePath(root, root))
}
