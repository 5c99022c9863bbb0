package util

import (
	"path/filepath"
	"slices"
)

// skipDirs are directory names never descended into when streaming a tree
var skipDirs = []string{
	".git", ".hg", ".svn", "node_modules", ".vscode", ".idea", "vendor", "target",
	"build", "dist", "__pycache__", ".pytest_cache", "coverage",
	"site-packages", ".next", ".nuxt", "venv", "env",
}

// ShouldSkipDirectory reports whether a directory with this base name holds
// VCS metadata, dependencies or build output
func ShouldSkipDirectory(dirName string) bool {
	return slices.Contains(skipDirs, dirName)
}

func ToRelativePath(rootPath, fullPath string) string {
	relPath, err := filepath.Rel(rootPath, fullPath)
	if err != nil || relPath == "." {
		return fullPath
	}
	return relPath
}
