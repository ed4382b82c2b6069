package vaultindex

import (
	"os"
	"path/filepath"
)

// DefaultSentinel marks a directory as the root of one note corpus.
const DefaultSentinel = "README.md"

// HomeRoot walks upward from dir until it finds a directory containing
// the sentinel file, and returns that directory. When no ancestor holds
// the sentinel, dir itself is the home root.
func HomeRoot(dir, sentinel string) string {
	if sentinel == "" {
		sentinel = DefaultSentinel
	}
	start, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	cur := start
	for {
		if info, err := os.Stat(filepath.Join(cur, sentinel)); err == nil && !info.IsDir() {
			return cur
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return start
		}
		cur = parent
	}
}
