// Package vaultindex builds and caches the name→file mapping for a note
// corpus: every alias a filename decomposes into is indexed under its
// comparison key, in stable directory-walk order.
package vaultindex

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/skaldra/notedown/internal/apperr"
	"github.com/skaldra/notedown/internal/notename"
)

// Entry is one (display alias, file) pair in an alias bucket.
type Entry struct {
	Alias string // display form of the alias
	Path  string // absolute file path
}

// Index is the name→files mapping for one home root. Buckets preserve
// the order the walk encountered their files; repeated builds over an
// unchanged tree produce identical ordering.
type Index struct {
	root    string
	byKey   map[string][]Entry
	entries []Entry  // every (alias, file) pair in walk order
	files   []string // unique absolute file paths in walk order
}

// Root returns the directory this index was built from.
func (ix *Index) Root() string { return ix.root }

// Lookup returns the bucket for a name's comparison key, or nil.
func (ix *Index) Lookup(name string) []Entry {
	return ix.byKey[notename.Key(name)]
}

// Contains reports whether any file claims the given name.
func (ix *Index) Contains(name string) bool {
	return len(ix.byKey[notename.Key(name)]) > 0
}

// Entries returns every (alias, file) pair in walk order.
func (ix *Index) Entries() []Entry { return ix.entries }

// Files returns the unique note file paths in walk order.
func (ix *Index) Files() []string { return ix.files }

// Len returns the number of distinct comparison keys.
func (ix *Index) Len() int { return len(ix.byKey) }

// record tags an index with the mtime of every directory visited while
// building it. The record is fresh iff all of them still match, so
// renames inside nested directories are detected too.
type record struct {
	dirTimes map[string]time.Time
	index    *Index
}

func (r *record) fresh() bool {
	for dir, mtime := range r.dirTimes {
		info, err := os.Stat(dir)
		if err != nil || !info.ModTime().Equal(mtime) {
			return false
		}
	}
	return true
}

// Cache holds one index record per home root. It is an explicit object
// owned by the embedding application; operations that change the file
// set under a root must call Invalidate. Guarded by a mutex because the
// HTTP handlers and the watcher share it.
type Cache struct {
	codec  *notename.Codec
	logger *slog.Logger

	mu       sync.Mutex
	records  map[string]*record
	rebuilds int
}

// NewCache creates an empty cache using the given codec.
func NewCache(codec *notename.Codec, logger *slog.Logger) *Cache {
	if codec == nil {
		codec = notename.NewCodec()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		codec:   codec,
		logger:  logger,
		records: make(map[string]*record),
	}
}

// Index returns the index for root, rebuilding it when there is no
// record or the recorded directory mtimes no longer match. A rebuild
// replaces the record wholesale; records are never patched in place.
func (c *Cache) Index(root string) (*Index, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("vaultindex: resolve root: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if rec, ok := c.records[abs]; ok && rec.fresh() {
		return rec.index, nil
	}

	rec, err := c.build(abs)
	if err != nil {
		delete(c.records, abs)
		return nil, err
	}
	c.records[abs] = rec
	c.rebuilds++
	return rec.index, nil
}

// Invalidate drops the record for root, forcing the next query to walk.
func (c *Cache) Invalidate(root string) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return
	}
	c.mu.Lock()
	delete(c.records, abs)
	c.mu.Unlock()
}

// Clear drops every record.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.records = make(map[string]*record)
	c.mu.Unlock()
}

// Rebuilds returns how many full walks the cache has performed.
func (c *Cache) Rebuilds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rebuilds
}

// build performs a full walk of root. The walk visits entries in
// lexical order, so bucket ordering is stable across runs.
func (c *Cache) build(root string) (*record, error) {
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("vaultindex: root %s: %w", root, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("vaultindex: stat root: %w", err)
	}

	ix := &Index{root: root, byKey: make(map[string][]Entry)}
	dirTimes := make(map[string]time.Time)
	seenFile := make(map[string]struct{})

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if d != nil && d.IsDir() && p != root {
				c.logger.Warn("index: skipping unreadable directory",
					slog.String("path", p), slog.String("error", walkErr.Error()))
				return filepath.SkipDir
			}
			return walkErr
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && p != root {
				return filepath.SkipDir
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			dirTimes[p] = info.ModTime()
			return nil
		}
		ids := c.codec.DecomposeFilename(d.Name())
		if ids == nil {
			return nil
		}
		if _, dup := seenFile[p]; !dup {
			seenFile[p] = struct{}{}
			ix.files = append(ix.files, p)
		}
		for _, id := range ids {
			e := Entry{Alias: id.Display, Path: p}
			ix.byKey[id.Key] = append(ix.byKey[id.Key], e)
			ix.entries = append(ix.entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vaultindex: walk %s: %w", root, err)
	}

	return &record{dirTimes: dirTimes, index: ix}, nil
}
