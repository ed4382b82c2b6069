// Package resolve turns a typed or clicked note name into a resolution
// against the vault index.
package resolve

import (
	"os"
	"sort"

	"github.com/skaldra/notedown/internal/vaultindex"
)

// State classifies a resolution outcome.
type State int

const (
	// NotFound means no file claims the name. Not an error: the caller
	// should offer to create the note.
	NotFound State = iota
	// Unique means exactly one file matches.
	Unique
	// Ambiguous means several distinct files claim the name; the caller
	// must present a choice, in candidate order.
	Ambiguous
)

func (s State) String() string {
	switch s {
	case Unique:
		return "unique"
	case Ambiguous:
		return "ambiguous"
	default:
		return "not_found"
	}
}

// Resolution is the outcome of resolving a name. Candidates hold the
// matching entries deduplicated by file, in index insertion order
// (first seen by the walk is listed first); no further ranking is done.
type Resolution struct {
	State      State
	Candidates []vaultindex.Entry
}

// Path returns the resolved file for a Unique resolution, or "".
func (r Resolution) Path() string {
	if r.State == Unique {
		return r.Candidates[0].Path
	}
	return ""
}

// Resolve looks up name's comparison key in the index. A bucket whose
// entries all point at the same file is still Unique, even when the
// file exposes the name through several aliases.
func Resolve(name string, ix *vaultindex.Index) Resolution {
	bucket := ix.Lookup(name)
	if len(bucket) == 0 {
		return Resolution{State: NotFound}
	}

	seen := make(map[string]struct{}, len(bucket))
	var candidates []vaultindex.Entry
	for _, e := range bucket {
		if _, dup := seen[e.Path]; dup {
			continue
		}
		seen[e.Path] = struct{}{}
		candidates = append(candidates, e)
	}

	if len(candidates) == 1 {
		return Resolution{State: Unique, Candidates: candidates}
	}
	return Resolution{State: Ambiguous, Candidates: candidates}
}

// OtherTitles returns the sorted display aliases of every note in the
// index except the one at currentPath. Files are compared by filesystem
// identity rather than string equality, so symlinks and path-spelling
// differences do not leak the current note into its own completions.
func OtherTitles(ix *vaultindex.Index, currentPath string) []string {
	cur, statErr := os.Stat(currentPath)

	seen := make(map[string]struct{})
	var titles []string
	for _, e := range ix.Entries() {
		if statErr == nil {
			if info, err := os.Stat(e.Path); err == nil && os.SameFile(cur, info) {
				continue
			}
		} else if e.Path == currentPath {
			continue
		}
		if _, dup := seen[e.Alias]; dup {
			continue
		}
		seen[e.Alias] = struct{}{}
		titles = append(titles, e.Alias)
	}
	sort.Strings(titles)
	return titles
}
