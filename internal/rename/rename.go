// Package rename repairs backlinks after a note's title changes: every
// link that used a now-dropped alias is rewritten, corpus-wide, to the
// new primary title.
package rename

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/skaldra/notedown/internal/linkscan"
	"github.com/skaldra/notedown/internal/notename"
	"github.com/skaldra/notedown/internal/vaultindex"
)

// Options describes one reconciliation pass.
type Options struct {
	OldName string // old basename without extension, possibly multi-alias
	NewName string // new basename without extension, possibly multi-alias
	Root    string // home root whose corpus is scanned
	// Encoding is the IANA name of the character encoding used for file
	// I/O. Empty means UTF-8.
	Encoding string
	// CaseInsensitive controls whether link matching ignores case.
	CaseInsensitive bool
}

// Reconciler rewrites stale links across a note corpus.
type Reconciler struct {
	codec  *notename.Codec
	cache  *vaultindex.Cache
	logger *slog.Logger
}

// New creates a Reconciler that enumerates candidate files through cache.
func New(codec *notename.Codec, cache *vaultindex.Cache, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{codec: codec, cache: cache, logger: logger}
}

// Reconcile rewrites links to dropped aliases and returns the number of
// files updated. Aliases present in both old and new names keep their
// links valid, so a pass where nothing was dropped touches no files.
// Per-file failures (stat, read, decode, encode, write) are logged and
// skipped so one bad file never abandons the rest of the corpus; only
// enumerating the candidates is fatal.
func (r *Reconciler) Reconcile(opts Options) (int, error) {
	oldIDs := r.codec.Decompose(opts.OldName)
	newIDs := r.codec.Decompose(opts.NewName)
	if len(newIDs) == 0 {
		return 0, fmt.Errorf("rename: new name %q has no aliases", opts.NewName)
	}

	kept := make(map[string]struct{}, len(newIDs))
	for _, id := range newIDs {
		kept[id.Key] = struct{}{}
	}
	var dropped []notename.NoteID
	for _, id := range oldIDs {
		if _, ok := kept[id.Key]; !ok {
			dropped = append(dropped, id)
		}
	}
	if len(dropped) == 0 {
		return 0, nil
	}

	matcher := buildMatcher(dropped, opts.CaseInsensitive)
	replacement := linkscan.Token(newIDs[0].Display)

	enc, err := lookupEncoding(opts.Encoding)
	if err != nil {
		return 0, fmt.Errorf("rename: %w", err)
	}

	ix, err := r.cache.Index(opts.Root)
	if err != nil {
		return 0, err
	}
	files := ix.Files()

	updated := 0
	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			r.logger.Warn("rename: stat failed", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			r.logger.Warn("rename: read failed", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}

		text, err := decode(raw, enc)
		if err != nil {
			r.logger.Warn("rename: skipping undecodable file",
				slog.String("path", path), slog.String("error", err.Error()))
			continue
		}

		count := 0
		rewritten := matcher.ReplaceAllStringFunc(text, func(string) string {
			count++
			return replacement
		})
		if count == 0 {
			continue
		}

		out, err := encode(rewritten, enc)
		if err != nil {
			r.logger.Warn("rename: encode failed",
				slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		if err := writeFileAtomic(path, out, info.Mode().Perm()); err != nil {
			r.logger.Warn("rename: write failed",
				slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		updated++
		r.logger.Debug("rename: rewrote links",
			slog.String("path", path), slog.Int("links", count))
	}

	r.cache.Invalidate(opts.Root)
	return updated, nil
}

// writeFileAtomic replaces the file at path via tmp → fsync → rename,
// preserving its permission bits, so a crash mid-write never leaves a
// torn note behind.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".notedown-tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	success = true
	return nil
}

// buildMatcher compiles the single pattern that recognizes a link token
// whose inner name is one of the dropped aliases.
func buildMatcher(dropped []notename.NoteID, caseInsensitive bool) *regexp.Regexp {
	alts := make([]string, len(dropped))
	for i, id := range dropped {
		alts[i] = regexp.QuoteMeta(id.Display)
	}
	pattern := `\[\[\s*(?:` + strings.Join(alts, "|") + `)\s*\]\]`
	if caseInsensitive {
		pattern = `(?i)` + pattern
	}
	return regexp.MustCompile(pattern)
}

// lookupEncoding resolves an IANA encoding name. Empty or UTF-8 names
// yield nil, meaning plain UTF-8 passthrough.
func lookupEncoding(name string) (encoding.Encoding, error) {
	if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("unknown encoding %q", name)
	}
	return enc, nil
}

func decode(raw []byte, enc encoding.Encoding) (string, error) {
	if enc == nil {
		if !utf8.Valid(raw) {
			return "", fmt.Errorf("content is not valid UTF-8")
		}
		return string(raw), nil
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func encode(text string, enc encoding.Encoding) ([]byte, error) {
	if enc == nil {
		return []byte(text), nil
	}
	return enc.NewEncoder().Bytes([]byte(text))
}
