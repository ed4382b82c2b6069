// Package noteservice coordinates the note-graph operations over
// storage, the vault index cache, and the link graph.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/skaldra/notedown/internal/apperr"
	"github.com/skaldra/notedown/internal/checksum"
	"github.com/skaldra/notedown/internal/graph"
	"github.com/skaldra/notedown/internal/lint"
	"github.com/skaldra/notedown/internal/notename"
	"github.com/skaldra/notedown/internal/rename"
	"github.com/skaldra/notedown/internal/resolve"
	"github.com/skaldra/notedown/internal/storage"
	"github.com/skaldra/notedown/internal/vaultindex"
)

// DefaultTemplate is the initial content of a created note. {title} and
// {origin} are substituted; the origin line links back to the note the
// creation was initiated from.
const DefaultTemplate = `# {title}

See also:

- [[{origin}]]
`

// Params configures a Service.
type Params struct {
	Store storage.Provider
	DB    graph.LinkGraph
	Cache *vaultindex.Cache
	Codec *notename.Codec

	Template     string // note creation template, DefaultTemplate when empty
	HomeSentinel string // basename marking a corpus root
	Encoding     string // IANA encoding for rename file I/O
	// CaseInsensitiveRename controls link matching during reconciliation.
	CaseInsensitiveRename bool
	// JournalTitleFormat is a time layout for journal note titles.
	JournalTitleFormat string

	Logger *slog.Logger
}

// Service exposes the core wiki operations as request/response calls.
type Service struct {
	store      storage.Provider
	db         graph.LinkGraph
	cache      *vaultindex.Cache
	codec      *notename.Codec
	reconciler *rename.Reconciler
	logger     *slog.Logger

	template       string
	sentinel       string
	encoding       string
	caseInsRename  bool
	journalLayout  string

	// navMu guards the transient backlink memory: note key → the title
	// of the note it was navigated from. Never persisted; entries may go
	// stale after a rename, which is acceptable for a paste convenience.
	navMu     sync.Mutex
	navOrigin map[string]string
}

// NewService creates a Service.
func NewService(p Params) *Service {
	if p.Codec == nil {
		p.Codec = notename.NewCodec()
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	if p.Cache == nil {
		p.Cache = vaultindex.NewCache(p.Codec, p.Logger)
	}
	if p.Template == "" {
		p.Template = DefaultTemplate
	}
	if p.HomeSentinel == "" {
		p.HomeSentinel = vaultindex.DefaultSentinel
	}
	if p.JournalTitleFormat == "" {
		p.JournalTitleFormat = "2006-01-02"
	}
	return &Service{
		store:         p.Store,
		db:            p.DB,
		cache:         p.Cache,
		codec:         p.Codec,
		reconciler:    rename.New(p.Codec, p.Cache, p.Logger),
		logger:        p.Logger,
		template:      p.Template,
		sentinel:      p.HomeSentinel,
		encoding:      p.Encoding,
		caseInsRename: p.CaseInsensitiveRename,
		journalLayout: p.JournalTitleFormat,
		navOrigin:     make(map[string]string),
	}
}

// Cache exposes the vault index cache for collaborators (watcher, CLI).
func (s *Service) Cache() *vaultindex.Cache { return s.cache }

// Codec exposes the name codec.
func (s *Service) Codec() *notename.Codec { return s.codec }

// homeRoot returns the corpus root for a vault-relative note path.
func (s *Service) homeRoot(rel string) string {
	dir := filepath.Join(s.store.Root(), filepath.FromSlash(path.Dir(rel)))
	return vaultindex.HomeRoot(dir, s.sentinel)
}

// relPath converts an absolute path under the vault root to a
// vault-relative one; paths outside the root are returned unchanged.
func (s *Service) relPath(abs string) string {
	rel, err := filepath.Rel(s.store.Root(), abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return abs
	}
	return filepath.ToSlash(rel)
}

// Candidate is one resolved file in API-friendly form.
type Candidate struct {
	Title string `json:"title"`
	Path  string `json:"path"` // vault-relative
}

// ResolveResult reports the outcome of a name resolution.
type ResolveResult struct {
	State      string      `json:"state"` // unique | ambiguous | not_found
	Candidates []Candidate `json:"candidates,omitempty"`
}

// Resolve resolves name within the corpus containing the note at from
// (vault-relative; empty means the vault root corpus). On a unique
// resolution the navigation is recorded for backlink suggestions.
func (s *Service) Resolve(_ context.Context, from, name string) (*ResolveResult, error) {
	root := s.homeRoot(from)
	ix, err := s.cache.Index(root)
	if err != nil {
		return nil, err
	}
	res := resolve.Resolve(name, ix)

	out := &ResolveResult{State: res.State.String()}
	for _, c := range res.Candidates {
		out.Candidates = append(out.Candidates, Candidate{Title: c.Alias, Path: s.relPath(c.Path)})
	}

	if res.State == resolve.Unique && from != "" {
		base := strings.TrimSuffix(path.Base(from), path.Ext(from))
		if origin := s.codec.Primary(base); origin.Display != "" {
			s.RecordNavigation(name, origin.Display)
		}
	}
	return out, nil
}

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	Path      string   `json:"path"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Checksum  string   `json:"checksum"`
	Backlinks []string `json:"backlinks"`
}

// GetNote reads a note and enriches it with graph backlinks.
func (s *Service) GetNote(_ context.Context, rel string) (*NoteDetail, error) {
	data, err := s.store.Read(rel)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	base := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	title := s.codec.Primary(base).Display
	bl, err := s.db.Backlinks(title)
	if err != nil {
		return nil, err
	}
	if bl == nil {
		bl = []string{}
	}
	return &NoteDetail{
		Path:      rel,
		Title:     title,
		Content:   string(data),
		Checksum:  checksum.Sum(data),
		Backlinks: bl,
	}, nil
}

// CreateNote creates a note titled title inside dir (vault-relative),
// linking back to origin. A pre-existing file is an invariant violation
// and surfaces as ErrAlreadyExists, never an overwrite.
func (s *Service) CreateNote(_ context.Context, title, origin, dir string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("noteservice: empty title")
	}
	rel := path.Join(dir, s.codec.Compose(title))
	exists, err := s.store.Exists(rel)
	if err != nil {
		return "", err
	}
	if exists {
		return "", fmt.Errorf("noteservice: create %s: %w", rel, apperr.ErrAlreadyExists)
	}

	content := strings.ReplaceAll(s.template, "{title}", title)
	content = strings.ReplaceAll(content, "{origin}", origin)
	if err := s.store.Write(rel, []byte(content)); err != nil {
		return "", err
	}

	s.indexNew(rel, []byte(content))
	s.cache.Invalidate(s.homeRoot(rel))
	return rel, nil
}

// RenameResult reports a completed rename.
type RenameResult struct {
	OldPath string `json:"old_path"`
	NewPath string `json:"new_path"`
	Updated int    `json:"updated"` // files whose links were rewritten
}

// RenameNote renames the note at rel to newName (basename without
// extension, possibly multi-alias) and reconciles backlinks across the
// corpus. The file rename itself must succeed before any reconciliation
// runs; its failure aborts the whole flow.
func (s *Service) RenameNote(_ context.Context, rel, newName string) (*RenameResult, error) {
	newName = strings.TrimSpace(newName)
	if len(s.codec.Decompose(newName)) == 0 {
		return nil, fmt.Errorf("noteservice: invalid new name %q", newName)
	}

	oldBase := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	newRel := path.Join(path.Dir(rel), s.codec.Compose(newName))
	if newRel == rel {
		return &RenameResult{OldPath: rel, NewPath: rel}, nil
	}

	if err := s.store.Move(rel, newRel); err != nil {
		return nil, fmt.Errorf("noteservice: rename note file: %w", err)
	}

	root := s.homeRoot(rel)
	s.cache.Invalidate(root)

	updated, err := s.reconciler.Reconcile(rename.Options{
		OldName:         oldBase,
		NewName:         newName,
		Root:            root,
		Encoding:        s.encoding,
		CaseInsensitive: s.caseInsRename,
	})
	if err != nil {
		return nil, err
	}

	if err := graph.Sync(s.db, s.store, s.codec, s.logger); err != nil {
		s.logger.Warn("rename: graph sync failed", slog.String("error", err.Error()))
	}
	return &RenameResult{OldPath: rel, NewPath: newRel, Updated: updated}, nil
}

// Lint checks the note at rel against its corpus index.
func (s *Service) Lint(_ context.Context, rel string) ([]lint.Error, error) {
	data, err := s.store.Read(rel)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	ix, err := s.cache.Index(s.homeRoot(rel))
	if err != nil {
		return nil, err
	}
	return lint.Check(rel, string(data), ix, s.codec), nil
}

// LintCorpus reports every dangling link known to the graph.
func (s *Service) LintCorpus(_ context.Context) ([]graph.DanglingLink, error) {
	return s.db.Dangling()
}

// Titles returns the sorted titles of every note in the corpus except
// the one at exclude (vault-relative; empty excludes nothing). Feeds
// link completion and quick-open.
func (s *Service) Titles(_ context.Context, exclude string) ([]string, error) {
	root := s.homeRoot(exclude)
	ix, err := s.cache.Index(root)
	if err != nil {
		return nil, err
	}
	var abs string
	if exclude != "" {
		abs = filepath.Join(s.store.Root(), filepath.FromSlash(exclude))
	}
	titles := resolve.OtherTitles(ix, abs)
	if titles == nil {
		titles = []string{}
	}
	return titles, nil
}

// SearchTitles is substring quick-open over the graph's alias table.
func (s *Service) SearchTitles(_ context.Context, query string, limit int) ([]graph.TitleHit, error) {
	return s.db.SearchTitles(query, limit)
}

// Backlinks returns the paths of notes linking to name.
func (s *Service) Backlinks(_ context.Context, name string) ([]string, error) {
	return s.db.Backlinks(name)
}

// ListNotes lists the corpus from the graph.
func (s *Service) ListNotes(_ context.Context) ([]graph.NoteRow, error) {
	return s.db.ListNotes()
}

// Journal returns the vault-relative path of the journal note for day,
// creating it when missing. Created is true when this call wrote it.
func (s *Service) Journal(_ context.Context, day time.Time) (string, bool, error) {
	title := day.Format(s.journalLayout)
	rel := s.codec.Compose(title)
	exists, err := s.store.Exists(rel)
	if err != nil {
		return "", false, err
	}
	if exists {
		return rel, false, nil
	}
	content := fmt.Sprintf("# %s\n", title)
	if err := s.store.Write(rel, []byte(content)); err != nil {
		return "", false, err
	}
	s.indexNew(rel, []byte(content))
	s.cache.Invalidate(s.homeRoot(rel))
	return rel, true, nil
}

// RecordNavigation remembers that target was navigated to from origin.
func (s *Service) RecordNavigation(target, origin string) {
	s.navMu.Lock()
	s.navOrigin[notename.Key(target)] = origin
	s.navMu.Unlock()
}

// BacklinkFor returns the link token to paste into the note named name,
// pointing back at the note it was navigated from.
func (s *Service) BacklinkFor(name string) (string, bool) {
	s.navMu.Lock()
	origin, ok := s.navOrigin[notename.Key(name)]
	s.navMu.Unlock()
	if !ok {
		return "", false
	}
	return "[[" + origin + "]]", true
}

// indexNew upserts a freshly written note into the graph; failures are
// logged, the watcher or next sync will repair the graph.
func (s *Service) indexNew(rel string, data []byte) {
	fi := storage.FileInfo{Path: rel, Checksum: checksum.Sum(data), UpdatedAt: time.Now()}
	if err := graph.IndexFile(s.db, s.codec, fi, data); err != nil {
		s.logger.Warn("index new note failed", slog.String("path", rel), slog.String("error", err.Error()))
	}
}
