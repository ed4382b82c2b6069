package api

import (
	"github.com/skaldra/notedown/internal/graph"
	"github.com/skaldra/notedown/internal/lint"
	"github.com/skaldra/notedown/internal/noteservice"
)

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Title  string `json:"title"`
	Origin string `json:"origin,omitempty"` // note the creation was initiated from
	Dir    string `json:"dir,omitempty"`    // vault-relative target directory
}

// RenameRequest is the request body for renaming a note.
type RenameRequest struct {
	Path    string `json:"path"`     // vault-relative path of the note
	NewName string `json:"new_name"` // new basename without extension
}

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// ResolveResponse reports a name resolution.
type ResolveResponse = noteservice.ResolveResult

// LintResponse wraps per-note lint findings.
type LintResponse struct {
	Path   string       `json:"path"`
	Errors []lint.Error `json:"errors"`
}

// CorpusLintResponse wraps the corpus-wide dangling-link report.
type CorpusLintResponse struct {
	Dangling []graph.DanglingLink `json:"dangling"`
}

// TitlesResponse lists completion titles.
type TitlesResponse struct {
	Titles []string `json:"titles"`
}

// SearchResponse wraps quick-open matches.
type SearchResponse struct {
	Results []graph.TitleHit `json:"results"`
}

// BacklinksResponse lists the notes linking to a target.
type BacklinksResponse struct {
	Target    string   `json:"target"`
	Backlinks []string `json:"backlinks"`
}
