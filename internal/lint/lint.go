// Package lint validates a note's structural consistency: its heading
// against its filename and its links against the vault index.
package lint

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/skaldra/notedown/internal/linkscan"
	"github.com/skaldra/notedown/internal/notename"
	"github.com/skaldra/notedown/internal/vaultindex"
)

// Kind classifies a lint error.
type Kind string

const (
	// KindMissingHeading means the note has no first-level heading.
	KindMissingHeading Kind = "missing_heading"
	// KindHeadingMismatch means the heading text differs from the
	// filename's primary title.
	KindHeadingMismatch Kind = "heading_mismatch"
	// KindDanglingLink means a link's target is absent from the index.
	KindDanglingLink Kind = "dangling_link"
)

// Error is one lint finding. Pure data: presentation is the caller's job.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Line    int    `json:"line"`
	Text    string `json:"text,omitempty"` // offending source text, if any
}

// Heading returns the text of the note's first-level heading, or ""
// when the first line is not a heading.
func Heading(content string) string {
	line := content
	if i := strings.IndexByte(content, '\n'); i >= 0 {
		line = content[:i]
	}
	line = strings.TrimRight(line, "\r")
	if !strings.HasPrefix(line, "# ") {
		return ""
	}
	return strings.TrimSpace(line[2:])
}

// Check lints one note: its heading must exist and match the filename's
// primary title, and every link must resolve against the index. Errors
// preserve source order, heading findings first.
func Check(path, content string, ix *vaultindex.Index, codec *notename.Codec) []Error {
	var errs []Error

	primary := codec.Primary(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))

	heading := Heading(content)
	switch {
	case heading == "":
		errs = append(errs, Error{
			Kind:    KindMissingHeading,
			Message: "note has no first-level heading (must start with #)",
			Line:    1,
		})
	case primary.Display != "" && notename.Key(heading) != primary.Key:
		errs = append(errs, Error{
			Kind:    KindHeadingMismatch,
			Message: fmt.Sprintf("heading %q does not match note title %q", heading, primary.Display),
			Line:    1,
			Text:    heading,
		})
	}

	for _, occ := range linkscan.Scan(content) {
		if ix.Contains(occ.Name) {
			continue
		}
		errs = append(errs, Error{
			Kind:    KindDanglingLink,
			Message: fmt.Sprintf("missing note file for link %s", linkscan.Token(occ.Name)),
			Line:    occ.Line,
			Text:    linkscan.Token(occ.Name),
		})
	}

	return errs
}
