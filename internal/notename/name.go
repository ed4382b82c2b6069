// Package notename maps note filenames to and from their title aliases.
//
// A note's basename (extension stripped) decomposes into one or more
// aliases separated by a fixed token, e.g. "Go~Golang.md" exposes the
// titles "Go" and "Golang" for the same file. Every alias resolves
// independently; the first one is the note's primary title.
package notename

import "strings"

// DefaultSeparator splits a basename into aliases. Tilde because it does
// not clash with typical note titles and is legal on every filesystem.
const DefaultSeparator = "~"

// DefaultExtension is the canonical extension for newly created notes.
const DefaultExtension = "md"

// DefaultExtensions is the recognized Markdown extension set.
var DefaultExtensions = []string{".md", ".mdown", ".markdown", ".markdn"}

// NoteID is a note title in display form plus its canonical comparison
// key. Two NoteIDs name the same note identity iff their keys are equal.
type NoteID struct {
	Display string
	Key     string
}

// ID builds a NoteID from a display title.
func ID(display string) NoteID {
	return NoteID{Display: display, Key: Key(display)}
}

// Key returns the canonical comparison key for a title.
func Key(display string) string {
	return strings.ToLower(display)
}

// Codec parses and formats note identifiers according to a separator
// convention and a recognized extension set.
type Codec struct {
	Separator  string
	Extensions []string
	Extension  string // canonical extension for Compose, without dot
}

// NewCodec returns a Codec with the default conventions.
func NewCodec() *Codec {
	return &Codec{
		Separator:  DefaultSeparator,
		Extensions: DefaultExtensions,
		Extension:  DefaultExtension,
	}
}

// Decompose splits a basename (no extension) into its ordered alias
// sequence. Segments are trimmed of surrounding whitespace; empty
// segments are dropped.
func (c *Codec) Decompose(basename string) []NoteID {
	var ids []NoteID
	for _, seg := range strings.Split(basename, c.Separator) {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		ids = append(ids, ID(seg))
	}
	return ids
}

// DecomposeFilename decomposes a full filename. It returns nil when the
// extension is not in the recognized set.
func (c *Codec) DecomposeFilename(name string) []NoteID {
	base, ok := c.stripExtension(name)
	if !ok {
		return nil
	}
	return c.Decompose(base)
}

// Primary returns the first alias of a basename, or a zero NoteID when
// the basename yields no aliases.
func (c *Codec) Primary(basename string) NoteID {
	ids := c.Decompose(basename)
	if len(ids) == 0 {
		return NoteID{}
	}
	return ids[0]
}

// Compose is the inverse of Decompose for single-alias notes: it returns
// the filename for a note titled title.
func (c *Codec) Compose(title string) string {
	return title + "." + c.Extension
}

// IsNoteFile reports whether name carries a recognized note extension.
func (c *Codec) IsNoteFile(name string) bool {
	_, ok := c.stripExtension(name)
	return ok
}

func (c *Codec) stripExtension(name string) (string, bool) {
	lower := strings.ToLower(name)
	for _, ext := range c.Extensions {
		if strings.HasSuffix(lower, ext) && len(name) > len(ext) {
			return name[:len(name)-len(ext)], true
		}
	}
	return "", false
}
