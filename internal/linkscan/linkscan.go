// Package linkscan is the authoritative definition of a wiki-link
// occurrence. Every component that needs to find [[Title]] tokens in
// note content goes through Scan, so lint, rename, and the link graph
// always agree on what counts as a link.
package linkscan

import (
	"regexp"
	"strings"
)

var linkRe = regexp.MustCompile(`\[\[(.+?)\]\]`)

// Occurrence is one [[Title]] token found in note content.
type Occurrence struct {
	Name  string // inner title, surrounding whitespace trimmed
	Line  int    // 1-based line number
	Start int    // byte offset of "[[" in the content
	End   int    // byte offset just past "]]"
}

// Scan returns every link occurrence in content, in source order.
// Occurrences with an empty (whitespace-only) inner title are dropped.
func Scan(content string) []Occurrence {
	matches := linkRe.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]Occurrence, 0, len(matches))
	line := 1
	pos := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		name := strings.TrimSpace(content[m[2]:m[3]])
		if name == "" {
			continue
		}
		line += strings.Count(content[pos:start], "\n")
		pos = start
		out = append(out, Occurrence{Name: name, Line: line, Start: start, End: end})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Names returns the deduplicated link targets of content in first-seen
// order, suitable for building link-graph edges.
func Names(content string) []string {
	occs := Scan(content)
	seen := make(map[string]struct{}, len(occs))
	var out []string
	for _, o := range occs {
		lower := strings.ToLower(o.Name)
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		out = append(out, o.Name)
	}
	return out
}

// Token formats a title as a link token.
func Token(title string) string {
	return "[[" + title + "]]"
}
