package lint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/skaldra/notedown/internal/notename"
	"github.com/skaldra/notedown/internal/vaultindex"
)

func buildIndex(t *testing.T, names ...string) *vaultindex.Index {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	c := vaultindex.NewCache(notename.NewCodec(), nil)
	ix, err := c.Index(dir)
	if err != nil {
		t.Fatal(err)
	}
	return ix
}

func TestHeading(t *testing.T) {
	if got := Heading("# Title\nbody"); got != "Title" {
		t.Errorf("Heading = %q", got)
	}
	if got := Heading("no heading"); got != "" {
		t.Errorf("Heading = %q, want empty", got)
	}
	if got := Heading("# Spaced  \nbody"); got != "Spaced" {
		t.Errorf("Heading = %q", got)
	}
}

func TestCheck_Clean(t *testing.T) {
	ix := buildIndex(t, "Target.md")
	codec := notename.NewCodec()
	errs := Check("Note.md", "# Note\n\nsee [[Target]]\n", ix, codec)
	if len(errs) != 0 {
		t.Errorf("errs = %v, want none", errs)
	}
}

func TestCheck_MissingHeading(t *testing.T) {
	ix := buildIndex(t)
	errs := Check("Note.md", "just text\n", ix, notename.NewCodec())
	if len(errs) != 1 || errs[0].Kind != KindMissingHeading {
		t.Fatalf("errs = %v", errs)
	}
	if errs[0].Line != 1 {
		t.Errorf("line = %d, want 1", errs[0].Line)
	}
}

func TestCheck_HeadingMismatch(t *testing.T) {
	ix := buildIndex(t)
	errs := Check("Note.md", "# Something Else\n", ix, notename.NewCodec())
	if len(errs) != 1 || errs[0].Kind != KindHeadingMismatch {
		t.Fatalf("errs = %v", errs)
	}
}

func TestCheck_HeadingMatchesAnyCase(t *testing.T) {
	ix := buildIndex(t)
	errs := Check("My Note.md", "# my note\n", ix, notename.NewCodec())
	if len(errs) != 0 {
		t.Errorf("case-insensitive heading match should pass, got %v", errs)
	}
}

func TestCheck_HeadingUsesPrimaryAlias(t *testing.T) {
	ix := buildIndex(t)
	errs := Check("Go~Golang.md", "# Go\n", ix, notename.NewCodec())
	if len(errs) != 0 {
		t.Errorf("heading equal to primary alias should pass, got %v", errs)
	}
}

func TestCheck_DanglingLink(t *testing.T) {
	ix := buildIndex(t, "Known.md")
	content := "# Note\n\n[[Known]] then [[Ghost]]\n"
	errs := Check("Note.md", content, ix, notename.NewCodec())
	if len(errs) != 1 {
		t.Fatalf("errs = %v, want exactly one", errs)
	}
	e := errs[0]
	if e.Kind != KindDanglingLink || e.Text != "[[Ghost]]" {
		t.Errorf("err = %+v", e)
	}
	if e.Line != 3 {
		t.Errorf("line = %d, want 3", e.Line)
	}
}

func TestCheck_DanglingLinksPreserveOrder(t *testing.T) {
	ix := buildIndex(t)
	content := "# Note\n[[B Ghost]]\n[[A Ghost]]\n"
	errs := Check("Note.md", content, ix, notename.NewCodec())
	if len(errs) != 2 {
		t.Fatalf("errs = %v", errs)
	}
	if errs[0].Text != "[[B Ghost]]" || errs[1].Text != "[[A Ghost]]" {
		t.Errorf("order not preserved: %v", errs)
	}
}
