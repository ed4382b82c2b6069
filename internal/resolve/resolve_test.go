package resolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/skaldra/notedown/internal/notename"
	"github.com/skaldra/notedown/internal/vaultindex"
)

func buildIndex(t *testing.T, names ...string) (*vaultindex.Index, string) {
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
	return ix, dir
}

func TestResolve_Unique(t *testing.T) {
	ix, dir := buildIndex(t, "Alpha.md", "Beta.md")
	r := Resolve("alpha", ix)
	if r.State != Unique {
		t.Fatalf("state = %v, want unique", r.State)
	}
	if r.Path() != filepath.Join(dir, "Alpha.md") {
		t.Errorf("path = %q", r.Path())
	}
}

func TestResolve_NotFound(t *testing.T) {
	ix, _ := buildIndex(t, "Alpha.md")
	r := Resolve("Ghost", ix)
	if r.State != NotFound {
		t.Fatalf("state = %v, want not_found", r.State)
	}
	if r.Path() != "" {
		t.Errorf("path = %q, want empty", r.Path())
	}
}

func TestResolve_Ambiguous(t *testing.T) {
	// Both X~Y.md and Y.md claim alias "Y"; walk order lists X~Y.md first.
	ix, dir := buildIndex(t, "X~Y.md", "Y.md")
	r := Resolve("Y", ix)
	if r.State != Ambiguous {
		t.Fatalf("state = %v, want ambiguous", r.State)
	}
	if len(r.Candidates) != 2 {
		t.Fatalf("candidates = %v", r.Candidates)
	}
	if r.Candidates[0].Path != filepath.Join(dir, "X~Y.md") {
		t.Errorf("first candidate = %v, want X~Y.md", r.Candidates[0])
	}
}

func TestResolve_MultiAliasSameFileIsUnique(t *testing.T) {
	// "Go~go.md" exposes the key "go" twice, but only one file backs it.
	ix, _ := buildIndex(t, "Go~go.md")
	r := Resolve("go", ix)
	if r.State != Unique {
		t.Errorf("state = %v, want unique for a single backing file", r.State)
	}
}

func TestOtherTitles_ExcludesCurrentByIdentity(t *testing.T) {
	ix, dir := buildIndex(t, "Alpha.md", "Beta~B.md")

	// A differently spelled path to the same file must still be excluded.
	oddPath := filepath.Join(dir, ".", "Alpha.md")
	titles := OtherTitles(ix, oddPath)
	want := []string{"B", "Beta"}
	if len(titles) != len(want) {
		t.Fatalf("titles = %v, want %v", titles, want)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Errorf("titles[%d] = %q, want %q", i, titles[i], want[i])
		}
	}
}

func TestOtherTitles_AllWhenCurrentUnknown(t *testing.T) {
	ix, _ := buildIndex(t, "Alpha.md")
	titles := OtherTitles(ix, filepath.Join(t.TempDir(), "elsewhere.md"))
	if len(titles) != 1 || titles[0] != "Alpha" {
		t.Errorf("titles = %v", titles)
	}
}
