package rename

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/charmap"

	"github.com/skaldra/notedown/internal/notename"
	"github.com/skaldra/notedown/internal/vaultindex"
)

func setup(t *testing.T, files map[string]string) (string, *Reconciler) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	codec := notename.NewCodec()
	cache := vaultindex.NewCache(codec, nil)
	return dir, New(codec, cache, nil)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestReconcile_RewritesDroppedAlias(t *testing.T) {
	dir, r := setup(t, map[string]string{
		"A.md":   "see [[Old]]\n",
		"New.md": "# New\n",
	})

	updated, err := r.Reconcile(Options{OldName: "Old", NewName: "New", Root: dir})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if updated != 1 {
		t.Errorf("updated = %d, want 1", updated)
	}
	if got := readFile(t, filepath.Join(dir, "A.md")); got != "see [[New]]\n" {
		t.Errorf("A.md = %q", got)
	}
}

func TestReconcile_NoDroppedAliases(t *testing.T) {
	dir, r := setup(t, map[string]string{"A.md": "see [[Same]]\n"})

	updated, err := r.Reconcile(Options{OldName: "Same", NewName: "Same", Root: dir})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if updated != 0 {
		t.Errorf("updated = %d, want 0", updated)
	}
}

func TestReconcile_KeptAliasLinksUntouched(t *testing.T) {
	// Dropping "Golang" but keeping "Go": only [[Golang]] links go stale.
	dir, r := setup(t, map[string]string{
		"A.md":  "[[Go]] and [[Golang]]\n",
		"Go.md": "# Go\n",
	})

	updated, err := r.Reconcile(Options{OldName: "Go~Golang", NewName: "Go", Root: dir})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if updated != 1 {
		t.Errorf("updated = %d, want 1", updated)
	}
	if got := readFile(t, filepath.Join(dir, "A.md")); got != "[[Go]] and [[Go]]\n" {
		t.Errorf("A.md = %q", got)
	}
}

func TestReconcile_CaseInsensitiveMatching(t *testing.T) {
	dir, r := setup(t, map[string]string{"A.md": "see [[old]] and [[OLD]]\n"})

	updated, err := r.Reconcile(Options{
		OldName: "Old", NewName: "New", Root: dir, CaseInsensitive: true,
	})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if updated != 1 {
		t.Errorf("updated = %d, want 1", updated)
	}
	if got := readFile(t, filepath.Join(dir, "A.md")); got != "see [[New]] and [[New]]\n" {
		t.Errorf("A.md = %q", got)
	}
}

func TestReconcile_CaseSensitiveMatching(t *testing.T) {
	dir, r := setup(t, map[string]string{"A.md": "see [[old]] and [[Old]]\n"})

	updated, err := r.Reconcile(Options{
		OldName: "Old", NewName: "New", Root: dir, CaseInsensitive: false,
	})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if updated != 1 {
		t.Errorf("updated = %d, want 1", updated)
	}
	if got := readFile(t, filepath.Join(dir, "A.md")); got != "see [[old]] and [[New]]\n" {
		t.Errorf("A.md = %q", got)
	}
}

func TestReconcile_UntouchedFilesNotRewritten(t *testing.T) {
	dir, r := setup(t, map[string]string{
		"A.md": "see [[Old]]\n",
		"B.md": "nothing relevant\n",
	})

	before, err := os.Stat(filepath.Join(dir, "B.md"))
	if err != nil {
		t.Fatal(err)
	}

	updated, err := r.Reconcile(Options{OldName: "Old", NewName: "New", Root: dir})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if updated != 1 {
		t.Errorf("updated = %d, want 1", updated)
	}

	after, err := os.Stat(filepath.Join(dir, "B.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !after.ModTime().Equal(before.ModTime()) {
		t.Error("file without matches should not be rewritten")
	}
}

func TestReconcile_WriteFailureSkipsOnlyThatFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	dir, r := setup(t, map[string]string{
		"B.md":   "also [[Old]]\n",
		"Old.md": "# Old\n",
	})
	locked := filepath.Join(dir, "locked")
	if err := os.Mkdir(locked, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(locked, "A.md"), []byte("see [[Old]]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Read-only directory: the rewrite of locked/A.md cannot land, the
	// rest of the corpus must still be processed.
	if err := os.Chmod(locked, 0o555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	updated, err := r.Reconcile(Options{OldName: "Old", NewName: "New", Root: dir})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if updated != 1 {
		t.Errorf("updated = %d, want 1", updated)
	}
	if got := readFile(t, filepath.Join(dir, "B.md")); got != "also [[New]]\n" {
		t.Errorf("B.md = %q", got)
	}
	if got := readFile(t, filepath.Join(locked, "A.md")); got != "see [[Old]]\n" {
		t.Errorf("locked/A.md = %q, want untouched", got)
	}
}

func TestReconcile_PreservesFileMode(t *testing.T) {
	dir, r := setup(t, map[string]string{"A.md": "see [[Old]]\n"})
	path := filepath.Join(dir, "A.md")
	if err := os.Chmod(path, 0o600); err != nil {
		t.Fatal(err)
	}

	updated, err := r.Reconcile(Options{OldName: "Old", NewName: "New", Root: dir})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if updated != 1 {
		t.Errorf("updated = %d, want 1", updated)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestReconcile_SkipsUndecodableFile(t *testing.T) {
	dir, r := setup(t, map[string]string{"A.md": "see [[Old]]\n"})
	// Invalid UTF-8 content in another note; must be skipped, not fatal.
	if err := os.WriteFile(filepath.Join(dir, "Bad.md"), []byte{0xff, 0xfe, 0x00}, 0o644); err != nil {
		t.Fatal(err)
	}

	updated, err := r.Reconcile(Options{OldName: "Old", NewName: "New", Root: dir})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if updated != 1 {
		t.Errorf("updated = %d, want 1", updated)
	}
}

func TestReconcile_DeclaredEncoding(t *testing.T) {
	// "café [[Old]]" in Latin-1: é is a single 0xE9 byte.
	latin1, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte("café [[Old]]\n"))
	if err != nil {
		t.Fatal(err)
	}
	dir, r := setup(t, nil)
	if err := os.WriteFile(filepath.Join(dir, "A.md"), latin1, 0o644); err != nil {
		t.Fatal(err)
	}

	updated, err := r.Reconcile(Options{
		OldName: "Old", NewName: "New", Root: dir, Encoding: "ISO-8859-1",
	})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if updated != 1 {
		t.Errorf("updated = %d, want 1", updated)
	}

	got, err := os.ReadFile(filepath.Join(dir, "A.md"))
	if err != nil {
		t.Fatal(err)
	}
	want, _ := charmap.ISO8859_1.NewEncoder().Bytes([]byte("café [[New]]\n"))
	if string(got) != string(want) {
		t.Errorf("content = %v, want %v", got, want)
	}
}

func TestReconcile_UnknownEncoding(t *testing.T) {
	dir, r := setup(t, map[string]string{"A.md": "see [[Old]]\n"})
	if _, err := r.Reconcile(Options{
		OldName: "Old", NewName: "New", Root: dir, Encoding: "no-such-charset",
	}); err == nil {
		t.Error("expected error for unknown encoding")
	}
}
