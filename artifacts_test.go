package md2img

// Notes:
// - Each write gets its own <stamp>_<suffix> directory
// - File names repeat the directory name with .md and .html extensions
// - clear removes only the request directory, never the work directory

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestArtifactStore_Write(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "work")
	store := newArtifactStore(dir)
	store.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 6, 789e6, time.Local) }

	set, err := store.write("# md", "<html></html>")
	if err != nil {
		t.Fatalf("write() error = %v", err)
	}

	name := filepath.Base(set.Dir)
	if !strings.HasPrefix(name, "20240309-140506.789_") {
		t.Errorf("directory name = %q, want timestamp prefix", name)
	}
	if filepath.Dir(set.Dir) != dir {
		t.Errorf("request dir %q not under %q", set.Dir, dir)
	}
	if set.MarkdownPath != filepath.Join(set.Dir, name+".md") {
		t.Errorf("MarkdownPath = %q", set.MarkdownPath)
	}
	if set.HTMLPath != filepath.Join(set.Dir, name+".html") {
		t.Errorf("HTMLPath = %q", set.HTMLPath)
	}

	md, err := os.ReadFile(set.MarkdownPath)
	if err != nil || string(md) != "# md" {
		t.Errorf("markdown artifact = %q, %v", md, err)
	}
	html, err := os.ReadFile(set.HTMLPath)
	if err != nil || string(html) != "<html></html>" {
		t.Errorf("HTML artifact = %q, %v", html, err)
	}

	if !strings.HasPrefix(set.URL(), "file://") || !strings.HasSuffix(set.URL(), ".html") {
		t.Errorf("URL() = %q", set.URL())
	}
}

func TestArtifactStore_WriteUnique(t *testing.T) {
	t.Parallel()

	store := newArtifactStore(t.TempDir())
	fixed := time.Now()
	store.now = func() time.Time { return fixed }

	seen := make(map[string]bool)
	for range 5 {
		set, err := store.write("x", "y")
		if err != nil {
			t.Fatalf("write() error = %v", err)
		}
		if seen[set.Dir] {
			t.Fatalf("write() reused directory %q", set.Dir)
		}
		seen[set.Dir] = true
	}
}

func TestArtifactStore_WriteErrors(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := newArtifactStore(file).write("x", "y")
	if !errors.Is(err, ErrArtifactWrite) {
		t.Errorf("write() error = %v, want ErrArtifactWrite", err)
	}
}

func TestArtifactStore_Clear(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := newArtifactStore(dir)

	set, err := store.write("x", "y")
	if err != nil {
		t.Fatalf("write() error = %v", err)
	}
	if err := store.clear(set); err != nil {
		t.Fatalf("clear() error = %v", err)
	}

	if _, err := os.Stat(set.Dir); !os.IsNotExist(err) {
		t.Errorf("request dir still exists: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("work dir removed: %v", err)
	}
}

func TestDefaultWorkDir(t *testing.T) {
	t.Parallel()

	if got, want := DefaultWorkDir(), filepath.Join(os.TempDir(), "md2img"); got != want {
		t.Errorf("DefaultWorkDir() = %q, want %q", got, want)
	}
	if got := newArtifactStore("").dir; got != DefaultWorkDir() {
		t.Errorf("empty dir resolved to %q, want default", got)
	}
}
