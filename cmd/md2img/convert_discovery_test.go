package main

// Notes:
// - discoverFiles: single file, directory tree, non-markdown input.
// - resolveOutputPath: every combination of output dir, image file and tree.

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	md2img "github.com/alnah/go-md2img"
)

// ---------------------------------------------------------------------------
// TestResolveOutputPath - Output naming
// ---------------------------------------------------------------------------

func TestResolveOutputPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		outputDir string
		baseDir   string
		format    md2img.ImageFormat
		want      string
	}{
		{"next to input", "docs/readme.md", "", "", md2img.FormatPNG, "docs/readme.png"},
		{"jpeg extension", "docs/readme.markdown", "", "", md2img.FormatJPEG, "docs/readme.jpg"},
		{"output directory", "docs/readme.md", "out", "", md2img.FormatWebP, "out/readme.webp"},
		{"explicit image file", "docs/readme.md", "shots/cover.png", "", md2img.FormatPNG, "shots/cover.png"},
		{"tree mirrored", "docs/a/b.md", "out", "docs", md2img.FormatPNG, "out/a/b.png"},
		{"image-like dir in tree", "docs/a/b.md", "out.png", "docs", md2img.FormatPNG, "out.png/a/b.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := resolveOutputPath(tt.input, tt.outputDir, tt.baseDir, tt.format)
			if got != filepath.FromSlash(tt.want) {
				t.Errorf("resolveOutputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestDiscoverFiles - Input scanning
// ---------------------------------------------------------------------------

func TestDiscoverFiles_Directory(t *testing.T) {
	t.Parallel()

	dir := setupTestDir(t, map[string]string{
		"a.md":           "# A",
		"notes.txt":      "skip",
		"sub/b.markdown": "# B",
		"sub/deep/c.MD":  "# C",
	})
	out := t.TempDir()

	files, err := discoverFiles(dir, out, md2img.FormatPNG)
	if err != nil {
		t.Fatalf("discoverFiles() error = %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("found %d files, want 3: %+v", len(files), files)
	}

	want := map[string]string{
		filepath.Join(dir, "a.md"):           filepath.Join(out, "a.png"),
		filepath.Join(dir, "sub/b.markdown"): filepath.Join(out, "sub", "b.png"),
		filepath.Join(dir, "sub/deep/c.MD"):  filepath.Join(out, "sub", "deep", "c.png"),
	}
	for _, f := range files {
		if want[f.InputPath] != f.OutputPath {
			t.Errorf("%s -> %s, want %s", f.InputPath, f.OutputPath, want[f.InputPath])
		}
	}
}

func TestDiscoverFiles_Errors(t *testing.T) {
	t.Parallel()

	dir := setupTestDir(t, map[string]string{"notes.txt": "x"})

	if _, err := discoverFiles(filepath.Join(dir, "notes.txt"), "", md2img.FormatPNG); !errors.Is(err, ErrInvalidExtension) {
		t.Errorf("error = %v, want ErrInvalidExtension", err)
	}
	if _, err := discoverFiles(filepath.Join(dir, "missing.md"), "", md2img.FormatPNG); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want os.ErrNotExist", err)
	}
}

func TestValidateWorkers(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, md2img.MaxPoolSize} {
		if err := validateWorkers(n); err != nil {
			t.Errorf("validateWorkers(%d) error = %v", n, err)
		}
	}
	for _, n := range []int{-1, md2img.MaxPoolSize + 1} {
		if err := validateWorkers(n); !errors.Is(err, ErrInvalidWorkerCount) {
			t.Errorf("validateWorkers(%d) error = %v, want ErrInvalidWorkerCount", n, err)
		}
	}
}

func TestHTMLOutputPath(t *testing.T) {
	t.Parallel()

	if got := htmlOutputPath("out/doc.png"); got != "out/doc.html" {
		t.Errorf("htmlOutputPath() = %q", got)
	}
}
