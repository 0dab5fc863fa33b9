//go:build integration

package md2img

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func decodeImage(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("image.Decode() error = %v", err)
	}
	return img
}

// TestConvertToImage_Rod_Integration renders with go-rod. Rod downloads
// Chromium on first run if not found.
func TestConvertToImage_Rod_Integration(t *testing.T) {
	t.Parallel()

	conv := acquireConverter(t)

	res, err := conv.ConvertToImage(context.Background(), "# Hello\n\nA paragraph with `code`.")
	if err != nil {
		t.Fatalf("ConvertToImage() error = %v", err)
	}
	if res.MIMEType != "image/png" {
		t.Errorf("MIMEType = %q, want image/png", res.MIMEType)
	}

	// Device scale factor 2 doubles the 800px layout width.
	img := decodeImage(t, res.Image)
	if got := img.Bounds().Dx(); got != 2*DefaultViewportWidth {
		t.Errorf("image width = %d, want %d", got, 2*DefaultViewportWidth)
	}
	if got := img.Bounds().Dy(); got < 2*DefaultViewportHeight {
		t.Errorf("image height = %d, want at least %d", got, 2*DefaultViewportHeight)
	}
}

func TestConvertToImage_Formats_Integration(t *testing.T) {
	t.Parallel()

	for _, format := range []ImageFormat{FormatJPEG, FormatWebP} {
		t.Run(string(format), func(t *testing.T) {
			t.Parallel()

			conv, err := NewConverter(WithFormat(format), WithQuality(80), WithTimeout(testTimeout))
			if err != nil {
				t.Fatalf("NewConverter() error = %v", err)
			}
			defer conv.Close()

			res, err := conv.ConvertToImage(context.Background(), "**bold** text")
			if err != nil {
				t.Fatalf("ConvertToImage() error = %v", err)
			}
			if res.MIMEType != format.MIMEType() {
				t.Errorf("MIMEType = %q, want %q", res.MIMEType, format.MIMEType())
			}
		})
	}
}

func TestConvertToImage_Transparent_Integration(t *testing.T) {
	t.Parallel()

	conv, err := NewConverter(WithBackground(BackgroundTransparent), WithCSS("body { background: transparent; }"), WithTimeout(testTimeout))
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}
	defer conv.Close()

	res, err := conv.ConvertToImage(context.Background(), "text")
	if err != nil {
		t.Fatalf("ConvertToImage() error = %v", err)
	}

	img := decodeImage(t, res.Image)
	b := img.Bounds()
	_, _, _, alpha := img.At(b.Max.X-1, b.Max.Y-1).RGBA()
	if alpha != 0 {
		t.Errorf("corner alpha = %d, want 0", alpha)
	}
}

func TestConvertToImage_ExportFile_Integration(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "dot.png"), tinyPNG(t), 0o600); err != nil {
		t.Fatal(err)
	}

	conv, err := NewConverter(
		WithExportMode(ExportFile),
		WithWorkDir(dir),
		WithWaitUntil(WaitNetworkIdle2),
		WithTimeout(testTimeout),
	)
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}
	defer conv.Close()

	res, err := conv.Convert(context.Background(), Input{
		Markdown:  "![dot](dot.png)",
		SourceDir: src,
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	decodeImage(t, res.Image)

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("work dir has %d entries after auto-clear", len(entries))
	}
}

func TestConvertToImage_Isolated_Integration(t *testing.T) {
	t.Parallel()

	conv, err := NewConverter(WithIsolatedContext(true), WithWaitUntil(WaitDOMContentLoaded), WithTimeout(testTimeout))
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}
	defer conv.Close()

	for range 2 {
		if _, err := conv.ConvertToImage(context.Background(), "# isolated"); err != nil {
			t.Fatalf("ConvertToImage() error = %v", err)
		}
	}
}

// tinyPNG returns a 1x1 PNG.
func tinyPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
