package assets

import (
	"errors"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestAssetResolver - Custom-first lookup with embedded fallback
// ---------------------------------------------------------------------------

func TestAssetResolver_EmbeddedOnly(t *testing.T) {
	t.Parallel()

	resolver, err := NewAssetResolver("")
	if err != nil {
		t.Fatalf("NewAssetResolver() error = %v", err)
	}
	if resolver.HasCustomLoader() {
		t.Error("HasCustomLoader() = true, want false")
	}
	if _, err := resolver.LoadTemplate(DocumentTemplateName); err != nil {
		t.Errorf("LoadTemplate() error = %v", err)
	}
}

func TestAssetResolver_CustomOverridesAndFallsBack(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeAsset(t, dir, "styles", "layout.css", ".custom{}")

	resolver, err := NewAssetResolver(dir)
	if err != nil {
		t.Fatalf("NewAssetResolver() error = %v", err)
	}
	if !resolver.HasCustomLoader() {
		t.Fatal("HasCustomLoader() = false, want true")
	}

	css, err := resolver.LoadStyle(LayoutStyleName)
	if err != nil || css != ".custom{}" {
		t.Errorf("LoadStyle(layout) = %q, %v; want custom override", css, err)
	}

	tmpl, err := resolver.LoadTemplate(DocumentTemplateName)
	if err != nil {
		t.Fatalf("LoadTemplate() error = %v", err)
	}
	if !strings.Contains(tmpl, "markdown-body") {
		t.Error("LoadTemplate() should fall back to the embedded document")
	}
}

func TestAssetResolver_ValidationErrorsNotFallenBack(t *testing.T) {
	t.Parallel()

	resolver, err := NewAssetResolver(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := resolver.LoadStyle("../secret"); !errors.Is(err, ErrInvalidAssetName) {
		t.Errorf("LoadStyle() error = %v, want ErrInvalidAssetName", err)
	}
}

func TestNewAssetResolver_InvalidPath(t *testing.T) {
	t.Parallel()

	_, err := NewAssetResolver("/nonexistent/md2img/assets")
	if !errors.Is(err, ErrInvalidBasePath) {
		t.Errorf("NewAssetResolver() error = %v, want ErrInvalidBasePath", err)
	}
}
