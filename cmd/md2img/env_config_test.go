package main

// Notes:
// - loadEnvConfig: parsing and silent rejection of malformed numbers.
// - loadConfig: precedence defaults < file < env < flags, validation errors,
//   unknown variable and unknown preset warnings.

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	md2img "github.com/alnah/go-md2img"
	"github.com/alnah/go-md2img/internal/config"
)

// ---------------------------------------------------------------------------
// TestLoadEnvConfig - Environment variable parsing
// ---------------------------------------------------------------------------

func TestLoadEnvConfig(t *testing.T) {
	t.Parallel()

	vars := map[string]string{
		"MD2IMG_THEME":      "dracula",
		"MD2IMG_FORMAT":     "jpeg",
		"MD2IMG_QUALITY":    "75",
		"MD2IMG_WIDTH":      "1024",
		"MD2IMG_TIMEOUT":    "2m",
		"MD2IMG_WORKERS":    "3",
		"MD2IMG_OUTPUT_DIR": "out",
	}
	cfg := loadEnvConfig(func(k string) string { return vars[k] })

	if cfg.Theme != "dracula" || cfg.Format != "jpeg" || cfg.OutputDir != "out" {
		t.Errorf("strings = %+v", cfg)
	}
	if cfg.Quality != 75 || cfg.Width != 1024 || cfg.Workers != 3 {
		t.Errorf("ints = quality %d width %d workers %d", cfg.Quality, cfg.Width, cfg.Workers)
	}
	if cfg.Timeout != 2*time.Minute {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
}

func TestLoadEnvConfig_Malformed(t *testing.T) {
	t.Parallel()

	vars := map[string]string{
		"MD2IMG_QUALITY": "high",
		"MD2IMG_WIDTH":   "-5",
		"MD2IMG_TIMEOUT": "-1s",
		"MD2IMG_WORKERS": "many",
	}
	cfg := loadEnvConfig(func(k string) string { return vars[k] })

	if cfg.Quality != 0 || cfg.Width != 0 || cfg.Workers != 0 || cfg.Timeout != 0 {
		t.Errorf("malformed values should be ignored: %+v", cfg)
	}
}

func TestWarnUnknownEnvVars(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	warnUnknownEnvVars(&buf, []string{"MD2IMG_FORMAT=png", "MD2IMG_FROMAT=png", "HOME=/root"})

	if !strings.Contains(buf.String(), "MD2IMG_FROMAT") {
		t.Errorf("typo not reported: %q", buf.String())
	}
	if strings.Contains(buf.String(), "MD2IMG_FORMAT ") || strings.Contains(buf.String(), "HOME") {
		t.Errorf("known variables reported: %q", buf.String())
	}
}

// ---------------------------------------------------------------------------
// TestLoadConfig - Precedence and validation
// ---------------------------------------------------------------------------

func TestLoadConfig_Precedence(t *testing.T) {
	t.Parallel()

	dir := setupTestDir(t, map[string]string{
		"md2img.yaml": "render:\n  format: jpeg\n  width: 900\n  quality: 60\n",
	})
	te := newTestEnv(map[string]string{
		"MD2IMG_CONFIG":  filepath.Join(dir, "md2img.yaml"),
		"MD2IMG_QUALITY": "70",
		"MD2IMG_WIDTH":   "1000",
	})

	f, _, err := parseConvertFlags([]string{"--width", "1100", "doc.md"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}

	cfg, _, err := loadConfig(f.common, &f.render, te.Environment)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Render.Format != "jpeg" {
		t.Errorf("Format = %q, want jpeg from file", cfg.Render.Format)
	}
	if cfg.Render.Quality != 70 {
		t.Errorf("Quality = %d, want 70 from env", cfg.Render.Quality)
	}
	if cfg.Render.Width != 1100 {
		t.Errorf("Width = %d, want 1100 from flag", cfg.Render.Width)
	}
	if cfg.Render.Timeout != config.DefaultTimeout {
		t.Errorf("Timeout = %v, want default", cfg.Render.Timeout)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		vars    map[string]string
		args    []string
		wantErr error
		hint    string
	}{
		{
			name:    "missing named config",
			vars:    map[string]string{"MD2IMG_CONFIG": "definitely-missing-md2img-config"},
			wantErr: config.ErrConfigNotFound,
			hint:    "hint:",
		},
		{
			name:    "invalid format flag",
			args:    []string{"-f", "bmp"},
			wantErr: md2img.ErrInvalidFormat,
		},
		{
			name:    "playwright cannot encode webp",
			vars:    map[string]string{"MD2IMG_ENGINE": "playwright", "MD2IMG_FORMAT": "webp"},
			wantErr: md2img.ErrUnsupportedFormat,
			hint:    "--engine rod",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			te := newTestEnv(tt.vars)
			f, _, err := parseConvertFlags(tt.args, io.Discard)
			if err != nil {
				t.Fatal(err)
			}
			_, _, err = loadConfig(f.common, &f.render, te.Environment)
			if err == nil {
				t.Fatal("loadConfig() should fail")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if exitCodeFor(err) != ExitUsage {
				t.Errorf("exit code = %d, want %d", exitCodeFor(err), ExitUsage)
			}
			if tt.hint != "" && !strings.Contains(err.Error(), tt.hint) {
				t.Errorf("error %q should carry a hint", err)
			}
		})
	}
}

func TestLoadConfig_Warnings(t *testing.T) {
	t.Parallel()

	vars := map[string]string{"MD2IMG_THEME": "no-such-theme", "MD2IMG_TYPO": "1"}

	te := newTestEnv(vars)
	if _, _, err := loadConfig(commonFlags{}, nil, te.Environment); err != nil {
		t.Fatalf("unknown preset should not fail: %v", err)
	}
	out := te.stderr.String()
	if !strings.Contains(out, `unknown theme preset "no-such-theme"`) {
		t.Errorf("preset warning missing: %q", out)
	}
	if !strings.Contains(out, "MD2IMG_TYPO") {
		t.Errorf("env warning missing: %q", out)
	}

	quiet := newTestEnv(vars)
	if _, _, err := loadConfig(commonFlags{quiet: true}, nil, quiet.Environment); err != nil {
		t.Fatal(err)
	}
	if quiet.stderr.Len() != 0 {
		t.Errorf("quiet mode should not warn: %q", quiet.stderr.String())
	}
}

func TestNewLogger_Levels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	newLogger(&buf, commonFlags{quiet: true}).Warn("hidden")
	newLogger(&buf, commonFlags{verbose: true}).Debug("shown")
	newLogger(&buf, commonFlags{}).Debug("hidden too")

	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("unexpected records: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("verbose debug missing: %q", buf.String())
	}
}
