package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	md2img "github.com/alnah/go-md2img"
	"github.com/alnah/go-md2img/internal/config"
	"github.com/alnah/go-md2img/internal/hints"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD and container friendly overrides without YAML files.
type envConfig struct {
	ConfigPath string        // MD2IMG_CONFIG: config file name or path
	Theme      string        // MD2IMG_THEME: theme preset
	CSS        string        // MD2IMG_CSS: style name, path or inline CSS
	Format     string        // MD2IMG_FORMAT: png, jpeg, webp
	Quality    int           // MD2IMG_QUALITY: lossy quality
	Width      int           // MD2IMG_WIDTH: viewport width
	Timeout    time.Duration // MD2IMG_TIMEOUT: per-conversion timeout
	WaitUntil  string        // MD2IMG_WAIT_UNTIL: readiness condition
	ExportMode string        // MD2IMG_EXPORT_MODE: content, file
	WorkDir    string        // MD2IMG_WORK_DIR: artifact directory
	Engine     string        // MD2IMG_ENGINE: rod, playwright
	BrowserBin string        // MD2IMG_BROWSER_BIN: Chrome executable
	Addr       string        // MD2IMG_ADDR: serve listen address
	OutputDir  string        // MD2IMG_OUTPUT_DIR: default convert output directory
	Workers    int           // MD2IMG_WORKERS: parallel workers
}

// knownEnvVars lists valid MD2IMG_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"MD2IMG_CONFIG":      true,
	"MD2IMG_THEME":       true,
	"MD2IMG_CSS":         true,
	"MD2IMG_FORMAT":      true,
	"MD2IMG_QUALITY":     true,
	"MD2IMG_WIDTH":       true,
	"MD2IMG_TIMEOUT":     true,
	"MD2IMG_WAIT_UNTIL":  true,
	"MD2IMG_EXPORT_MODE": true,
	"MD2IMG_WORK_DIR":    true,
	"MD2IMG_ENGINE":      true,
	"MD2IMG_BROWSER_BIN": true,
	"MD2IMG_ADDR":        true,
	"MD2IMG_OUTPUT_DIR":  true,
	"MD2IMG_WORKERS":     true,
}

// loadEnvConfig reads configuration from environment variables.
// Malformed numbers and durations are ignored.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath: getenv("MD2IMG_CONFIG"),
		Theme:      getenv("MD2IMG_THEME"),
		CSS:        getenv("MD2IMG_CSS"),
		Format:     getenv("MD2IMG_FORMAT"),
		WaitUntil:  getenv("MD2IMG_WAIT_UNTIL"),
		ExportMode: getenv("MD2IMG_EXPORT_MODE"),
		WorkDir:    getenv("MD2IMG_WORK_DIR"),
		Engine:     getenv("MD2IMG_ENGINE"),
		BrowserBin: getenv("MD2IMG_BROWSER_BIN"),
		Addr:       getenv("MD2IMG_ADDR"),
		OutputDir:  getenv("MD2IMG_OUTPUT_DIR"),
	}

	if timeout := getenv("MD2IMG_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	cfg.Quality = positiveInt(getenv("MD2IMG_QUALITY"))
	cfg.Width = positiveInt(getenv("MD2IMG_WIDTH"))
	cfg.Workers = positiveInt(getenv("MD2IMG_WORKERS"))

	return cfg
}

func positiveInt(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// warnUnknownEnvVars logs warnings for unrecognized MD2IMG_* variables.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, env := range environ {
		if strings.HasPrefix(env, "MD2IMG_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values over the config file.
// Precedence: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeRenderFlags)
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Theme != "" {
		cfg.Theme.Preset = env.Theme
		cfg.Theme.Custom = nil
	}
	if env.CSS != "" {
		cfg.Theme.CSS = env.CSS
	}
	if env.Format != "" {
		cfg.Render.Format = env.Format
	}
	if env.Quality > 0 {
		cfg.Render.Quality = env.Quality
	}
	if env.Width > 0 {
		cfg.Render.Width = env.Width
	}
	if env.Timeout > 0 {
		cfg.Render.Timeout = env.Timeout
	}
	if env.WaitUntil != "" {
		cfg.Render.WaitUntil = env.WaitUntil
	}
	if env.ExportMode != "" {
		cfg.Render.ExportMode = env.ExportMode
	}
	if env.WorkDir != "" {
		cfg.Artifacts.Dir = env.WorkDir
	}
	if env.Engine != "" {
		cfg.Browser.Engine = env.Engine
	}
	if env.BrowserBin != "" {
		cfg.Browser.Bin = env.BrowserBin
	}
	if env.Addr != "" {
		cfg.Server.Addr = env.Addr
	}
}

// loadConfig builds the effective configuration for a command:
// defaults < config file < MD2IMG_* env < CLI flags.
func loadConfig(common commonFlags, render *renderFlags, env *Environment) (*config.Config, *envConfig, error) {
	envCfg := loadEnvConfig(env.Getenv)
	if !common.quiet {
		warnUnknownEnvVars(env.Stderr, env.Environ())
	}

	name := common.config
	if name == "" {
		name = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			return nil, nil, fmt.Errorf("loading config: %w%s", err, configHint(name, err))
		}
		cfg = loaded
	}

	applyEnvConfig(envCfg, cfg)
	mergeRenderFlags(render, cfg)
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w%s", err, hintFor(err, cfg))
	}

	if preset := cfg.Theme.Preset; preset != "" && !common.quiet {
		if _, ok := md2img.LookupPreset(preset); !ok {
			fmt.Fprintf(env.Stderr, "warning: unknown theme preset %q, using %s%s\n",
				preset, md2img.DefaultPresetName, hints.ForUnknownPreset(md2img.PresetNames()))
		}
	}
	return cfg, envCfg, nil
}

// configHint suggests where to create a config that was looked up by name.
func configHint(name string, err error) string {
	if !errors.Is(err, config.ErrConfigNotFound) || strings.ContainsAny(name, "/\\") {
		return ""
	}
	return hints.ForConfigNotFound(config.SearchPaths(name))
}

// newLogger builds the CLI logger: text on stderr, debug with --verbose,
// errors only with --quiet.
func newLogger(w io.Writer, common commonFlags) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case common.verbose:
		level = slog.LevelDebug
	case common.quiet:
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
