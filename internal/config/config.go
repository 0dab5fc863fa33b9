package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	md2img "github.com/alnah/go-md2img"
	"github.com/alnah/go-md2img/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrThemeConflict   = errors.New("theme.preset and theme.custom are mutually exclusive")
	ErrInvalidValue    = errors.New("invalid config value")
)

// AppName names the per-user config directory.
const AppName = "go-md2img"

// Field length limits.
const (
	MaxPresetLength   = 50
	MaxThemeLength    = 50   // page mode, code style, diagram theme
	MaxCSSLength      = 4096 // style name, file path or inline CSS
	MaxPathLength     = 4096
	MaxProtocolLength = 32
	MaxScheduleLength = 100
	MaxAddrLength     = 255
)

// Defaults applied to fields the file leaves empty.
const (
	DefaultFormat        = "png"
	DefaultWaitUntil     = "load"
	DefaultBackground    = "opaque"
	DefaultExportMode    = "content"
	DefaultEngine        = "rod"
	DefaultTimeout       = 30 * time.Second
	DefaultPromptTimeout = 60 * time.Second
	DefaultSweepSchedule = "@every 1h"
	DefaultAddr          = ":8080"
	DefaultMaxBodyBytes  = 1 << 20
)

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// Config holds all configuration for the application.
type Config struct {
	Render    RenderConfig    `yaml:"render"`
	Theme     ThemeConfig     `yaml:"theme"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Security  SecurityConfig  `yaml:"security"`
	Browser   BrowserConfig   `yaml:"browser"`
	Prompt    PromptConfig    `yaml:"prompt"`
	Server    ServerConfig    `yaml:"server"`
	Assets    AssetsConfig    `yaml:"assets"`
}

// RenderConfig controls the viewport and the captured image.
type RenderConfig struct {
	Width             int           `yaml:"width"`
	Height            int           `yaml:"height"`
	DeviceScaleFactor float64       `yaml:"deviceScaleFactor"`
	Format            string        `yaml:"format"`
	Quality           int           `yaml:"quality"`
	WaitUntil         string        `yaml:"waitUntil"`
	Background        string        `yaml:"background"`
	Timeout           time.Duration `yaml:"timeout"`
	ExportMode        string        `yaml:"exportMode"`
	Isolate           bool          `yaml:"isolate"`
}

// ThemeConfig selects a preset or a custom theme, never both.
type ThemeConfig struct {
	Preset string       `yaml:"preset"`
	Custom *CustomTheme `yaml:"custom"`
	CSS    string       `yaml:"css"` // style name, file path or inline CSS
}

// CustomTheme is a page/code/diagram triple.
type CustomTheme struct {
	Page    string `yaml:"page"`
	Code    string `yaml:"code"`
	Diagram string `yaml:"diagram"`
}

// ArtifactsConfig controls the working directory for file exports.
type ArtifactsConfig struct {
	Dir           string        `yaml:"dir"`
	AutoClear     *bool         `yaml:"autoClear"` // nil means enabled
	Retention     time.Duration `yaml:"retention"`
	SweepSchedule string        `yaml:"sweepSchedule"`
}

// AutoClearEnabled reports whether request artifacts are removed after use.
func (a ArtifactsConfig) AutoClearEnabled() bool {
	return a.AutoClear == nil || *a.AutoClear
}

// SecurityConfig controls what the rendered document may contain.
type SecurityConfig struct {
	EnableScripts    bool     `yaml:"enableScripts"`
	AllowedProtocols []string `yaml:"allowedProtocols"`
}

// BrowserConfig selects the automation binding and binary.
type BrowserConfig struct {
	Engine string `yaml:"engine"`
	Bin    string `yaml:"bin"`
}

// PromptConfig controls the interactive text command.
type PromptConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	Addr         string `yaml:"addr"`
	MaxBodyBytes int64  `yaml:"maxBodyBytes"`
}

// AssetsConfig configures custom asset loading.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded assets
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills empty fields with their default values.
func (c *Config) ApplyDefaults() {
	r := &c.Render
	if r.Width == 0 {
		r.Width = md2img.DefaultViewportWidth
	}
	if r.Height == 0 {
		r.Height = md2img.DefaultViewportHeight
	}
	if r.DeviceScaleFactor == 0 {
		r.DeviceScaleFactor = md2img.DefaultScaleFactor
	}
	r.Format = orDefault(r.Format, DefaultFormat)
	r.WaitUntil = orDefault(r.WaitUntil, DefaultWaitUntil)
	r.Background = orDefault(r.Background, DefaultBackground)
	r.ExportMode = orDefault(r.ExportMode, DefaultExportMode)
	if r.Timeout == 0 {
		r.Timeout = DefaultTimeout
	}

	if c.Artifacts.Retention > 0 {
		c.Artifacts.SweepSchedule = orDefault(c.Artifacts.SweepSchedule, DefaultSweepSchedule)
	}
	c.Browser.Engine = orDefault(c.Browser.Engine, DefaultEngine)
	if c.Prompt.Timeout == 0 {
		c.Prompt.Timeout = DefaultPromptTimeout
	}
	c.Server.Addr = orDefault(c.Server.Addr, DefaultAddr)
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
}

func orDefault(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}

// Validate checks enumerations, ranges and field lengths.
func (c *Config) Validate() error {
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateTheme(); err != nil {
		return err
	}

	if c.Artifacts.Retention < 0 {
		return fmt.Errorf("%w: artifacts.retention %s (must not be negative)", ErrInvalidValue, c.Artifacts.Retention)
	}
	if err := validateFieldLength("artifacts.dir", c.Artifacts.Dir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("artifacts.sweepSchedule", c.Artifacts.SweepSchedule, MaxScheduleLength); err != nil {
		return err
	}

	for _, p := range c.Security.AllowedProtocols {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: security.allowedProtocols contains an empty entry", ErrInvalidValue)
		}
		if err := validateFieldLength("security.allowedProtocols", p, MaxProtocolLength); err != nil {
			return err
		}
	}

	engine := md2img.Engine(strings.ToLower(c.Browser.Engine))
	if err := engine.Validate(); err != nil {
		return err
	}
	if engine == md2img.EnginePlaywright && strings.EqualFold(c.Render.Format, "webp") {
		return fmt.Errorf("%w: webp with playwright", md2img.ErrUnsupportedFormat)
	}
	if err := validateFieldLength("browser.bin", c.Browser.Bin, MaxPathLength); err != nil {
		return err
	}

	if c.Prompt.Timeout <= 0 {
		return fmt.Errorf("%w: prompt.timeout %s (must be positive)", ErrInvalidValue, c.Prompt.Timeout)
	}

	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("%w: server.addr is empty", ErrInvalidValue)
	}
	if err := validateFieldLength("server.addr", c.Server.Addr, MaxAddrLength); err != nil {
		return err
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: server.maxBodyBytes %d (must be positive)", ErrInvalidValue, c.Server.MaxBodyBytes)
	}

	return validateFieldLength("assets.basePath", c.Assets.BasePath, MaxPathLength)
}

func (c *Config) validateRender() error {
	r := c.Render
	viewport := md2img.Viewport{Width: r.Width, Height: r.Height, DeviceScaleFactor: r.DeviceScaleFactor}
	if err := viewport.Validate(); err != nil {
		return err
	}
	if _, err := md2img.ParseImageFormat(r.Format); err != nil {
		return err
	}
	if r.Quality < 0 || r.Quality > md2img.MaxQuality {
		return fmt.Errorf("%w: %d (must be between 0 and %d)", md2img.ErrInvalidQuality, r.Quality, md2img.MaxQuality)
	}
	if err := md2img.WaitCondition(strings.ToLower(r.WaitUntil)).Validate(); err != nil {
		return err
	}
	if err := md2img.Background(strings.ToLower(r.Background)).Validate(); err != nil {
		return err
	}
	if err := md2img.ExportMode(strings.ToLower(r.ExportMode)).Validate(); err != nil {
		return err
	}
	if r.Timeout <= 0 {
		return fmt.Errorf("%w: render.timeout %s (must be positive)", ErrInvalidValue, r.Timeout)
	}
	return nil
}

func (c *Config) validateTheme() error {
	t := c.Theme
	if strings.TrimSpace(t.Preset) != "" && t.Custom != nil {
		return ErrThemeConflict
	}
	if err := validateFieldLength("theme.preset", t.Preset, MaxPresetLength); err != nil {
		return err
	}
	if err := validateFieldLength("theme.css", t.CSS, MaxCSSLength); err != nil {
		return err
	}
	if t.Custom == nil {
		return nil
	}

	switch strings.ToLower(strings.TrimSpace(t.Custom.Page)) {
	case "", "light", "dark":
	default:
		return fmt.Errorf("%w: theme.custom.page %q (must be light or dark)", ErrInvalidValue, t.Custom.Page)
	}
	switch strings.ToLower(strings.TrimSpace(t.Custom.Diagram)) {
	case "", "default", "dark", "forest", "neutral":
	default:
		return fmt.Errorf("%w: theme.custom.diagram %q (must be default, dark, forest, or neutral)", ErrInvalidValue, t.Custom.Diagram)
	}
	return validateFieldLength("theme.custom.code", t.Custom.Code, MaxThemeLength)
}

// ThemeSelection converts the theme section into a converter selection.
func (c *Config) ThemeSelection() md2img.ThemeSelection {
	if c.Theme.Custom != nil {
		return md2img.CustomTheme(md2img.Theme{
			Page:    c.Theme.Custom.Page,
			Code:    c.Theme.Custom.Code,
			Diagram: c.Theme.Custom.Diagram,
		})
	}
	return md2img.PresetTheme(c.Theme.Preset)
}

// Options converts the configuration into converter options.
// The config must have passed Validate.
func (c *Config) Options() []md2img.Option {
	format, _ := md2img.ParseImageFormat(c.Render.Format)

	opts := []md2img.Option{
		md2img.WithViewport(md2img.Viewport{
			Width:             c.Render.Width,
			Height:            c.Render.Height,
			DeviceScaleFactor: c.Render.DeviceScaleFactor,
		}),
		md2img.WithFormat(format),
		md2img.WithQuality(c.Render.Quality),
		md2img.WithWaitUntil(md2img.WaitCondition(strings.ToLower(c.Render.WaitUntil))),
		md2img.WithBackground(md2img.Background(strings.ToLower(c.Render.Background))),
		md2img.WithExportMode(md2img.ExportMode(strings.ToLower(c.Render.ExportMode))),
		md2img.WithTimeout(c.Render.Timeout),
		md2img.WithIsolatedContext(c.Render.Isolate),
		md2img.WithTheme(c.ThemeSelection()),
		md2img.WithWorkDir(c.Artifacts.Dir),
		md2img.WithAutoClear(c.Artifacts.AutoClearEnabled()),
		md2img.WithScriptExecution(c.Security.EnableScripts),
		md2img.WithEngine(md2img.Engine(strings.ToLower(c.Browser.Engine))),
		md2img.WithBrowserBin(c.Browser.Bin),
	}
	if len(c.Security.AllowedProtocols) > 0 {
		opts = append(opts, md2img.WithAllowedProtocols(c.Security.AllowedProtocols...))
	}
	if c.Theme.CSS != "" {
		opts = append(opts, md2img.WithCSS(c.Theme.CSS))
	}
	if c.Assets.BasePath != "" {
		opts = append(opts, md2img.WithAssetPath(c.Assets.BasePath))
	}
	if c.Artifacts.Retention > 0 {
		opts = append(opts, md2img.WithArtifactRetention(c.Artifacts.Retention, c.Artifacts.SweepSchedule))
	}
	return opts
}

// Dump renders the configuration as YAML.
func (c *Config) Dump() ([]byte, error) {
	return yamlutil.Encode(c)
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
// Empty fields receive their defaults before validation.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.DecodeStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// SearchPaths lists the locations tried for a config name, in order.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, AppName, name+ext))
		}
	}
	return paths
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries the current directory first, then ~/.config/go-md2img/.
func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
