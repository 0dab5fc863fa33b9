package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-md2img/internal/config"
)

// ErrUsage marks invalid command lines.
var ErrUsage = errors.New("invalid usage")

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// renderFlags holds the flags that override the render, theme, artifacts,
// security, browser and assets config sections.
type renderFlags struct {
	fs *flag.FlagSet // to tell explicit flags from defaults

	width      int
	height     int
	scale      float64
	format     string
	quality    int
	waitUntil  string
	background string
	timeout    time.Duration
	exportMode string
	isolate    bool

	theme     string
	css       string
	assetPath string

	workDir       string
	keepArtifacts bool
	scripts       bool
	engine        string
	browserBin    string
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common  commonFlags
	render  renderFlags
	output  string
	workers int
	html    bool
}

// textFlags holds flags for the text command.
type textFlags struct {
	common        commonFlags
	render        renderFlags
	output        string
	promptTimeout time.Duration
}

// serveFlags holds flags for the serve command.
type serveFlags struct {
	common  commonFlags
	render  renderFlags
	addr    string
	workers int
	maxBody int64
}

// watchFlags holds flags for the watch command.
type watchFlags struct {
	common   commonFlags
	render   renderFlags
	output   string
	debounce time.Duration
}

// doctorFlags holds flags for the doctor command.
type doctorFlags struct {
	common commonFlags
	json   bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs and timing")
}

// addRenderFlags adds rendering flags to a FlagSet.
func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	f.fs = fs

	fs.IntVar(&f.width, "width", 0, "viewport width in CSS pixels")
	fs.IntVar(&f.height, "height", 0, "minimum viewport height in CSS pixels")
	fs.Float64Var(&f.scale, "scale", 0, "device scale factor (0-8]")
	fs.StringVarP(&f.format, "format", "f", "", "image format: png, jpeg, webp")
	fs.IntVar(&f.quality, "quality", 0, "jpeg/webp quality (0-100, 0 = browser default)")
	fs.StringVar(&f.waitUntil, "wait-until", "", "readiness: load, domcontentloaded, networkidle0, networkidle2")
	fs.StringVar(&f.background, "background", "", "background: opaque, transparent")
	fs.DurationVarP(&f.timeout, "timeout", "t", 0, "per-conversion timeout (e.g., 30s, 2m)")
	fs.StringVar(&f.exportMode, "export-mode", "", "export mode: content, file")
	fs.BoolVar(&f.isolate, "isolate", false, "open every page in a fresh browser context")

	fs.StringVar(&f.theme, "theme", "", "theme preset (see 'md2img themes')")
	fs.StringVar(&f.css, "css", "", "extra CSS: style name, .css file or inline CSS")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")

	fs.StringVar(&f.workDir, "work-dir", "", "artifact directory for file export mode")
	fs.BoolVar(&f.keepArtifacts, "keep-artifacts", false, "keep Markdown/HTML artifacts after conversion")
	fs.BoolVar(&f.scripts, "enable-scripts", false, "keep scripts and event handlers found in the Markdown")
	fs.StringVar(&f.engine, "engine", "", "browser engine: rod, playwright")
	fs.StringVar(&f.browserBin, "browser-bin", "", "Chrome/Chromium executable")
}

// mergeRenderFlags copies explicitly set flags into cfg (CLI wins).
func mergeRenderFlags(f *renderFlags, cfg *config.Config) {
	if f == nil || f.fs == nil {
		return
	}
	changed := f.fs.Changed

	if changed("width") {
		cfg.Render.Width = f.width
	}
	if changed("height") {
		cfg.Render.Height = f.height
	}
	if changed("scale") {
		cfg.Render.DeviceScaleFactor = f.scale
	}
	if changed("format") {
		cfg.Render.Format = f.format
	}
	if changed("quality") {
		cfg.Render.Quality = f.quality
	}
	if changed("wait-until") {
		cfg.Render.WaitUntil = f.waitUntil
	}
	if changed("background") {
		cfg.Render.Background = f.background
	}
	if changed("timeout") {
		cfg.Render.Timeout = f.timeout
	}
	if changed("export-mode") {
		cfg.Render.ExportMode = f.exportMode
	}
	if changed("isolate") {
		cfg.Render.Isolate = f.isolate
	}

	// A preset on the command line replaces any custom theme from the file.
	if changed("theme") {
		cfg.Theme.Preset = f.theme
		cfg.Theme.Custom = nil
	}
	if changed("css") {
		cfg.Theme.CSS = f.css
	}
	if changed("asset-path") {
		cfg.Assets.BasePath = f.assetPath
	}

	if changed("work-dir") {
		cfg.Artifacts.Dir = f.workDir
	}
	if changed("keep-artifacts") {
		autoClear := !f.keepArtifacts
		cfg.Artifacts.AutoClear = &autoClear
	}
	if changed("enable-scripts") {
		cfg.Security.EnableScripts = f.scripts
	}
	if changed("engine") {
		cfg.Browser.Engine = f.engine
	}
	if changed("browser-bin") {
		cfg.Browser.Bin = f.browserBin
	}
}

// newFlagSet creates a FlagSet that reports errors instead of exiting.
func newFlagSet(name string, stderr io.Writer, usage func(io.Writer)) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr) }
	return fs
}

// parseFlagSet parses args, wrapping failures in ErrUsage. flag.ErrHelp is
// returned as is.
func parseFlagSet(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string, stderr io.Writer) (*convertFlags, []string, error) {
	f := &convertFlags{}
	fs := newFlagSet("convert", stderr, printConvertUsage)

	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.BoolVar(&f.html, "html", false, "also write the rendered HTML document")
	addCommonFlags(fs, &f.common)
	addRenderFlags(fs, &f.render)

	if err := parseFlagSet(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseTextFlags parses text command flags and returns positional args.
func parseTextFlags(args []string, stderr io.Writer) (*textFlags, []string, error) {
	f := &textFlags{}
	fs := newFlagSet("text", stderr, printTextUsage)

	fs.StringVarP(&f.output, "output", "o", "", "output image path (\"-\" = stdout)")
	fs.DurationVar(&f.promptTimeout, "prompt-timeout", 0, "how long to wait for input")
	addCommonFlags(fs, &f.common)
	addRenderFlags(fs, &f.render)

	if err := parseFlagSet(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseServeFlags parses serve command flags.
func parseServeFlags(args []string, stderr io.Writer) (*serveFlags, []string, error) {
	f := &serveFlags{}
	fs := newFlagSet("serve", stderr, printServeUsage)

	fs.StringVar(&f.addr, "addr", "", "listen address (default :8080)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel converters (0 = auto)")
	fs.Int64Var(&f.maxBody, "max-body", 0, "maximum request body in bytes")
	addCommonFlags(fs, &f.common)
	addRenderFlags(fs, &f.render)

	if err := parseFlagSet(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseWatchFlags parses watch command flags and returns positional args.
func parseWatchFlags(args []string, stderr io.Writer) (*watchFlags, []string, error) {
	f := &watchFlags{}
	fs := newFlagSet("watch", stderr, printWatchUsage)

	fs.StringVarP(&f.output, "output", "o", "", "output image path")
	fs.DurationVar(&f.debounce, "debounce", defaultDebounce, "delay before re-rendering after a change")
	addCommonFlags(fs, &f.common)
	addRenderFlags(fs, &f.render)

	if err := parseFlagSet(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseDoctorFlags parses doctor command flags.
func parseDoctorFlags(args []string, stderr io.Writer) (*doctorFlags, error) {
	f := &doctorFlags{}
	fs := newFlagSet("doctor", stderr, printDoctorUsage)

	fs.BoolVar(&f.json, "json", false, "output JSON")
	addCommonFlags(fs, &f.common)

	if err := parseFlagSet(fs, args); err != nil {
		return nil, err
	}
	return f, nil
}
