package md2img

import (
	"fmt"
	"strings"
	"time"
)

// ImageFormat is the encoding of the captured screenshot.
type ImageFormat string

// Supported image formats.
const (
	FormatPNG  ImageFormat = "png"
	FormatJPEG ImageFormat = "jpeg"
	FormatWebP ImageFormat = "webp"
)

// ParseImageFormat maps a user-supplied name (case-insensitive, "jpg"
// accepted) to an ImageFormat.
func ParseImageFormat(s string) (ImageFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "webp":
		return FormatWebP, nil
	}
	return "", fmt.Errorf("%w: %q (must be png, jpeg, or webp)", ErrInvalidFormat, s)
}

// MIMEType returns the media type of images in this format.
func (f ImageFormat) MIMEType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatWebP:
		return "image/webp"
	default:
		return "image/png"
	}
}

// Extension returns the file extension, without the dot.
func (f ImageFormat) Extension() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return string(f)
}

// Validate checks that f is a supported format.
func (f ImageFormat) Validate() error {
	switch f {
	case FormatPNG, FormatJPEG, FormatWebP:
		return nil
	}
	return fmt.Errorf("%w: %q (must be png, jpeg, or webp)", ErrInvalidFormat, string(f))
}

// lossy reports whether the format takes a quality setting.
func (f ImageFormat) lossy() bool {
	return f == FormatJPEG || f == FormatWebP
}

// WaitCondition decides when a loaded page is ready to capture.
type WaitCondition string

// Readiness conditions.
const (
	WaitLoad             WaitCondition = "load"
	WaitDOMContentLoaded WaitCondition = "domcontentloaded"
	WaitNetworkIdle0     WaitCondition = "networkidle0"
	WaitNetworkIdle2     WaitCondition = "networkidle2"
)

// Quiet periods used to approximate the network-idle conditions. networkidle0
// requires a longer silence than networkidle2.
const (
	networkIdle0Quiet = 500 * time.Millisecond
	networkIdle2Quiet = 250 * time.Millisecond
)

// Validate checks that w is a known condition.
func (w WaitCondition) Validate() error {
	switch w {
	case WaitLoad, WaitDOMContentLoaded, WaitNetworkIdle0, WaitNetworkIdle2:
		return nil
	}
	return fmt.Errorf("%w: %q (must be load, domcontentloaded, networkidle0, or networkidle2)", ErrInvalidWaitCondition, string(w))
}

// Viewport bounds.
const (
	MinViewportSize       = 1
	MaxViewportSize       = 16384
	MaxDeviceScaleFactor  = 8.0
	DefaultViewportWidth  = 800
	DefaultViewportHeight = 100
	DefaultScaleFactor    = 2.0
)

// Viewport is the browser window used for layout. The screenshot covers the
// full page, so Height only sets the minimum image height.
type Viewport struct {
	Width             int
	Height            int
	DeviceScaleFactor float64
}

// DefaultViewport returns the viewport used when none is configured.
func DefaultViewport() Viewport {
	return Viewport{
		Width:             DefaultViewportWidth,
		Height:            DefaultViewportHeight,
		DeviceScaleFactor: DefaultScaleFactor,
	}
}

// Validate checks dimensions and scale factor.
func (v Viewport) Validate() error {
	if v.Width < MinViewportSize || v.Width > MaxViewportSize {
		return fmt.Errorf("%w: width %d (must be between %d and %d)", ErrInvalidViewport, v.Width, MinViewportSize, MaxViewportSize)
	}
	if v.Height < MinViewportSize || v.Height > MaxViewportSize {
		return fmt.Errorf("%w: height %d (must be between %d and %d)", ErrInvalidViewport, v.Height, MinViewportSize, MaxViewportSize)
	}
	if v.DeviceScaleFactor <= 0 || v.DeviceScaleFactor > MaxDeviceScaleFactor {
		return fmt.Errorf("%w: device scale factor %.2f (must be > 0 and <= %.0f)", ErrInvalidViewport, v.DeviceScaleFactor, MaxDeviceScaleFactor)
	}
	return nil
}

// Background selects how the page background is composited.
type Background string

// Background policies.
const (
	// BackgroundOpaque keeps the theme background in the image.
	BackgroundOpaque Background = "opaque"
	// BackgroundTransparent drops the default white page background.
	BackgroundTransparent Background = "transparent"
)

// Validate checks that b is a known policy.
func (b Background) Validate() error {
	switch b {
	case BackgroundOpaque, BackgroundTransparent:
		return nil
	}
	return fmt.Errorf("%w: %q (must be opaque or transparent)", ErrInvalidBackground, string(b))
}

// ExportMode selects how the document reaches the browser.
type ExportMode string

// Export modes.
const (
	// ExportContent injects the document into a blank page.
	ExportContent ExportMode = "content"
	// ExportFile writes Markdown and HTML artifacts to the work directory and
	// navigates to the HTML file.
	ExportFile ExportMode = "file"
)

// Validate checks that m is a known mode.
func (m ExportMode) Validate() error {
	switch m {
	case ExportContent, ExportFile:
		return nil
	}
	return fmt.Errorf("%w: %q (must be content or file)", ErrInvalidExportMode, string(m))
}

// Engine names a browser automation binding.
type Engine string

// Browser engines.
const (
	EngineRod        Engine = "rod"
	EnginePlaywright Engine = "playwright"
)

// Validate checks that e is a known engine.
func (e Engine) Validate() error {
	switch e {
	case EngineRod, EnginePlaywright:
		return nil
	}
	return fmt.Errorf("%w: %q (must be rod or playwright)", ErrInvalidEngine, string(e))
}

// Input contains conversion parameters.
type Input struct {
	Markdown  string // Markdown content (required)
	SourceDir string // directory relative links resolve against (optional)
	HTMLOnly  bool   // build the document without starting the browser
}

// Result holds the output of a conversion.
type Result struct {
	Image    []byte      // encoded screenshot
	MIMEType string      // media type of Image
	Format   ImageFormat // encoding of Image
	HTML     []byte      // document loaded in the browser
}
