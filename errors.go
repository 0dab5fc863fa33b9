package md2img

import (
	"errors"

	"github.com/alnah/go-md2img/internal/pipeline"
)

// Sentinel errors for library operations.
var (
	ErrEmptyMarkdown  = errors.New("markdown content cannot be empty")
	ErrHTMLConversion = pipeline.ErrHTMLConversion
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrScreenshot     = errors.New("screenshot capture failed")
	ErrFormatMismatch = errors.New("image does not match requested format")

	// Rendering settings validation errors.
	ErrInvalidFormat        = errors.New("invalid image format")
	ErrUnsupportedFormat    = errors.New("image format not supported by browser engine")
	ErrInvalidQuality       = errors.New("invalid image quality")
	ErrInvalidWaitCondition = errors.New("invalid wait condition")
	ErrInvalidViewport      = errors.New("invalid viewport")
	ErrInvalidBackground    = errors.New("invalid background policy")
	ErrInvalidEngine        = errors.New("invalid browser engine")
	ErrInvalidExportMode    = errors.New("invalid export mode")

	// Temporary artifact errors.
	ErrArtifactWrite    = errors.New("failed to write conversion artifacts")
	ErrArtifactClear    = errors.New("failed to clear conversion artifacts")
	ErrInvalidRetention = errors.New("invalid artifact retention")
	ErrInvalidSchedule  = errors.New("invalid sweep schedule")

	// Asset loading errors.
	ErrStyleNotFound    = errors.New("style not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidAssetPath = errors.New("invalid asset path")
)
