package main

import (
	"errors"
	"os"

	md2img "github.com/alnah/go-md2img"
	"github.com/alnah/go-md2img/internal/config"
)

// Exit codes for md2img CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful conversion
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitBrowser = 4 // Browser/Chrome errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, md2img.ErrBrowserConnect) ||
		errors.Is(err, md2img.ErrPageCreate) ||
		errors.Is(err, md2img.ErrPageLoad) ||
		errors.Is(err, md2img.ErrScreenshot) ||
		errors.Is(err, md2img.ErrFormatMismatch) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadMarkdown) ||
		errors.Is(err, ErrWriteImage) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, md2img.ErrArtifactWrite) ||
		errors.Is(err, md2img.ErrArtifactClear) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrThemeConflict) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, md2img.ErrEmptyMarkdown) ||
		errors.Is(err, md2img.ErrInvalidFormat) ||
		errors.Is(err, md2img.ErrUnsupportedFormat) ||
		errors.Is(err, md2img.ErrInvalidQuality) ||
		errors.Is(err, md2img.ErrInvalidWaitCondition) ||
		errors.Is(err, md2img.ErrInvalidViewport) ||
		errors.Is(err, md2img.ErrInvalidBackground) ||
		errors.Is(err, md2img.ErrInvalidEngine) ||
		errors.Is(err, md2img.ErrInvalidExportMode) ||
		errors.Is(err, md2img.ErrInvalidRetention) ||
		errors.Is(err, md2img.ErrInvalidSchedule) ||
		errors.Is(err, md2img.ErrStyleNotFound) ||
		errors.Is(err, md2img.ErrTemplateNotFound) ||
		errors.Is(err, md2img.ErrInvalidAssetPath) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidWorkerCount) {
		return ExitUsage
	}

	return ExitGeneral
}
