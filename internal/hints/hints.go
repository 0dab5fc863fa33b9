// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-md2img/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// playwrightInstall is the command that downloads playwright's browsers.
const playwrightInstall = "go run github.com/playwright-community/playwright-go/cmd/playwright install chromium"

// ForBrowserConnect returns hints for browser connection errors.
// Detects CI/Docker environment and suggests relevant environment variables.
func ForBrowserConnect(engine string) string {
	var hints []string

	if engine == "playwright" {
		hints = append(hints, "install browsers with: "+playwrightInstall)
	}

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	// The sandbox is disabled by CI=true or an explicit ROD_BROWSER_BIN
	sandboxOff := os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != ""
	if (inCI || IsInContainer()) && !sandboxOff {
		hints = append(hints, "set CI=true to disable the Chrome sandbox in Docker/CI")
	}

	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN or --browser-bin to use a custom Chrome")
	}

	return formatHints(hints)
}

// ForTimeout returns a hint about increasing timeout for slow operations.
func ForTimeout() string {
	return format("for large documents or remote images, use --timeout flag")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-md2img/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, "go-md2img") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForWorkDir returns hints for artifact directory errors.
func ForWorkDir() string {
	return format("use --work-dir or MD2IMG_WORK_DIR to pick a writable directory")
}

// ForStyleNotFound returns hints for style not found errors.
func ForStyleNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// ForUnknownPreset returns hints listing the theme presets.
func ForUnknownPreset(presets []string) string {
	if len(presets) == 0 {
		return ""
	}
	return format("presets: " + strings.Join(presets, ", ") + " (run 'md2img themes')")
}

// ForUnsupportedFormat returns hints for engine/format mismatches.
func ForUnsupportedFormat() string {
	return format("playwright captures png and jpeg only; use --engine rod for webp")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
