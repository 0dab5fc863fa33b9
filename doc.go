// Package md2img converts Markdown to an image by rendering it to HTML and
// screenshotting the page in a headless browser.
//
// # Quick Start
//
// Create a converter, convert markdown, and close when done:
//
//	conv, err := md2img.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	result, err := conv.ConvertToImage(ctx, "# Hello\n\nWorld")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("hello."+result.Format.Extension(), result.Image, 0644)
//
// The result holds the encoded image, its MIME type and the HTML document
// that was loaded in the browser. Use Input.HTMLOnly with Convert to build
// the document without a browser.
//
// # Conversion Pipeline
//
//  1. Markdown preprocessing (line normalization, ==highlight== syntax)
//  2. Markdown to HTML via Goldmark (GFM, chroma highlighting, KaTeX math,
//     mermaid diagrams)
//  3. Content policy (scripts removed, URL schemes whitelisted)
//  4. Page assembly with the resolved theme and user CSS
//  5. Full-page screenshot (go-rod by default, playwright-go optionally)
//  6. Magic header check of the encoded image
//
// # Configuration
//
//	conv, err := md2img.NewConverter(
//	    md2img.WithTheme(md2img.PresetTheme("dracula")),
//	    md2img.WithFormat(md2img.FormatJPEG),
//	    md2img.WithQuality(85),
//	    md2img.WithViewport(md2img.Viewport{Width: 1200, Height: 100, DeviceScaleFactor: 2}),
//	    md2img.WithWaitUntil(md2img.WaitNetworkIdle0),
//	)
//
// Themes are resolved once, when the converter is built. An unknown preset
// name falls back to the default theme.
//
// # Export Modes
//
// ExportContent (default) injects the document into a blank page.
// ExportFile writes <stamp>_<suffix>.md and .html into a fresh directory
// under the work directory and navigates to the HTML file, which lets the
// page load local images. Directories are removed after a successful
// conversion unless WithAutoClear(false) is set; WithArtifactRetention
// removes old ones on a schedule.
//
// # Parallel Processing
//
// A Converter serializes browser startup but is meant for one conversion at
// a time. Use ConverterPool for concurrent work:
//
//	pool := md2img.NewConverterPool(md2img.ResolvePoolSize(0))
//	defer pool.Close()
//
//	conv, err := pool.Acquire(ctx)
//	if err != nil {
//	    return err
//	}
//	defer pool.Release(conv)
//	result, err := conv.ConvertToImage(ctx, markdown)
//
// # Browser Requirements
//
// Screenshots require Chrome/Chromium. The go-rod engine downloads a managed
// Chromium on first run (~/.cache/rod/browser/). The playwright engine needs
// its driver installed.
//
// Use ROD_BROWSER_BIN to point at a pre-installed browser. The sandbox is
// disabled when ROD_BROWSER_BIN is set or CI=true.
package md2img
