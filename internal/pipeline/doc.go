// Package pipeline turns Markdown into the HTML page the browser captures.
//
// Stages, in order:
//   - Markdown preprocessing (BOM, line endings, ==highlight== syntax)
//   - Markdown to HTML fragment via goldmark, with syntax highlighting,
//     KaTeX math and mermaid diagram fences
//   - Content policy (script removal, URL protocol whitelist)
//   - Relative path rewriting against the source directory
//   - Page assembly from the document template, theme stylesheets and
//     user CSS
//
// Screenshots are taken by the root md2img package. This package never
// touches the browser.
package pipeline
