package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2img <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert    Convert markdown files to images")
	fmt.Fprintln(w, "  text       Convert markdown text (argument or stdin) to an image")
	fmt.Fprintln(w, "  serve      Serve conversions over HTTP")
	fmt.Fprintln(w, "  watch      Re-render a markdown file on every change")
	fmt.Fprintln(w, "  themes     List theme presets and embedded styles")
	fmt.Fprintln(w, "  doctor     Check browser and environment")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'md2img help <command>' for details on a specific command.")
}

// printRenderUsage prints the flags shared by every rendering command.
func printRenderUsage(w io.Writer) {
	fmt.Fprintln(w, "Render:")
	fmt.Fprintln(w, "      --width <n>           Viewport width in CSS pixels")
	fmt.Fprintln(w, "      --height <n>          Viewport height in CSS pixels")
	fmt.Fprintln(w, "      --scale <f>           Device scale factor")
	fmt.Fprintln(w, "  -f, --format <s>          Image format: png, jpeg, webp")
	fmt.Fprintln(w, "      --quality <n>         Quality for jpeg/webp (0-100)")
	fmt.Fprintln(w, "      --wait-until <s>      load, domcontentloaded, networkidle0, networkidle2")
	fmt.Fprintln(w, "      --background <s>      Background: opaque, transparent")
	fmt.Fprintln(w, "  -t, --timeout <d>         Conversion timeout (e.g. 30s, 1m)")
	fmt.Fprintln(w, "      --export-mode <s>     Export mode: content, file")
	fmt.Fprintln(w, "      --isolate             Use a fresh browser context per conversion")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Styling:")
	fmt.Fprintln(w, "      --theme <s>           Theme preset (see 'md2img themes')")
	fmt.Fprintln(w, "      --css <path>          Extra CSS file or embedded style name")
	fmt.Fprintln(w, "      --asset-path <dir>    Directory overriding embedded styles/templates")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Artifacts:")
	fmt.Fprintln(w, "      --work-dir <dir>      Directory for intermediate HTML files")
	fmt.Fprintln(w, "      --keep-artifacts      Keep intermediate files after success")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Browser:")
	fmt.Fprintln(w, "      --engine <s>          Browser engine: rod, playwright")
	fmt.Fprintln(w, "      --browser-bin <path>  Chrome/Chromium executable")
	fmt.Fprintln(w, "      --enable-scripts      Keep <script> tags from the markdown")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

func printCommonUsage(w io.Writer) {
	fmt.Fprintln(w, "Common:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2img convert <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert markdown files to images.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    Markdown file or directory")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file or directory")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w, "      --html                Also write the generated HTML")
	fmt.Fprintln(w)
	printRenderUsage(w)
}

// printTextUsage prints usage for the text command.
func printTextUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2img text [markdown...] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert markdown text to an image. Without arguments, the text")
	fmt.Fprintln(w, "is read from stdin until EOF.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file, or - for stdout")
	fmt.Fprintln(w, "      --prompt-timeout <d>  How long to wait for stdin")
	fmt.Fprintln(w)
	printRenderUsage(w)
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2img serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve conversions over HTTP.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  POST /convert   markdown body (or JSON {\"markdown\": ...}) -> image")
	fmt.Fprintln(w, "  GET  /healthz   liveness probe")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server:")
	fmt.Fprintln(w, "      --addr <addr>         Listen address")
	fmt.Fprintln(w, "  -w, --workers <n>         Browser pool size (0 = auto)")
	fmt.Fprintln(w, "      --max-body <n>        Request body limit in bytes")
	fmt.Fprintln(w)
	printRenderUsage(w)
}

// printWatchUsage prints usage for the watch command.
func printWatchUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2img watch <file.md> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render a markdown file, then render it again on every save.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file or directory")
	fmt.Fprintln(w, "      --debounce <d>        Quiet period before re-rendering")
	fmt.Fprintln(w)
	printRenderUsage(w)
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2img doctor [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check system configuration for image rendering.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --json                Output in JSON format")
	fmt.Fprintln(w)
	printCommonUsage(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Exit codes: 0 = ready (warnings allowed), 1 = errors found.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "text":
		printTextUsage(env.Stdout)
	case "serve":
		printServeUsage(env.Stdout)
	case "watch":
		printWatchUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "themes":
		fmt.Fprintln(env.Stdout, "Usage: md2img themes")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "List theme presets and embedded styles.")
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: md2img version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: md2img help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
