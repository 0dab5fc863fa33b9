package main

import (
	"fmt"
	"text/tabwriter"

	md2img "github.com/alnah/go-md2img"
)

// runThemes lists the theme presets and the embedded stylesheets.
func runThemes(env *Environment) error {
	tw := tabwriter.NewWriter(env.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRESET\tPAGE\tCODE\tDIAGRAM")
	for _, name := range md2img.PresetNames() {
		theme, _ := md2img.LookupPreset(name)
		if name == md2img.DefaultPresetName {
			name += " (default)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, theme.Page, theme.Code, theme.Diagram)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	styles := md2img.StyleNames()
	if len(styles) == 0 {
		return nil
	}
	fmt.Fprintln(env.Stdout)
	fmt.Fprintln(env.Stdout, "Embedded styles (for --css or theme.css):")
	for _, s := range styles {
		fmt.Fprintf(env.Stdout, "  %s\n", s)
	}
	return nil
}
