package md2img

import (
	"slices"
	"strings"

	"github.com/alnah/go-md2img/internal/pipeline"
)

// Page colour modes.
const (
	PageLight = "light"
	PageDark  = "dark"
)

// DefaultPresetName is used when no preset or an unknown preset is selected.
const DefaultPresetName = "github-light"

// Theme is the concrete styling applied to a document.
type Theme struct {
	Page    string // PageLight or PageDark
	Code    string // chroma style for highlighted code
	Diagram string // mermaid theme
}

var presets = map[string]Theme{
	"github-light":    {Page: PageLight, Code: "github", Diagram: "default"},
	"github-dark":     {Page: PageDark, Code: "github-dark", Diagram: "dark"},
	"monokai":         {Page: PageDark, Code: "monokai", Diagram: "dark"},
	"dracula":         {Page: PageDark, Code: "dracula", Diagram: "dark"},
	"solarized-light": {Page: PageLight, Code: "solarized-light", Diagram: "neutral"},
	"forest":          {Page: PageLight, Code: "friendly", Diagram: "forest"},
}

// DefaultTheme returns the triple of DefaultPresetName.
func DefaultTheme() Theme {
	return presets[DefaultPresetName]
}

// PresetNames returns the catalog names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// LookupPreset returns the catalog entry for name.
func LookupPreset(name string) (Theme, bool) {
	t, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// ThemeSelection is either a preset name or a custom triple, never both.
// The zero value selects the default preset.
type ThemeSelection struct {
	preset string
	custom *Theme
}

// PresetTheme selects a theme from the catalog by name.
func PresetTheme(name string) ThemeSelection {
	return ThemeSelection{preset: name}
}

// CustomTheme selects an explicit triple.
func CustomTheme(t Theme) ThemeSelection {
	return ThemeSelection{custom: &t}
}

// IsCustom reports whether the selection holds a custom triple.
func (s ThemeSelection) IsCustom() bool {
	return s.custom != nil
}

// Preset returns the preset name, empty for custom selections.
func (s ThemeSelection) Preset() string {
	return s.preset
}

// ResolveTheme returns the triple for sel. It never fails: an unknown preset
// resolves to DefaultTheme. Custom triples get missing fields from the
// default, and a dark page always uses the dark diagram theme.
func ResolveTheme(sel ThemeSelection) Theme {
	if sel.custom == nil {
		if t, ok := LookupPreset(sel.preset); ok {
			return t
		}
		return DefaultTheme()
	}

	def := DefaultTheme()
	t := Theme{
		Page:    strings.ToLower(strings.TrimSpace(sel.custom.Page)),
		Code:    strings.TrimSpace(sel.custom.Code),
		Diagram: strings.TrimSpace(sel.custom.Diagram),
	}
	if t.Page != PageDark {
		t.Page = def.Page
	}
	if t.Code == "" {
		t.Code = def.Code
	}
	if t.Diagram == "" {
		t.Diagram = def.Diagram
	}
	if t.Page == PageDark {
		t.Diagram = "dark"
	}
	return t
}

func (t Theme) document() pipeline.DocumentTheme {
	return pipeline.DocumentTheme{Page: t.Page, Code: t.Code, Diagram: t.Diagram}
}
