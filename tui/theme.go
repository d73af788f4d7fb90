package tui

import "github.com/gdamore/tcell/v2"

// Theme bundles the colors and tview color-tag strings used across tabs.
// Tag strings let TextView content mix colors inline without touching the
// widget's SetTextColor.
type Theme struct {
	Name string

	Text         tcell.Color
	TextDim      tcell.Color
	Border       tcell.Color
	Accent       tcell.Color
	Hotkey       tcell.Color
	SelectedText tcell.Color

	TagText    string
	TagTextDim string
	TagAccent  string
	TagHotkey  string
	TagError   string
	TagSuccess string
	TagReset   string
}

func buildTheme(name string, text, dim, border, accent, hotkey, selected tcell.Color) Theme {
	tag := func(c tcell.Color) string { return "[" + c.String() + "]" }
	return Theme{
		Name:         name,
		Text:         text,
		TextDim:      dim,
		Border:       border,
		Accent:       accent,
		Hotkey:       hotkey,
		SelectedText: selected,
		TagText:      tag(text),
		TagTextDim:   tag(dim),
		TagAccent:    tag(accent),
		TagHotkey:    tag(hotkey),
		TagError:     "[red]",
		TagSuccess:   "[green]",
		TagReset:     "[-]",
	}
}

var themes = []Theme{
	buildTheme("dark", tcell.ColorWhite, tcell.ColorGray, tcell.ColorBlue, tcell.ColorYellow, tcell.ColorAqua, tcell.ColorBlack),
	buildTheme("highcontrast", tcell.ColorWhite, tcell.ColorSilver, tcell.ColorWhite, tcell.ColorFuchsia, tcell.ColorYellow, tcell.ColorBlack),
}

var themeIndex = 0

// CurrentTheme is the active color scheme; tabs read it directly rather
// than caching copies, so a theme switch takes effect on the next redraw.
var CurrentTheme = themes[0]

// SetTheme activates the named theme, leaving the current one in place if
// the name isn't recognized.
func SetTheme(name string) {
	for i, t := range themes {
		if t.Name == name {
			themeIndex = i
			CurrentTheme = themes[i]
			return
		}
	}
}

// NextTheme cycles to the next theme and returns its name.
func NextTheme() string {
	themeIndex = (themeIndex + 1) % len(themes)
	CurrentTheme = themes[themeIndex]
	return CurrentTheme.Name
}

// GetThemeName returns the active theme's name.
func GetThemeName() string { return CurrentTheme.Name }
