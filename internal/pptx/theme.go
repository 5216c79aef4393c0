package pptx

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrThemeNotFound reports an unknown theme name.
var ErrThemeNotFound = errors.New("theme not found")

// Theme holds the color palette applied to the deck. Colors are RRGGBB hex
// without the leading hash.
type Theme struct {
	Name    string
	Heading string // slide titles
	Accent  string // hyperlinks, section accents
	Text    string // body text
}

// DefaultThemeName is used when no theme is configured.
const DefaultThemeName = "finance"

// Built-in themes. "finance" mirrors the book's navy/orange styling.
var themes = map[string]Theme{
	"finance": {Name: "finance", Heading: "003366", Accent: "FF6B35", Text: "000000"},
	"plain":   {Name: "plain", Heading: "1F1F1F", Accent: "0563C1", Text: "000000"},
	"slate":   {Name: "slate", Heading: "2F4858", Accent: "33658A", Text: "1A1A1A"},
}

// LookupTheme resolves a theme by name, case-insensitively. An empty name
// resolves to the default theme.
func LookupTheme(name string) (Theme, error) {
	if name == "" {
		name = DefaultThemeName
	}
	t, ok := themes[strings.ToLower(name)]
	if !ok {
		return Theme{}, fmt.Errorf("%w: %q (available: %s)", ErrThemeNotFound, name, strings.Join(ThemeNames(), ", "))
	}
	return t, nil
}

// ThemeNames lists the built-in theme names, sorted.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for n := range themes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
