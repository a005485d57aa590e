package domain

import (
	"strconv"
	"strings"
)

// Theme selects the light or dark palette.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme accepts "light"/"dark" as well as the persisted darkMode flag values.
func ParseTheme(raw string) (Theme, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch raw {
	case string(ThemeLight):
		return ThemeLight, nil
	case string(ThemeDark):
		return ThemeDark, nil
	}
	dark, err := strconv.ParseBool(raw)
	if err != nil {
		return "", ErrInvalidTheme
	}
	return ThemeFromDarkMode(dark), nil
}

// ThemeFromDarkMode maps the darkMode flag to a theme.
func ThemeFromDarkMode(dark bool) Theme {
	if dark {
		return ThemeDark
	}
	return ThemeLight
}

// Dark reports whether t is the dark theme.
func (t Theme) Dark() bool {
	return t == ThemeDark
}

// Toggle returns the opposite theme.
func (t Theme) Toggle() Theme {
	if t.Dark() {
		return ThemeLight
	}
	return ThemeDark
}
