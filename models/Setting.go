package models

import "strings"

// Setting is a single user preference.
type Setting struct {
	Key   string `gorm:"primaryKey;type:varchar(64)" json:"key"`
	Value string `gorm:"type:text" json:"value"`
}

// Preference keys.
const (
	SettingCurrency   = "currency"
	SettingDropsPerMl = "dropsPerMl"
	SettingTheme      = "theme"
	SettingWheel      = "wheel"
)

const (
	// ThemeLight is the default bright interface palette.
	ThemeLight = "light"
	// ThemeDark is the low-light palette.
	ThemeDark = "dark"
	// DefaultTheme is applied when no explicit theme is stored.
	DefaultTheme = ThemeLight
)

var validThemes = map[string]struct{}{
	ThemeLight: {},
	ThemeDark:  {},
}

// ValidTheme reports whether the supplied theme is supported.
func ValidTheme(theme string) bool {
	_, ok := validThemes[strings.TrimSpace(theme)]
	return ok
}

// NormalizeTheme returns a supported theme value or the default when invalid.
func NormalizeTheme(theme string) string {
	theme = strings.TrimSpace(theme)
	if ValidTheme(theme) {
		return theme
	}
	return DefaultTheme
}
