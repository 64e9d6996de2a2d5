package chat

import (
	"hash/fnv"

	"github.com/charmbracelet/lipgloss"

	"github.com/nebulachat/nebula/internal/config"
)

var authorPalette = []lipgloss.Color{
	lipgloss.Color("111"),
	lipgloss.Color("157"),
	lipgloss.Color("216"),
	lipgloss.Color("36"),
	lipgloss.Color("183"),
	lipgloss.Color("230"),
}

// theme is the set of colors a render pass draws from. Two palettes exist,
// matching the persisted theme preference.
type theme struct {
	name      string
	sentBg    lipgloss.Color
	meta      lipgloss.Color
	mention   lipgloss.Color
	reaction  lipgloss.Color
	online    lipgloss.Color
	offline   lipgloss.Color
	errorFg   lipgloss.Color
	accent    lipgloss.Color
	highlight lipgloss.Color
	system    lipgloss.Color
}

func themeFor(name string) theme {
	if name == config.ThemeLight {
		return theme{
			name:      config.ThemeLight,
			sentBg:    lipgloss.Color("153"),
			meta:      lipgloss.Color("243"),
			mention:   lipgloss.Color("27"),
			reaction:  lipgloss.Color("94"),
			online:    lipgloss.Color("28"),
			offline:   lipgloss.Color("250"),
			errorFg:   lipgloss.Color("124"),
			accent:    lipgloss.Color("25"),
			highlight: lipgloss.Color("229"),
			system:    lipgloss.Color("245"),
		}
	}
	return theme{
		name:      config.ThemeDark,
		sentBg:    lipgloss.Color("24"),
		meta:      lipgloss.Color("240"),
		mention:   lipgloss.Color("81"),
		reaction:  lipgloss.Color("221"),
		online:    lipgloss.Color("78"),
		offline:   lipgloss.Color("238"),
		errorFg:   lipgloss.Color("203"),
		accent:    lipgloss.Color("75"),
		highlight: lipgloss.Color("58"),
		system:    lipgloss.Color("244"),
	}
}

// colorForUser picks a stable palette color for an author name.
func colorForUser(username string) lipgloss.Color {
	h := fnv.New32a()
	h.Write([]byte(username))
	return authorPalette[int(h.Sum32())%len(authorPalette)]
}
