package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Theme bundles the styles used by the chat view. Palettes are adaptive so
// both light and dark terminals stay readable.
type Theme struct {
	Name string

	TextPrimary lipgloss.AdaptiveColor
	TextMuted   lipgloss.AdaptiveColor
	Accent      lipgloss.AdaptiveColor
	Success     lipgloss.AdaptiveColor
	Error       lipgloss.AdaptiveColor
	Border      lipgloss.AdaptiveColor

	TopBar      lipgloss.Style
	TopBarTitle lipgloss.Style
	TopBarMeta  lipgloss.Style
	StatusUp    lipgloss.Style
	StatusDown  lipgloss.Style
	StatusWait  lipgloss.Style

	Pane     lipgloss.Style
	InputBox lipgloss.Style
	Footer   lipgloss.Style
	Spinner  lipgloss.Style

	RoleYou lipgloss.Style
	RoleAI  lipgloss.Style
	RoleSys lipgloss.Style

	Body lipgloss.Style
}

// NewTheme selects a palette by name. Unknown names fall back to the dark
// palette; FILEVIEW_NO_COLOR=1 strips color entirely.
func NewTheme(name string) Theme {
	if os.Getenv("FILEVIEW_NO_COLOR") == "1" {
		return newMonoTheme()
	}
	switch name {
	case "light":
		return newLightTheme()
	default:
		return newDarkTheme()
	}
}

func newDarkTheme() Theme {
	t := Theme{
		Name:        "dark",
		TextPrimary: lipgloss.AdaptiveColor{Light: "#1d2433", Dark: "#f2f2f2"},
		TextMuted:   lipgloss.AdaptiveColor{Light: "#4a5568", Dark: "#9aa0a6"},
		Accent:      lipgloss.AdaptiveColor{Light: "#1f6feb", Dark: "#7aa2ff"},
		Success:     lipgloss.AdaptiveColor{Light: "#0f766e", Dark: "#46d1b7"},
		Error:       lipgloss.AdaptiveColor{Light: "#b42318", Dark: "#ff7a7a"},
		Border:      lipgloss.AdaptiveColor{Light: "#cbd5e0", Dark: "#3a3a3a"},
	}
	return t.build()
}

func newLightTheme() Theme {
	t := Theme{
		Name:        "light",
		TextPrimary: lipgloss.AdaptiveColor{Light: "#111827", Dark: "#eaeaea"},
		TextMuted:   lipgloss.AdaptiveColor{Light: "#374151", Dark: "#b7b7b7"},
		Accent:      lipgloss.AdaptiveColor{Light: "#2563eb", Dark: "#5cc8ff"},
		Success:     lipgloss.AdaptiveColor{Light: "#059669", Dark: "#46d1b7"},
		Error:       lipgloss.AdaptiveColor{Light: "#dc2626", Dark: "#ff7a7a"},
		Border:      lipgloss.AdaptiveColor{Light: "#9ca3af", Dark: "#2a2a2a"},
	}
	return t.build()
}

func newMonoTheme() Theme {
	t := Theme{
		Name:        "mono",
		TextPrimary: lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"},
		TextMuted:   lipgloss.AdaptiveColor{Light: "#333333", Dark: "#dddddd"},
		Accent:      lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"},
		Success:     lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"},
		Error:       lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"},
		Border:      lipgloss.AdaptiveColor{Light: "#555555", Dark: "#777777"},
	}
	return t.build()
}

func (t Theme) build() Theme {
	t.TopBar = lipgloss.NewStyle().Foreground(t.TextMuted)
	t.TopBarTitle = lipgloss.NewStyle().Bold(true).Foreground(t.TextPrimary)
	t.TopBarMeta = lipgloss.NewStyle().Foreground(t.TextMuted)
	t.StatusUp = lipgloss.NewStyle().Bold(true).Foreground(t.Success)
	t.StatusDown = lipgloss.NewStyle().Bold(true).Foreground(t.Error)
	t.StatusWait = lipgloss.NewStyle().Foreground(t.TextMuted)

	t.Pane = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(t.Border).Padding(0, 1)
	t.InputBox = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(t.Border).Padding(0, 1)
	t.Footer = lipgloss.NewStyle().Foreground(t.TextMuted)
	t.Spinner = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)

	t.RoleYou = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	t.RoleAI = lipgloss.NewStyle().Bold(true).Foreground(t.TextPrimary)
	t.RoleSys = lipgloss.NewStyle().Foreground(t.TextMuted)

	t.Body = lipgloss.NewStyle().Foreground(t.TextPrimary)
	return t
}
