package ui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/renato0307/kboard/internal/status"
)

// palette is the set of colors a theme is derived from
type palette struct {
	Primary    lipgloss.AdaptiveColor
	Secondary  lipgloss.AdaptiveColor
	Accent     lipgloss.AdaptiveColor
	Foreground lipgloss.AdaptiveColor
	Muted      lipgloss.AdaptiveColor
	Error      lipgloss.AdaptiveColor
	Success    lipgloss.AdaptiveColor
	Warning    lipgloss.AdaptiveColor
	Border     lipgloss.AdaptiveColor
	Background lipgloss.AdaptiveColor
}

// Theme holds the styles used by the dashboard
type Theme struct {
	Name string
	palette

	Table     TableStyles
	AppTitle  lipgloss.Style
	Header    lipgloss.Style
	StatusBar lipgloss.Style
	Message   MessageStyles
	Tab       lipgloss.Style
	ActiveTab lipgloss.Style
}

// TableStyles defines styles for table components
type TableStyles struct {
	Header      lipgloss.Style
	Cell        lipgloss.Style
	SelectedRow lipgloss.Style
}

// MessageStyles colors the one-line message area
type MessageStyles struct {
	Info    lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Loading lipgloss.Style
}

// ToTableStyles converts Theme.Table to bubbles table.Styles
func (t *Theme) ToTableStyles() table.Styles {
	return table.Styles{
		Header:   t.Table.Header,
		Cell:     t.Table.Cell,
		Selected: t.Table.SelectedRow,
	}
}

// StatusStyle colors a status label by its severity
func (t *Theme) StatusStyle(s status.Status) lipgloss.Style {
	switch s.Severity() {
	case status.SeverityOK:
		return lipgloss.NewStyle().Foreground(t.Success)
	case status.SeverityWarning:
		return lipgloss.NewStyle().Foreground(t.Warning)
	case status.SeverityError:
		return lipgloss.NewStyle().Foreground(t.Error)
	default:
		return lipgloss.NewStyle().Foreground(t.Muted)
	}
}

func newTheme(name string, p palette) *Theme {
	t := &Theme{Name: name, palette: p}

	t.Table.Header = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(p.Border).
		BorderBottom(true).
		Foreground(p.Foreground).
		Bold(true).
		PaddingLeft(1).
		PaddingRight(1)
	t.Table.Cell = lipgloss.NewStyle().
		PaddingLeft(1).
		PaddingRight(1)
	t.Table.SelectedRow = lipgloss.NewStyle().
		Foreground(p.Background).
		Background(p.Primary)

	t.AppTitle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Background(p.Background).
		Bold(true).
		Padding(0, 1)
	t.Header = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	t.StatusBar = lipgloss.NewStyle().Foreground(p.Muted)

	t.Message = MessageStyles{
		Info:    lipgloss.NewStyle().Foreground(p.Secondary),
		Success: lipgloss.NewStyle().Foreground(p.Success),
		Error:   lipgloss.NewStyle().Foreground(p.Error),
		Loading: lipgloss.NewStyle().Foreground(p.Accent),
	}

	t.Tab = lipgloss.NewStyle().Foreground(p.Muted).Padding(0, 1)
	t.ActiveTab = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true).
		Underline(true).
		Padding(0, 1)

	return t
}

func color(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func same(hex string) lipgloss.AdaptiveColor {
	return color(hex, hex)
}

var palettes = map[string]palette{
	"charm": {
		Primary:    color("#5A56E0", "#7571F9"),
		Secondary:  color("#02BA84", "#02BF87"),
		Accent:     same("#F780E2"),
		Foreground: color("235", "252"),
		Muted:      same("243"),
		Error:      color("#FF4672", "#ED567A"),
		Success:    color("#02BA84", "#02BF87"),
		Warning:    same("#FFAA00"),
		Border:     same("240"),
		Background: color("254", "235"),
	},
	"dracula": {
		Primary:    same("#bd93f9"),
		Secondary:  same("#8be9fd"),
		Accent:     same("#ff79c6"),
		Foreground: color("#282a36", "#f8f8f2"),
		Muted:      same("#6272a4"),
		Error:      same("#ff5555"),
		Success:    same("#50fa7b"),
		Warning:    same("#f1fa8c"),
		Border:     same("61"),
		Background: color("#f8f8f2", "#282a36"),
	},
	"catppuccin": {
		Primary:    color("#8839ef", "#cba6f7"),
		Secondary:  color("#179299", "#89dceb"),
		Accent:     color("#ea76cb", "#f5c2e7"),
		Foreground: color("#4c4f69", "#cdd6f4"),
		Muted:      color("#9ca0b0", "#7f849c"),
		Error:      color("#d20f39", "#f38ba8"),
		Success:    color("#40a02b", "#a6e3a1"),
		Warning:    color("#df8e1d", "#f9e2af"),
		Border:     color("#9ca0b0", "#45475a"),
		Background: color("#eff1f5", "#1e1e2e"),
	},
	"nord": {
		Primary:    color("#5e81ac", "#88c0d0"),
		Secondary:  same("#81a1c1"),
		Accent:     same("#b48ead"),
		Foreground: color("#2e3440", "#eceff4"),
		Muted:      same("#4c566a"),
		Error:      same("#bf616a"),
		Success:    same("#a3be8c"),
		Warning:    same("#ebcb8b"),
		Border:     color("#d8dee9", "#3b4252"),
		Background: color("#eceff4", "#2e3440"),
	},
	"gruvbox": {
		Primary:    color("#af3a03", "#fe8019"),
		Secondary:  color("#79740e", "#b8bb26"),
		Accent:     color("#b16286", "#d3869b"),
		Foreground: color("#3c3836", "#ebdbb2"),
		Muted:      color("#7c6f64", "#928374"),
		Error:      color("#9d0006", "#fb4934"),
		Success:    color("#79740e", "#b8bb26"),
		Warning:    color("#b57614", "#fabd2f"),
		Border:     color("#d5c4a1", "#504945"),
		Background: color("#fbf1c7", "#282828"),
	},
	"tokyo-night": {
		Primary:    same("#7aa2f7"),
		Secondary:  same("#2ac3de"),
		Accent:     same("#bb9af7"),
		Foreground: color("#1a1b26", "#c0caf5"),
		Muted:      same("#565f89"),
		Error:      same("#f7768e"),
		Success:    same("#9ece6a"),
		Warning:    same("#e0af68"),
		Border:     color("#a9b1d6", "#292e42"),
		Background: color("#d5d6db", "#1a1b26"),
	},
	"solarized": {
		Primary:    same("#268bd2"),
		Secondary:  same("#2aa198"),
		Accent:     same("#6c71c4"),
		Foreground: color("#002b36", "#839496"),
		Muted:      same("#586e75"),
		Error:      same("#dc322f"),
		Success:    same("#859900"),
		Warning:    same("#cb4b16"),
		Border:     color("#93a1a1", "#073642"),
		Background: color("#fdf6e3", "#002b36"),
	},
	"monokai": {
		Primary:    same("#66d9ef"),
		Secondary:  same("#a6e22e"),
		Accent:     same("#ae81ff"),
		Foreground: color("#272822", "#f8f8f2"),
		Muted:      same("#75715e"),
		Error:      same("#f92672"),
		Success:    same("#a6e22e"),
		Warning:    same("#e6db74"),
		Border:     same("#464741"),
		Background: color("#f8f8f2", "#272822"),
	},
}

// DefaultTheme is used for unknown theme names
const DefaultTheme = "charm"

// GetTheme returns a theme by name, defaulting to charm
func GetTheme(name string) *Theme {
	p, ok := palettes[name]
	if !ok {
		name = DefaultTheme
		p = palettes[DefaultTheme]
	}
	return newTheme(name, p)
}

// AvailableThemes returns the theme names in display order
func AvailableThemes() []string {
	return []string{"charm", "dracula", "catppuccin", "nord", "gruvbox", "tokyo-night", "solarized", "monokai"}
}
