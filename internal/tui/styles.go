package tui

import "github.com/charmbracelet/lipgloss"

var (
	rose    = lipgloss.Color("#F472B6")
	amber   = lipgloss.Color("#FCD34D")
	sky     = lipgloss.Color("#3B82F6")
	emerald = lipgloss.Color("#10B981")
	violet  = lipgloss.Color("#8B5CF6")
	slate   = lipgloss.Color("#64748B")
	red     = lipgloss.Color("#F38BA8")
)

// confettiColors is the particle palette.
var confettiColors = []lipgloss.Color{rose, amber, sky, emerald, violet}

// Styles groups the lipgloss styles used by the party view.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Flame    lipgloss.Style
	Wick     lipgloss.Style
	Smoke    lipgloss.Style
	Cake     lipgloss.Style
	Progress lipgloss.Style
	Mic      lipgloss.Style
	MicError lipgloss.Style
	Muted    lipgloss.Style
	Flower   lipgloss.Style
	Overlay  lipgloss.Style
	Quote    lipgloss.Style
}

// DefaultStyles returns the party palette.
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(rose),
		Subtitle: lipgloss.NewStyle().Foreground(slate),
		Flame:    lipgloss.NewStyle().Bold(true).Foreground(amber),
		Wick:     lipgloss.NewStyle().Foreground(rose),
		Smoke:    lipgloss.NewStyle().Foreground(slate),
		Cake:     lipgloss.NewStyle().Foreground(violet),
		Progress: lipgloss.NewStyle().Bold(true),
		Mic:      lipgloss.NewStyle().Foreground(emerald),
		MicError: lipgloss.NewStyle().Foreground(red),
		Muted:    lipgloss.NewStyle().Foreground(slate),
		Flower:   lipgloss.NewStyle().Foreground(rose),
		Overlay: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(amber).
			Padding(1, 4).
			Align(lipgloss.Center),
		Quote: lipgloss.NewStyle().Italic(true).Foreground(slate),
	}
}
